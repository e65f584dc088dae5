package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical viewer action, independent of the physical key.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionBoost
	ActionRenderDistanceUp
	ActionRenderDistanceDown
	ActionToggleWireframe
	ActionToggleProfiling
	ActionToggleCursor
	ActionQuit
	ActionBreak
	ActionPlace
	ActionCount
)

var actionNames = [ActionCount]string{
	"move_forward", "move_backward", "move_left", "move_right", "move_up", "move_down",
	"boost", "render_distance_up", "render_distance_down",
	"toggle_wireframe", "toggle_profiling", "toggle_cursor", "quit",
	"break", "place",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "unknown"
	}
	return actionNames[a]
}

// Manager maps keys to actions and tracks held state, per-frame edges and
// accumulated mouse movement. GLFW callbacks write to it; the frame loop reads.
type Manager struct {
	mu sync.RWMutex

	keyToActions         map[glfw.Key][]Action
	mouseButtonToActions map[glfw.MouseButton][]Action

	current      [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	haveCursor     bool
	lastX, lastY   float64
	deltaX, deltaY float64
}

// NewManager creates a manager with the default WASD fly bindings.
func NewManager() *Manager {
	m := &Manager{
		keyToActions:         make(map[glfw.Key][]Action),
		mouseButtonToActions: make(map[glfw.MouseButton][]Action),
	}

	m.BindKey(glfw.KeyW, ActionMoveForward)
	m.BindKey(glfw.KeyS, ActionMoveBackward)
	m.BindKey(glfw.KeyA, ActionMoveLeft)
	m.BindKey(glfw.KeyD, ActionMoveRight)
	m.BindKey(glfw.KeySpace, ActionMoveUp)
	m.BindKey(glfw.KeyLeftShift, ActionMoveDown)
	m.BindKey(glfw.KeyLeftControl, ActionBoost)
	m.BindKey(glfw.KeyEqual, ActionRenderDistanceUp)
	m.BindKey(glfw.KeyKPAdd, ActionRenderDistanceUp)
	m.BindKey(glfw.KeyMinus, ActionRenderDistanceDown)
	m.BindKey(glfw.KeyKPSubtract, ActionRenderDistanceDown)
	m.BindKey(glfw.KeyF, ActionToggleWireframe)
	m.BindKey(glfw.KeyV, ActionToggleProfiling)
	m.BindKey(glfw.KeyTab, ActionToggleCursor)
	m.BindKey(glfw.KeyEscape, ActionQuit)
	m.BindMouseButton(glfw.MouseButtonLeft, ActionBreak)
	m.BindMouseButton(glfw.MouseButtonRight, ActionPlace)
	return m
}

// BindKey adds a binding. A key may drive several actions and an action may
// have several keys.
func (m *Manager) BindKey(key glfw.Key, a Action) {
	if a < 0 || a >= ActionCount {
		return
	}
	m.mu.Lock()
	m.keyToActions[key] = append(m.keyToActions[key], a)
	m.mu.Unlock()
}

// UnbindKey removes every action bound to key.
func (m *Manager) UnbindKey(key glfw.Key) {
	m.mu.Lock()
	delete(m.keyToActions, key)
	m.mu.Unlock()
}

// BindMouseButton adds a mouse button binding.
func (m *Manager) BindMouseButton(button glfw.MouseButton, a Action) {
	if a < 0 || a >= ActionCount {
		return
	}
	m.mu.Lock()
	m.mouseButtonToActions[button] = append(m.mouseButtonToActions[button], a)
	m.mu.Unlock()
}

// HandleKeyEvent updates the state of every action bound to key.
func (m *Manager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(m.keyToActions[key], action == glfw.Press || action == glfw.Repeat)
}

// HandleMouseButtonEvent updates the state of every action bound to button.
func (m *Manager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(m.mouseButtonToActions[button], action == glfw.Press)
}

// set records edges and the held state. m.mu must be held.
func (m *Manager) set(actions []Action, pressed bool) {
	for _, a := range actions {
		if pressed && !m.current[a] {
			m.justPressed[a] = true
		}
		if !pressed && m.current[a] {
			m.justReleased[a] = true
		}
		m.current[a] = pressed
	}
}

// HandleCursorPos accumulates mouse movement since the last PostUpdate. The
// first sample only sets the reference point.
func (m *Manager) HandleCursorPos(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.haveCursor {
		m.deltaX += x - m.lastX
		m.deltaY += y - m.lastY
	}
	m.lastX, m.lastY = x, y
	m.haveCursor = true
}

// ResetCursor forgets the reference point, e.g. after the cursor was
// recaptured, so the next sample does not produce a jump.
func (m *Manager) ResetCursor() {
	m.mu.Lock()
	m.haveCursor = false
	m.deltaX, m.deltaY = 0, 0
	m.mu.Unlock()
}

// Attach installs the key, mouse button and cursor callbacks on a window.
func (m *Manager) Attach(w *glfw.Window) {
	w.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		m.HandleKeyEvent(key, action)
	})
	w.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		m.HandleMouseButtonEvent(button, action)
	})
	w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		m.HandleCursorPos(x, y)
	})
}

// PostUpdate ends a frame: it clears the edge flags and the mouse delta.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.justPressed = [ActionCount]bool{}
	m.justReleased = [ActionCount]bool{}
	m.deltaX, m.deltaY = 0, 0
}

// IsActive reports whether a is held.
func (m *Manager) IsActive(a Action) bool {
	if a < 0 || a >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current[a]
}

// JustPressed reports whether a went down during the current frame.
func (m *Manager) JustPressed(a Action) bool {
	if a < 0 || a >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justPressed[a]
}

func (m *Manager) JustReleased(a Action) bool {
	if a < 0 || a >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justReleased[a]
}

// MouseDelta returns the cursor movement of the current frame.
func (m *Manager) MouseDelta() (dx, dy float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deltaX, m.deltaY
}

// Axis returns +1, -1 or 0 from a pair of opposing actions.
func (m *Manager) Axis(positive, negative Action) float32 {
	var v float32
	if m.IsActive(positive) {
		v++
	}
	if m.IsActive(negative) {
		v--
	}
	return v
}
