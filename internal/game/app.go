package game

import (
	"log"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"voxelstream/internal/config"
	"voxelstream/internal/input"
	"voxelstream/internal/profiling"
)

// slowFrame is the frame time above which the slowest sections get logged.
const slowFrame = 50 * time.Millisecond

// App drives the window loop around a Session.
type App struct {
	window  *glfw.Window
	input   *input.Manager
	cfg     config.Config
	session *Session

	fpsLimiter *FPSLimiter
	lastTime   time.Time

	// OnTick, when set, runs after every frame.
	OnTick func(*Session)

	ticks      int
	frames     int
	titleTimer float64
	fps        float64
}

// NewApp creates the session for an already initialized window.
func NewApp(window *glfw.Window, im *input.Manager, cfg config.Config) (*App, error) {
	session, err := NewSession(window, cfg)
	if err != nil {
		return nil, err
	}
	return &App{
		window:     window,
		input:      im,
		cfg:        cfg,
		session:    session,
		fpsLimiter: NewFPSLimiter(),
		lastTime:   time.Now(),
	}, nil
}

func (a *App) Session() *Session { return a.session }

// Run ticks until the window is closed or the user quits.
func (a *App) Run() {
	for !a.window.ShouldClose() {
		a.tick()
		if a.OnTick != nil {
			a.OnTick(a.session)
		}
	}
}

func (a *App) tick() {
	profiling.ResetFrame()
	start := time.Now()
	dt := start.Sub(a.lastTime).Seconds()
	a.lastTime = start

	glfw.PollEvents()

	if a.session.Update(dt, a.input) {
		a.window.SetShouldClose(true)
	}
	a.session.Render(dt)
	a.window.SwapBuffers()

	if took := time.Since(start); took > slowFrame {
		log.Printf("slow frame: %v, top: %s", took, profiling.TopN(5))
	} else if a.session.ShowProfiling && a.ticks%60 == 0 {
		log.Printf("frame %d: %s", a.ticks, profiling.TopN(5))
	}
	a.ticks++

	a.updateTitle(dt)
	a.input.PostUpdate()

	limit := a.cfg.Window.FPSLimit
	if a.cfg.Window.VSync {
		limit = 0
	}
	a.fpsLimiter.Wait(limit)
}

func (a *App) updateTitle(dt float64) {
	a.frames++
	a.titleTimer += dt
	if a.titleTimer < 0.5 {
		return
	}
	a.fps = float64(a.frames) / a.titleTimer
	a.frames = 0
	a.titleTimer = 0
	a.window.SetTitle(a.session.Status(a.fps))
}

// Close ends the session.
func (a *App) Close() {
	if a.session != nil {
		a.session.Cleanup()
		a.session = nil
	}
}
