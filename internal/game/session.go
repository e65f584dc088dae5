package game

import (
	"fmt"
	"log"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/block"
	"voxelstream/internal/config"
	"voxelstream/internal/graphics"
	"voxelstream/internal/graphics/glmesh"
	"voxelstream/internal/input"
	"voxelstream/internal/physics"
	"voxelstream/internal/profiling"
	"voxelstream/internal/render"
	"voxelstream/internal/world"
)

var skyColor = mgl32.Vec3{0.62, 0.76, 0.92}

// Session is one streamed world viewed through a fly camera.
type Session struct {
	cfg    config.Config
	window *glfw.Window

	Map       *world.Map
	Camera    *graphics.FlyCamera
	MeshStats *glmesh.Stats

	shader     *graphics.Shader
	atlasTiles float32
	distance   *config.RenderDistance
	placeBlock block.Factory

	Wireframe     bool
	ShowProfiling bool
	cursorFree    bool

	LastFrame render.Stats
}

// NewSession loads the block registry, creates the map with GL mesh sinks and
// compiles the chunk program. It needs a current GL context.
func NewSession(window *glfw.Window, cfg config.Config) (*Session, error) {
	reg := block.DefaultRegistry()
	if path := cfg.Generation.BlocksFile; path != "" {
		var err error
		if reg, err = block.LoadRegistry(path); err != nil {
			return nil, err
		}
	}

	place, ok := reg.Lookup(cfg.Generation.PlaceBlock)
	if !ok {
		return nil, fmt.Errorf("place block %q is not registered", cfg.Generation.PlaceBlock)
	}

	st := &glmesh.Stats{}
	m, err := world.NewMap(world.NewContext(cfg, reg, glmesh.Factory(st)))
	if err != nil {
		return nil, err
	}
	shader, err := graphics.LoadShader("chunk")
	if err != nil {
		m.Close()
		return nil, err
	}

	width, height := window.GetFramebufferSize()
	spawn := mgl32.Vec3{16, 140, 16}
	cam := graphics.NewFlyCamera(spawn, width, height, cfg.Render.FOV, cfg.Render.Near, cfg.Render.Far)

	s := &Session{
		cfg:        cfg,
		window:     window,
		Map:        m,
		Camera:     cam,
		MeshStats:  st,
		shader:     shader,
		atlasTiles: float32(reg.AtlasTiles()),
		distance:   config.NewRenderDistance(cfg.Render.MaxRenderDistance, 1, 2*cfg.Streaming.MinChunkDistanceToUnload),
		placeBlock: place,
	}
	s.captureCursor(true)
	return s, nil
}

func (s *Session) captureCursor(captured bool) {
	s.cursorFree = !captured
	if captured {
		s.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		s.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

// Update applies input, moves the camera and advances streaming. It reports
// whether the user asked to quit.
func (s *Session) Update(dt float64, im *input.Manager) bool {
	defer profiling.Track("game.Session.Update")()

	if im.JustPressed(input.ActionQuit) {
		return true
	}
	if im.JustPressed(input.ActionToggleCursor) {
		s.captureCursor(s.cursorFree)
		im.ResetCursor()
	}
	if im.JustPressed(input.ActionToggleWireframe) {
		s.Wireframe = !s.Wireframe
	}
	if im.JustPressed(input.ActionToggleProfiling) {
		s.ShowProfiling = !s.ShowProfiling
	}
	if im.JustPressed(input.ActionRenderDistanceUp) {
		s.setRenderDistance(s.distance.Adjust(1))
	}
	if im.JustPressed(input.ActionRenderDistanceDown) {
		s.setRenderDistance(s.distance.Adjust(-1))
	}

	if !s.cursorFree {
		s.Camera.Look(im.MouseDelta())
	}
	s.Camera.Move(
		im.Axis(input.ActionMoveForward, input.ActionMoveBackward),
		im.Axis(input.ActionMoveRight, input.ActionMoveLeft),
		im.Axis(input.ActionMoveUp, input.ActionMoveDown),
		im.IsActive(input.ActionBoost),
		dt,
	)

	if im.JustPressed(input.ActionBreak) || im.JustPressed(input.ActionPlace) {
		s.edit(im.JustPressed(input.ActionPlace))
	}

	s.Map.Update(s.Map.WorldToChunk(s.Camera.Position()), dt)
	return false
}

// edit removes the targeted block, or places one against the face the view
// ray entered through.
func (s *Session) edit(place bool) {
	hit := physics.Raycast(s.Camera.Position(), s.Camera.Front(), physics.MinReachDistance, physics.MaxReachDistance, s.Map)
	if !hit.Hit {
		return
	}
	var err error
	if place {
		err = s.Map.PlaceBlockAt(hit.AdjacentPosition, s.placeBlock, true)
	} else {
		_, err = s.Map.RemoveBlockAt(hit.HitPosition, true)
	}
	if err != nil {
		log.Printf("edit: %v", err)
	}
}

func (s *Session) setRenderDistance(d int) {
	s.Map.SetRenderDistance(d)
	if s.cfg.Log.Verbose {
		log.Printf("render distance %d", d)
	}
}

// Render clears the frame and draws every visible chunk.
func (s *Session) Render(dt float64) {
	defer profiling.Track("game.Session.Render")()

	width, height := s.window.GetFramebufferSize()
	s.Camera.SetViewport(width, height)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(skyColor.X(), skyColor.Y(), skyColor.Z(), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	if s.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	s.shader.Use()
	s.shader.SetMat4("viewProj", s.Camera.ViewProjection())
	s.shader.SetVec3("cameraPos", s.Camera.Position())
	s.shader.SetVec3("fogColor", skyColor)
	s.shader.SetFloat("fogEnd", float32((s.distance.Get()+1)*32))
	s.shader.SetFloat("atlasTiles", s.atlasTiles)
	s.shader.SetBool("wireframe", s.Wireframe)

	s.LastFrame = s.Map.Draw(s.Camera, dt)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

// Status is a one-line summary for the window title.
func (s *Session) Status(fps float64) string {
	st := s.Map.Stats()
	p := s.Camera.Position()
	return fmt.Sprintf("%s | %.0f fps | pos %.0f,%.0f,%.0f | chunks %d (+%d in flight, %d missing) | drawn %d culled %d | rd %d | vao %d",
		s.cfg.Window.Title, fps, p.X(), p.Y(), p.Z(),
		st.Loaded, st.InFlight, st.Missing, s.LastFrame.Drawn, s.LastFrame.Culled,
		s.Map.RenderDistance(), s.MeshStats.Live.Load())
}

// Cleanup waits for background generation and frees every GL object.
func (s *Session) Cleanup() {
	s.Map.Close()
	s.shader.Delete()
}
