package main

import (
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"
	"go.uber.org/atomic"

	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/input"
)

var (
	configPath = flag.String("config", "", "YAML config file, defaults are used when empty")
	seed       = flag.Uint("seed", 0, "world seed, overrides the config when non-zero")
	verbose    = flag.Bool("v", false, "log streaming events")
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			color.Red("config: %v", err)
			os.Exit(1)
		}
	}
	if *seed != 0 {
		cfg.Generation.Seed = uint32(*seed)
	}
	if *verbose {
		cfg.Log.Verbose = true
	}

	if err := glfw.Init(); err != nil {
		log.Fatalln("glfw:", err)
	}
	window, err := setupWindow(cfg.Window)
	if err != nil {
		glfw.Terminate()
		log.Fatalln("window:", err)
	}
	color.Cyan("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	im := input.NewManager()
	im.Attach(window)

	app, err := game.NewApp(window, im, cfg)
	if err != nil {
		glfw.Terminate()
		log.Fatalln("session:", err)
	}

	// The signal handler runs on another goroutine, so it only reports what
	// the main loop published; GL objects go away with the process.
	var loaded, evicted atomic.Int64
	closer.Bind(func() {
		color.Green("%d chunks loaded, %d evicted", loaded.Load(), evicted.Load())
	})

	app.OnTick = func(s *game.Session) {
		st := s.Map.Stats()
		loaded.Store(int64(st.Loaded))
		evicted.Store(st.Evicted)
	}
	app.Run()

	app.Close()
	glfw.Terminate()
	closer.Close()
}
