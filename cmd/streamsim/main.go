// Command streamsim flies a camera through a generated world without a window
// and reports streaming and draw statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
	"go.uber.org/atomic"

	"voxelstream/internal/block"
	"voxelstream/internal/config"
	"voxelstream/internal/geom"
	"voxelstream/internal/physics"
	"voxelstream/internal/profiling"
	"voxelstream/internal/render"
	"voxelstream/internal/storage"
	"voxelstream/internal/world"
)

var (
	configPath = flag.String("config", "", "YAML config file, defaults are used when empty")
	ticks      = flag.Int("ticks", 600, "number of ticks to simulate")
	dt         = flag.Float64("dt", 1.0/30, "seconds per tick")
	speed      = flag.Float64("speed", 40, "camera speed in blocks per second")
	height     = flag.Float64("height", 24, "camera height above the ground at the start, in blocks")
	fast       = flag.Bool("fast", false, "do not sleep between ticks")
	every      = flag.Int("report", 60, "print a status line every n ticks")
	verbose    = flag.Bool("v", false, "log streaming events")
)

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
	cfg.Log.Verbose = cfg.Log.Verbose || *verbose

	reg := block.DefaultRegistry()
	if path := cfg.Generation.BlocksFile; path != "" {
		var err error
		if reg, err = block.LoadRegistry(path); err != nil {
			color.Red("blocks: %v", err)
			os.Exit(1)
		}
	}

	sink := &render.CountingSink{}
	m, err := world.NewMap(world.NewContext(cfg, reg, render.CountingSinks(sink)))
	if err != nil {
		color.Red("world: %v", err)
		os.Exit(1)
	}

	var tick, loaded atomic.Int64
	closer.Bind(func() {
		color.Yellow("stopped after %d ticks with %d chunks loaded", tick.Load(), loaded.Load())
	})

	start := time.Now()
	pos := mgl32.Vec3{16, float32(groundLevel(m, cfg) + *height), 16}
	dir := mgl32.Vec3{1, 0, 0.25}.Normalize()
	var frame render.Stats
	for i := 0; i < *ticks; i++ {
		profiling.ResetFrame()
		pos = pos.Add(dir.Mul(float32(*speed * *dt)))
		cam := render.LookAtCamera(pos, pos.Add(dir), cfg.Render.FOV, 16.0/9, cfg.Render.Near, cfg.Render.Far)

		m.Update(m.WorldToChunk(pos), *dt)
		frame = m.Draw(cam, *dt)

		tick.Store(int64(i + 1))
		loaded.Store(int64(m.Len()))
		if *every > 0 && i%*every == 0 {
			report(i, pos, m.Stats(), frame)
		}
		if !*fast {
			time.Sleep(time.Duration(*dt * float64(time.Second)))
		}
	}
	m.Close()

	st := m.Stats()
	color.Green("done: %d ticks in %v", *ticks, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  batches %d (last %s), integrated %d, evicted %d\n", st.BatchesSubmitted, st.LastBatchID, st.Integrated, st.Evicted)
	fmt.Printf("  mesh uploads %d, draws %d, releases %d\n", sink.Uploads.Load(), sink.Draws.Load(), sink.Releases.Load())
	fmt.Printf("  pool allocated %d, reused %d, released %d\n", st.Pool.Allocated, st.Pool.Reused, st.Pool.Released)
	fmt.Printf("  worm cache %d, average update %v\n", st.WormCache, profiling.Average("world.Map.Update"))
	closer.Close()
}

// groundLevel generates the start column synchronously and returns the top
// of its terrain.
func groundLevel(m *world.Map, cfg config.Config) float64 {
	levels := cfg.Streaming.MaxWorldHeight / storage.Height
	for y := 0; y < levels; y++ {
		if _, err := m.SpawnChunk(geom.Vec3i{Y: y}); err != nil {
			color.Red("spawn: %v", err)
			os.Exit(1)
		}
	}
	top, ok := physics.FindGroundLevel(16, 16, cfg.Streaming.MaxWorldHeight-1, 0, m)
	if !ok {
		return float64(cfg.Streaming.MaxWorldHeight) / 2
	}
	return float64(top)
}

func report(i int, pos mgl32.Vec3, st world.Stats, frame render.Stats) {
	c := color.New(color.FgCyan)
	if st.Missing > 0 {
		c = color.New(color.FgYellow)
	}
	c.Printf("[%5d] ", i)
	fmt.Printf("cam %6.0f %4.0f %6.0f | loaded %4d in flight %2d missing %5d | drawn %4d culled %4d far %4d rebuilt %d+%d\n",
		pos.X(), pos.Y(), pos.Z(),
		st.Loaded, st.InFlight, st.Missing,
		frame.Drawn, frame.Culled, frame.TooFar, frame.RebuiltOnDraw, frame.RebuiltOnCull)
}
