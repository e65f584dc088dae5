package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"voxelstream/internal/storage"
)

// Config holds every tunable of the streaming engine and the viewer.
type Config struct {
	Streaming  Streaming  `yaml:"streaming"`
	Render     Render     `yaml:"render"`
	Generation Generation `yaml:"generation"`
	Window     Window     `yaml:"window"`
	Log        Log        `yaml:"log"`
}

// Streaming controls which chunks are kept resident and how fast the set changes.
type Streaming struct {
	ChunkLoadingRange              int     `yaml:"chunk_loading_range"`
	MinChunkDistanceToUnload       int     `yaml:"min_chunk_distance_to_unload"`
	MaxChunksSpawnedPerUpdate      int     `yaml:"max_chunks_spawned_per_update"`
	MaxChunksUnloadedPerUpdate     int     `yaml:"max_chunks_unloaded_per_update"`
	TimeBetweenMissingCacheUpdates float64 `yaml:"time_between_missing_cache_updates"`
	TimeBetweenUnloadPasses        float64 `yaml:"time_between_unload_passes"`
	// Weight of vertical offsets when ordering missing chunks; higher values
	// load horizontal neighbors first.
	VerticalWeight int `yaml:"vertical_weight"`
	MaxWorldHeight int `yaml:"max_world_height"`
	PoolMaxIdle    int `yaml:"pool_max_idle"`
}

// Render controls the per-frame draw pass.
type Render struct {
	MaxRenderDistance              int     `yaml:"max_render_distance"`
	MaxChunksUpdatedOnDrawPerFrame int     `yaml:"max_chunks_updated_on_draw_per_frame"`
	MaxChunksUpdatedOnCullPerFrame int     `yaml:"max_chunks_updated_on_cull_per_frame"`
	FreeBufferTimeout              float64 `yaml:"free_buffer_timeout"`
	FOV                            float32 `yaml:"fov"`
	Near                           float32 `yaml:"near"`
	Far                            float32 `yaml:"far"`
}

// Generation holds the world seed and the cave parameters.
type Generation struct {
	Seed          uint32  `yaml:"seed"`
	Caves         bool    `yaml:"caves"`
	MaxWorms      int     `yaml:"max_worms"`
	WormLength    int     `yaml:"worm_length"`
	StepLength    float64 `yaml:"step_length"`
	CaveRadii     []int   `yaml:"cave_radii"`
	CaveCeiling   int     `yaml:"cave_ceiling"`
	WormCacheSize int     `yaml:"worm_cache_size"`
	// Optional YAML block table; empty means the built-in table.
	BlocksFile string `yaml:"blocks_file"`
	// PlaceBlock names the block the viewer places.
	PlaceBlock string `yaml:"place_block"`
}

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
	// FPSLimit caps the frame rate when vsync is off; 0 means uncapped.
	FPSLimit int `yaml:"fps_limit"`
}

type Log struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Streaming: Streaming{
			ChunkLoadingRange:              10,
			MinChunkDistanceToUnload:       20,
			MaxChunksSpawnedPerUpdate:      16,
			MaxChunksUnloadedPerUpdate:     64,
			TimeBetweenMissingCacheUpdates: 1.0,
			TimeBetweenUnloadPasses:        1.0,
			VerticalWeight:                 3,
			MaxWorldHeight:                 256,
			PoolMaxIdle:                    256,
		},
		Render: Render{
			MaxRenderDistance:              12,
			MaxChunksUpdatedOnDrawPerFrame: 4,
			MaxChunksUpdatedOnCullPerFrame: 1,
			FreeBufferTimeout:              30.0,
			FOV:                            70,
			Near:                           0.1,
			Far:                            1000,
		},
		Generation: Generation{
			Seed:          1337,
			Caves:         true,
			MaxWorms:      2,
			WormLength:    64,
			StepLength:    1.5,
			CaveRadii:     []int{2, 3, 4},
			CaveCeiling:   104,
			WormCacheSize: 1024,
			PlaceBlock:    "Stone",
		},
		Window: Window{
			Width:    1280,
			Height:   720,
			Title:    "voxelstream",
			VSync:    true,
			FPSLimit: 144,
		},
	}
}

// Load reads a YAML file over the defaults. Missing keys keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	s := c.Streaming
	if s.MaxWorldHeight <= 0 || s.MaxWorldHeight%storage.Height != 0 {
		errs = append(errs, fmt.Errorf("max_world_height %d must be a positive multiple of %d", s.MaxWorldHeight, storage.Height))
	}
	if s.ChunkLoadingRange < 0 {
		errs = append(errs, fmt.Errorf("chunk_loading_range %d must not be negative", s.ChunkLoadingRange))
	}
	if s.MinChunkDistanceToUnload < s.ChunkLoadingRange {
		errs = append(errs, fmt.Errorf("min_chunk_distance_to_unload %d is below chunk_loading_range %d", s.MinChunkDistanceToUnload, s.ChunkLoadingRange))
	}
	if s.MaxChunksSpawnedPerUpdate <= 0 {
		errs = append(errs, errors.New("max_chunks_spawned_per_update must be positive"))
	}
	if s.MaxChunksUnloadedPerUpdate <= 0 {
		errs = append(errs, errors.New("max_chunks_unloaded_per_update must be positive"))
	}
	if s.VerticalWeight < 1 {
		errs = append(errs, errors.New("vertical_weight must be at least 1"))
	}
	if s.TimeBetweenMissingCacheUpdates < 0 || s.TimeBetweenUnloadPasses < 0 {
		errs = append(errs, errors.New("timers must not be negative"))
	}

	r := c.Render
	if r.MaxRenderDistance < 0 {
		errs = append(errs, errors.New("max_render_distance must not be negative"))
	}
	if r.MaxChunksUpdatedOnDrawPerFrame <= 0 {
		errs = append(errs, errors.New("max_chunks_updated_on_draw_per_frame must be positive"))
	}
	if r.MaxChunksUpdatedOnCullPerFrame < 0 {
		errs = append(errs, errors.New("max_chunks_updated_on_cull_per_frame must not be negative"))
	}
	if r.FreeBufferTimeout <= 0 {
		errs = append(errs, errors.New("free_buffer_timeout must be positive"))
	}

	g := c.Generation
	if g.Caves {
		if g.MaxWorms < 0 || g.WormLength <= 0 || g.StepLength <= 0 {
			errs = append(errs, errors.New("worm parameters must be positive"))
		}
		if len(g.CaveRadii) == 0 {
			errs = append(errs, errors.New("cave_radii must not be empty"))
		}
		for _, rad := range g.CaveRadii {
			if rad <= 0 || rad > 16 {
				errs = append(errs, fmt.Errorf("cave radius %d out of range (1..16)", rad))
			}
		}
	}
	return errors.Join(errs...)
}

// RenderDistance is a runtime-adjustable render distance shared between the
// input handler and the draw pass.
type RenderDistance struct {
	mu       sync.RWMutex
	distance int
	min, max int
}

// NewRenderDistance clamps initial into [min, max].
func NewRenderDistance(initial, min, max int) *RenderDistance {
	d := &RenderDistance{min: min, max: max}
	d.Set(initial)
	return d
}

// Get returns the current distance in chunks.
func (d *RenderDistance) Get() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.distance
}

// Set clamps the distance to the configured bounds.
func (d *RenderDistance) Set(distance int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if distance < d.min {
		distance = d.min
	}
	if distance > d.max {
		distance = d.max
	}
	d.distance = distance
}

// Adjust adds delta and returns the new clamped distance.
func (d *RenderDistance) Adjust(delta int) int {
	d.Set(d.Get() + delta)
	return d.Get()
}
