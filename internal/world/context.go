package world

import (
	"voxelstream/internal/block"
	"voxelstream/internal/config"
	"voxelstream/internal/render"
	"voxelstream/internal/storage"
)

// AirBlockName is the block every empty cell holds.
const AirBlockName = "Air"

// Context carries what chunks and the map share: the buffer pool, the block
// table and the configuration. It replaces process-wide singletons.
type Context struct {
	Config  config.Config
	Pool    *storage.Pool
	Blocks  *block.Registry
	Air     block.Factory
	NewSink render.SinkFactory
}

// NewContext builds a context. A nil registry means the built-in block table
// and a nil sink factory means meshes are built but never uploaded. It panics
// if the registry has no air block.
func NewContext(cfg config.Config, reg *block.Registry, newSink render.SinkFactory) *Context {
	if reg == nil {
		reg = block.DefaultRegistry()
	}
	return &Context{
		Config:  cfg,
		Pool:    storage.NewPool(cfg.Streaming.PoolMaxIdle),
		Blocks:  reg,
		Air:     reg.MustGet(AirBlockName),
		NewSink: newSink,
	}
}

// Seed is the world seed.
func (c *Context) Seed() uint32 {
	return c.Config.Generation.Seed
}
