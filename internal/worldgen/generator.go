package worldgen

import (
	"fmt"

	"voxelstream/internal/block"
	"voxelstream/internal/config"
	"voxelstream/internal/geom"
	"voxelstream/internal/noise"
	"voxelstream/internal/profiling"
	"voxelstream/internal/storage"
)

// Salts separating the different uses of the position hash.
const (
	saltChunkSeed uint32 = iota + 1
	saltWormCount
	saltWormStart
	saltWormRadius
	saltWormNoise
)

const caveNoiseSeedMix uint32 = 0x5bd1e995

// Result is a generated chunk that is not yet part of any map.
type Result struct {
	Pos    geom.Vec3i
	Seed   uint32
	Blocks *storage.BlockArray
}

// Generator produces chunk contents as a pure function of position and world seed.
// It is safe for use from several goroutines.
type Generator struct {
	pool   *storage.Pool
	hasher noise.Hasher
	cfg    config.Generation

	height    noise.Sampler2D
	heightSrc noise.Source

	stone, dirt, grass, air block.Factory

	caves *caveCarver
}

// New looks up the terrain blocks in reg and prepares the noise sources.
func New(pool *storage.Pool, reg *block.Registry, cfg config.Generation) (*Generator, error) {
	g := &Generator{
		pool:   pool,
		hasher: noise.NewHasher(cfg.Seed),
		cfg:    cfg,
		height: noise.Sampler2D{
			Octaves: noise.DefaultOctaves(),
			ScaleX:  0.01,
			ScaleY:  0.01,
		},
		heightSrc: noise.NewSource(cfg.Seed),
	}
	for _, f := range []struct {
		name string
		dst  *block.Factory
	}{
		{"Stone", &g.stone},
		{"Dirt", &g.dirt},
		{"Grass", &g.grass},
		{"Air", &g.air},
	} {
		fac, ok := reg.Lookup(f.name)
		if !ok {
			return nil, fmt.Errorf("worldgen: block %q is not registered", f.name)
		}
		*f.dst = fac
	}
	if cfg.Caves {
		c, err := newCaveCarver(g.hasher, cfg)
		if err != nil {
			return nil, err
		}
		g.caves = c
	}
	return g, nil
}

// ChunkSeed derives the per-chunk seed from the world seed.
func (g *Generator) ChunkSeed(pos geom.Vec3i) uint32 {
	return g.hasher.Hash3(pos.X, pos.Y, pos.Z, saltChunkSeed)
}

// Generate fills a pooled block array for the chunk at pos.
func (g *Generator) Generate(pos geom.Vec3i) Result {
	defer profiling.Track("worldgen.Generate")()

	blocks := g.pool.Blocks()
	first := pos.MulElem(storage.Size)

	var carved *carveMask
	if g.caves != nil {
		carved = g.caves.carve(pos)
	}

	for x := 0; x < storage.Width; x++ {
		for z := 0; z < storage.Depth; z++ {
			r := g.height.Sample(float64(first.X+x), float64(first.Z+z), g.heightSrc)

			stoneTop := 110 + int(r*5.0) - first.Y
			dirtTop := stoneTop + int(r*2.0) + 2
			grassTop := dirtTop + 1

			for y := 0; y < storage.Height; y++ {
				var f block.Factory
				switch {
				case carved != nil && carved.get(x, y, z):
					f = g.air
				case y <= stoneTop:
					f = g.stone
				case y <= dirtTop:
					f = g.dirt
				case y <= grassTop:
					f = g.grass
				default:
					f = g.air
				}
				blocks.Set(x, y, z, f.Instantiate())
			}
		}
	}
	return Result{Pos: pos, Seed: g.ChunkSeed(pos), Blocks: blocks}
}

// GenerateBatch generates every position in order.
func (g *Generator) GenerateBatch(positions []geom.Vec3i) []Result {
	out := make([]Result, 0, len(positions))
	for _, p := range positions {
		out = append(out, g.Generate(p))
	}
	return out
}

// WormCacheLen reports how many simulated worm sets are memoized.
func (g *Generator) WormCacheLen() int {
	if g.caves == nil {
		return 0
	}
	return g.caves.worms.Len()
}
