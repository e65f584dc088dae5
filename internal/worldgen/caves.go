package worldgen

import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru"

	"voxelstream/internal/config"
	"voxelstream/internal/geom"
	"voxelstream/internal/noise"
	"voxelstream/internal/profiling"
	"voxelstream/internal/storage"
)

// carveMask marks the cells of one chunk that caves turn into air.
type carveMask struct {
	bits [storage.Volume / 64]uint64
}

func maskIndex(x, y, z int) int {
	return (x*storage.Height+y)*storage.Depth + z
}

func (m *carveMask) set(x, y, z int) {
	i := maskIndex(x, y, z)
	m.bits[i>>6] |= 1 << (i & 63)
}

func (m *carveMask) get(x, y, z int) bool {
	i := maskIndex(x, y, z)
	return m.bits[i>>6]&(1<<(i&63)) != 0
}

// count returns the number of carved cells.
func (m *carveMask) count() int {
	n := 0
	for _, w := range m.bits {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// worm is one simulated cave path in world block coordinates.
type worm struct {
	radius int
	points [][3]float64
}

// caveCarver simulates worms per source chunk and stamps them into targets.
type caveCarver struct {
	hasher  noise.Hasher
	sampler noise.Sampler3D
	src     noise.Source
	cfg     config.Generation

	// sphere offsets per radius, built once
	templates map[int][]geom.Vec3i
	// source chunk position -> []worm
	worms *lru.Cache
}

func newCaveCarver(h noise.Hasher, cfg config.Generation) (*caveCarver, error) {
	if len(cfg.CaveRadii) == 0 {
		return nil, fmt.Errorf("worldgen: caves enabled without radii")
	}
	size := cfg.WormCacheSize
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("worldgen: worm cache: %w", err)
	}
	c := &caveCarver{
		hasher: h,
		sampler: noise.Sampler3D{
			Octaves: noise.Octaves{Count: 2, Persistence: 0.5, Lacunarity: 2, Lower: -1, Upper: 1},
			ScaleX:  0.08,
			ScaleY:  1,
			ScaleZ:  1,
		},
		src:       noise.NewSource(cfg.Seed ^ caveNoiseSeedMix),
		cfg:       cfg,
		templates: make(map[int][]geom.Vec3i, len(cfg.CaveRadii)),
		worms:     cache,
	}
	for _, r := range cfg.CaveRadii {
		if _, ok := c.templates[r]; !ok {
			c.templates[r] = sphereTemplate(r)
		}
	}
	return c, nil
}

// sphereTemplate lists every offset within radius r of the origin.
func sphereTemplate(r int) []geom.Vec3i {
	var out []geom.Vec3i
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				if x*x+y*y+z*z <= r*r {
					out = append(out, geom.Vec3i{X: x, Y: y, Z: z})
				}
			}
		}
	}
	return out
}

// carve returns the cave mask of the chunk at target, or nil when no worm reaches it.
func (c *caveCarver) carve(target geom.Vec3i) *carveMask {
	defer profiling.Track("worldgen.carve")()

	first := target.MulElem(storage.Size)
	var mask *carveMask
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				src := target.Add(geom.Vec3i{X: dx, Y: dy, Z: dz})
				for _, w := range c.wormsFrom(src) {
					mask = c.stamp(mask, w, first)
				}
			}
		}
	}
	return mask
}

func (c *caveCarver) stamp(mask *carveMask, w worm, first geom.Vec3i) *carveMask {
	tpl := c.templates[w.radius]
	r := w.radius
	for _, p := range w.points {
		cx := int(math.Floor(p[0])) - first.X
		cy := int(math.Floor(p[1])) - first.Y
		cz := int(math.Floor(p[2])) - first.Z
		if cx < -r || cx >= storage.Width+r ||
			cy < -r || cy >= storage.Height+r ||
			cz < -r || cz >= storage.Depth+r {
			continue
		}
		if mask == nil {
			mask = &carveMask{}
		}
		for _, o := range tpl {
			x, y, z := cx+o.X, cy+o.Y, cz+o.Z
			if x < 0 || x >= storage.Width || y < 0 || y >= storage.Height || z < 0 || z >= storage.Depth {
				continue
			}
			mask.set(x, y, z)
		}
	}
	return mask
}

func (c *caveCarver) wormsFrom(src geom.Vec3i) []worm {
	if v, ok := c.worms.Get(src); ok {
		return v.([]worm)
	}
	ws := c.simulate(src)
	c.worms.Add(src, ws)
	return ws
}

// simulate runs the random walks of every worm starting in chunk src. A worm
// stops before it could touch a chunk outside the 3x3x3 block around src, so
// every chunk it carves sees it in its own neighborhood.
func (c *caveCarver) simulate(src geom.Vec3i) []worm {
	first := src.MulElem(storage.Size)
	if first.Y >= c.cfg.CaveCeiling {
		return nil
	}
	n := int(c.hasher.Hash3(src.X, src.Y, src.Z, saltWormCount) % uint32(c.cfg.MaxWorms+1))
	if n == 0 {
		return nil
	}

	ws := make([]worm, 0, n)
	for i := 0; i < n; i++ {
		wh := c.hasher.Hash(uint32(int32(src.X)), uint32(int32(src.Y)), uint32(int32(src.Z)), saltWormStart, uint32(i))
		radius := c.cfg.CaveRadii[c.hasher.Hash(wh, saltWormRadius)%uint32(len(c.cfg.CaveRadii))]
		lane := float64(c.hasher.Hash(wh, saltWormNoise) % 65536)

		p := [3]float64{
			float64(first.X) + noise.Unit(c.hasher.Hash(wh, 0))*storage.Width,
			float64(first.Y) + noise.Unit(c.hasher.Hash(wh, 1))*storage.Height,
			float64(first.Z) + noise.Unit(c.hasher.Hash(wh, 2))*storage.Depth,
		}
		lo := [3]float64{
			float64(first.X - storage.Width + radius),
			float64(first.Y - storage.Height + radius),
			float64(first.Z - storage.Depth + radius),
		}
		hi := [3]float64{
			float64(first.X + 2*storage.Width - radius),
			float64(first.Y + 2*storage.Height - radius),
			float64(first.Z + 2*storage.Depth - radius),
		}

		pts := make([][3]float64, 0, c.cfg.WormLength)
	walk:
		for s := 0; s < c.cfg.WormLength; s++ {
			for a := 0; a < 3; a++ {
				if p[a] < lo[a] || p[a] >= hi[a] {
					break walk
				}
			}
			pts = append(pts, p)

			t := float64(s)
			d := [3]float64{
				c.sampler.Sample(t, lane, 0, c.src),
				c.sampler.Sample(t, lane, 1000, c.src),
				c.sampler.Sample(t, lane, 2000, c.src),
			}
			l := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
			if l < 1e-9 {
				d, l = [3]float64{1, 0, 0}, 1
			}
			for a := range p {
				p[a] += d[a] / l * c.cfg.StepLength
			}
		}
		ws = append(ws, worm{radius: radius, points: pts})
	}
	return ws
}
