package world

import (
	"errors"
	"testing"

	"voxelstream/internal/block"
	"voxelstream/internal/config"
	"voxelstream/internal/geom"
	"voxelstream/internal/render"
	"voxelstream/internal/storage"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Generation.Caves = false
	return cfg
}

func newTestMap(t *testing.T, reg *block.Registry, mutate func(*config.Config)) *Map {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewMap(NewContext(cfg, reg, nil))
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func mustSpawn(t *testing.T, m *Map, pos geom.Vec3i) *Chunk {
	t.Helper()
	c, err := m.SpawnChunk(pos)
	if err != nil {
		t.Fatalf("SpawnChunk(%v): %v", pos, err)
	}
	return c
}

// checkBorder verifies that every cell on a's face towards b sees b's facing block.
func checkBorder(t *testing.T, a, b *Chunk) {
	t.Helper()
	s, ok := geom.SideFromDir(b.Pos().Sub(a.Pos()))
	if !ok {
		t.Fatalf("%v and %v are not neighbors", a.Pos(), b.Pos())
	}
	forFace(s, func(p geom.Vec3i) {
		q := wrapLocal(p.Add(s.Dir()))
		want := b.At(q).SideOpacity().Has(s.Opposite())
		if got := a.OutsideOpacity(p).Has(s); got != want {
			t.Fatalf("chunk %v cell %v side %v: opacity %v, neighbor %v cell %v says %v",
				a.Pos(), p, s, got, b.Pos(), q, want)
		}
	})
}

// checkInterior verifies every cell's opacity against its in-chunk neighbors.
func checkInterior(t *testing.T, c *Chunk) {
	t.Helper()
	c.VisitBlocks(func(p geom.Vec3i, _ block.Handle, o block.Opacity) {
		for _, s := range geom.Sides {
			q := p.Add(s.Dir())
			if !storage.InBounds(q) {
				continue
			}
			if want := c.At(q).SideOpacity().Has(s.Opposite()); o.Has(s) != want {
				t.Fatalf("chunk %v cell %v side %v: opacity %v, want %v", c.Pos(), p, s, o.Has(s), want)
			}
		}
	})
}

func TestOpacitySymmetryAfterBorderSync(t *testing.T) {
	m := newTestMap(t, nil, nil)
	// y=3 holds the terrain surface, so faces mix stone, dirt, grass and air.
	a := mustSpawn(t, m, geom.Vec3i{X: 0, Y: 3, Z: 0})
	b := mustSpawn(t, m, geom.Vec3i{X: 1, Y: 3, Z: 0})
	c := mustSpawn(t, m, geom.Vec3i{X: 0, Y: 2, Z: 0})
	d := mustSpawn(t, m, geom.Vec3i{X: 0, Y: 3, Z: -1})

	for _, pair := range [][2]*Chunk{{a, b}, {b, a}, {a, c}, {c, a}, {a, d}, {d, a}} {
		checkBorder(t, pair[0], pair[1])
	}
	for _, ch := range []*Chunk{a, b, c, d} {
		checkInterior(t, ch)
	}

	// Punch holes along the shared faces and check again.
	for y := 0; y < storage.Height; y += 3 {
		b.RemoveBlock(geom.Vec3i{X: 0, Y: y, Z: 7}, true)
		a.RemoveBlock(geom.Vec3i{X: 31, Y: y, Z: 9}, true)
	}
	c.RemoveBlock(geom.Vec3i{X: 4, Y: 31, Z: 4}, true)
	a.RemoveBlock(geom.Vec3i{X: 5, Y: 0, Z: 5}, true)
	for _, pair := range [][2]*Chunk{{a, b}, {b, a}, {a, c}, {c, a}} {
		checkBorder(t, pair[0], pair[1])
	}
	for _, ch := range []*Chunk{a, b, c} {
		checkInterior(t, ch)
	}
}

func TestUnloadedNeighbourLeavesBorderOpen(t *testing.T) {
	m := newTestMap(t, nil, nil)
	low := mustSpawn(t, m, geom.Vec3i{Y: 2})

	top := geom.Vec3i{X: 7, Y: 31, Z: 7}
	if low.OutsideOpacity(top).Has(geom.Top) {
		t.Fatal("top face must be open while the chunk above is missing")
	}

	mustSpawn(t, m, geom.Vec3i{Y: 3})
	// Both layers are solid stone at world y 95 and 96.
	if !low.OutsideOpacity(top).Has(geom.Top) {
		t.Fatal("top face must be closed once the stone chunk above is loaded")
	}

	m.unloadChunk(geom.Vec3i{Y: 3})
	forFace(geom.Top, func(p geom.Vec3i) {
		if low.OutsideOpacity(p).Has(geom.Top) {
			t.Fatalf("cell %v still closed after the neighbor was unloaded", p)
		}
	})
	if !low.NeedsRebuild() {
		t.Fatal("unloading a neighbor must schedule a rebuild")
	}
}

func drawClean(t *testing.T, cs ...*Chunk) {
	t.Helper()
	for _, c := range cs {
		c.Draw(0, render.NewBudget(1))
		if c.NeedsRebuild() {
			t.Fatalf("chunk %v still dirty after a rebuild", c.Pos())
		}
	}
}

func TestPlaceOnWestBorderUpdatesNeighbour(t *testing.T) {
	m := newTestMap(t, nil, nil)
	// y=4 (world 128..159) is all air.
	west := mustSpawn(t, m, geom.Vec3i{X: 0, Y: 4, Z: 0})
	a := mustSpawn(t, m, geom.Vec3i{X: 1, Y: 4, Z: 0})
	drawClean(t, west, a)

	local := geom.Vec3i{X: 0, Y: 5, Z: 5}
	facing := geom.Vec3i{X: 31, Y: 5, Z: 5}
	if west.OutsideOpacity(facing).Has(geom.East) {
		t.Fatal("facing cell already closed before placing")
	}

	a.EmplaceBlock(m.ctx.Blocks.MustGet("Stone"), local, true)
	if !west.OutsideOpacity(facing).Has(geom.East) {
		t.Fatal("west neighbor did not see the placed block")
	}
	if !a.NeedsRebuild() || !west.NeedsRebuild() {
		t.Fatal("both chunks must be scheduled for a rebuild")
	}
	if !a.OutsideOpacity(local.Add(geom.East.Dir())).Has(geom.West) {
		t.Fatal("in-chunk east neighbor did not see the placed block")
	}

	drawClean(t, west, a)
	old := a.RemoveBlock(local, true)
	if old.Block().Name() != "Stone" {
		t.Fatalf("RemoveBlock returned %s", old.Block().Name())
	}
	if a.At(local).Block().Name() != AirBlockName {
		t.Fatal("removed cell is not air")
	}
	if west.OutsideOpacity(facing).Has(geom.East) {
		t.Fatal("west neighbor still closed after removal")
	}
	if !a.NeedsRebuild() || !west.NeedsRebuild() {
		t.Fatal("removal must schedule both chunks")
	}
}

func TestPlaceOnTopBorderUpdatesChunkBelow(t *testing.T) {
	m := newTestMap(t, nil, nil)
	below := mustSpawn(t, m, geom.Vec3i{Y: 4})
	above := mustSpawn(t, m, geom.Vec3i{Y: 5})

	above.EmplaceBlock(m.ctx.Blocks.MustGet("Dirt"), geom.Vec3i{X: 3, Y: 0, Z: 3}, false)
	if !below.OutsideOpacity(geom.Vec3i{X: 3, Y: 31, Z: 3}).Has(geom.Top) {
		t.Fatal("chunk below did not see the block placed on its top border")
	}
	below.EmplaceBlock(m.ctx.Blocks.MustGet("Dirt"), geom.Vec3i{X: 9, Y: 31, Z: 2}, false)
	if !above.OutsideOpacity(geom.Vec3i{X: 9, Y: 0, Z: 2}).Has(geom.Bottom) {
		t.Fatal("chunk above did not see the block placed on its bottom border")
	}
	checkBorder(t, below, above)
	checkBorder(t, above, below)
}

type event struct {
	kind string
	pos  geom.Vec3i
}

type probe struct {
	def    *block.Definition
	events *[]event
}

func (p *probe) TypeID() int                                 { return p.def.ID() }
func (p *probe) Name() string                                { return p.def.Name }
func (p *probe) SideOpacity() block.Opacity                  { return block.OpacityFull }
func (p *probe) Draw(*block.Mesh, geom.Vec3i, block.Opacity) {}
func (p *probe) Stateful() bool                              { return false }
func (p *probe) Clone() block.Block                          { return p }

func (p *probe) OnPlaced(_ block.World, pos geom.Vec3i) {
	*p.events = append(*p.events, event{"placed", pos})
}

func (p *probe) OnRemoved(_ block.World, pos geom.Vec3i) {
	*p.events = append(*p.events, event{"removed", pos})
}

func (p *probe) OnAdjacentChanged(_ block.World, pos geom.Vec3i, _ block.Block, _ geom.Vec3i) {
	*p.events = append(*p.events, event{"adjacent", pos})
}

func probeRegistry(events *[]event) *block.Registry {
	reg := block.DefaultRegistry()
	reg.RegisterKind("probe", block.Kind{New: func(def *block.Definition) block.Block {
		return &probe{def: def, events: events}
	}})
	if _, err := reg.Register(block.Definition{Name: "Probe", Kind: "probe"}); err != nil {
		panic(err)
	}
	return reg
}

func TestCallbacksUseWorldPositions(t *testing.T) {
	var events []event
	m := newTestMap(t, probeRegistry(&events), nil)
	c := mustSpawn(t, m, geom.Vec3i{X: -1, Y: 4, Z: 2})
	pf := m.ctx.Blocks.MustGet("Probe")

	c.EmplaceBlock(pf, geom.Vec3i{X: 1, Y: 1, Z: 1}, true)
	c.EmplaceBlock(pf, geom.Vec3i{X: 2, Y: 1, Z: 1}, true)
	c.RemoveBlock(geom.Vec3i{X: 1, Y: 1, Z: 1}, true)
	c.EmplaceBlock(pf, geom.Vec3i{X: 5, Y: 5, Z: 5}, false)

	first := geom.Vec3i{X: -32 + 1, Y: 128 + 1, Z: 64 + 1}
	second := first.Add(geom.Vec3i{X: 1})
	want := []event{
		{"placed", first},
		{"adjacent", first},
		{"placed", second},
		{"removed", first},
		{"adjacent", second},
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %v, want %v (all: %v)", i, events[i], want[i], events)
		}
	}

	events = nil
	c.UpdateAllAsIfPlaced()
	if len(events) != 2 {
		t.Fatalf("UpdateAllAsIfPlaced fired %d callbacks, want 2 (one per probe)", len(events))
	}
	if h, ok := m.BlockAt(geom.Vec3i{X: -27, Y: 133, Z: 69}); !ok || h.Block().Name() != "Probe" {
		t.Fatal("BlockAt does not see the probe at local (5,5,5)")
	}
}

func TestChunkAccessorsAndBounds(t *testing.T) {
	m := newTestMap(t, nil, nil)
	c := mustSpawn(t, m, geom.Vec3i{X: 2, Y: 1, Z: -3})

	if c.FirstBlockPosition() != (geom.Vec3i{X: 64, Y: 32, Z: -96}) {
		t.Fatalf("FirstBlockPosition = %v", c.FirstBlockPosition())
	}
	center := c.BoundingSphere().Center
	if center.X() != 80 || center.Y() != 48 || center.Z() != -80 {
		t.Fatalf("sphere center = %v", center)
	}
	if c.Seed() != m.gen.ChunkSeed(c.Pos()) {
		t.Fatal("chunk seed differs from the generator's")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("out of range At must panic")
		}
	}()
	c.At(geom.Vec3i{X: 32})
}

func TestNewContextRequiresAir(t *testing.T) {
	reg := block.NewRegistry(16)
	if _, err := reg.Register(block.Definition{Name: "Stone", Kind: "plain"}); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("NewContext accepted a registry without air")
		}
	}()
	NewContext(testConfig(), reg, nil)
}

func TestPlaceEmptyHandlePanics(t *testing.T) {
	m := newTestMap(t, nil, nil)
	c := mustSpawn(t, m, geom.Vec3i{Y: 3})
	local := geom.Vec3i{X: 4, Y: 4, Z: 4}
	defer func() {
		if recover() == nil {
			t.Fatal("PlaceBlock stored an empty handle")
		}
		if c.At(local).IsEmpty() {
			t.Fatal("cell lost its block")
		}
	}()
	c.PlaceBlock(block.Handle{}, local, true)
}

func TestSpawnRejectsDuplicatesAndInvalid(t *testing.T) {
	m := newTestMap(t, nil, nil)
	mustSpawn(t, m, geom.Vec3i{Y: 1})
	if _, err := m.SpawnChunk(geom.Vec3i{Y: 1}); !errors.Is(err, ErrChunkExists) {
		t.Fatalf("second spawn: %v", err)
	}
	for _, y := range []int{-1, 8} {
		if _, err := m.SpawnChunk(geom.Vec3i{Y: y}); !errors.Is(err, ErrInvalidChunkPos) {
			t.Fatalf("spawn at y=%d: %v", y, err)
		}
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}

	m.inFlight[geom.Vec3i{Y: 2}] = struct{}{}
	if _, err := m.SpawnChunk(geom.Vec3i{Y: 2}); !errors.Is(err, ErrChunkInFlight) {
		t.Fatalf("spawn of in-flight position: %v", err)
	}
	delete(m.inFlight, geom.Vec3i{Y: 2})
}

func TestNeighbours(t *testing.T) {
	m := newTestMap(t, nil, nil)
	center := geom.Vec3i{X: 3, Y: 2, Z: 3}
	mustSpawn(t, m, center)
	east := mustSpawn(t, m, center.Add(geom.East.Dir()))
	north := mustSpawn(t, m, center.Add(geom.North.Dir()))

	nbs := m.ChunkNeighbours(center)
	for _, s := range geom.Sides {
		var want *Chunk
		switch s {
		case geom.East:
			want = east
		case geom.North:
			want = north
		}
		if nbs[s] != want {
			t.Errorf("neighbor %v = %v, want %v", s, nbs[s], want)
		}
	}
}
