package world

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"voxelstream/internal/async"
	"voxelstream/internal/block"
	"voxelstream/internal/geom"
	"voxelstream/internal/profiling"
	"voxelstream/internal/render"
	"voxelstream/internal/storage"
	"voxelstream/internal/worldgen"
)

var (
	ErrChunkExists     = errors.New("chunk already loaded")
	ErrChunkInFlight   = errors.New("chunk is being generated")
	ErrInvalidChunkPos = errors.New("chunk position outside the world")
	ErrClosed          = errors.New("map closed")
	ErrChunkNotLoaded  = errors.New("chunk not loaded")
)

// batch is one background generation job.
type batch struct {
	id      uuid.UUID
	results []worldgen.Result
}

// Stats is a snapshot of the map's bookkeeping.
type Stats struct {
	Loaded           int
	Missing          int
	InFlight         int
	Integrated       int64
	Evicted          int64
	BatchesSubmitted int64
	LastBatchID      string
	WormCache        int
	Pool             storage.PoolStats
}

// Map keeps the chunks around the camera resident. Chunks are generated in
// the background one batch at a time and unloaded once they drift out of
// range. All methods must be called from the same goroutine.
type Map struct {
	ctx *Context
	gen *worldgen.Generator

	chunks map[geom.Vec3i]*Chunk

	// offsets sorted by load priority, computed once
	offsets       []geom.Vec3i
	missing       []geom.Vec3i
	missingCursor int
	lastCamera    geom.Vec3i
	haveCamera    bool

	inFlight map[geom.Vec3i]struct{}
	slot     async.Slot[batch]

	spawnedThisTick map[geom.Vec3i]struct{}

	timeSinceMissingUpdate float64
	timeSinceUnloadPass    float64

	renderDistance int
	queue          *render.Queue

	integrated  int64
	evicted     int64
	batches     int64
	lastBatchID uuid.UUID
	closed      bool
}

// NewMap creates an empty map.
func NewMap(ctx *Context) (*Map, error) {
	if err := ctx.Config.Validate(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	gen, err := worldgen.New(ctx.Pool, ctx.Blocks, ctx.Config.Generation)
	if err != nil {
		return nil, err
	}
	m := &Map{
		ctx:             ctx,
		gen:             gen,
		chunks:          make(map[geom.Vec3i]*Chunk),
		inFlight:        make(map[geom.Vec3i]struct{}),
		spawnedThisTick: make(map[geom.Vec3i]struct{}),
		offsets:         loadOffsets(ctx.Config.Streaming.ChunkLoadingRange, ctx.Config.Streaming.VerticalWeight),
	}
	m.SetRenderDistance(ctx.Config.Render.MaxRenderDistance)
	return m, nil
}

// loadOffsets lists every offset within Chebyshev distance r, ordered by
// |dx| + |dz| + verticalWeight*|dy|. Ties keep the x, y, z loop order.
func loadOffsets(r, verticalWeight int) []geom.Vec3i {
	out := make([]geom.Vec3i, 0, (2*r+1)*(2*r+1)*(2*r+1))
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				out = append(out, geom.Vec3i{X: x, Y: y, Z: z})
			}
		}
	}
	weight := func(v geom.Vec3i) int {
		return abs(v.X) + abs(v.Z) + verticalWeight*abs(v.Y)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return weight(out[i]) < weight(out[j])
	})
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// SetRenderDistance changes how far chunks are drawn, in chunks.
func (m *Map) SetRenderDistance(d int) {
	if d < 0 {
		d = 0
	}
	r := m.ctx.Config.Render
	m.renderDistance = d
	m.queue = render.NewQueue(d, r.MaxChunksUpdatedOnDrawPerFrame, r.MaxChunksUpdatedOnCullPerFrame)
}

// RenderDistance is the current draw distance in chunks.
func (m *Map) RenderDistance() int { return m.renderDistance }

// IsValidChunkPos reports whether pos lies within the world's vertical extent.
func (m *Map) IsValidChunkPos(pos geom.Vec3i) bool {
	return pos.Y >= 0 && pos.Y < m.ctx.Config.Streaming.MaxWorldHeight/storage.Height
}

// WorldToChunk returns the chunk containing a world-space point.
func (m *Map) WorldToChunk(p mgl32.Vec3) geom.Vec3i {
	return geom.FloorToInt(mgl32.Vec3{
		p.X() / storage.Width,
		p.Y() / storage.Height,
		p.Z() / storage.Depth,
	})
}

// ChunkAt returns the loaded chunk at pos, or nil.
func (m *Map) ChunkAt(pos geom.Vec3i) *Chunk {
	return m.chunks[pos]
}

// ChunkNeighbours returns the loaded chunks adjacent to pos, indexed by side.
func (m *Map) ChunkNeighbours(pos geom.Vec3i) [geom.NumSides]*Chunk {
	var out [geom.NumSides]*Chunk
	for _, s := range geom.Sides {
		out[s] = m.chunks[pos.Add(s.Dir())]
	}
	return out
}

// locate splits a world block position into its chunk and local position.
func locate(pos geom.Vec3i) (chunk, local geom.Vec3i) {
	chunk = geom.Vec3i{
		X: geom.FloorDiv(pos.X, storage.Width),
		Y: geom.FloorDiv(pos.Y, storage.Height),
		Z: geom.FloorDiv(pos.Z, storage.Depth),
	}
	local = geom.Vec3i{
		X: geom.Mod(pos.X, storage.Width),
		Y: geom.Mod(pos.Y, storage.Height),
		Z: geom.Mod(pos.Z, storage.Depth),
	}
	return chunk, local
}

// BlockAt returns the block at a world-space block position.
func (m *Map) BlockAt(pos geom.Vec3i) (block.Handle, bool) {
	cp, local := locate(pos)
	c := m.chunks[cp]
	if c == nil {
		return block.Handle{}, false
	}
	return c.At(local), true
}

// IsSolid reports whether a loaded, non-air block occupies pos.
func (m *Map) IsSolid(pos geom.Vec3i) bool {
	h, ok := m.BlockAt(pos)
	return ok && !h.IsEmpty() && h.Block().TypeID() != m.ctx.Air.TypeID()
}

// PlaceBlockAt instantiates f at a world-space block position.
func (m *Map) PlaceBlockAt(pos geom.Vec3i, f block.Factory, notify bool) error {
	cp, local := locate(pos)
	c := m.chunks[cp]
	if c == nil {
		return fmt.Errorf("place at %v: %w", pos, ErrChunkNotLoaded)
	}
	c.EmplaceBlock(f, local, notify)
	return nil
}

// RemoveBlockAt replaces the block at a world-space position with air and
// returns what was there.
func (m *Map) RemoveBlockAt(pos geom.Vec3i, notify bool) (block.Handle, error) {
	cp, local := locate(pos)
	c := m.chunks[cp]
	if c == nil {
		return block.Handle{}, fmt.Errorf("remove at %v: %w", pos, ErrChunkNotLoaded)
	}
	return c.RemoveBlock(local, notify), nil
}

// Len returns the number of loaded chunks.
func (m *Map) Len() int { return len(m.chunks) }

// Chunks calls fn for every loaded chunk in no particular order.
func (m *Map) Chunks(fn func(*Chunk)) {
	for _, c := range m.chunks {
		fn(c)
	}
}

// Missing returns the positions still waiting to be scheduled, nearest first.
func (m *Map) Missing() []geom.Vec3i {
	return append([]geom.Vec3i(nil), m.missing[m.missingCursor:]...)
}

// InFlight returns the positions of the batch being generated.
func (m *Map) InFlight() []geom.Vec3i {
	out := make([]geom.Vec3i, 0, len(m.inFlight))
	for p := range m.inFlight {
		out = append(out, p)
	}
	sortPositions(out)
	return out
}

func sortPositions(ps []geom.Vec3i) {
	sort.Slice(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}

// Stats reports the current streaming counters.
func (m *Map) Stats() Stats {
	st := Stats{
		Loaded:           len(m.chunks),
		Missing:          len(m.missing) - m.missingCursor,
		InFlight:         len(m.inFlight),
		Integrated:       m.integrated,
		Evicted:          m.evicted,
		BatchesSubmitted: m.batches,
		WormCache:        m.gen.WormCacheLen(),
		Pool:             m.ctx.Pool.Stats(),
	}
	if m.lastBatchID != uuid.Nil {
		st.LastBatchID = m.lastBatchID.String()
	}
	return st
}

// Update advances streaming by one tick: it integrates a finished batch,
// schedules the next one, unloads far chunks and refreshes the list of
// missing positions, in that order.
func (m *Map) Update(camera geom.Vec3i, dt float64) {
	defer profiling.Track("world.Map.Update")()
	if m.closed {
		return
	}
	clear(m.spawnedThisTick)

	if b, ok := m.slot.Poll(); ok {
		m.integrateBatch(b)
	}
	if m.slot.State() == async.Idle {
		m.scheduleBatch()
	}

	s := m.ctx.Config.Streaming
	m.timeSinceUnloadPass += dt
	if m.timeSinceUnloadPass >= s.TimeBetweenUnloadPasses {
		m.timeSinceUnloadPass = 0
		m.unloadFarChunks(camera)
	}

	m.timeSinceMissingUpdate += dt
	exhausted := m.missingCursor >= len(m.missing)
	if !m.haveCamera || m.timeSinceMissingUpdate >= s.TimeBetweenMissingCacheUpdates || (exhausted && camera != m.lastCamera) {
		m.timeSinceMissingUpdate = 0
		m.updateMissingCache(camera)
	}
}

func (m *Map) integrateBatch(b batch) {
	defer profiling.Track("world.Map.integrate")()
	for _, r := range b.results {
		delete(m.inFlight, r.Pos)
		if _, err := m.integrate(r); err != nil {
			log.Printf("world: dropping generated chunk %v from batch %s: %v", r.Pos, b.id, err)
			m.ctx.Pool.PutBlocks(r.Blocks)
		}
	}
	if m.ctx.Config.Log.Verbose {
		log.Printf("world: integrated batch %s (%d chunks, %d loaded)", b.id, len(b.results), len(m.chunks))
	}
}

// integrate turns a generated result into a live chunk and wires it to its
// loaded neighbors.
func (m *Map) integrate(r worldgen.Result) (*Chunk, error) {
	if _, ok := m.chunks[r.Pos]; ok {
		return nil, ErrChunkExists
	}
	c := newChunk(m, r.Pos, r.Seed, r.Blocks, m.ctx.Pool.Opacity())
	m.chunks[r.Pos] = c
	m.spawnedThisTick[r.Pos] = struct{}{}
	m.integrated++

	for s, nb := range m.ChunkNeighbours(r.Pos) {
		if nb == nil {
			continue
		}
		c.syncBorder(nb, geom.Side(s))
		nb.OnAdjacentChunkPlaced(c)
	}
	c.UpdateAllAsIfPlaced()
	return c, nil
}

// scheduleBatch hands the next missing positions to the background generator.
func (m *Map) scheduleBatch() {
	limit := m.ctx.Config.Streaming.MaxChunksSpawnedPerUpdate
	var positions []geom.Vec3i
	for m.missingCursor < len(m.missing) && len(positions) < limit {
		p := m.missing[m.missingCursor]
		m.missingCursor++
		if !m.IsValidChunkPos(p) {
			continue
		}
		if _, ok := m.chunks[p]; ok {
			continue
		}
		if _, ok := m.inFlight[p]; ok {
			continue
		}
		positions = append(positions, p)
	}
	if len(positions) == 0 {
		return
	}
	for _, p := range positions {
		m.inFlight[p] = struct{}{}
	}

	id := uuid.New()
	gen := m.gen
	m.slot.Submit(func() batch {
		return batch{id: id, results: gen.GenerateBatch(positions)}
	})
	m.batches++
	m.lastBatchID = id
}

// unloadFarChunks evicts the farthest chunks beyond the unload distance.
func (m *Map) unloadFarChunks(camera geom.Vec3i) {
	defer profiling.Track("world.Map.unload")()
	s := m.ctx.Config.Streaming

	type candidate struct {
		pos  geom.Vec3i
		dist int
	}
	var far []candidate
	for p := range m.chunks {
		if _, fresh := m.spawnedThisTick[p]; fresh {
			continue
		}
		if d := geom.Chebyshev(p, camera); d > s.MinChunkDistanceToUnload {
			far = append(far, candidate{p, d})
		}
	}
	if len(far) == 0 {
		return
	}
	sort.Slice(far, func(i, j int) bool {
		if far[i].dist != far[j].dist {
			return far[i].dist > far[j].dist
		}
		a, b := far[i].pos, far[j].pos
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	if len(far) > s.MaxChunksUnloadedPerUpdate {
		far = far[:s.MaxChunksUnloadedPerUpdate]
	}
	for _, f := range far {
		m.unloadChunk(f.pos)
	}
	if m.ctx.Config.Log.Verbose {
		log.Printf("world: unloaded %d chunks, %d remain", len(far), len(m.chunks))
	}
}

func (m *Map) unloadChunk(pos geom.Vec3i) {
	c := m.chunks[pos]
	if c == nil {
		return
	}
	delete(m.chunks, pos)
	for _, s := range geom.Sides {
		if nb := m.chunks[pos.Add(s.Dir())]; nb != nil {
			nb.OnAdjacentChunkRemoved(s.Opposite())
		}
	}
	c.release()
	m.evicted++
}

// updateMissingCache recomputes the positions to load around the camera.
func (m *Map) updateMissingCache(camera geom.Vec3i) {
	defer profiling.Track("world.Map.updateMissingCache")()
	m.missing = m.missing[:0]
	for _, off := range m.offsets {
		p := camera.Add(off)
		if !m.IsValidChunkPos(p) {
			continue
		}
		if _, ok := m.chunks[p]; ok {
			continue
		}
		if _, ok := m.inFlight[p]; ok {
			continue
		}
		m.missing = append(m.missing, p)
	}
	m.missingCursor = 0
	m.lastCamera = camera
	m.haveCamera = true
}

// SpawnChunk generates and inserts a chunk synchronously.
func (m *Map) SpawnChunk(pos geom.Vec3i) (*Chunk, error) {
	switch {
	case m.closed:
		return nil, ErrClosed
	case !m.IsValidChunkPos(pos):
		return nil, fmt.Errorf("spawn %v: %w", pos, ErrInvalidChunkPos)
	}
	if _, ok := m.chunks[pos]; ok {
		return nil, fmt.Errorf("spawn %v: %w", pos, ErrChunkExists)
	}
	if _, ok := m.inFlight[pos]; ok {
		return nil, fmt.Errorf("spawn %v: %w", pos, ErrChunkInFlight)
	}
	c, err := m.integrate(m.gen.Generate(pos))
	if err != nil {
		return nil, err
	}
	m.dropMissing(pos)
	return c, nil
}

// dropMissing removes pos from the unread part of the missing cache.
func (m *Map) dropMissing(pos geom.Vec3i) {
	for i := m.missingCursor; i < len(m.missing); i++ {
		if m.missing[i] == pos {
			m.missing = append(m.missing[:i], m.missing[i+1:]...)
			return
		}
	}
}

// Draw queues every loaded chunk for this frame and renders the queue.
func (m *Map) Draw(camera render.Camera, dt float64) render.Stats {
	defer profiling.Track("world.Map.Draw")()
	camChunk := m.WorldToChunk(camera.Position())
	frustum := render.FrustumFromMatrix(camera.ViewProjection())

	tooFar := 0
	for pos, c := range m.chunks {
		d := geom.Chebyshev(pos, camChunk)
		switch {
		case d > m.renderDistance:
			c.TooFarToDraw(dt)
			tooFar++
		case !frustum.IntersectsSphere(c.bounds):
			m.queue.EnqueueCull(c)
		default:
			m.queue.EnqueueDraw(c, d)
		}
	}
	st := m.queue.Draw(dt)
	st.TooFar = tooFar
	return st
}

// Close waits for the running batch and returns every buffer to the pool.
func (m *Map) Close() {
	if m.closed {
		return
	}
	m.closed = true
	if b, ok := m.slot.Wait(); ok {
		for _, r := range b.results {
			m.ctx.Pool.PutBlocks(r.Blocks)
		}
	}
	clear(m.inFlight)
	for pos, c := range m.chunks {
		c.release()
		delete(m.chunks, pos)
	}
	m.missing = nil
	m.missingCursor = 0
}
