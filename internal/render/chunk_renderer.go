package render

import (
	"voxelstream/internal/block"
	"voxelstream/internal/geom"
	"voxelstream/internal/profiling"
)

// DefaultFreeBufferTimeout is how long, in seconds, a chunk may stay beyond
// the render distance before its GPU buffers are freed.
const DefaultFreeBufferTimeout = 30.0

// State of a ChunkRenderer.
type State int

const (
	StateActive State = iota
	StateTooFar
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTooFar:
		return "too-far"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// MeshSource is what a renderer needs from a chunk to rebuild its mesh.
type MeshSource interface {
	FirstBlockPosition() geom.Vec3i
	// VisitBlocks calls fn for every cell with its local position, block and
	// outside opacity.
	VisitBlocks(fn func(local geom.Vec3i, h block.Handle, outside block.Opacity))
}

// ChunkRenderer owns the mesh of one chunk and decides when to rebuild,
// draw or free it.
type ChunkRenderer struct {
	newSink     SinkFactory
	sink        MeshSink
	mesh        block.Mesh
	flat        []float32
	indexCount  int
	needsUpdate bool
	state       State

	timeSinceLastRender float64
	timeOutsideRange    float64
	freeTimeout         float64
}

// NewChunkRenderer creates an active renderer that rebuilds on its first
// draw. The sink is created lazily; freeTimeout is how long, in seconds, a
// chunk may stay too far before its GPU buffers are released.
func NewChunkRenderer(newSink SinkFactory, freeTimeout float64) *ChunkRenderer {
	if freeTimeout <= 0 {
		freeTimeout = DefaultFreeBufferTimeout
	}
	return &ChunkRenderer{
		newSink:     newSink,
		needsUpdate: true,
		state:       StateActive,
		freeTimeout: freeTimeout,
	}
}

func (r *ChunkRenderer) ScheduleUpdate()   { r.needsUpdate = true }
func (r *ChunkRenderer) NeedsUpdate() bool { return r.needsUpdate }
func (r *ChunkRenderer) State() State      { return r.state }
func (r *ChunkRenderer) IndexCount() int   { return r.indexCount }

// TimeSinceLastRender is the time since the chunk was last drawn.
func (r *ChunkRenderer) TimeSinceLastRender() float64 { return r.timeSinceLastRender }

// Draw rebuilds the mesh if it is stale and the budget allows, then draws it.
// It reports whether a rebuild happened.
func (r *ChunkRenderer) Draw(src MeshSource, dt float64, budget *Budget) bool {
	r.timeSinceLastRender = 0
	r.timeOutsideRange = 0
	r.state = StateActive

	rebuilt := false
	if r.needsUpdate && budget.Take() {
		r.rebuild(src)
		rebuilt = true
	}
	if r.sink != nil && r.indexCount > 0 {
		r.sink.Draw(r.indexCount)
	}
	return rebuilt
}

// Culled is called for chunks in range but outside the view frustum. The
// mesh may be rebuilt ahead of time but nothing is drawn.
func (r *ChunkRenderer) Culled(src MeshSource, dt float64, budget *Budget) bool {
	r.timeSinceLastRender += dt
	r.timeOutsideRange = 0
	r.state = StateActive

	if r.needsUpdate && budget.Take() {
		r.rebuild(src)
		return true
	}
	return false
}

// TooFarToDraw accumulates time out of range and frees the GPU buffers once
// the timeout passes. The next Draw rebuilds them.
func (r *ChunkRenderer) TooFarToDraw(dt float64) {
	r.timeSinceLastRender += dt
	if r.state == StateReleased {
		return
	}
	r.state = StateTooFar
	r.timeOutsideRange += dt
	if r.timeOutsideRange > r.freeTimeout {
		r.Release()
	}
}

// Release frees the GPU buffers and marks the mesh stale.
func (r *ChunkRenderer) Release() {
	if r.sink != nil {
		r.sink.Release()
		r.sink = nil
	}
	r.indexCount = 0
	r.needsUpdate = true
	r.state = StateReleased
	r.mesh = block.Mesh{}
	r.flat = nil
}

func (r *ChunkRenderer) rebuild(src MeshSource) {
	defer profiling.Track("render.chunk.rebuild")()

	r.mesh.Reset()
	first := src.FirstBlockPosition()
	src.VisitBlocks(func(local geom.Vec3i, h block.Handle, outside block.Opacity) {
		if h.IsEmpty() {
			return
		}
		h.Block().Draw(&r.mesh, first.Add(local), outside)
	})
	r.needsUpdate = false
	r.indexCount = len(r.mesh.Indices)

	if r.indexCount == 0 {
		if r.sink != nil {
			r.sink.Release()
			r.sink = nil
		}
		return
	}
	if r.sink == nil {
		if r.newSink == nil {
			return
		}
		r.sink = r.newSink()
	}
	r.flat = r.mesh.Flatten(r.flat[:0])
	r.sink.Upload(r.flat, r.mesh.Indices)
}
