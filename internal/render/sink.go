package render

import "go.uber.org/atomic"

// MeshSink is the GPU side of a chunk mesh. Upload replaces whatever was
// stored before; Draw issues an indexed draw of the first count indices.
type MeshSink interface {
	Upload(vertices []float32, indices []uint32)
	Draw(count int)
	Release()
}

// SinkFactory creates a sink lazily, on the first rebuild of a chunk.
type SinkFactory func() MeshSink

// CountingSink keeps no data and only counts calls. It backs headless runs
// and tests.
type CountingSink struct {
	Uploads  atomic.Int64
	Draws    atomic.Int64
	Releases atomic.Int64
	Indices  atomic.Int64
}

func (s *CountingSink) Upload(vertices []float32, indices []uint32) {
	s.Uploads.Inc()
	s.Indices.Store(int64(len(indices)))
}

func (s *CountingSink) Draw(count int) {
	s.Draws.Inc()
}

func (s *CountingSink) Release() {
	s.Releases.Inc()
	s.Indices.Store(0)
}

// CountingSinks returns a factory whose sinks all report into one shared
// CountingSink.
func CountingSinks(shared *CountingSink) SinkFactory {
	return func() MeshSink { return shared }
}
