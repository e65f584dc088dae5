// Package glmesh stores chunk meshes in OpenGL buffers. Everything here must
// run on the goroutine owning the GL context.
package glmesh

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/atomic"

	"voxelstream/internal/block"
	"voxelstream/internal/render"
)

// Stats counts live GL objects and traffic across all sinks of a Factory.
type Stats struct {
	Live          atomic.Int64
	BytesUploaded atomic.Int64
	DrawCalls     atomic.Int64
}

// Sink is one chunk's vertex array with its vertex and index buffers. The GL
// objects are created on the first upload.
type Sink struct {
	vao, vbo, ibo uint32
	vboCap        int
	iboCap        int
	stats         *Stats
}

// Factory returns a render.SinkFactory producing GL sinks that report into st.
func Factory(st *Stats) render.SinkFactory {
	return func() render.MeshSink { return &Sink{stats: st} }
}

func (s *Sink) init() {
	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)
	gl.GenBuffers(1, &s.ibo)

	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	// The element buffer binding is part of the VAO state.
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, s.ibo)

	stride := int32(block.VertexFloats * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if s.stats != nil {
		s.stats.Live.Inc()
	}
}

// Upload replaces the buffer contents, growing the storage only when needed.
func (s *Sink) Upload(vertices []float32, indices []uint32) {
	if len(indices) == 0 || len(vertices) == 0 {
		return
	}
	if s.vao == 0 {
		s.init()
	}
	vbytes, ibytes := len(vertices)*4, len(indices)*4

	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	if vbytes > s.vboCap {
		gl.BufferData(gl.ARRAY_BUFFER, vbytes, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
		s.vboCap = vbytes
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, vbytes, gl.Ptr(vertices))
	}
	if ibytes > s.iboCap {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, ibytes, gl.Ptr(indices), gl.DYNAMIC_DRAW)
		s.iboCap = ibytes
	} else {
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, ibytes, gl.Ptr(indices))
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if s.stats != nil {
		s.stats.BytesUploaded.Add(int64(vbytes + ibytes))
	}
}

// Draw issues an indexed triangle draw. The caller binds the program.
func (s *Sink) Draw(count int) {
	if s.vao == 0 || count <= 0 {
		return
	}
	gl.BindVertexArray(s.vao)
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
	if s.stats != nil {
		s.stats.DrawCalls.Inc()
	}
}

// Release deletes the GL objects. The sink may be uploaded to again.
func (s *Sink) Release() {
	if s.vao == 0 {
		return
	}
	gl.DeleteBuffers(1, &s.ibo)
	gl.DeleteBuffers(1, &s.vbo)
	gl.DeleteVertexArrays(1, &s.vao)
	s.vao, s.vbo, s.ibo = 0, 0, 0
	s.vboCap, s.iboCap = 0, 0
	if s.stats != nil {
		s.stats.Live.Dec()
	}
}
