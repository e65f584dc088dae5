package block

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/geom"
)

// Vertex layout: position (3 floats) followed by texture coordinates (2 floats).
type Vertex struct {
	Pos mgl32.Vec3
	UV  mgl32.Vec2
}

// VertexFloats is the number of float32 values per Vertex.
const VertexFloats = 5

// Mesh collects the vertices and triangle indices of one chunk rebuild.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Reset empties the mesh while keeping its capacity.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
}

// Quads returns the number of quads appended so far.
func (m *Mesh) Quads() int {
	return len(m.Indices) / 6
}

// AddQuad appends a quad given counter-clockwise corners (bottom-left first).
func (m *Mesh) AddQuad(corners [4]mgl32.Vec3, uv [4]mgl32.Vec2) {
	base := uint32(len(m.Vertices))
	for i := range corners {
		m.Vertices = append(m.Vertices, Vertex{Pos: corners[i], UV: uv[i]})
	}
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}

// Flatten writes the vertices as interleaved floats into dst and returns it.
func (m *Mesh) Flatten(dst []float32) []float32 {
	dst = dst[:0]
	for _, v := range m.Vertices {
		dst = append(dst, v.Pos[0], v.Pos[1], v.Pos[2], v.UV[0], v.UV[1])
	}
	return dst
}

// faceCorners holds unit-cube corners per side, counter-clockwise when seen
// from outside the cube, starting at the bottom-left.
var faceCorners = [geom.NumSides][4]mgl32.Vec3{
	geom.East:   {{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
	geom.West:   {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	geom.Top:    {{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}},
	geom.Bottom: {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	geom.South:  {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	geom.North:  {{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}},
}

// FaceCorners returns the four corners of side s of the unit block at pos.
func FaceCorners(pos geom.Vec3i, s geom.Side) [4]mgl32.Vec3 {
	origin := pos.Vec3()
	var out [4]mgl32.Vec3
	for i, c := range faceCorners[s] {
		out[i] = origin.Add(c)
	}
	return out
}
