package storage

import (
	"fmt"

	"voxelstream/internal/block"
	"voxelstream/internal/geom"
)

const (
	// Chunk dimensions in blocks
	Width  = 32
	Height = 32
	Depth  = 32

	Volume = Width * Height * Depth
)

// Size is the chunk extent as a vector.
var Size = geom.Vec3i{X: Width, Y: Height, Z: Depth}

// InBounds reports whether a local position lies inside a chunk.
func InBounds(p geom.Vec3i) bool {
	return p.X >= 0 && p.X < Width && p.Y >= 0 && p.Y < Height && p.Z >= 0 && p.Z < Depth
}

// index converts local (x, y, z) to a flat index. Out of range positions are a
// programming error and panic.
func index(x, y, z int) int {
	if x < 0 || x >= Width || y < 0 || y >= Height || z < 0 || z >= Depth {
		panic(fmt.Sprintf("storage: local position (%d,%d,%d) out of chunk bounds", x, y, z))
	}
	return (x*Height+y)*Depth + z
}

// BlockArray is the dense block storage of one chunk.
type BlockArray struct {
	cells []block.Handle
}

func newBlockArray() *BlockArray {
	return &BlockArray{cells: make([]block.Handle, Volume)}
}

func (a *BlockArray) At(x, y, z int) block.Handle {
	return a.cells[index(x, y, z)]
}

func (a *BlockArray) Set(x, y, z int, h block.Handle) {
	a.cells[index(x, y, z)] = h
}

// Get is At taking a vector.
func (a *BlockArray) Get(p geom.Vec3i) block.Handle {
	return a.cells[index(p.X, p.Y, p.Z)]
}

// Fill sets every cell to h. Owned handles are cloned per cell.
func (a *BlockArray) Fill(h block.Handle) {
	for i := range a.cells {
		a.cells[i] = h.Clone()
	}
}

// reset returns every cell to the empty handle so blocks can be collected.
func (a *BlockArray) reset() {
	clear(a.cells)
}

// IsBlank reports whether every cell holds the empty handle.
func (a *BlockArray) IsBlank() bool {
	for i := range a.cells {
		if !a.cells[i].IsEmpty() {
			return false
		}
	}
	return true
}

// Len is the number of cells (always Volume for arrays handed out by a Pool).
func (a *BlockArray) Len() int {
	return len(a.cells)
}

// OpacityArray stores the outside opacity of every block of a chunk.
type OpacityArray struct {
	cells []block.Opacity
}

func newOpacityArray() *OpacityArray {
	return &OpacityArray{cells: make([]block.Opacity, Volume)}
}

func (a *OpacityArray) At(x, y, z int) block.Opacity {
	return a.cells[index(x, y, z)]
}

func (a *OpacityArray) Set(x, y, z int, o block.Opacity) {
	a.cells[index(x, y, z)] = o
}

func (a *OpacityArray) Get(p geom.Vec3i) block.Opacity {
	return a.cells[index(p.X, p.Y, p.Z)]
}

// SetSide updates a single side of one cell.
func (a *OpacityArray) SetSide(p geom.Vec3i, s geom.Side, opaque bool) {
	i := index(p.X, p.Y, p.Z)
	a.cells[i] = a.cells[i].With(s, opaque)
}

func (a *OpacityArray) reset() {
	clear(a.cells)
}

func (a *OpacityArray) IsBlank() bool {
	for _, o := range a.cells {
		if o != block.OpacityNone {
			return false
		}
	}
	return true
}

func (a *OpacityArray) Len() int {
	return len(a.cells)
}
