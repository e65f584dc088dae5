package block

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/geom"
)

// Kind describes how blocks of one implementation are built from a Definition.
type Kind struct {
	Stateful bool
	New      func(def *Definition) Block
}

var builtinKinds = map[string]Kind{
	"empty": {New: func(def *Definition) Block { return &Empty{def: def} }},
	"plain": {New: func(def *Definition) Block { return &Plain{def: def} }},
}

// Empty is a block with no faces and no opacity. Air is an Empty block.
type Empty struct {
	NopCallbacks
	def *Definition
}

func (b *Empty) TypeID() int                     { return b.def.id }
func (b *Empty) Name() string                    { return b.def.Name }
func (b *Empty) SideOpacity() Opacity            { return OpacityNone }
func (b *Empty) Draw(*Mesh, geom.Vec3i, Opacity) {}
func (b *Empty) Stateful() bool                  { return false }
func (b *Empty) Clone() Block {
	c := *b
	return &c
}

// Plain is a textured cube whose opacity comes from its definition.
type Plain struct {
	NopCallbacks
	def *Definition
}

func (b *Plain) TypeID() int          { return b.def.id }
func (b *Plain) Name() string         { return b.def.Name }
func (b *Plain) SideOpacity() Opacity { return b.def.opacity }
func (b *Plain) Stateful() bool       { return false }
func (b *Plain) Clone() Block {
	c := *b
	return &c
}

func (b *Plain) Draw(m *Mesh, pos geom.Vec3i, outside Opacity) {
	for _, s := range geom.Sides {
		if outside.Has(s) {
			continue
		}
		m.AddQuad(FaceCorners(pos, s), b.def.faceUV(s))
	}
}

// faceUV maps the side's atlas tile to corner texture coordinates matching
// the corner order of FaceCorners.
func (d *Definition) faceUV(s geom.Side) [4]mgl32.Vec2 {
	t := d.tiles[s]
	k := d.tileScale
	u0, v0 := float32(t[0])*k, float32(t[1])*k
	u1, v1 := u0+k, v0+k
	return [4]mgl32.Vec2{{u0, v1}, {u1, v1}, {u1, v0}, {u0, v0}}
}
