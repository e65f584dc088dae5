package block

import "voxelstream/internal/geom"

// World is the view of the map a block gets inside its callbacks.
type World interface {
	// BlockAt returns the block at a world-space block position, if its chunk is loaded.
	BlockAt(pos geom.Vec3i) (Handle, bool)
}

// Block is the capability every block kind implements.
//
// Positions passed to callbacks and Draw are world-space block positions.
type Block interface {
	TypeID() int
	Name() string

	// SideOpacity reports which of the block's own faces occlude what is behind them.
	SideOpacity() Opacity

	// Draw appends the faces of the block that are not occluded according to
	// outside, the opacity of whatever lies beyond each face.
	Draw(m *Mesh, pos geom.Vec3i, outside Opacity)

	// Stateful blocks are cloned per cell; stateless ones share one instance.
	Stateful() bool
	Clone() Block

	OnPlaced(w World, pos geom.Vec3i)
	OnRemoved(w World, pos geom.Vec3i)
	OnAdjacentChanged(w World, pos geom.Vec3i, changed Block, changedPos geom.Vec3i)
}

// NopCallbacks gives a block kind empty placement callbacks.
type NopCallbacks struct{}

func (NopCallbacks) OnPlaced(World, geom.Vec3i)                             {}
func (NopCallbacks) OnRemoved(World, geom.Vec3i)                            {}
func (NopCallbacks) OnAdjacentChanged(World, geom.Vec3i, Block, geom.Vec3i) {}
