package world

import (
	"voxelstream/internal/block"
	"voxelstream/internal/geom"
	"voxelstream/internal/render"
	"voxelstream/internal/storage"
)

// Chunk is a fixed-size cube of blocks together with the outside opacity of
// every cell: bit s of a cell is set when the face on side s is hidden by
// whatever lies beyond it.
type Chunk struct {
	m        *Map
	pos      geom.Vec3i
	seed     uint32
	blocks   *storage.BlockArray
	outside  *storage.OpacityArray
	bounds   geom.Sphere
	renderer *render.ChunkRenderer
}

// newChunk takes ownership of blocks and outside and computes the interior
// opacity. Border cells stay open until syncBorder is called for a neighbor.
func newChunk(m *Map, pos geom.Vec3i, seed uint32, blocks *storage.BlockArray, outside *storage.OpacityArray) *Chunk {
	first := pos.MulElem(storage.Size)
	c := &Chunk{
		m:        m,
		pos:      pos,
		seed:     seed,
		blocks:   blocks,
		outside:  outside,
		bounds:   geom.BoxSphere(first.Vec3(), storage.Size.Vec3()),
		renderer: render.NewChunkRenderer(m.ctx.NewSink, m.ctx.Config.Render.FreeBufferTimeout),
	}
	c.buildOutsideOpacity()
	return c
}

func (c *Chunk) Pos() geom.Vec3i             { return c.pos }
func (c *Chunk) Seed() uint32                { return c.seed }
func (c *Chunk) BoundingSphere() geom.Sphere { return c.bounds }
func (c *Chunk) NeedsRebuild() bool          { return c.renderer.NeedsUpdate() }

// Renderer exposes the render state, mostly for inspection.
func (c *Chunk) Renderer() *render.ChunkRenderer { return c.renderer }

// FirstBlockPosition is the world position of local (0, 0, 0).
func (c *Chunk) FirstBlockPosition() geom.Vec3i {
	return c.pos.MulElem(storage.Size)
}

// At returns the block at a local position. Out of range positions panic.
func (c *Chunk) At(local geom.Vec3i) block.Handle {
	return c.blocks.Get(local)
}

// OutsideOpacity returns the cached outside opacity of a local cell.
func (c *Chunk) OutsideOpacity(local geom.Vec3i) block.Opacity {
	return c.outside.Get(local)
}

// VisitBlocks calls fn for every cell in x, y, z order.
func (c *Chunk) VisitBlocks(fn func(local geom.Vec3i, h block.Handle, outside block.Opacity)) {
	for x := 0; x < storage.Width; x++ {
		for y := 0; y < storage.Height; y++ {
			for z := 0; z < storage.Depth; z++ {
				fn(geom.Vec3i{X: x, Y: y, Z: z}, c.blocks.At(x, y, z), c.outside.At(x, y, z))
			}
		}
	}
}

// EmplaceBlock instantiates f into a cell. See PlaceBlock.
func (c *Chunk) EmplaceBlock(f block.Factory, local geom.Vec3i, notify bool) {
	c.PlaceBlock(f.Instantiate(), local, notify)
}

// PlaceBlock replaces the block in a cell. The opacity of the adjacent cells,
// including those across a chunk border, is always kept up to date. With
// notify the placed block and its neighbors get their callbacks. An empty
// handle panics; use RemoveBlock to clear a cell.
func (c *Chunk) PlaceBlock(h block.Handle, local geom.Vec3i, notify bool) {
	if h.IsEmpty() {
		panic("world: PlaceBlock with an empty handle")
	}
	c.blocks.Set(local.X, local.Y, local.Z, h)
	c.blockChanged(local, h, notify)
	if notify {
		h.Block().OnPlaced(c.m, c.worldPos(local))
	}
}

// RemoveBlock puts air into a cell and returns what was there.
func (c *Chunk) RemoveBlock(local geom.Vec3i, notify bool) block.Handle {
	old := c.blocks.Get(local)
	air := c.m.ctx.Air.Instantiate()
	c.blocks.Set(local.X, local.Y, local.Z, air)
	if notify && !old.IsEmpty() {
		old.Block().OnRemoved(c.m, c.worldPos(local))
	}
	c.blockChanged(local, air, notify)
	return old
}

// blockChanged folds the new block's faces into the adjacent cells' outside
// opacity and schedules the affected meshes.
func (c *Chunk) blockChanged(local geom.Vec3i, h block.Handle, notify bool) {
	opacity := h.SideOpacity()
	changedPos := c.worldPos(local)
	for _, s := range geom.Sides {
		adj := local.Add(s.Dir())
		target, targetLocal := c, adj
		if !storage.InBounds(adj) {
			target = c.m.ChunkAt(c.pos.Add(s.Dir()))
			if target == nil {
				continue
			}
			targetLocal = wrapLocal(adj)
		}
		// The adjacent cell looks at this block through its opposite side.
		target.outside.SetSide(targetLocal, s.Opposite(), opacity.Has(s))
		if notify {
			if nb := target.blocks.Get(targetLocal); !nb.IsEmpty() {
				nb.Block().OnAdjacentChanged(c.m, target.worldPos(targetLocal), h.Block(), changedPos)
			}
		}
		if target != c {
			target.renderer.ScheduleUpdate()
		}
	}
	c.renderer.ScheduleUpdate()
}

// OnAdjacentChunkPlaced syncs the face shared with a newly loaded neighbor.
func (c *Chunk) OnAdjacentChunkPlaced(nb *Chunk) {
	s, ok := geom.SideFromDir(nb.pos.Sub(c.pos))
	if !ok {
		return
	}
	c.syncBorder(nb, s)
	c.renderer.ScheduleUpdate()
}

// OnAdjacentChunkRemoved reopens the face towards side s after the neighbor
// there was unloaded.
func (c *Chunk) OnAdjacentChunkRemoved(s geom.Side) {
	forFace(s, func(p geom.Vec3i) {
		c.outside.SetSide(p, s, false)
	})
	c.renderer.ScheduleUpdate()
}

// UpdateAllAsIfPlaced fires OnPlaced for every non-air block, as if the chunk
// had been built block by block.
func (c *Chunk) UpdateAllAsIfPlaced() {
	air := c.m.ctx.Air.TypeID()
	c.VisitBlocks(func(local geom.Vec3i, h block.Handle, _ block.Opacity) {
		if h.IsEmpty() || h.Block().TypeID() == air {
			return
		}
		h.Block().OnPlaced(c.m, c.worldPos(local))
	})
}

// Draw, Culled and TooFarToDraw forward to the render state machine.

func (c *Chunk) Draw(dt float64, budget *render.Budget) bool {
	return c.renderer.Draw(c, dt, budget)
}

func (c *Chunk) Culled(dt float64, budget *render.Budget) bool {
	return c.renderer.Culled(c, dt, budget)
}

func (c *Chunk) TooFarToDraw(dt float64) {
	c.renderer.TooFarToDraw(dt)
}

// release frees GPU buffers and hands the block and opacity buffers back to
// the pool. The chunk must not be used afterwards.
func (c *Chunk) release() {
	c.renderer.Release()
	c.m.ctx.Pool.PutBlocks(c.blocks)
	c.m.ctx.Pool.PutOpacity(c.outside)
	c.blocks = nil
	c.outside = nil
}

func (c *Chunk) worldPos(local geom.Vec3i) geom.Vec3i {
	return c.FirstBlockPosition().Add(local)
}

const (
	padW = storage.Width + 2
	padH = storage.Height + 2
	padD = storage.Depth + 2
)

// buildOutsideOpacity recomputes every cell from intrinsic opacities gathered
// into a scratch volume padded by one open cell on each side.
func (c *Chunk) buildOutsideOpacity() {
	scratch := make([]block.Opacity, padW*padH*padD)
	at := func(x, y, z int) int { return (x*padH+y)*padD + z }

	for x := 0; x < storage.Width; x++ {
		for y := 0; y < storage.Height; y++ {
			for z := 0; z < storage.Depth; z++ {
				scratch[at(x+1, y+1, z+1)] = c.blocks.At(x, y, z).SideOpacity()
			}
		}
	}

	for x := 0; x < storage.Width; x++ {
		for y := 0; y < storage.Height; y++ {
			for z := 0; z < storage.Depth; z++ {
				var o block.Opacity
				for _, s := range geom.Sides {
					d := s.Dir()
					nb := scratch[at(x+1+d.X, y+1+d.Y, z+1+d.Z)]
					if nb.Has(s.Opposite()) {
						o |= 1 << s
					}
				}
				c.outside.Set(x, y, z, o)
			}
		}
	}
}

// syncBorder copies the opacity of nb's facing cells into the face of c on
// side s, where nb is the chunk adjacent on that side.
func (c *Chunk) syncBorder(nb *Chunk, s geom.Side) {
	d := s.Dir()
	forFace(s, func(p geom.Vec3i) {
		q := wrapLocal(p.Add(d))
		c.outside.SetSide(p, s, nb.blocks.Get(q).SideOpacity().Has(s.Opposite()))
	})
}

// forFace calls fn for every local cell on the face of side s.
func forFace(s geom.Side, fn func(p geom.Vec3i)) {
	d := s.Dir()
	fixed := func(dir, dim int) int {
		if dir > 0 {
			return dim - 1
		}
		return 0
	}
	switch {
	case d.X != 0:
		x := fixed(d.X, storage.Width)
		for y := 0; y < storage.Height; y++ {
			for z := 0; z < storage.Depth; z++ {
				fn(geom.Vec3i{X: x, Y: y, Z: z})
			}
		}
	case d.Y != 0:
		y := fixed(d.Y, storage.Height)
		for x := 0; x < storage.Width; x++ {
			for z := 0; z < storage.Depth; z++ {
				fn(geom.Vec3i{X: x, Y: y, Z: z})
			}
		}
	default:
		z := fixed(d.Z, storage.Depth)
		for x := 0; x < storage.Width; x++ {
			for y := 0; y < storage.Height; y++ {
				fn(geom.Vec3i{X: x, Y: y, Z: z})
			}
		}
	}
}

// wrapLocal maps a position one step outside the chunk to the matching cell of
// the neighbor.
func wrapLocal(p geom.Vec3i) geom.Vec3i {
	return geom.Vec3i{
		X: (p.X + storage.Width) % storage.Width,
		Y: (p.Y + storage.Height) % storage.Height,
		Z: (p.Z + storage.Depth) % storage.Depth,
	}
}
