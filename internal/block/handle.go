package block

// Handle is what a chunk cell stores: either a shared instance of a stateless
// block or a block owned by that cell alone. The zero Handle is empty.
type Handle struct {
	b     Block
	owned bool
}

// Shared wraps a stateless singleton. Copies of the handle point to the same block.
func Shared(b Block) Handle {
	return Handle{b: b}
}

// Owned wraps a block that belongs to exactly one cell. Clone deep-copies it.
func Owned(b Block) Handle {
	return Handle{b: b, owned: true}
}

// Block returns the wrapped block, or nil for an empty handle.
func (h Handle) Block() Block {
	return h.b
}

func (h Handle) IsEmpty() bool {
	return h.b == nil
}

func (h Handle) IsOwned() bool {
	return h.owned
}

// Clone returns an independent handle. Shared handles are returned as is.
func (h Handle) Clone() Handle {
	if !h.owned || h.b == nil {
		return h
	}
	return Owned(h.b.Clone())
}

// SideOpacity is the block's intrinsic opacity; empty handles are transparent.
func (h Handle) SideOpacity() Opacity {
	if h.b == nil {
		return OpacityNone
	}
	return h.b.SideOpacity()
}
