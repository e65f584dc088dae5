package block

import (
	"strings"

	"voxelstream/internal/geom"
)

// Opacity is a per-side bit mask. Bit n is set when side geom.Side(n) is opaque.
type Opacity uint8

const (
	OpacityNone Opacity = 0
	OpacityFull Opacity = 1<<geom.NumSides - 1
)

// OpacityOf builds a mask with the given sides set.
func OpacityOf(sides ...geom.Side) Opacity {
	var o Opacity
	for _, s := range sides {
		o |= 1 << s
	}
	return o
}

func (o Opacity) Has(s geom.Side) bool {
	return o&(1<<s) != 0
}

// With returns o with side s set to v.
func (o Opacity) With(s geom.Side, v bool) Opacity {
	if v {
		return o | 1<<s
	}
	return o &^ (1 << s)
}

func (o Opacity) String() string {
	if o == OpacityNone {
		return "none"
	}
	if o == OpacityFull {
		return "full"
	}
	var parts []string
	for _, s := range geom.Sides {
		if o.Has(s) {
			parts = append(parts, s.String())
		}
	}
	return strings.Join(parts, "|")
}
