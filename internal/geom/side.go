package geom

import "strings"

// Side identifies one of the six faces of a cube (or one of the six
// face-adjacent neighbors of a chunk).
type Side int

const (
	East   Side = iota // +X
	West               // -X
	Top                // +Y
	Bottom             // -Y
	South              // +Z
	North              // -Z

	NumSides = 6
)

var sideDirs = [NumSides]Vec3i{
	East:   {1, 0, 0},
	West:   {-1, 0, 0},
	Top:    {0, 1, 0},
	Bottom: {0, -1, 0},
	South:  {0, 0, 1},
	North:  {0, 0, -1},
}

var sideNames = [NumSides]string{"East", "West", "Top", "Bottom", "South", "North"}

// Sides lists every side in declaration order.
var Sides = [NumSides]Side{East, West, Top, Bottom, South, North}

// Dir returns the unit offset pointing out of this side.
func (s Side) Dir() Vec3i {
	return sideDirs[s]
}

// Opposite returns the side facing s (East <-> West, Top <-> Bottom, South <-> North).
func (s Side) Opposite() Side {
	return s ^ 1
}

func (s Side) String() string {
	if s < 0 || s >= NumSides {
		return "Side(?)"
	}
	return sideNames[s]
}

// ParseSide accepts the side name case-insensitively, or just its first letter.
func ParseSide(name string) (Side, bool) {
	if name == "" {
		return 0, false
	}
	for _, s := range Sides {
		if strings.EqualFold(name, sideNames[s]) || strings.EqualFold(name, sideNames[s][:1]) {
			return s, true
		}
	}
	return 0, false
}

// SideFromDir maps a unit offset back to its side.
func SideFromDir(d Vec3i) (Side, bool) {
	for _, s := range Sides {
		if sideDirs[s] == d {
			return s, true
		}
	}
	return 0, false
}
