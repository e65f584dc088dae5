package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3i is an integer 3D position. It is used both for chunk coordinates and
// for block positions (local or world space).
type Vec3i struct {
	X, Y, Z int
}

func (v Vec3i) Add(o Vec3i) Vec3i {
	return Vec3i{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3i) Sub(o Vec3i) Vec3i {
	return Vec3i{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// MulElem multiplies component-wise.
func (v Vec3i) MulElem(o Vec3i) Vec3i {
	return Vec3i{v.X * o.X, v.Y * o.Y, v.Z * o.Z}
}

func (v Vec3i) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (v Vec3i) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// Chebyshev returns max(|dx|,|dy|,|dz|).
func Chebyshev(a, b Vec3i) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y), abs(a.Z-b.Z))
}

// FloorDiv divides rounding towards negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns a non-negative remainder for positive b.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// FloorToInt floors every component of v.
func FloorToInt(v mgl32.Vec3) Vec3i {
	return Vec3i{
		int(math.Floor(float64(v.X()))),
		int(math.Floor(float64(v.Y()))),
		int(math.Floor(float64(v.Z()))),
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
