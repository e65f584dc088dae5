package geom

import "github.com/go-gl/mathgl/mgl32"

// Sphere is a bounding sphere in world space.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// BoxSphere returns the smallest sphere enclosing the axis-aligned box that
// starts at origin and spans size.
func BoxSphere(origin, size mgl32.Vec3) Sphere {
	return Sphere{
		Center: origin.Add(size.Mul(0.5)),
		Radius: size.Len() / 2,
	}
}
