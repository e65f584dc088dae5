package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/geom"
)

type plane struct {
	a, b, c, d float32
}

func (p plane) distance(v mgl32.Vec3) float32 {
	return p.a*v.X() + p.b*v.Y() + p.c*v.Z() + p.d
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// Frustum is the view volume as six inward-facing planes in the order
// left, right, bottom, top, near, far.
type Frustum struct {
	planes [6]plane
}

// FrustumFromMatrix extracts the planes of a combined projection*view matrix.
func FrustumFromMatrix(clip mgl32.Mat4) Frustum {
	// mgl32 matrices are column-major
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	var f Frustum
	f.planes[0] = normalizePlane(plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03})
	f.planes[1] = normalizePlane(plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03})
	f.planes[2] = normalizePlane(plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13})
	f.planes[3] = normalizePlane(plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13})
	f.planes[4] = normalizePlane(plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23})
	f.planes[5] = normalizePlane(plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23})
	return f
}

// IntersectsSphere reports whether any part of s may be inside the frustum.
func (f Frustum) IntersectsSphere(s geom.Sphere) bool {
	for _, p := range f.planes {
		if p.distance(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether v is inside all six planes.
func (f Frustum) ContainsPoint(v mgl32.Vec3) bool {
	for _, p := range f.planes {
		if p.distance(v) < 0 {
			return false
		}
	}
	return true
}

// Camera is what the map needs to decide what to draw.
type Camera interface {
	Position() mgl32.Vec3
	ViewProjection() mgl32.Mat4
}

// StaticCamera is a fixed camera described by its position and matrices.
type StaticCamera struct {
	Pos  mgl32.Vec3
	View mgl32.Mat4
	Proj mgl32.Mat4
}

// LookAtCamera builds a perspective camera at pos looking at target.
// fovy is in degrees.
func LookAtCamera(pos, target mgl32.Vec3, fovy, aspect, near, far float32) StaticCamera {
	return StaticCamera{
		Pos:  pos,
		View: mgl32.LookAtV(pos, target, mgl32.Vec3{0, 1, 0}),
		Proj: mgl32.Perspective(mgl32.DegToRad(fovy), aspect, near, far),
	}
}

func (c StaticCamera) Position() mgl32.Vec3 { return c.Pos }

func (c StaticCamera) ViewProjection() mgl32.Mat4 { return c.Proj.Mul4(c.View) }
