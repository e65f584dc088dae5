package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FlyCamera is a free-flying perspective camera. Yaw and pitch are in
// degrees; yaw 0 looks along +X and -90 along -Z.
type FlyCamera struct {
	Pos   mgl32.Vec3
	Yaw   float32
	Pitch float32

	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	Speed       float32 // blocks per second
	BoostFactor float32
	Sensitivity float32 // degrees per pixel of mouse movement
}

func NewFlyCamera(pos mgl32.Vec3, width, height int, fov, near, far float32) *FlyCamera {
	c := &FlyCamera{
		Pos:         pos,
		Yaw:         -90,
		FOV:         fov,
		NearPlane:   near,
		FarPlane:    far,
		Speed:       20,
		BoostFactor: 5,
		Sensitivity: 0.1,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the aspect ratio. Zero heights are ignored.
func (c *FlyCamera) SetViewport(width, height int) {
	if height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

func (c *FlyCamera) Position() mgl32.Vec3 { return c.Pos }

// Front is the unit view direction.
func (c *FlyCamera) Front() mgl32.Vec3 {
	y := float64(mgl32.DegToRad(c.Yaw))
	p := float64(mgl32.DegToRad(c.Pitch))
	return mgl32.Vec3{
		float32(math.Cos(y) * math.Cos(p)),
		float32(math.Sin(p)),
		float32(math.Sin(y) * math.Cos(p)),
	}.Normalize()
}

func (c *FlyCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Pos, c.Pos.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

func (c *FlyCamera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *FlyCamera) ViewProjection() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// Look turns the camera by a mouse movement in pixels. Pitch is clamped short
// of straight up and down.
func (c *FlyCamera) Look(dx, dy float64) {
	c.Yaw += float32(dx) * c.Sensitivity
	c.Pitch -= float32(dy) * c.Sensitivity
	c.Pitch = mgl32.Clamp(c.Pitch, -89, 89)
	c.Yaw = float32(math.Mod(float64(c.Yaw), 360))
}

// Move flies along the view direction (forward), its horizontal right
// vector (right) and world up (up). Each axis is -1, 0 or 1.
func (c *FlyCamera) Move(forward, right, up float32, boost bool, dt float64) {
	front := c.Front()
	rightVec := front.Cross(mgl32.Vec3{0, 1, 0})
	if rightVec.Len() > 0 {
		rightVec = rightVec.Normalize()
	}
	dir := front.Mul(forward).Add(rightVec.Mul(right)).Add(mgl32.Vec3{0, up, 0})
	if dir.Len() == 0 {
		return
	}
	speed := c.Speed
	if boost {
		speed *= c.BoostFactor
	}
	c.Pos = c.Pos.Add(dir.Normalize().Mul(speed * float32(dt)))
}
