package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/geom"
	"voxelstream/internal/profiling"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 8.0
)

// Solids answers whether a world block position holds a solid block.
// Unloaded positions are not solid.
type Solids interface {
	IsSolid(pos geom.Vec3i) bool
}

// RaycastResult describes the first solid block along a ray.
type RaycastResult struct {
	HitPosition      geom.Vec3i
	AdjacentPosition geom.Vec3i // the cell the ray came from
	Face             geom.Side  // face of the hit block the ray entered through
	Distance         float32
	Hit              bool
}

// Raycast walks the block grid along the ray and returns the first solid
// block whose entry distance lies in [minDist, maxDist]. Block (x, y, z)
// occupies [x, x+1) on each axis. dir need not be normalized.
func Raycast(start, dir mgl32.Vec3, minDist, maxDist float32, w Solids) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	if dir.Len() == 0 {
		return RaycastResult{}
	}
	dir = dir.Normalize()

	cell := geom.FloorToInt(start)
	var step [3]int
	var tMax, tDelta [3]float64
	for i := 0; i < 3; i++ {
		d := float64(dir[i])
		s := float64(start[i])
		c := float64(component(cell, i))
		switch {
		case d > 0:
			step[i] = 1
			tMax[i] = (c + 1 - s) / d
			tDelta[i] = 1 / d
		case d < 0:
			step[i] = -1
			tMax[i] = (c - s) / d
			tDelta[i] = -1 / d
		default:
			tMax[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
		}
	}

	var t float64
	prev := cell
	for t <= float64(maxDist) {
		if t >= float64(minDist) && w.IsSolid(cell) {
			face, _ := geom.SideFromDir(prev.Sub(cell))
			return RaycastResult{
				HitPosition:      cell,
				AdjacentPosition: prev,
				Face:             face,
				Distance:         float32(t),
				Hit:              true,
			}
		}
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		prev = cell
		cell = withComponent(cell, axis, component(cell, axis)+step[axis])
		t = tMax[axis]
		tMax[axis] += tDelta[axis]
	}
	return RaycastResult{}
}

func component(v geom.Vec3i, i int) int {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

func withComponent(v geom.Vec3i, i, x int) geom.Vec3i {
	switch i {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	default:
		v.Z = x
	}
	return v
}
