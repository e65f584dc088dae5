package physics

import "voxelstream/internal/geom"

// FindGroundLevel returns the top surface of the highest solid block in
// column (x, z) at or below fromY, scanning down to minY. ok is false when
// the column is empty over that range.
func FindGroundLevel(x, z, fromY, minY int, w Solids) (top int, ok bool) {
	for y := fromY; y >= minY; y-- {
		if w.IsSolid(geom.Vec3i{X: x, Y: y, Z: z}) {
			return y + 1, true
		}
	}
	return 0, false
}
