package ibl

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lhkbob/envbake/libio"
)

// DualParaboloid flattens the cube map into the two halves of a dual
// paraboloid map, each 2*side by 2*side texels. The positive half covers
// the +z hemisphere, the negative half -z. Texels outside the unit disc
// still receive the grazing directions the paraboloid folds onto them, so
// the halves overlap slightly and filter cleanly across the seam.
func DualParaboloid(env *CubeMap) (pos, neg *libio.FloatImage) {
	size := 2 * env.Side
	pos = libio.NewFloatImage(nil, 3, size, size)
	neg = libio.NewFloatImage(nil, 3, size, size)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			rx := 2*float64(x)/float64(size) - 1
			ry := 2*float64(y)/float64(size) - 1
			z := 0.5 - 0.5*(rx*rx+ry*ry)

			posDir := mgl64.Vec3{rx, ry, z}.Normalize()
			negDir := mgl64.Vec3{rx, ry, -z}.Normalize()

			storeTexel(pos.Texel(x, y), env.Lookup(posDir))
			storeTexel(neg.Texel(x, y), env.Lookup(negDir))
		}
	}
	return pos, neg
}

func storeTexel(dst []float32, c mgl64.Vec3) {
	dst[0] = float32(c.X())
	dst[1] = float32(c.Y())
	dst[2] = float32(c.Z())
}
