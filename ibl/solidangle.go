package ibl

import "math"

// areaElement integrates the solid angle of the axis aligned rectangle
// spanned by the origin and (x, y) on the z=1 plane, projected onto the
// unit sphere.
func areaElement(x, y float64) float64 {
	return math.Atan2(x*y, math.Sqrt(x*x+y*y+1))
}

// TexelSolidAngle computes the solid angle subtended by texel (x, y) of a
// cube map face with the given side length. Adapted from AMD CubeMapGen.
func TexelSolidAngle(x, y, side int) float64 {
	inv := 1 / float64(side)
	u := 2*(float64(x)+0.5)*inv - 1
	v := 2*(float64(y)+0.5)*inv - 1

	x0 := u - inv
	y0 := v - inv
	x1 := u + inv
	y1 := v + inv

	return areaElement(x0, y0) - areaElement(x0, y1) - areaElement(x1, y0) + areaElement(x1, y1)
}

// SolidAngles returns the per texel solid angles of one face, indexed by
// y*side+x. The table is the same for all six faces.
func SolidAngles(side int) []float64 {
	sa := make([]float64, side*side)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			sa[y*side+x] = TexelSolidAngle(x, y, side)
		}
	}
	return sa
}
