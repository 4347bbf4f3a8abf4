package ibl

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face indexes one side of a cube map. The order matches the face layout
// in memory and in cache files, it must not change.
type Face int

const (
	FacePX Face = iota
	FacePY
	FacePZ
	FaceNX
	FaceNY
	FaceNZ
)

var faceNames = [6]string{"px", "py", "pz", "nx", "ny", "nz"}

func (f Face) String() string {
	if f < FacePX || f > FaceNZ {
		return fmt.Sprintf("face(%d)", int(f))
	}
	return faceNames[f]
}

// TexelDirection returns the unit vector through the center of texel
// (x, y) on this face of a cube map with the given side length.
func (f Face) TexelDirection(x, y, side int) mgl64.Vec3 {
	sc := 2*(float64(x)+0.5)/float64(side) - 1
	tc := 2*(float64(y)+0.5)/float64(side) - 1

	var v mgl64.Vec3
	switch f {
	case FacePX:
		v = mgl64.Vec3{1, -tc, -sc}
	case FacePY:
		v = mgl64.Vec3{sc, 1, tc}
	case FacePZ:
		v = mgl64.Vec3{sc, -tc, 1}
	case FaceNX:
		v = mgl64.Vec3{-1, -tc, sc}
	case FaceNY:
		v = mgl64.Vec3{sc, -1, -tc}
	case FaceNZ:
		v = mgl64.Vec3{-sc, -tc, -1}
	default:
		panic(fmt.Sprintf("invalid cube map face %d", int(f)))
	}
	return v.Normalize()
}

// faceProject picks the face the direction passes through and projects
// onto it, returning coordinates in [-1, 1]. The major axis comparison
// resolves exact edge directions towards z, then x.
func faceProject(dir mgl64.Vec3) (Face, float64, float64) {
	x, y, z := dir.X(), dir.Y(), dir.Z()
	ax, ay, az := math.Abs(x), math.Abs(y), math.Abs(z)

	switch {
	case ax > ay && ax > az:
		if x >= 0 {
			return FacePX, -z / ax, -y / ax
		}
		return FaceNX, z / ax, -y / ax
	case ay > ax && ay > az:
		if y >= 0 {
			return FacePY, x / ay, z / ay
		}
		return FaceNY, x / ay, -z / ay
	default:
		if z >= 0 {
			return FacePZ, x / az, -y / az
		}
		return FaceNZ, -x / az, -y / az
	}
}

// DirectionToTexel maps a direction to the face and texel it passes
// through on a cube map with the given side length.
func DirectionToTexel(dir mgl64.Vec3, side int) (Face, int, int) {
	face, s, t := faceProject(dir)
	x := int(0.5 * (s + 1) * float64(side))
	y := int(0.5 * (t + 1) * float64(side))
	if x > side-1 {
		x = side - 1
	}
	if y > side-1 {
		y = side - 1
	}
	return face, x, y
}

// CubeMap is a six face float32 rgb image with square faces of equal
// size. All faces share a single backing array in Face order.
type CubeMap struct {
	Side  int
	Faces [6][]float32

	data []float32
}

// NewCubeMap creates a cube map with the given side length. If data is
// not nil it becomes the backing array and must hold 6*side*side*3
// floats, otherwise a zeroed array is allocated.
func NewCubeMap(side int, data []float32) *CubeMap {
	faceLen := side * side * 3
	if data == nil {
		data = make([]float32, 6*faceLen)
	}
	cm := &CubeMap{Side: side, data: data}
	for i := range cm.Faces {
		cm.Faces[i] = data[i*faceLen : (i+1)*faceLen : (i+1)*faceLen]
	}
	return cm
}

// Data returns the shared backing array in face order.
func (cm *CubeMap) Data() []float32 {
	return cm.data
}

// At returns the color of texel (x, y) on the face.
func (cm *CubeMap) At(f Face, x, y int) mgl64.Vec3 {
	t := cm.texel(f, x, y)
	return mgl64.Vec3{float64(t[0]), float64(t[1]), float64(t[2])}
}

// Set stores a color at texel (x, y) on the face.
func (cm *CubeMap) Set(f Face, x, y int, c mgl64.Vec3) {
	t := cm.texel(f, x, y)
	t[0] = float32(c.X())
	t[1] = float32(c.Y())
	t[2] = float32(c.Z())
}

func (cm *CubeMap) texel(f Face, x, y int) []float32 {
	if x < 0 || y < 0 || x >= cm.Side || y >= cm.Side {
		panic(fmt.Sprintf("texel (%d, %d) outside %dx%d cube map face", x, y, cm.Side, cm.Side))
	}
	o := (y*cm.Side + x) * 3
	return cm.Faces[f][o : o+3 : o+3]
}

// Lookup bilinearly samples the cube map in the given direction. The
// filter footprint is clamped to the face, directions near an edge do not
// blend across it.
func (cm *CubeMap) Lookup(dir mgl64.Vec3) mgl64.Vec3 {
	face, s, t := faceProject(dir)
	if cm.Side < 2 {
		return cm.At(face, 0, 0)
	}

	side := float64(cm.Side)
	u := clamp(0.5*(s+1)*side, 0, side-2)
	v := clamp(0.5*(t+1)*side, 0, side-2)

	x, y := int(u), int(v)
	ax := u - float64(x)
	ay := v - float64(y)

	bottom := cm.At(face, x, y).Mul(1 - ax).Add(cm.At(face, x+1, y).Mul(ax))
	top := cm.At(face, x, y+1).Mul(1 - ax).Add(cm.At(face, x+1, y+1).Mul(ax))
	return bottom.Mul(1 - ay).Add(top.Mul(ay))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
