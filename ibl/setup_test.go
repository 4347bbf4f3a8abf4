package ibl_test

import (
	"math/rand"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lhkbob/envbake/ibl"
	"github.com/lhkbob/envbake/libio"
)

var testdata struct {
	tiny  ibl.Layout
	cross *libio.FloatImage
	baked *ibl.EnvMap
}

func TestMain(m *testing.M) {
	testdata.tiny = ibl.Layout{
		DiffuseSide: 4,
		Exponents:   []float64{-1, 2, -1},
		Sides:       []int{4, 4, -1},
	}
	testdata.cross = makeGradientCross(2)

	var err error
	testdata.baked, err = ibl.NewEnvMapFromCross(testdata.cross, testdata.tiny)
	check(err)

	os.Exit(m.Run())
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

// makeGradientCross builds a vertical cross image with a smooth value
// ramp, so neighboring texels stay distinct without hard edges.
func makeGradientCross(side int) *libio.FloatImage {
	img := libio.NewFloatImage(nil, 3, 3*side, 4*side)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			t := img.Texel(x, y)
			t[0] = 0.1 + 0.01*float32(x)
			t[1] = 0.2 + 0.01*float32(y)
			t[2] = 0.5
		}
	}
	return img
}

// makeConstantCube fills every face with the same color.
func makeConstantCube(side int, c mgl64.Vec3) *ibl.CubeMap {
	cm := ibl.NewCubeMap(side, nil)
	for face := ibl.FacePX; face <= ibl.FaceNZ; face++ {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				cm.Set(face, x, y, c)
			}
		}
	}
	return cm
}

// makePatchCube builds a black cube with one bright patch per face. The
// patch starts at (2, 2) and covers patch x patch texels, each face a bit
// brighter than the previous one.
func makePatchCube(side, patch int) *ibl.CubeMap {
	cm := ibl.NewCubeMap(side, nil)
	for face := ibl.FacePX; face <= ibl.FaceNZ; face++ {
		brightness := 100.0 + 10.0*float64(face)
		for y := 2; y < 2+patch; y++ {
			for x := 2; x < 2+patch; x++ {
				cm.Set(face, x, y, mgl64.Vec3{brightness, brightness, brightness})
			}
		}
	}
	return cm
}

// cubeEnergy sums radiance weighted by solid angle over the whole cube,
// the total illumination an exact sampling must account for.
func cubeEnergy(cm *ibl.CubeMap) mgl64.Vec3 {
	var sum mgl64.Vec3
	for face := ibl.FacePX; face <= ibl.FaceNZ; face++ {
		for y := 0; y < cm.Side; y++ {
			for x := 0; x < cm.Side; x++ {
				sum = sum.Add(cm.At(face, x, y).Mul(ibl.TexelSolidAngle(x, y, cm.Side)))
			}
		}
	}
	return sum
}

func randomFloats(count int, min, max float32) []float32 {
	rng := rand.New(rand.NewSource(0))
	ret := make([]float32, count)
	for i := range ret {
		ret[i] = rng.Float32()*(max-min) + min
	}
	return ret
}

func samplesDescending(s []ibl.Sample) bool {
	for i := 1; i < len(s); i++ {
		if s[i].Illumination.LenSqr() > s[i-1].Illumination.LenSqr() {
			return false
		}
	}
	return true
}

func samplesAscending(s []ibl.Sample) bool {
	for i := 1; i < len(s); i++ {
		if s[i].Illumination.LenSqr() < s[i-1].Illumination.LenSqr() {
			return false
		}
	}
	return true
}
