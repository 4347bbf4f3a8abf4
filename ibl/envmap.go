package ibl

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/lhkbob/envbake/libio"
)

// Layout describes the resolution plan of a baked environment: the side
// length of the diffuse irradiance map and, per specular level, the Phong
// exponent it is convolved with and its side length. A side of -1 mirrors
// the radiance input resolution.
//
// The first level always duplicates the second and the last level is
// always the unconvolved radiance, shininess ramps below the softest lobe
// and above the sharpest one have something to blend to either side.
type Layout struct {
	DiffuseSide int
	Exponents   []float64
	Sides       []int
}

// DefaultLayout is the plan renderers load by default: a 32 pixel diffuse
// map and 14 specular levels ramping from matte to mirror.
var DefaultLayout = Layout{
	DiffuseSide: 32,
	Exponents:   []float64{-1, 1, 10, 20, 50, 150, 300, 600, 1200, 2400, 5000, 8000, 10000, -1},
	Sides:       []int{64, 64, 64, 64, 64, 64, 64, 128, 128, 128, 256, 256, 256, -1},
}

// SpecularCount returns the number of specular levels.
func (lv Layout) SpecularCount() int {
	return len(lv.Sides)
}

// side resolves level m against the radiance resolution.
func (lv Layout) side(m, radianceSide int) int {
	if lv.Sides[m] < 0 {
		return radianceSide
	}
	return lv.Sides[m]
}

func (lv Layout) validate() error {
	n := len(lv.Sides)
	if len(lv.Exponents) != n {
		return fmt.Errorf("layout has %d exponents for %d levels", len(lv.Exponents), n)
	}
	if n < 2 {
		return fmt.Errorf("layout needs at least 2 specular levels, got %d", n)
	}
	if lv.DiffuseSide < 1 {
		return fmt.Errorf("invalid diffuse size %d", lv.DiffuseSide)
	}
	if lv.Exponents[0] != -1 || lv.Sides[0] != lv.Sides[1] {
		return fmt.Errorf("layout level 0 must duplicate level 1")
	}
	if lv.Exponents[n-1] != -1 || lv.Sides[n-1] != -1 {
		return fmt.Errorf("layout level %d must be the unconvolved radiance", n-1)
	}
	for i := 1; i < n-1; i++ {
		if lv.Exponents[i] <= 0 {
			return fmt.Errorf("invalid exponent %f for level %d", lv.Exponents[i], i)
		}
		if lv.Sides[i] < 1 && lv.Sides[i] != -1 {
			return fmt.Errorf("invalid size %d for level %d", lv.Sides[i], i)
		}
	}
	return nil
}

// EnvMap is a fully baked environment: the radiance cube map sliced from
// the source panorama, its diffuse irradiance, the specular irradiance
// pyramid of the layout, and one light sample per radiance texel ranked
// by illumination.
type EnvMap struct {
	Layout   Layout
	Radiance *CubeMap
	Diffuse  *CubeMap
	Specular []*CubeMap

	samples []Sample
}

// NewEnvMapFromCross bakes the full environment from a vertical cross
// radiance image.
func NewEnvMapFromCross(img *libio.FloatImage, lv Layout) (*EnvMap, error) {
	if err := lv.validate(); err != nil {
		return nil, err
	}
	radiance, err := ConvertCross(img)
	if err != nil {
		return nil, err
	}
	return newEnvMap(radiance, lv)
}

// NewEnvMap bakes the full environment from an already sliced radiance
// cube map.
func NewEnvMap(radiance *CubeMap, lv Layout) (*EnvMap, error) {
	if err := lv.validate(); err != nil {
		return nil, err
	}
	return newEnvMap(radiance, lv)
}

func newEnvMap(radiance *CubeMap, lv Layout) (*EnvMap, error) {
	env := &EnvMap{Layout: lv, Radiance: radiance}
	if err := env.convolve(); err != nil {
		return nil, err
	}
	env.samples = rankSamples(radiance)
	return env, nil
}

func (env *EnvMap) convolve() error {
	conv := NewConvolver(env.Radiance)

	diffuse, err := conv.Convolve(CosineLobe{}, env.Layout.DiffuseSide)
	if err != nil {
		return err
	}
	env.Diffuse = diffuse

	n := env.Layout.SpecularCount()
	env.Specular = make([]*CubeMap, n)
	for i := 1; i < n-1; i++ {
		side := env.Layout.side(i, env.Radiance.Side)
		spec, err := conv.Convolve(PhongLobe{Exponent: env.Layout.Exponents[i]}, side)
		if err != nil {
			return err
		}
		env.Specular[i] = spec
	}

	// the mirror level is the raw radiance scaled by each texel's solid
	// angle, putting it in the same units as the convolved levels
	env.Specular[n-1] = scaleBySolidAngle(env.Radiance)
	// level 0 gets its own storage, decoded maps hold the levels
	// independently as well
	env.Specular[0] = NewCubeMap(env.Specular[1].Side, slices.Clone(env.Specular[1].Data()))
	return nil
}

func scaleBySolidAngle(src *CubeMap) *CubeMap {
	side := src.Side
	sa := SolidAngles(side)
	out := NewCubeMap(side, nil)
	for face := FacePX; face <= FaceNZ; face++ {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				out.Set(face, x, y, src.At(face, x, y).Mul(sa[y*side+x]))
			}
		}
	}
	return out
}

// Side returns the radiance cube map resolution.
func (env *EnvMap) Side() int {
	return env.Radiance.Side
}

// Samples returns one light sample per radiance texel, brightest first.
// The slice is shared, callers must not reorder it.
func (env *EnvMap) Samples() []Sample {
	return env.samples
}
