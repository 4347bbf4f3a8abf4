package ibl

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kernel weights the radiance arriving from an input direction during
// convolution, as a function of the cosine between the input and output
// directions. Kernels integrate to one over the sphere so convolution
// conserves energy.
type Kernel interface {
	Weight(cos float64) float64
}

// CosineLobe is the clamped cosine kernel normalized by pi. Convolving
// with it yields Lambertian diffuse irradiance.
type CosineLobe struct{}

func (CosineLobe) Weight(cos float64) float64 {
	if cos <= 0 {
		return 0
	}
	return cos / math.Pi
}

// PhongLobe is the cos^n kernel normalized by (n+1)/2pi. Higher exponents
// tighten the lobe towards a mirror reflection.
type PhongLobe struct {
	Exponent float64
}

func (p PhongLobe) Weight(cos float64) float64 {
	if cos <= 0 {
		return 0
	}
	return math.Pow(cos, p.Exponent) * (p.Exponent + 1) / (2 * math.Pi)
}

// Convolver integrates a radiance cube map against kernels. The input
// directions and solid angle weighted energies are computed once, so
// convolving the same environment to several output levels only pays for
// the kernel evaluations.
type Convolver struct {
	dirs   []mgl64.Vec3
	energy []mgl64.Vec3
}

// NewConvolver prepares env for convolution.
func NewConvolver(env *CubeMap) *Convolver {
	side := env.Side
	sa := SolidAngles(side)

	c := &Convolver{
		dirs:   make([]mgl64.Vec3, 0, 6*side*side),
		energy: make([]mgl64.Vec3, 0, 6*side*side),
	}
	for face := FacePX; face <= FaceNZ; face++ {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				c.dirs = append(c.dirs, face.TexelDirection(x, y, side))
				c.energy = append(c.energy, env.At(face, x, y).Mul(sa[y*side+x]))
			}
		}
	}
	return c
}

// Convolve integrates the environment against the kernel for every texel
// direction of a new cube map with the given side length.
func (c *Convolver) Convolve(k Kernel, side int) (*CubeMap, error) {
	if side < 1 {
		return nil, fmt.Errorf("invalid convolution size %d", side)
	}

	out := NewCubeMap(side, nil)
	for face := FacePX; face <= FaceNZ; face++ {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				dir := face.TexelDirection(x, y, side)
				var acc mgl64.Vec3
				for i, in := range c.dirs {
					w := k.Weight(dir.Dot(in))
					if w == 0 {
						continue
					}
					acc = acc.Add(c.energy[i].Mul(w))
				}
				out.Set(face, x, y, acc)
			}
		}
	}
	return out, nil
}
