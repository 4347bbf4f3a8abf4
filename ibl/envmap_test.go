package ibl_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lhkbob/envbake/ibl"
	"github.com/lhkbob/envbake/libio"
)

func TestBakeLevels(t *testing.T) {
	env := testdata.baked

	if env.Side() != 2 {
		t.Fatalf("radiance side should be 2 but is %d", env.Side())
	}
	if env.Diffuse.Side != testdata.tiny.DiffuseSide {
		t.Errorf("diffuse side should be %d but is %d", testdata.tiny.DiffuseSide, env.Diffuse.Side)
	}
	if len(env.Specular) != 3 {
		t.Fatalf("should have 3 specular levels but has %d", len(env.Specular))
	}

	if env.Specular[0].Side != env.Specular[1].Side {
		t.Errorf("level 0 size %d should match level 1 size %d", env.Specular[0].Side, env.Specular[1].Side)
	}
	l0, l1 := env.Specular[0].Data(), env.Specular[1].Data()
	for i := range l0 {
		if l0[i] != l1[i] {
			t.Fatalf("level 0 should duplicate level 1, differs at float %d", i)
		}
	}

	if env.Specular[2].Side != env.Side() {
		t.Errorf("mirror level size %d should match radiance size %d", env.Specular[2].Side, env.Side())
	}
}

func TestBakeLevelZeroIndependent(t *testing.T) {
	env, err := ibl.NewEnvMapFromCross(testdata.cross, testdata.tiny)
	if err != nil {
		t.Fatal(err)
	}

	before := env.Specular[1].At(ibl.FacePX, 0, 0)
	env.Specular[0].Set(ibl.FacePX, 0, 0, mgl64.Vec3{9, 9, 9})
	if env.Specular[1].At(ibl.FacePX, 0, 0) != before {
		t.Error("editing level 0 should not write through to level 1")
	}
}

func TestBakeMirrorLevel(t *testing.T) {
	env := testdata.baked
	mirror := env.Specular[len(env.Specular)-1]

	for face := ibl.FacePX; face <= ibl.FaceNZ; face++ {
		for y := 0; y < env.Side(); y++ {
			for x := 0; x < env.Side(); x++ {
				should := env.Radiance.At(face, x, y).Mul(ibl.TexelSolidAngle(x, y, env.Side()))
				is := mirror.At(face, x, y)
				if float32(is.X()) != float32(should.X()) ||
					float32(is.Y()) != float32(should.Y()) ||
					float32(is.Z()) != float32(should.Z()) {
					t.Fatalf("mirror texel (%v, %d, %d) should be: %v but is %v", face, x, y, should, is)
				}
			}
		}
	}
}

func TestBakeSamples(t *testing.T) {
	env := testdata.baked
	samples := env.Samples()

	if len(samples) != 6*env.Side()*env.Side() {
		t.Fatalf("should have one sample per radiance texel, %d, but has %d", 6*env.Side()*env.Side(), len(samples))
	}
	if !samplesDescending(samples) {
		t.Error("samples should be ordered brightest first")
	}
}

func TestLayoutValidate(t *testing.T) {
	if err := ibl.ValidateLayout(ibl.DefaultLayout); err != nil {
		t.Errorf("default layout should validate: %v", err)
	}
	if ibl.DefaultLayout.SpecularCount() != 14 {
		t.Errorf("default layout should have 14 levels but has %d", ibl.DefaultLayout.SpecularCount())
	}

	bad := []ibl.Layout{
		// mismatched lengths
		{DiffuseSide: 4, Exponents: []float64{-1, -1}, Sides: []int{4, 4, -1}},
		// too few levels
		{DiffuseSide: 4, Exponents: []float64{-1}, Sides: []int{-1}},
		// zero diffuse
		{DiffuseSide: 0, Exponents: []float64{-1, 2, -1}, Sides: []int{4, 4, -1}},
		// level 0 not a duplicate of level 1
		{DiffuseSide: 4, Exponents: []float64{-1, 2, -1}, Sides: []int{8, 4, -1}},
		{DiffuseSide: 4, Exponents: []float64{2, 2, -1}, Sides: []int{4, 4, -1}},
		// last level not the raw radiance
		{DiffuseSide: 4, Exponents: []float64{-1, 2, 5}, Sides: []int{4, 4, -1}},
		{DiffuseSide: 4, Exponents: []float64{-1, 2, -1}, Sides: []int{4, 4, 8}},
		// non positive exponent in between
		{DiffuseSide: 4, Exponents: []float64{-1, -2, -1}, Sides: []int{4, 4, -1}},
		// bad intermediate size
		{DiffuseSide: 4, Exponents: []float64{-1, 2, 3, -1}, Sides: []int{4, 4, 0, -1}},
	}
	for i, lv := range bad {
		if err := ibl.ValidateLayout(lv); err == nil {
			t.Errorf("layout %d should not validate", i)
		}
	}
}

func TestBakeBadCross(t *testing.T) {
	if _, err := ibl.NewEnvMapFromCross(libio.NewFloatImage(nil, 3, 6, 6), testdata.tiny); err == nil {
		t.Error("expected error for a malformed cross")
	}

	badLayout := ibl.Layout{DiffuseSide: 4, Exponents: []float64{-1}, Sides: []int{-1}}
	if _, err := ibl.NewEnvMapFromCross(testdata.cross, badLayout); err == nil {
		t.Error("expected error for a malformed layout")
	}
}
