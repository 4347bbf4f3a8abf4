package ibl_test

import (
	"math"
	"testing"

	"github.com/lhkbob/envbake/ibl"
)

func TestSolidAnglesCoverSphere(t *testing.T) {
	for _, side := range []int{1, 8, 32, 128} {
		sum := 0.0
		for _, sa := range ibl.SolidAngles(side) {
			sum += sa
		}
		sum *= 6

		if math.Abs(sum-4*math.Pi) > 1e-9 {
			t.Errorf("solid angles of side %d should sum to 4pi but sum to %.12f", side, sum)
		}
	}
}

func TestSolidAngleSymmetry(t *testing.T) {
	side := 16
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			sa := ibl.TexelSolidAngle(x, y, side)
			if sa <= 0 {
				t.Fatalf("texel (%d, %d) has non positive solid angle %v", x, y, sa)
			}
			mx := ibl.TexelSolidAngle(side-x-1, y, side)
			my := ibl.TexelSolidAngle(x, side-y-1, side)
			if math.Abs(sa-mx) > 1e-15 || math.Abs(sa-my) > 1e-15 {
				t.Errorf("solid angle of (%d, %d) not mirror symmetric: %v, %v, %v", x, y, sa, mx, my)
			}
		}
	}

	corner := ibl.TexelSolidAngle(0, 0, side)
	center := ibl.TexelSolidAngle(side/2, side/2, side)
	if corner >= center {
		t.Errorf("corner solid angle %v should be smaller than center %v", corner, center)
	}
}
