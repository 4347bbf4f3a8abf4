package ibl_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lhkbob/envbake/ibl"
)

func TestRankSamples(t *testing.T) {
	side := 4
	cm := ibl.NewCubeMap(side, nil)
	cm.Set(ibl.FaceNY, 1, 2, mgl64.Vec3{50, 50, 50})

	samples := ibl.RankSamples(cm)
	if len(samples) != 6*side*side {
		t.Fatalf("should rank %d samples but ranked %d", 6*side*side, len(samples))
	}
	if !samplesDescending(samples) {
		t.Fatal("samples should be ordered brightest first")
	}

	first := samples[0]
	if first.Face != ibl.FaceNY || first.X != 1 || first.Y != 2 {
		t.Errorf("brightest sample should be (ny, 1, 2) but is (%v, %d, %d)", first.Face, first.X, first.Y)
	}

	should := 50 * ibl.TexelSolidAngle(1, 2, side)
	if float32(first.Illumination.X()) != float32(should) {
		t.Errorf("brightest sample should carry %.6f but carries %.6f", should, first.Illumination.X())
	}

	dir := ibl.FaceNY.TexelDirection(1, 2, side)
	if first.Direction.Sub(dir).Len() > 1e-12 {
		t.Errorf("brightest sample should point along %v but points along %v", dir, first.Direction)
	}
}

func TestSampleQueue(t *testing.T) {
	samples := make([]ibl.Sample, 100)
	q := ibl.NewSampleQueue(samples, 0)

	sizes := []int{}
	for b := q.Next(); b != nil; b = q.Next() {
		sizes = append(sizes, len(b))
	}

	if len(sizes) != 3 || sizes[0] != 40 || sizes[1] != 40 || sizes[2] != 20 {
		t.Errorf("batches should be [40 40 20] but are %v", sizes)
	}
	if q.Remaining() != 0 {
		t.Errorf("queue should be drained but has %d left", q.Remaining())
	}

	q.Reset()
	if q.Remaining() != 100 {
		t.Errorf("reset queue should have 100 left but has %d", q.Remaining())
	}
	if len(q.Next()) != 40 {
		t.Error("reset queue should hand out a full batch")
	}
}

func TestSampleQueueCustomBatch(t *testing.T) {
	q := ibl.NewSampleQueue(make([]ibl.Sample, 5), 2)
	total := 0
	for b := q.Next(); b != nil; b = q.Next() {
		if len(b) > 2 {
			t.Fatalf("batch of %d exceeds requested size 2", len(b))
		}
		total += len(b)
	}
	if total != 5 {
		t.Errorf("batches should cover all 5 samples but covered %d", total)
	}
}
