package ibl

import (
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/slices"
)

// Sample is one virtual point light extracted from an environment: the
// direction it shines from, the total illumination it carries, and the
// radiance texel it was placed on.
type Sample struct {
	Direction    mgl64.Vec3
	Illumination mgl64.Vec3
	Face         Face
	X, Y         int
}

// compareSamples orders by illumination strength, dimmest first.
func compareSamples(a, b Sample) int {
	d := a.Illumination.LenSqr() - b.Illumination.LenSqr()
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}

// rankSamples turns every radiance texel into a light sample weighted by
// its solid angle and orders them brightest first.
func rankSamples(env *CubeMap) []Sample {
	side := env.Side
	sa := SolidAngles(side)

	samples := make([]Sample, 0, 6*side*side)
	for face := FacePX; face <= FaceNZ; face++ {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				samples = append(samples, Sample{
					Direction:    face.TexelDirection(x, y, side),
					Illumination: env.At(face, x, y).Mul(sa[y*side+x]),
					Face:         face,
					X:            x,
					Y:            y,
				})
			}
		}
	}

	slices.SortStableFunc(samples, compareSamples)
	slices.Reverse(samples)
	return samples
}

// DefaultBatch is the number of samples a renderer typically folds into
// its light accumulation per frame.
const DefaultBatch = 40

// SampleQueue hands out ranked samples in fixed size batches so a
// renderer can accumulate the environment's lighting over several frames,
// brightest lights first.
type SampleQueue struct {
	samples []Sample
	batch   int
	next    int
}

// NewSampleQueue wraps samples in a queue. A batch size of zero or less
// falls back to DefaultBatch.
func NewSampleQueue(samples []Sample, batch int) *SampleQueue {
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &SampleQueue{samples: samples, batch: batch}
}

// Next returns the next batch, or nil once all samples are consumed. The
// final batch may be short.
func (q *SampleQueue) Next() []Sample {
	if q.next >= len(q.samples) {
		return nil
	}
	end := q.next + q.batch
	if end > len(q.samples) {
		end = len(q.samples)
	}
	b := q.samples[q.next:end]
	q.next = end
	return b
}

// Remaining reports how many samples have not been handed out yet.
func (q *SampleQueue) Remaining() int {
	return len(q.samples) - q.next
}

// Reset rewinds the queue to the brightest sample.
func (q *SampleQueue) Reset() {
	q.next = 0
}
