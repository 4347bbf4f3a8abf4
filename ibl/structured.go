package ibl

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/slices"
)

// DefaultThresholds is the threshold level count that works well for
// typical outdoor panoramas.
const DefaultThresholds = 8

// minCoverage caps the solid angle term of a component's sample budget so
// dim but huge regions cannot starve small bright ones.
const minCoverage = 0.01

// center is a chosen sample location on one face.
type center struct {
	face Face
	x, y int
}

func (c center) dist2(x, y int) float64 {
	dx := float64(x - c.x)
	dy := float64(y - c.y)
	return dx*dx + dy*dy
}

// closestCenter returns the index of the nearest center on the given
// face, -1 when the face holds none. Ties keep the earliest center.
func closestCenter(centers []center, face Face, x, y int) int {
	min := -1
	minD2 := 0.0
	for i, c := range centers {
		if c.face != face {
			continue
		}
		if d2 := c.dist2(x, y); min < 0 || d2 < minD2 {
			minD2 = d2
			min = i
		}
	}
	return min
}

// component is one connected region of texels on a single face at one
// threshold level. Its children are the next level's regions nested
// inside it. The level 0 component is the root spanning all six faces.
type component struct {
	level    int
	parent   *component
	children []*component

	energy   float64 // solid angle weighted radiance over the region
	coverage float64 // total solid angle of the region
	eligible int     // texels not claimed by the next level

	budget  int
	centers []center
}

func (c *component) descendantBudget() int {
	total := 0
	for _, ch := range c.children {
		total += ch.budget + ch.descendantBudget()
	}
	return total
}

// thresholdLevel labels one threshold's regions: comps[face][y*side+x]
// indexes into components, or -1 for texels below the level's cutoff.
type thresholdLevel struct {
	index      int
	comps      [6][]int32
	components []*component
}

// StructuredSampler reduces an environment to a small set of virtual
// point lights with structured importance sampling: texels are bucketed
// into nested threshold levels by their solid angle weighted radiance,
// bright connected regions receive sample budgets proportional to energy
// and coverage, each region spreads its budget by farthest point
// placement, and finally every texel's energy collapses onto its nearest
// placed light.
//
// After Agarwal et al., Structured Importance Sampling of Environment
// Maps, SIGGRAPH 2003.
type StructuredSampler struct {
	env  *CubeMap
	side int
	sa   []float64

	numThresholds int
	assignments   [6][]int32
	levels        []*thresholdLevel

	totalEnergy float64
}

// NewStructuredSampler buckets env into the given number of threshold
// levels and builds the nested component hierarchy. The construction is
// cheap compared to ComputeSamples, which does the placement.
func NewStructuredSampler(env *CubeMap, numThresholds int) (*StructuredSampler, error) {
	if numThresholds < 1 {
		return nil, fmt.Errorf("need at least one threshold level, got %d", numThresholds)
	}

	s := &StructuredSampler{
		env:           env,
		side:          env.Side,
		sa:            SolidAngles(env.Side),
		numThresholds: numThresholds,
	}

	s.assignThresholds()
	s.labelComponents()
	s.linkHierarchy()
	return s, nil
}

// assignThresholds buckets every texel by how many standard deviations of
// solid angle weighted radiance it carries.
func (s *StructuredSampler) assignThresholds() {
	side := s.side
	count := side * side

	sum := 0.0
	sqSum := 0.0
	for face := FacePX; face <= FaceNZ; face++ {
		for j := 0; j < count; j++ {
			w := s.sa[j] * s.env.At(face, j%side, j/side).Len()
			sum += w
			sqSum += w * w
		}
	}
	s.totalEnergy = sum

	mean := sum / float64(6*count)
	stdDev := math.Sqrt(sqSum/float64(6*count) - mean*mean)

	for i := range s.assignments {
		s.assignments[i] = make([]int32, count)
	}

	// a constant image has no deviation to bucket by, every texel stays
	// at threshold 0
	if !(stdDev > 0) {
		return
	}

	for face := FacePX; face <= FaceNZ; face++ {
		for j := 0; j < count; j++ {
			w := s.sa[j] * s.env.At(face, j%side, j/side).Len()
			t := math.Floor(w / stdDev)
			if t > float64(s.numThresholds-1) {
				t = float64(s.numThresholds - 1)
			}
			s.assignments[face][j] = int32(t)
		}
	}
}

// member reports whether texel j of face belongs to the level.
func (s *StructuredSampler) member(level int, face Face, j int) bool {
	return level == 0 || int(s.assignments[face][j]) >= level
}

// claimed reports whether texel j of face also belongs to the next finer
// level.
func (s *StructuredSampler) claimed(level int, face Face, j int) bool {
	return level < s.numThresholds-1 && int(s.assignments[face][j]) > level
}

func (s *StructuredSampler) labelComponents() {
	s.levels = make([]*thresholdLevel, s.numThresholds)
	for t := range s.levels {
		s.levels[t] = s.labelLevel(t)
	}
}

// labelLevel runs two pass connected component labeling over one
// threshold level, 4-neighbor within a face, never across faces. First
// pass labels from the left and bottom neighbors recording equivalences,
// second pass collapses them and numbers components by first appearance.
func (s *StructuredSampler) labelLevel(level int) *thresholdLevel {
	side := s.side
	count := side * side

	lvl := &thresholdLevel{index: level}
	for i := range lvl.comps {
		lvl.comps[i] = make([]int32, count)
	}

	if level == 0 {
		lvl.components = []*component{{level: 0}}
		return lvl
	}

	labels := &unionFind{}
	for face := FacePX; face <= FaceNZ; face++ {
		comps := lvl.comps[face]
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				j := y*side + x
				if !s.member(level, face, j) {
					comps[j] = -1
					continue
				}

				left := x > 0 && comps[j-1] >= 0
				below := y > 0 && comps[j-side] >= 0
				switch {
				case left && below:
					comps[j] = labels.union(comps[j-1], comps[j-side])
				case left:
					comps[j] = comps[j-1]
				case below:
					comps[j] = comps[j-side]
				default:
					comps[j] = labels.add()
				}
			}
		}
	}

	dense := make([]int32, len(labels.parent))
	for i := range dense {
		dense[i] = -1
	}
	for face := FacePX; face <= FaceNZ; face++ {
		comps := lvl.comps[face]
		for j := 0; j < count; j++ {
			if comps[j] < 0 {
				continue
			}
			root := labels.find(comps[j])
			if dense[root] < 0 {
				dense[root] = int32(len(lvl.components))
				lvl.components = append(lvl.components, &component{level: level})
			}
			comps[j] = dense[root]
		}
	}
	return lvl
}

// linkHierarchy attaches every component to the coarser component its
// texels lie in. Regions are connected and nested, so each child has
// exactly one parent.
func (s *StructuredSampler) linkHierarchy() {
	count := s.side * s.side

	for t := 0; t < s.numThresholds-1; t++ {
		parents := s.levels[t]
		children := s.levels[t+1]

		for face := FacePX; face <= FaceNZ; face++ {
			for j := 0; j < count; j++ {
				pi := parents.comps[face][j]
				ci := children.comps[face][j]
				if pi < 0 || ci < 0 {
					continue
				}
				child := children.components[ci]
				if child.parent == nil {
					parent := parents.components[pi]
					child.parent = parent
					parent.children = append(parent.children, child)
				}
			}
		}
	}
}

// ComputeSamples distributes the total budget over the component
// hierarchy, places that many lights, and aggregates the whole
// environment onto them. The result is ordered by illumination strength,
// dimmest first, and never exceeds the budget. It can be called
// repeatedly with different budgets.
func (s *StructuredSampler) ComputeSamples(total int) []Sample {
	s.assignBudgets(total)
	s.computeStrata()

	side := s.side
	centers := s.levels[0].components[0].centers

	integral := make([]mgl64.Vec3, len(centers))
	for face := FacePX; face <= FaceNZ; face++ {
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				closest := closestCenter(centers, face, x, y)
				// faces that received no light keep nothing
				if closest < 0 {
					continue
				}
				rad := s.env.At(face, x, y)
				integral[closest] = integral[closest].Add(rad.Mul(s.sa[y*side+x]))
			}
		}
	}

	samples := make([]Sample, len(centers))
	for i, c := range centers {
		samples[i] = Sample{
			Direction:    c.face.TexelDirection(c.x, c.y, side),
			Illumination: integral[i],
			Face:         c.face,
			X:            c.x,
			Y:            c.y,
		}
	}
	slices.SortStableFunc(samples, compareSamples)
	return samples
}

// assignBudgets computes each component's sample count: proportional to
// its energy scaled by a dampened solid angle term, minus what its
// descendants already took, capped by the texels only it can place on.
func (s *StructuredSampler) assignBudgets(total int) {
	side := s.side
	count := side * side
	maxWeight := s.totalEnergy * math.Pow(minCoverage, 0.25)

	for t := s.numThresholds - 1; t >= 0; t-- {
		lvl := s.levels[t]

		for _, c := range lvl.components {
			c.energy = 0
			c.coverage = 0
			c.eligible = 0
			c.budget = 0
			c.centers = nil
		}

		for face := FacePX; face <= FaceNZ; face++ {
			for j := 0; j < count; j++ {
				ci := lvl.comps[face][j]
				if ci < 0 {
					continue
				}
				c := lvl.components[ci]
				dsa := s.sa[j]
				c.energy += dsa * s.env.At(face, j%side, j/side).Len()
				c.coverage += dsa
				if !s.claimed(t, face, j) {
					c.eligible++
				}
			}
		}

		for _, c := range lvl.components {
			budget := 0
			if maxWeight > 0 {
				budget = int(math.Floor(float64(total) * c.energy *
					math.Pow(math.Min(c.coverage, minCoverage), 0.25) / maxWeight))
			}
			budget -= c.descendantBudget()
			if budget < 0 {
				budget = 0
			}
			if budget > c.eligible {
				budget = c.eligible
			}
			c.budget = budget
		}
	}
}

func (s *StructuredSampler) computeStrata() {
	for t := s.numThresholds - 1; t >= 0; t-- {
		lvl := s.levels[t]
		for ci, c := range lvl.components {
			c.centers = s.placeCenters(lvl, int32(ci), c)
		}
	}
}

// placeCenters collects the component's descendant centers and spends its
// own budget with farthest point placement: each new center lands on the
// eligible texel farthest from all existing centers on the same face. A
// component never crosses a face boundary, so placement stays on the face
// of its first center.
func (s *StructuredSampler) placeCenters(lvl *thresholdLevel, ci int32, c *component) []center {
	side := s.side
	count := side * side

	var centers []center
	for _, ch := range c.children {
		centers = append(centers, ch.centers...)
	}

	budget := c.budget
	if budget == 0 {
		return centers
	}

	if len(centers) == 0 {
	seed:
		for face := FacePX; face <= FaceNZ; face++ {
			for j := 0; j < count; j++ {
				if lvl.comps[face][j] == ci && !s.claimed(lvl.index, face, j) {
					centers = append(centers, center{face: face, x: j % side, y: j / side})
					budget--
					break seed
				}
			}
		}
		if len(centers) == 0 {
			return nil
		}
	}

	face := centers[0].face
	comps := lvl.comps[face]

	// per texel squared distance to the nearest center so far
	d2 := make([]float64, count)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			if idx := closestCenter(centers, face, x, y); idx >= 0 {
				d2[y*side+x] = centers[idx].dist2(x, y)
			}
		}
	}

	for budget > 0 {
		maxD2 := 0.0
		maxX, maxY := -1, -1

		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				j := y*side + x
				if comps[j] != ci || s.claimed(lvl.index, face, j) {
					continue
				}
				if d2[j] > maxD2 {
					maxD2 = d2[j]
					maxX, maxY = x, y
				}
			}
		}

		if maxX < 0 {
			// every eligible texel already coincides with a center
			break
		}

		added := center{face: face, x: maxX, y: maxY}
		centers = append(centers, added)
		budget--

		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				if nd2 := added.dist2(x, y); nd2 < d2[y*side+x] {
					d2[y*side+x] = nd2
				}
			}
		}
	}

	return centers
}

// unionFind tracks label equivalences during connected component
// labeling. union keeps the smaller label canonical so components come
// out numbered by first appearance.
type unionFind struct {
	parent []int32
}

func (u *unionFind) add() int32 {
	l := int32(len(u.parent))
	u.parent = append(u.parent, l)
	return l
}

func (u *unionFind) find(l int32) int32 {
	for u.parent[l] != l {
		u.parent[l] = u.parent[u.parent[l]]
		l = u.parent[l]
	}
	return l
}

func (u *unionFind) union(a, b int32) int32 {
	ra, rb := u.find(a), u.find(b)
	if ra < rb {
		u.parent[rb] = ra
		return ra
	}
	u.parent[ra] = rb
	return rb
}
