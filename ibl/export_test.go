package ibl

// these functions are only exported when running tests

var ValidateLayout = Layout.validate
var RankSamples = rankSamples

func (s *StructuredSampler) LevelCount() int {
	return s.numThresholds
}

func (s *StructuredSampler) ThresholdIndex(f Face, x, y int) int {
	return int(s.assignments[f][y*s.side+x])
}

func (s *StructuredSampler) ComponentIndex(level int, f Face, x, y int) int {
	return int(s.levels[level].comps[f][y*s.side+x])
}
