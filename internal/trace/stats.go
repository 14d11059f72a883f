package trace

// Stats summarizes the structure of a tree.
type Stats struct {
	Nodes      int
	Leaves     int
	Depth      int // edges on the longest root-to-leaf path
	MaxFanOut  int
	MaxBreadth int
	Breadth    []int // node count per depth
}

// Stats computes structural statistics in a single pass over the degrees.
func (t Tree) Stats() Stats {
	s := Stats{Nodes: t.Len()}
	for _, d := range t.Degrees {
		if d == 0 {
			s.Leaves++
		}
		s.MaxFanOut = max(s.MaxFanOut, int(d))
	}

	levels := t.Levels()
	s.Breadth = make([]int, len(levels))
	for i, level := range levels {
		s.Breadth[i] = level[1] - level[0]
		s.MaxBreadth = max(s.MaxBreadth, s.Breadth[i])
	}
	if len(levels) > 0 {
		s.Depth = len(levels) - 1
	}
	return s
}
