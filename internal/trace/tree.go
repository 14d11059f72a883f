package trace

import (
	"errors"
	"fmt"
)

// ErrMalformedDegrees is returned when a degree array does not describe a
// single rooted tree.
var ErrMalformedDegrees = errors.New("malformed degree array")

// Tree is a call tree in breadth-first degree encoding.
//
// Both slices have one entry per node. The children of node i are the nodes
// [Offsets[i], Offsets[i]+Degrees[i]), and the nodes of every depth form a
// contiguous range.
type Tree struct {
	Degrees []Degree
	Offsets []int
}

// TreeFromDegrees rebuilds a tree from a stored degree array. The array must
// hold exactly one entry per declared child plus the root.
func TreeFromDegrees(degrees []Degree) (Tree, error) {
	if len(degrees) == 0 {
		return Tree{}, fmt.Errorf("%w: no root", ErrMalformedDegrees)
	}

	total := 1
	for _, d := range degrees {
		total += int(d)
	}
	if total != len(degrees) {
		return Tree{}, fmt.Errorf("%w: %d nodes declared, %d present", ErrMalformedDegrees, total, len(degrees))
	}

	t := Tree{
		Degrees: make([]Degree, len(degrees)),
		Offsets: make([]int, len(degrees)),
	}
	copy(t.Degrees, degrees)
	t.Offsets[0] = 1
	for i := 1; i < len(degrees); i++ {
		t.Offsets[i] = t.Offsets[i-1] + int(degrees[i-1])
	}
	return t, nil
}

// Len returns the number of nodes, root included.
func (t Tree) Len() int {
	return len(t.Degrees)
}

// Children returns the half-open range of node indices that are children of
// node i.
func (t Tree) Children(i int) (start, end int) {
	return t.Offsets[i], t.Offsets[i] + int(t.Degrees[i])
}

// Parents returns the parent index of every node. The root's parent is -1.
func (t Tree) Parents() []int {
	parents := make([]int, t.Len())
	if len(parents) == 0 {
		return parents
	}
	parents[0] = -1
	for i := range t.Degrees {
		start, end := t.Children(i)
		for c := start; c < end; c++ {
			parents[c] = i
		}
	}
	return parents
}

// Locate follows a call trace from the root and returns the node it ends on.
// It reports false when the trace leaves the tree.
func (t Tree) Locate(path []TraceID) (int, bool) {
	if t.Len() == 0 {
		return -1, false
	}
	node := 0
	for _, idx := range path {
		if idx >= t.Degrees[node] {
			return -1, false
		}
		node = t.Offsets[node] + int(idx)
	}
	return node, true
}

// Levels returns the [start, end) node range of every depth, root first.
func (t Tree) Levels() [][2]int {
	var levels [][2]int
	start, end := 0, min(1, t.Len())
	for start < end {
		levels = append(levels, [2]int{start, end})
		next := end
		for i := start; i < end; i++ {
			next += int(t.Degrees[i])
		}
		start, end = end, min(next, t.Len())
	}
	return levels
}

// Depth returns the depth of node i, the root being at depth 0.
func (t Tree) Depth(i int) int {
	for d, level := range t.Levels() {
		if i >= level[0] && i < level[1] {
			return d
		}
	}
	return -1
}
