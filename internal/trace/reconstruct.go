package trace

// Reconstruct computes the breadth-first degree array implied by the call
// traces of messages.
//
// A node's degree is the largest sibling index any message places under it,
// plus one, so traces that disagree on a node's width are merged by taking
// the maximum. Messages with an empty trace contribute nothing. The input is
// only read, and the returned slice is newly allocated. An empty input yields
// a lone root: []Degree{0}.
//
// Memory grows with the largest sibling index, and an index of
// math.MaxUint32 has no representable degree. Run [Check] first on
// untrusted input.
func Reconstruct[M TracedMessage](messages []M) []Degree {
	return ReconstructTree(messages).Degrees
}

// ReconstructTree is like [Reconstruct] but also returns the child offsets
// needed to walk the tree.
func ReconstructTree[M TracedMessage](messages []M) Tree {
	paths := make([][]TraceID, len(messages))
	maxDepth := 0
	for i, m := range messages {
		paths[i] = m.CallTrace()
		maxDepth = max(maxDepth, len(paths[i]))
	}

	// position[i] is the node message i has reached at the current depth.
	position := make([]int, len(paths))
	degrees := []Degree{0}
	offsets := []int{1}

	for depth := range maxDepth {
		for i, path := range paths {
			if len(path) <= depth {
				continue
			}
			if depth > 0 {
				position[i] = offsets[position[i]] + int(path[depth-1])
			}
			node := position[i]
			degrees[node] = max(degrees[node], path[depth]+1)
		}

		// Every declared child needs a slot, including the ones no message
		// has visited yet.
		total := 1
		for _, d := range degrees {
			total += int(d)
		}
		for len(degrees) < total {
			degrees = append(degrees, 0)
			offsets = append(offsets, 0)
		}

		// Degrees of this level are final now, so the offsets of the next
		// level can be derived from them.
		for i := 1; i < len(degrees); i++ {
			offsets[i] = offsets[i-1] + int(degrees[i-1])
		}
	}

	return Tree{Degrees: degrees, Offsets: offsets}
}
