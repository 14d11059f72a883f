package proto

import "github.com/tracetree/tracetree/internal/trace"

// SessionTree is the reconstructed call tree of a session.
type SessionTree struct {
	Session      string    `json:"session"`
	MessageCount int64     `json:"message_count"`
	Degrees      []uint32  `json:"degrees"`
	Offsets      []int     `json:"offsets"`
	Stats        TreeStats `json:"stats"`
	CreatedAt    int64     `json:"created_at,omitempty"`
	UpdatedAt    int64     `json:"updated_at,omitempty"`
}

// TreeStats mirrors [trace.Stats].
type TreeStats struct {
	Nodes      int   `json:"nodes"`
	Leaves     int   `json:"leaves"`
	Depth      int   `json:"depth"`
	MaxFanOut  int   `json:"max_fan_out"`
	MaxBreadth int   `json:"max_breadth"`
	Breadth    []int `json:"breadth"`
}

// NewSessionTree builds the wire form of a reconstructed tree.
func NewSessionTree(session string, messageCount int, t trace.Tree) SessionTree {
	s := t.Stats()
	return SessionTree{
		Session:      session,
		MessageCount: int64(messageCount),
		Degrees:      t.Degrees,
		Offsets:      t.Offsets,
		Stats: TreeStats{
			Nodes:      s.Nodes,
			Leaves:     s.Leaves,
			Depth:      s.Depth,
			MaxFanOut:  s.MaxFanOut,
			MaxBreadth: s.MaxBreadth,
			Breadth:    s.Breadth,
		},
	}
}

// Tree returns the degree encoding of the session tree.
func (s SessionTree) Tree() trace.Tree {
	return trace.Tree{Degrees: s.Degrees, Offsets: s.Offsets}
}

// Node describes a single node of a session tree.
type Node struct {
	Index      int    `json:"index"`
	Parent     int    `json:"parent"`
	Depth      int    `json:"depth"`
	Degree     uint32 `json:"degree"`
	FirstChild int    `json:"first_child"`
}

// NodeAt returns the node with index i, reporting false when i is out of
// range.
func (s SessionTree) NodeAt(i int) (Node, bool) {
	t := s.Tree()
	if i < 0 || i >= t.Len() {
		return Node{}, false
	}
	return Node{
		Index:      i,
		Parent:     t.Parents()[i],
		Depth:      t.Depth(i),
		Degree:     t.Degrees[i],
		FirstChild: t.Offsets[i],
	}, true
}

// Failure is a session the server refused to reconstruct.
type Failure struct {
	Session string `json:"session"`
	Error   string `json:"error"`
}

// BatchReport is the outcome of reconstructing a batch of sessions.
type BatchReport struct {
	ID       string        `json:"id"`
	Trees    []SessionTree `json:"trees"`
	Failures []Failure     `json:"failures,omitempty"`
}
