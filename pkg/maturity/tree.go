package maturity

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned when a control id is absent from the catalog.
// A missing response is a normal "unassessed" state; a missing node is a
// reference data bug and always surfaces to the caller.
var ErrNotFound = errors.New("control not found")

// ControlNode is a node in a framework's control hierarchy: a top-level
// branch (function, pillar, domain), an intermediate category, or an
// assessable leaf control. Only leaves carry assessment responses.
type ControlNode struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ParentID    string         `json:"parentId,omitempty"`
	Order       int            `json:"order"`
	Baseline    int            `json:"baseline"`
	Children    []*ControlNode `json:"children,omitempty"`
}

// IsLeaf reports whether the node is an assessable leaf control.
func (n *ControlNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Tree is the read-only control hierarchy of one framework. It is built
// once from static catalog data and never mutated afterwards.
type Tree struct {
	branches []*ControlNode
	index    map[string]*ControlNode
	branchOf map[string]string
}

// NewTree builds a tree from its top-level branches. Ids must be unique
// across the whole hierarchy. Siblings are ordered by their declared Order
// field ascending; that order drives every downstream sort and report.
func NewTree(branches []*ControlNode) (*Tree, error) {
	t := &Tree{
		branches: branches,
		index:    make(map[string]*ControlNode),
		branchOf: make(map[string]string),
	}
	sortSiblings(branches)
	for _, b := range branches {
		b.ParentID = ""
		if err := t.register(b, b.ID, ""); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustTree is like NewTree but panics on invalid catalog data.
func MustTree(branches []*ControlNode) *Tree {
	t, err := NewTree(branches)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree) register(n *ControlNode, branchID, parentID string) error {
	if n.ID == "" {
		return fmt.Errorf("control under %q has empty id", parentID)
	}
	if _, dup := t.index[n.ID]; dup {
		return fmt.Errorf("duplicate control id %q", n.ID)
	}
	t.index[n.ID] = n
	t.branchOf[n.ID] = branchID
	if parentID != "" {
		n.ParentID = parentID
	}
	sortSiblings(n.Children)
	for _, c := range n.Children {
		if err := t.register(c, branchID, n.ID); err != nil {
			return err
		}
	}
	return nil
}

func sortSiblings(nodes []*ControlNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Order < nodes[j].Order
	})
}

// Branches returns the top-level nodes in declared order.
func (t *Tree) Branches() []*ControlNode {
	out := make([]*ControlNode, len(t.branches))
	copy(out, t.branches)
	return out
}

// Find returns the node with the given id or ErrNotFound.
func (t *Tree) Find(id string) (*ControlNode, error) {
	n, ok := t.index[id]
	if !ok {
		return nil, fmt.Errorf("control %q: %w", id, ErrNotFound)
	}
	return n, nil
}

// BranchOf returns the top-level branch id a control belongs to, or
// ErrNotFound for an unknown id.
func (t *Tree) BranchOf(id string) (string, error) {
	b, ok := t.branchOf[id]
	if !ok {
		return "", fmt.Errorf("control %q: %w", id, ErrNotFound)
	}
	return b, nil
}

// Leaves returns all assessable leaves under the given branch in declared
// order, or every leaf of the tree when branchID is empty.
func (t *Tree) Leaves(branchID string) ([]*ControlNode, error) {
	var roots []*ControlNode
	if branchID == "" {
		roots = t.branches
	} else {
		n, err := t.Find(branchID)
		if err != nil {
			return nil, err
		}
		roots = []*ControlNode{n}
	}

	var leaves []*ControlNode
	for _, r := range roots {
		collectLeaves(r, &leaves)
	}
	return leaves, nil
}

func collectLeaves(n *ControlNode, out *[]*ControlNode) {
	if n.IsLeaf() {
		*out = append(*out, n)
		return
	}
	for _, c := range n.Children {
		collectLeaves(c, out)
	}
}
