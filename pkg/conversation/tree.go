package conversation

import (
	"sort"

	"github.com/pkg/errors"
)

// Tree is an addressable store of conversation nodes keyed by id. It holds
// every branch of a conversation, not just the active thread, and never
// removes nodes.
type Tree struct {
	nodes map[NodeID]*Node
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{
		nodes: make(map[NodeID]*Node),
	}
}

// Len returns the number of stored nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Contains reports whether id is stored.
func (t *Tree) Contains(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Insert stores a node under its id. Inserting an id that is already stored
// fails with ErrDuplicateNode and leaves the tree untouched.
func (t *Tree) Insert(node *Node) error {
	if node == nil {
		return errors.Wrap(ErrMalformedNode, "nil node")
	}
	if _, ok := t.nodes[node.id]; ok {
		return errors.Wrapf(ErrDuplicateNode, "node %s", node.id)
	}
	t.nodes[node.id] = node
	return nil
}

// Replace stores a node under its id, overwriting any previous node. This is
// the designated path for rewriting a node; Insert never overwrites.
func (t *Tree) Replace(node *Node) {
	if node == nil {
		return
	}
	t.nodes[node.id] = node
}

// Get returns the node stored under id, or ErrUnknownNode.
func (t *Tree) Get(id NodeID) (*Node, error) {
	node, ok := t.nodes[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "node %s", id)
	}
	return node, nil
}

// LinkChild appends childID to the children of parentID unless it is already
// present. The child does not need to be stored yet.
func (t *Tree) LinkChild(parentID, childID NodeID) error {
	parent, err := t.Get(parentID)
	if err != nil {
		return err
	}
	parent.appendChild(childID)
	return nil
}

// LastChild returns the most recently appended child of id, if any.
func (t *Tree) LastChild(id NodeID) (NodeID, bool) {
	node, ok := t.nodes[id]
	if !ok || len(node.children) == 0 {
		return "", false
	}
	return node.children[len(node.children)-1], true
}

// Ancestors returns the ids from id up to the top of the tree, following
// parent links. The first entry is id itself. A parent link pointing outside
// the tree fails with ErrUnknownNode, a revisited node with ErrCycleDetected.
func (t *Tree) Ancestors(id NodeID) ([]NodeID, error) {
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	ids := make([]NodeID, 0, 8)
	seen := make(map[NodeID]struct{})
	for {
		if _, ok := seen[node.id]; ok {
			return nil, errors.Wrapf(ErrCycleDetected, "node %s revisited", node.id)
		}
		seen[node.id] = struct{}{}
		ids = append(ids, node.id)

		parentID, ok := node.Parent()
		if !ok {
			return ids, nil
		}
		node, err = t.Get(parentID)
		if err != nil {
			return nil, err
		}
	}
}

// Thread returns the nodes from the top of the tree down to id, in
// conversation order.
func (t *Tree) Thread(id NodeID) ([]*Node, error) {
	ids, err := t.Ancestors(id)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, len(ids))
	for i, nodeID := range ids {
		// present, Ancestors just walked it
		node, _ := t.Get(nodeID)
		nodes[len(ids)-1-i] = node
	}
	return nodes, nil
}

// IDs returns all stored ids in lexical order.
func (t *Tree) IDs() []NodeID {
	ids := make([]NodeID, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Nodes returns all stored nodes ordered by id, for deterministic
// serialization.
func (t *Tree) Nodes() []*Node {
	ids := t.IDs()
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = t.nodes[id]
	}
	return nodes
}
