package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainTree builds anchor -> root -> que -> ans, the shape a first exchange
// produces.
func chainTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	require.NoError(t, tree.Insert(NewNode("anchor", WithChildren("root"))))
	require.NoError(t, tree.Insert(NewNode("root", WithMessage(""), WithParent("anchor"), WithChildren("que"))))
	require.NoError(t, tree.Insert(NewNode("que", WithMessage("question"), WithParent("root"), WithChildren("ans"))))
	require.NoError(t, tree.Insert(NewNode("ans", WithMessage("answer"), WithParent("que"))))
	return tree
}

func TestTreeInsertAndGet(t *testing.T) {
	tree := NewTree()
	node := NewNode("a", WithMessage("hi"))
	require.NoError(t, tree.Insert(node))
	require.Equal(t, 1, tree.Len())

	got, err := tree.Get("a")
	require.NoError(t, err)
	assert.Same(t, node, got)

	_, err = tree.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestTreeInsertDuplicateLeavesStoreUntouched(t *testing.T) {
	tree := NewTree()
	first := NewNode("a", WithMessage("original"))
	require.NoError(t, tree.Insert(first))

	err := tree.Insert(NewNode("a", WithMessage("impostor")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateNode)

	got, err := tree.Get("a")
	require.NoError(t, err)
	text, _ := got.Message()
	assert.Equal(t, "original", text)
	assert.Equal(t, 1, tree.Len())
}

func TestTreeReplaceOverwrites(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Insert(NewNode("a", WithMessage("old"))))

	tree.Replace(NewNode("a", WithMessage("new")))

	got, err := tree.Get("a")
	require.NoError(t, err)
	text, _ := got.Message()
	assert.Equal(t, "new", text)
	assert.Equal(t, 1, tree.Len())
}

func TestTreeLinkChildAppendsOnce(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Insert(NewNode("parent", WithMessage("p"), WithChildren("first"))))

	require.NoError(t, tree.LinkChild("parent", "second"))
	require.NoError(t, tree.LinkChild("parent", "second"))

	parent, err := tree.Get("parent")
	require.NoError(t, err)
	assert.Equal(t, []NodeID{"first", "second"}, parent.Children())
}

func TestTreeLinkChildUnknownParent(t *testing.T) {
	tree := NewTree()
	err := tree.LinkChild("missing", "child")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestTreeAncestors(t *testing.T) {
	tree := chainTree(t)

	ids, err := tree.Ancestors("ans")
	require.NoError(t, err)
	assert.Equal(t, []NodeID{"ans", "que", "root", "anchor"}, ids)

	ids, err = tree.Ancestors("anchor")
	require.NoError(t, err)
	assert.Equal(t, []NodeID{"anchor"}, ids)
}

func TestTreeAncestorsDetectsCycle(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Insert(NewNode("a", WithMessage("a"), WithParent("b"))))
	require.NoError(t, tree.Insert(NewNode("b", WithMessage("b"), WithParent("a"))))

	_, err := tree.Ancestors("a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestTreeAncestorsMissingParent(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Insert(NewNode("a", WithMessage("a"), WithParent("ghost"))))

	_, err := tree.Ancestors("a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestTreeThread(t *testing.T) {
	tree := chainTree(t)

	nodes, err := tree.Thread("ans")
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	ids := make([]NodeID, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID()
	}
	assert.Equal(t, []NodeID{"anchor", "root", "que", "ans"}, ids)
}

func TestTreeLastChild(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Insert(NewNode("p", WithMessage("p"), WithChildren("c1", "c2"))))
	require.NoError(t, tree.Insert(NewNode("leaf", WithMessage("l"))))

	last, ok := tree.LastChild("p")
	require.True(t, ok)
	assert.Equal(t, NodeID("c2"), last)

	_, ok = tree.LastChild("leaf")
	assert.False(t, ok)

	_, ok = tree.LastChild("missing")
	assert.False(t, ok)
}

func TestTreeIDsSorted(t *testing.T) {
	tree := NewTree()
	for _, id := range []NodeID{"c", "a", "b"} {
		require.NoError(t, tree.Insert(NewNode(id, WithMessage(string(id)))))
	}
	assert.Equal(t, []NodeID{"a", "b", "c"}, tree.IDs())

	nodes := tree.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, NodeID("a"), nodes[0].ID())
}
