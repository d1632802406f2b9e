package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeFromRawStringMessage(t *testing.T) {
	parent := NodeID("parent-1")
	node, err := NewNodeFromRaw(RawNode{
		ID:       "node-1",
		Message:  json.RawMessage(`"hello there"`),
		Parent:   &parent,
		Children: []NodeID{"child-1", "child-2"},
	})
	require.NoError(t, err)

	assert.Equal(t, NodeID("node-1"), node.ID())
	text, ok := node.Message()
	require.True(t, ok)
	assert.Equal(t, "hello there", text)
	parentID, ok := node.Parent()
	require.True(t, ok)
	assert.Equal(t, parent, parentID)
	assert.Equal(t, []NodeID{"child-1", "child-2"}, node.Children())
}

func TestNewNodeFromRawMessageObject(t *testing.T) {
	node, err := NewNodeFromRaw(RawNode{
		Message: json.RawMessage(`{
			"id": "srv-1",
			"content": {"content_type": "text", "parts": ["first part", "second part"]}
		}`),
	})
	require.NoError(t, err)

	assert.Equal(t, NodeID("srv-1"), node.ID(), "id falls back to the message object id")
	text, ok := node.Message()
	require.True(t, ok)
	assert.Equal(t, "first part", text, "only the first part becomes the text")
}

func TestNewNodeFromRawExplicitIDWins(t *testing.T) {
	node, err := NewNodeFromRaw(RawNode{
		ID:      "outer",
		Message: json.RawMessage(`{"id": "inner", "content": {"content_type": "text", "parts": ["x"]}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, NodeID("outer"), node.ID())
}

func TestNewNodeFromRawWithoutMessage(t *testing.T) {
	for _, message := range []json.RawMessage{nil, json.RawMessage(`null`)} {
		node, err := NewNodeFromRaw(RawNode{ID: "anchor", Message: message})
		require.NoError(t, err)
		assert.False(t, node.HasMessage())
		_, ok := node.Parent()
		assert.False(t, ok)
		assert.Empty(t, node.Children())
	}
}

func TestNewNodeFromRawEmptyTextIsStillAMessage(t *testing.T) {
	node, err := NewNodeFromRaw(RawNode{
		Message: json.RawMessage(`{"id": "ack", "content": {"content_type": "text", "parts": [""]}}`),
	})
	require.NoError(t, err)
	text, ok := node.Message()
	require.True(t, ok)
	assert.Equal(t, "", text)
}

func TestNewNodeFromRawMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  RawNode
	}{
		{"no id at all", RawNode{Message: json.RawMessage(`"text"`)}},
		{"empty payload", RawNode{}},
		{"message object without parts", RawNode{Message: json.RawMessage(`{"id": "x", "content": {"content_type": "text", "parts": []}}`)}},
		{"message is a number", RawNode{ID: "x", Message: json.RawMessage(`42`)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewNodeFromRaw(c.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedNode)
		})
	}
}

func TestNodeJSONRoundTrip(t *testing.T) {
	parent := NodeID("p")
	original := NewNode("n",
		WithMessage("what is a monad"),
		WithParent(parent),
		WithChildren("c1", "c2"),
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	restored := &Node{}
	require.NoError(t, json.Unmarshal(data, restored))
	assert.True(t, original.Equal(restored))
}

func TestNodeJSONRoundTripAnchor(t *testing.T) {
	anchor := NewNode("tree-anchor", WithChildren("root"))

	data, err := json.Marshal(anchor)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":null`)
	assert.Contains(t, string(data), `"parent":null`)

	restored := &Node{}
	require.NoError(t, json.Unmarshal(data, restored))
	assert.True(t, anchor.Equal(restored))
	assert.False(t, restored.HasMessage())
}

func TestNodeEqual(t *testing.T) {
	a := NewNode("n", WithMessage("hi"), WithParent("p"), WithChildren("c1"))
	b := NewNode("n", WithMessage("hi"), WithParent("p"), WithChildren("c1"))
	assert.True(t, a.Equal(b))

	c := NewNode("n", WithMessage("hi"), WithParent("p"), WithChildren("c1", "c2"))
	assert.False(t, a.Equal(c))

	d := NewNode("n", WithParent("p"), WithChildren("c1"))
	assert.False(t, a.Equal(d))
}

func TestNodeCloneIsIndependent(t *testing.T) {
	original := NewNode("n", WithMessage("hi"), WithParent("p"), WithChildren("c1"))
	clone := original.Clone()
	require.True(t, original.Equal(clone))

	original.appendChild("c2")
	assert.Equal(t, []NodeID{"c1"}, clone.Children())
	assert.False(t, original.Equal(clone))
}

func TestNewNodeIDIsUnique(t *testing.T) {
	seen := map[NodeID]struct{}{}
	for i := 0; i < 64; i++ {
		id := NewNodeID()
		_, ok := seen[id]
		require.False(t, ok)
		seen[id] = struct{}{}
	}
}
