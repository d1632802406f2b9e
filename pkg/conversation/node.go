package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

// NodeID identifies a node in a conversation tree. Server-assigned ids are
// opaque strings, client-generated ids are fresh UUIDs.
type NodeID string

// NewNodeID generates a new random NodeID.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

func (id NodeID) String() string {
	return string(id)
}

func (id NodeID) short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Node is a single element of a conversation tree. It either carries a
// message text, or none at all for the synthetic anchor that gives the first
// real message a parent. The id, message and parent are fixed at
// construction; children grow append-only as branches are attached.
type Node struct {
	id       NodeID
	message  *string
	parent   *NodeID
	children []NodeID
}

type NodeOption func(*Node)

// WithMessage sets the message text. A node built without this option is a
// structural anchor.
func WithMessage(text string) NodeOption {
	return func(n *Node) {
		n.message = &text
	}
}

// WithParent sets the parent id.
func WithParent(id NodeID) NodeOption {
	return func(n *Node) {
		parent := id
		n.parent = &parent
	}
}

// WithChildren sets the initial child ids, in order.
func WithChildren(ids ...NodeID) NodeOption {
	return func(n *Node) {
		n.children = append(n.children[:0], ids...)
	}
}

// NewNode creates a node with the given id and options.
func NewNode(id NodeID, options ...NodeOption) *Node {
	node := &Node{
		id:       id,
		children: []NodeID{},
	}
	for _, option := range options {
		option(node)
	}
	return node
}

// rawMessage is the nested message object of a server node payload. Only the
// fields needed for normalization are decoded.
type rawMessage struct {
	ID      NodeID `json:"id"`
	Content struct {
		ContentType string   `json:"content_type"`
		Parts       []string `json:"parts"`
	} `json:"content"`
}

// RawNode is the unnormalized node shape found in server payloads, such as
// the entries of a conversation mapping. Message holds either a plain JSON
// string or a nested message object.
type RawNode struct {
	ID       NodeID          `json:"id,omitempty"`
	Message  json.RawMessage `json:"message,omitempty"`
	Parent   *NodeID         `json:"parent,omitempty"`
	Children []NodeID        `json:"children,omitempty"`
}

var jsonNull = []byte("null")

// NewNodeFromRaw normalizes a raw payload into a node.
//
// A string message is taken verbatim. An object message contributes the first
// element of content.parts as the text, and its id as a fallback when the
// payload has no explicit id. A payload that resolves to no id at all, or an
// object message without parts, fails with ErrMalformedNode.
func NewNodeFromRaw(raw RawNode) (*Node, error) {
	id := raw.ID
	var message *string

	if len(raw.Message) > 0 && !bytes.Equal(raw.Message, jsonNull) {
		var text string
		if err := json.Unmarshal(raw.Message, &text); err == nil {
			message = &text
		} else {
			var msg rawMessage
			if err := json.Unmarshal(raw.Message, &msg); err != nil {
				return nil, errors.Wrap(ErrMalformedNode, "message is neither text nor a message object")
			}
			if len(msg.Content.Parts) == 0 {
				return nil, errors.Wrap(ErrMalformedNode, "message object has no content parts")
			}
			part := msg.Content.Parts[0]
			message = &part
			if id == "" {
				id = msg.ID
			}
		}
	}

	if id == "" {
		return nil, errors.Wrap(ErrMalformedNode, "no resolvable node id")
	}

	node := NewNode(id, WithChildren(raw.Children...))
	node.message = message
	if raw.Parent != nil {
		parent := *raw.Parent
		node.parent = &parent
	}
	return node, nil
}

// ID returns the node id.
func (n *Node) ID() NodeID {
	return n.id
}

// Message returns the message text and whether the node carries one at all.
// Anchors return false; an empty acknowledgment text returns ("", true).
func (n *Node) Message() (string, bool) {
	if n.message == nil {
		return "", false
	}
	return *n.message, true
}

// HasMessage reports whether the node carries a message.
func (n *Node) HasMessage() bool {
	return n.message != nil
}

// Parent returns the parent id and whether the node has one.
func (n *Node) Parent() (NodeID, bool) {
	if n.parent == nil {
		return "", false
	}
	return *n.parent, true
}

// Children returns a copy of the child ids in append order.
func (n *Node) Children() []NodeID {
	children := make([]NodeID, len(n.children))
	copy(children, n.children)
	return children
}

// appendChild adds id to the children unless it is already present.
func (n *Node) appendChild(id NodeID) {
	for _, child := range n.children {
		if child == id {
			return
		}
	}
	n.children = append(n.children, id)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	return clone.Clone(n).(*Node)
}

// Equal reports whether both nodes have the same id, message, parent and
// child order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.id != other.id {
		return false
	}
	if (n.message == nil) != (other.message == nil) {
		return false
	}
	if n.message != nil && *n.message != *other.message {
		return false
	}
	if (n.parent == nil) != (other.parent == nil) {
		return false
	}
	if n.parent != nil && *n.parent != *other.parent {
		return false
	}
	if len(n.children) != len(other.children) {
		return false
	}
	for i := range n.children {
		if n.children[i] != other.children[i] {
			return false
		}
	}
	return true
}

func (n *Node) String() string {
	parent := "tree"
	if n.parent != nil {
		parent = n.parent.short()
	}
	return fmt.Sprintf("<Node %s parent=%s children=%d>", n.id.short(), parent, len(n.children))
}

type nodeAlias struct {
	ID       NodeID   `json:"id"`
	Message  *string  `json:"message"`
	Parent   *NodeID  `json:"parent"`
	Children []NodeID `json:"children"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeAlias{
		ID:       n.id,
		Message:  n.message,
		Parent:   n.parent,
		Children: n.children,
	})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var alias nodeAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	if alias.ID == "" {
		return errors.Wrap(ErrMalformedNode, "no resolvable node id")
	}
	if alias.Children == nil {
		alias.Children = []NodeID{}
	}
	n.id = alias.ID
	n.message = alias.Message
	n.parent = alias.Parent
	n.children = alias.Children
	return nil
}
