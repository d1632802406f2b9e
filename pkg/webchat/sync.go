package webchat

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// MappingByID fetches the node mapping of a remote conversation and
// normalizes every entry. An empty id means the session's own conversation.
// The session state is not touched.
func (w *WebChat) MappingByID(ctx context.Context, conversationID string) (map[conversation.NodeID]*conversation.Node, error) {
	if conversationID == "" {
		conversationID = w.ConversationID()
	}
	if conversationID == "" {
		return nil, ErrNoConversation
	}

	payload, err := w.backend.Conversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[conversation.NodeID]*conversation.Node, len(payload.Mapping))
	for key, raw := range payload.Mapping {
		node, err := conversation.NewNodeFromRaw(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "mapping entry %s", key)
		}
		nodes[node.ID()] = node
	}
	return nodes, nil
}

// LoadConversation replaces the local tree with the server's view of the
// conversation and repositions the pointer pair. An empty id means the
// session's own conversation; loading a different conversation into a bound
// session fails with ErrConversationIDChange.
func (w *WebChat) LoadConversation(ctx context.Context, conversationID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadLocked(ctx, conversationID)
}

func (w *WebChat) loadLocked(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		conversationID = w.conversationID
	}
	if conversationID == "" {
		return ErrNoConversation
	}
	if w.conversationID != "" && conversationID != w.conversationID {
		return errors.Wrapf(ErrConversationIDChange, "session is bound to %s", w.conversationID)
	}

	payload, err := w.backend.Conversation(ctx, conversationID)
	if err != nil {
		return err
	}
	current := payload.CurrentNode
	if w.resumeNodeID != "" {
		if _, ok := payload.Mapping[w.resumeNodeID]; ok {
			current = w.resumeNodeID
		}
	}
	tree, pointers, err := reconcile(payload.Mapping, current)
	if err != nil {
		return err
	}

	w.resumeNodeID = ""
	w.conversationID = conversationID
	w.tree = tree
	w.treeID = pointers.treeID
	w.rootID = pointers.rootID
	w.queID = pointers.queID
	w.nodeID = pointers.nodeID

	log.Debug().
		Str("conversation_id", conversationID).
		Int("nodes", tree.Len()).
		Str("que_id", w.queID.String()).
		Str("node_id", w.nodeID.String()).
		Msg("conversation loaded")
	return nil
}

// NewChatByID creates a fresh session against the same backend and loads the
// given remote conversation into it. The receiving session is not touched.
func (w *WebChat) NewChatByID(ctx context.Context, conversationID string) (*WebChat, error) {
	chat, err := New(
		WithBaseURL(w.baseURL),
		WithBackendURL(w.backendURL),
		WithModel(w.model),
		WithHistoryAndTrainingDisabled(w.historyAndTrainingDisabled),
		WithBackend(w.backend),
	)
	if err != nil {
		return nil, err
	}
	if err := chat.LoadConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return chat, nil
}

type treePointers struct {
	treeID conversation.NodeID
	rootID conversation.NodeID
	queID  conversation.NodeID
	nodeID conversation.NodeID
}

// reconcile normalizes a raw mapping into a tree and derives the pointer
// positions. The walk starts at the server-declared current node when it is
// present in the mapping, otherwise at the top of the tree. Last-appended
// children are followed down to the leaf that becomes the current answer,
// then parent links are followed from the leaf up to the parentless top to
// establish the anchor and root ids.
func reconcile(mapping map[conversation.NodeID]conversation.RawNode, current conversation.NodeID) (*conversation.Tree, treePointers, error) {
	pointers := treePointers{}
	if len(mapping) == 0 {
		return nil, pointers, errors.Wrap(ErrMalformedTree, "empty mapping")
	}

	tree := conversation.NewTree()
	for key, raw := range mapping {
		node, err := conversation.NewNodeFromRaw(raw)
		if err != nil {
			return nil, pointers, errors.Wrapf(err, "mapping entry %s", key)
		}
		if err := tree.Insert(node); err != nil {
			return nil, pointers, err
		}
	}

	if current == "" || !tree.Contains(current) {
		top, err := findTop(tree)
		if err != nil {
			return nil, pointers, err
		}
		current = top
	}

	// derive the anchor and root from the leaf, not from current: when the
	// walk starts at the top the ancestry of current would be a single node
	leaf := descendLast(tree, current)

	path, err := tree.Ancestors(leaf)
	if err != nil {
		if errors.Is(err, conversation.ErrCycleDetected) {
			return nil, pointers, err
		}
		return nil, pointers, errors.Wrapf(ErrMalformedTree, "ancestry of %s: %v", leaf, err)
	}
	pointers.treeID = path[len(path)-1]
	pointers.rootID = pointers.treeID
	if len(path) >= 2 {
		pointers.rootID = path[len(path)-2]
	}

	pointers.nodeID = leaf
	pointers.queID = leaf
	if node, err := tree.Get(leaf); err == nil {
		if parentID, ok := node.Parent(); ok {
			if parent, err := tree.Get(parentID); err == nil && parent.HasMessage() {
				pointers.queID = parentID
			}
		}
	}
	return tree, pointers, nil
}

// findTop returns the first parentless node in id order.
func findTop(tree *conversation.Tree) (conversation.NodeID, error) {
	for _, id := range tree.IDs() {
		node, err := tree.Get(id)
		if err != nil {
			continue
		}
		if _, ok := node.Parent(); !ok {
			return id, nil
		}
	}
	return "", errors.Wrap(ErrMalformedTree, "no parentless top node")
}

// descendLast follows last-appended children down from a node as far as the
// tree reaches.
func descendLast(tree *conversation.Tree, from conversation.NodeID) conversation.NodeID {
	seen := map[conversation.NodeID]struct{}{from: {}}
	leaf := from
	for {
		next, ok := tree.LastChild(leaf)
		if !ok || !tree.Contains(next) {
			return leaf
		}
		if _, revisited := seen[next]; revisited {
			return leaf
		}
		seen[next] = struct{}{}
		leaf = next
	}
}
