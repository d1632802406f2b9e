package webchat

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// SessionState is the serializable form of a session: the conversation
// binding, the pointer positions and every stored node.
type SessionState struct {
	ConversationID    string               `json:"conversationId"`
	TreeID            conversation.NodeID  `json:"treeId"`
	RootID            conversation.NodeID  `json:"rootId"`
	CurrentQuestionID conversation.NodeID  `json:"currentQuestionId"`
	CurrentAnswerID   conversation.NodeID  `json:"currentAnswerId"`
	Nodes             []*conversation.Node `json:"nodes"`
}

// State snapshots the session. Nodes are deep copies ordered by id, so the
// snapshot stays stable while the session moves on, and equal sessions
// produce equal snapshots.
func (w *WebChat) State() *SessionState {
	w.mu.Lock()
	defer w.mu.Unlock()

	nodes := w.tree.Nodes()
	copies := make([]*conversation.Node, len(nodes))
	for i, node := range nodes {
		copies[i] = node.Clone()
	}

	return &SessionState{
		ConversationID:    w.conversationID,
		TreeID:            w.treeID,
		RootID:            w.rootID,
		CurrentQuestionID: w.queID,
		CurrentAnswerID:   w.nodeID,
		Nodes:             copies,
	}
}

// Restore replaces the session contents with a snapshot. The snapshot is
// validated in full before anything is replaced: node ids must be unique and
// every non-empty pointer must reference a snapshot node. Restoring a
// snapshot of a different conversation into a bound session fails with
// ErrConversationIDChange.
func (w *WebChat) Restore(state *SessionState) error {
	if state == nil {
		return errors.Wrap(ErrMalformedTree, "nil session state")
	}

	tree := conversation.NewTree()
	for i, node := range state.Nodes {
		if node == nil {
			return errors.Wrapf(ErrMalformedTree, "node %d is null", i)
		}
		// copied so the session never shares nodes with the snapshot
		if err := tree.Insert(node.Clone()); err != nil {
			return err
		}
	}
	for _, pointer := range []conversation.NodeID{
		state.TreeID, state.RootID, state.CurrentQuestionID, state.CurrentAnswerID,
	} {
		if pointer != "" && !tree.Contains(pointer) {
			return errors.Wrapf(ErrMalformedTree, "pointer %s references no node", pointer)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conversationID != "" && state.ConversationID != w.conversationID {
		return errors.Wrapf(ErrConversationIDChange, "session is bound to %s", w.conversationID)
	}

	w.conversationID = state.ConversationID
	w.tree = tree
	w.treeID = state.TreeID
	w.rootID = state.RootID
	w.queID = state.CurrentQuestionID
	w.nodeID = state.CurrentAnswerID
	return nil
}

// Save writes the session snapshot to filename as indented JSON. The write
// goes through a temporary file and a rename, so a crash never leaves a
// truncated snapshot behind.
func (w *WebChat) Save(filename string) error {
	state := w.State()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session state")
	}

	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "write session state")
	}
	if err := os.Rename(tmp, filename); err != nil {
		return errors.Wrap(err, "write session state")
	}

	log.Debug().Str("filename", filename).Int("nodes", len(state.Nodes)).Msg("session saved")
	return nil
}

// Load reads a session snapshot from filename and restores it.
func (w *WebChat) Load(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "read session state")
	}
	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return errors.Wrap(err, "decode session state")
	}
	if err := w.Restore(&state); err != nil {
		return err
	}

	log.Debug().Str("filename", filename).Int("nodes", len(state.Nodes)).Msg("session loaded")
	return nil
}
