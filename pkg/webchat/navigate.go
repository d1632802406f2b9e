package webchat

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// Goto moves the pointer pair to the node with the given id. The target
// becomes the current answer; its parent becomes the current question when it
// carries a message, otherwise the question pointer collapses onto the target
// itself. Moving to the tree anchor fails with ErrInvalidTarget.
func (w *WebChat) Goto(id conversation.NodeID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gotoLocked(id)
}

func (w *WebChat) gotoLocked(id conversation.NodeID) error {
	node, err := w.tree.Get(id)
	if err != nil {
		return err
	}
	if !node.HasMessage() {
		return errors.Wrapf(ErrInvalidTarget, "node %s", id)
	}

	w.nodeID = id
	w.queID = id
	if parentID, ok := node.Parent(); ok {
		if parent, err := w.tree.Get(parentID); err == nil && parent.HasMessage() {
			w.queID = parentID
		}
	}
	return nil
}

// GoBack moves the pointer pair one exchange towards the root. Stepping back
// from the root acknowledgment node fails with ErrAtRoot.
func (w *WebChat) GoBack() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.nodeID == "" || w.nodeID == w.rootID {
		return errors.Wrap(ErrAtRoot, "nothing before the current node")
	}
	question, err := w.tree.Get(w.queID)
	if err != nil {
		return err
	}
	parentID, ok := question.Parent()
	if !ok {
		return errors.Wrap(ErrAtRoot, "nothing before the current node")
	}
	parent, err := w.tree.Get(parentID)
	if err != nil {
		return err
	}
	if !parent.HasMessage() {
		return errors.Wrap(ErrAtRoot, "nothing before the current node")
	}
	return w.gotoLocked(parentID)
}

// ChatLog returns the message texts along the active thread, from the top of
// the tree down to the current answer. Structural nodes and blank
// acknowledgment texts are skipped.
func (w *WebChat) ChatLog() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.nodeID == "" {
		return []string{}, nil
	}
	nodes, err := w.tree.Thread(w.nodeID)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		text, ok := node.Message()
		if !ok || text == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// PrintLog writes the active thread to wr, alternating question and answer
// labels.
func (w *WebChat) PrintLog(wr io.Writer) error {
	texts, err := w.ChatLog()
	if err != nil {
		return err
	}
	for i, text := range texts {
		label := "Q"
		if i%2 == 1 {
			label = "A"
		}
		if _, err := fmt.Fprintf(wr, "%s: %s\n\n", label, text); err != nil {
			return errors.Wrap(err, "write chat log")
		}
	}
	return nil
}
