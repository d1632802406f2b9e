package webchat

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cubenlp/WebChatter/pkg/backendapi"
	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// Ask sends message as the next turn of the conversation and returns the
// answer text. The first ask establishes the conversation: the server assigns
// the conversation id and the local tree gains four nodes (anchor, root
// acknowledgment, question, answer). Every later ask appends a question and
// an answer under the current answer node.
//
// The tree is only modified once the full exchange succeeded; a failed ask
// leaves the session exactly as it was.
func (w *WebChat) Ask(ctx context.Context, message string) (string, error) {
	return w.AskKeep(ctx, message, true)
}

// AskKeep is Ask with the reserved keep flag. The session currently always
// retains the full history regardless of keep.
func (w *WebChat) AskKeep(ctx context.Context, message string, keep bool) (string, error) {
	_ = keep
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conversationID == "" {
		return w.askFirst(ctx, message)
	}
	return w.askNext(ctx, message)
}

func (w *WebChat) askFirst(ctx context.Context, message string) (string, error) {
	treeID := conversation.NewNodeID()
	queID := conversation.NewNodeID()

	exchange, err := w.backend.CreateCompletion(ctx, backendapi.CompletionRequest{
		Action:                     backendapi.ActionNext,
		MessageID:                  queID,
		Text:                       message,
		ParentMessageID:            treeID,
		Model:                      w.model,
		HistoryAndTrainingDisabled: w.historyAndTrainingDisabled,
	})
	if err != nil {
		return "", err
	}
	if exchange.Final.ConversationID == "" {
		return "", errors.Wrap(backendapi.ErrRemoteCall, "completion carries no conversation id")
	}

	root, err := exchange.Penultimate.Node(treeID, queID)
	if err != nil {
		return "", errors.Wrap(err, "root acknowledgment payload")
	}
	answer, err := exchange.Final.Node(queID)
	if err != nil {
		return "", errors.Wrap(err, "answer payload")
	}

	anchor := conversation.NewNode(treeID, conversation.WithChildren(root.ID()))
	question := conversation.NewNode(queID,
		conversation.WithMessage(message),
		conversation.WithParent(root.ID()),
		conversation.WithChildren(answer.ID()),
	)

	nodes := []*conversation.Node{anchor, root, question, answer}
	if err := w.checkNewNodes(nodes...); err != nil {
		return "", err
	}
	if err := w.commitNodes(nodes...); err != nil {
		return "", err
	}

	w.conversationID = exchange.Final.ConversationID
	w.treeID = treeID
	w.rootID = root.ID()
	w.queID = question.ID()
	w.nodeID = answer.ID()

	log.Debug().
		Str("conversation_id", w.conversationID).
		Str("que_id", w.queID.String()).
		Str("node_id", w.nodeID.String()).
		Int("nodes", w.tree.Len()).
		Msg("conversation established")

	text, _ := answer.Message()
	return text, nil
}

func (w *WebChat) askNext(ctx context.Context, message string) (string, error) {
	if w.nodeID == "" {
		// resumed by id only, fetch the tree before continuing
		if err := w.loadLocked(ctx, w.conversationID); err != nil {
			return "", err
		}
	}

	queID := conversation.NewNodeID()
	parentID := w.nodeID

	exchange, err := w.backend.CreateCompletion(ctx, backendapi.CompletionRequest{
		Action:                     backendapi.ActionNext,
		MessageID:                  queID,
		Text:                       message,
		ParentMessageID:            parentID,
		ConversationID:             w.conversationID,
		Model:                      w.model,
		HistoryAndTrainingDisabled: w.historyAndTrainingDisabled,
	})
	if err != nil {
		return "", err
	}
	if id := exchange.Final.ConversationID; id != "" && id != w.conversationID {
		return "", errors.Wrapf(ErrConversationIDChange, "server moved %s to %s", w.conversationID, id)
	}

	answer, err := exchange.Final.Node(queID)
	if err != nil {
		return "", errors.Wrap(err, "answer payload")
	}
	question := conversation.NewNode(queID,
		conversation.WithMessage(message),
		conversation.WithParent(parentID),
		conversation.WithChildren(answer.ID()),
	)

	nodes := []*conversation.Node{question, answer}
	if err := w.checkNewNodes(nodes...); err != nil {
		return "", err
	}
	if err := w.tree.LinkChild(parentID, queID); err != nil {
		return "", err
	}
	if err := w.commitNodes(nodes...); err != nil {
		return "", err
	}

	w.queID = question.ID()
	w.nodeID = answer.ID()

	log.Debug().
		Str("conversation_id", w.conversationID).
		Str("que_id", w.queID.String()).
		Str("node_id", w.nodeID.String()).
		Int("nodes", w.tree.Len()).
		Msg("exchange recorded")

	text, _ := answer.Message()
	return text, nil
}

// Regenerate requests a fresh answer. With an empty message the current
// question is resent as a variant and the new answer becomes a sibling of the
// current one. With a message the current question is replaced: the new
// question branches off beside it, under the same parent.
func (w *WebChat) Regenerate(ctx context.Context, message string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conversationID == "" {
		return "", ErrNoConversation
	}
	if w.nodeID == "" {
		if err := w.loadLocked(ctx, w.conversationID); err != nil {
			return "", err
		}
	}

	question, err := w.tree.Get(w.queID)
	if err != nil {
		return "", err
	}
	parentID, ok := question.Parent()
	if !ok {
		return "", errors.Wrapf(ErrInvalidTarget, "question %s has no parent", question.ID())
	}

	if strings.TrimSpace(message) == "" {
		return w.regenerateVariant(ctx, question, parentID)
	}
	return w.regenerateEdited(ctx, message, parentID)
}

func (w *WebChat) regenerateVariant(ctx context.Context, question *conversation.Node, parentID conversation.NodeID) (string, error) {
	text, ok := question.Message()
	if !ok {
		return "", errors.Wrapf(ErrInvalidTarget, "question %s carries no message", question.ID())
	}

	exchange, err := w.backend.CreateCompletion(ctx, backendapi.CompletionRequest{
		Action:                     backendapi.ActionVariant,
		MessageID:                  question.ID(),
		Text:                       text,
		ParentMessageID:            parentID,
		ConversationID:             w.conversationID,
		Model:                      w.model,
		HistoryAndTrainingDisabled: w.historyAndTrainingDisabled,
	})
	if err != nil {
		return "", err
	}
	if id := exchange.Final.ConversationID; id != "" && id != w.conversationID {
		return "", errors.Wrapf(ErrConversationIDChange, "server moved %s to %s", w.conversationID, id)
	}

	answer, err := exchange.Final.Node(question.ID())
	if err != nil {
		return "", errors.Wrap(err, "answer payload")
	}
	if err := w.checkNewNodes(answer); err != nil {
		return "", err
	}
	if err := w.tree.LinkChild(question.ID(), answer.ID()); err != nil {
		return "", err
	}
	if err := w.commitNodes(answer); err != nil {
		return "", err
	}

	w.nodeID = answer.ID()

	log.Debug().
		Str("conversation_id", w.conversationID).
		Str("que_id", w.queID.String()).
		Str("node_id", w.nodeID.String()).
		Msg("answer regenerated")

	answerText, _ := answer.Message()
	return answerText, nil
}

func (w *WebChat) regenerateEdited(ctx context.Context, message string, parentID conversation.NodeID) (string, error) {
	queID := conversation.NewNodeID()

	exchange, err := w.backend.CreateCompletion(ctx, backendapi.CompletionRequest{
		Action:                     backendapi.ActionNext,
		MessageID:                  queID,
		Text:                       message,
		ParentMessageID:            parentID,
		ConversationID:             w.conversationID,
		Model:                      w.model,
		HistoryAndTrainingDisabled: w.historyAndTrainingDisabled,
	})
	if err != nil {
		return "", err
	}
	if id := exchange.Final.ConversationID; id != "" && id != w.conversationID {
		return "", errors.Wrapf(ErrConversationIDChange, "server moved %s to %s", w.conversationID, id)
	}

	answer, err := exchange.Final.Node(queID)
	if err != nil {
		return "", errors.Wrap(err, "answer payload")
	}
	question := conversation.NewNode(queID,
		conversation.WithMessage(message),
		conversation.WithParent(parentID),
		conversation.WithChildren(answer.ID()),
	)

	nodes := []*conversation.Node{question, answer}
	if err := w.checkNewNodes(nodes...); err != nil {
		return "", err
	}
	if err := w.tree.LinkChild(parentID, queID); err != nil {
		return "", err
	}
	if err := w.commitNodes(nodes...); err != nil {
		return "", err
	}

	w.queID = question.ID()
	w.nodeID = answer.ID()

	log.Debug().
		Str("conversation_id", w.conversationID).
		Str("que_id", w.queID.String()).
		Str("node_id", w.nodeID.String()).
		Msg("question edited")

	answerText, _ := answer.Message()
	return answerText, nil
}

// checkNewNodes verifies that the given nodes can all be inserted, so a
// failed exchange never leaves a half-updated tree.
func (w *WebChat) checkNewNodes(nodes ...*conversation.Node) error {
	seen := make(map[conversation.NodeID]struct{}, len(nodes))
	for _, node := range nodes {
		if _, ok := seen[node.ID()]; ok {
			return errors.Wrapf(conversation.ErrDuplicateNode, "node %s", node.ID())
		}
		if w.tree.Contains(node.ID()) {
			return errors.Wrapf(conversation.ErrDuplicateNode, "node %s", node.ID())
		}
		seen[node.ID()] = struct{}{}
	}
	return nil
}

func (w *WebChat) commitNodes(nodes ...*conversation.Node) error {
	for _, node := range nodes {
		if err := w.tree.Insert(node); err != nil {
			return err
		}
	}
	return nil
}
