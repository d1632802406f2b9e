package webchat

import (
	"context"

	"github.com/cubenlp/WebChatter/pkg/backendapi"
	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// AccountPlan returns the plan details of the account.
func (w *WebChat) AccountPlan(ctx context.Context) (map[string]interface{}, error) {
	status, err := w.backend.AccountStatus(ctx)
	if err != nil {
		return nil, err
	}
	return status.AccountPlan, nil
}

// ValidModels returns the model category names available to the account.
func (w *WebChat) ValidModels(ctx context.Context) ([]string, error) {
	models, err := w.backend.Models(ctx, w.historyAndTrainingDisabled)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(models.Categories))
	for _, category := range models.Categories {
		names = append(names, category.Category)
	}
	return names, nil
}

// BetaFeatures returns the beta feature flags of the account.
func (w *WebChat) BetaFeatures(ctx context.Context) (map[string]bool, error) {
	return w.backend.BetaFeatures(ctx)
}

// MessageLimit returns the message cap of the account.
func (w *WebChat) MessageLimit(ctx context.Context) (*backendapi.ConversationLimit, error) {
	return w.backend.ConversationLimit(ctx)
}

// ChatList returns one page of the account's conversations.
func (w *WebChat) ChatList(ctx context.Context, offset int, limit int, order string) ([]backendapi.ConversationSummary, error) {
	page, err := w.backend.Conversations(ctx, offset, limit, order)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SharedChatList returns one page of the account's shared conversations.
func (w *WebChat) SharedChatList(ctx context.Context, offset int, limit int, order string) ([]backendapi.ConversationSummary, error) {
	page, err := w.backend.SharedConversations(ctx, offset, limit, order)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// NumOfChats returns the total number of conversations of the account.
func (w *WebChat) NumOfChats(ctx context.Context) (int, error) {
	page, err := w.backend.Conversations(ctx, 0, 1, "")
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

// SetTitle renames the session's conversation.
func (w *WebChat) SetTitle(ctx context.Context, title string) error {
	conversationID := w.ConversationID()
	if conversationID == "" {
		return ErrNoConversation
	}
	return w.backend.SetConversationTitle(ctx, conversationID, title)
}

// GenerateTitle asks the server to title the session's conversation. With an
// empty messageID the current answer node is used.
func (w *WebChat) GenerateTitle(ctx context.Context, messageID conversation.NodeID) (string, error) {
	w.mu.Lock()
	conversationID := w.conversationID
	if messageID == "" {
		messageID = w.nodeID
	}
	w.mu.Unlock()

	if conversationID == "" {
		return "", ErrNoConversation
	}
	return w.backend.GenerateConversationTitle(ctx, conversationID, messageID)
}

// DeleteChat hides the session's conversation on the server. The local tree
// is kept; a fresh session is needed for a new conversation.
func (w *WebChat) DeleteChat(ctx context.Context) error {
	conversationID := w.ConversationID()
	if conversationID == "" {
		return ErrNoConversation
	}
	return w.backend.DeleteConversation(ctx, conversationID)
}

// RequestDataExport asks the server to prepare an account data export.
func (w *WebChat) RequestDataExport(ctx context.Context) error {
	return w.backend.RequestDataExport(ctx)
}
