package backendapi

import (
	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// AccountStatus is the payload of GET /accounts/check.
type AccountStatus struct {
	AccountPlan map[string]interface{} `json:"account_plan"`
	UserCountry string                 `json:"user_country,omitempty"`
	Features    []string               `json:"features,omitempty"`
}

// Model describes a single backend model.
type Model struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ModelCategory groups the models the account may use for one chat mode.
type ModelCategory struct {
	Category             string `json:"category"`
	HumanCategoryName    string `json:"human_category_name,omitempty"`
	DefaultModel         string `json:"default_model,omitempty"`
	BrowsingModel        string `json:"browsing_model,omitempty"`
	CodeInterpreterModel string `json:"code_interpreter_model,omitempty"`
	PluginsModel         string `json:"plugins_model,omitempty"`
}

// ModelList is the payload of GET /models.
type ModelList struct {
	Models     []Model         `json:"models,omitempty"`
	Categories []ModelCategory `json:"categories"`
}

// ConversationSummary is one entry of a conversation listing.
type ConversationSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CreateTime string `json:"create_time,omitempty"`
	UpdateTime string `json:"update_time,omitempty"`
}

// ConversationPage is the payload of GET /conversations.
type ConversationPage struct {
	Items  []ConversationSummary `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ConversationPayload is the payload of GET /conversation/{id}: the full
// node mapping of a remote conversation plus the node the server considers
// current.
type ConversationPayload struct {
	Title       string                                       `json:"title"`
	CreateTime  float64                                      `json:"create_time,omitempty"`
	UpdateTime  float64                                      `json:"update_time,omitempty"`
	Mapping     map[conversation.NodeID]conversation.RawNode `json:"mapping"`
	CurrentNode conversation.NodeID                          `json:"current_node"`
}

// ConversationLimit is the payload of GET /public-api/conversation_limit.
type ConversationLimit struct {
	MessageCap       int `json:"message_cap"`
	MessageCapWindow int `json:"message_cap_window"`
}
