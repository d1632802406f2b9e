package webchat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/cubenlp/WebChatter/pkg/backendapi"
	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// Backend is the remote side of a session. It matches the backendapi client
// so that tests can substitute a scripted implementation.
type Backend interface {
	AccountStatus(ctx context.Context) (*backendapi.AccountStatus, error)
	Models(ctx context.Context, historyAndTrainingDisabled bool) (*backendapi.ModelList, error)
	BetaFeatures(ctx context.Context) (map[string]bool, error)
	ConversationLimit(ctx context.Context) (*backendapi.ConversationLimit, error)
	Conversations(ctx context.Context, offset int, limit int, order string) (*backendapi.ConversationPage, error)
	SharedConversations(ctx context.Context, offset int, limit int, order string) (*backendapi.ConversationPage, error)
	Conversation(ctx context.Context, conversationID string) (*backendapi.ConversationPayload, error)
	CreateCompletion(ctx context.Context, request backendapi.CompletionRequest) (*backendapi.CompletionExchange, error)
	SetConversationTitle(ctx context.Context, conversationID string, title string) error
	DeleteConversation(ctx context.Context, conversationID string) error
	GenerateConversationTitle(ctx context.Context, conversationID string, messageID conversation.NodeID) (string, error)
	RequestDataExport(ctx context.Context) error
}

var _ Backend = (*backendapi.Client)(nil)

// WebChat is one conversation session. It tracks the remote conversation id,
// the local node tree and the pointer pair marking the active thread: queID
// is the current question, nodeID the current answer.
type WebChat struct {
	mu sync.Mutex

	baseURL                    string
	backendURL                 string
	accessToken                string
	model                      string
	historyAndTrainingDisabled bool
	httpClient                 *http.Client

	backend Backend

	conversationID string
	resumeNodeID   conversation.NodeID
	treeID         conversation.NodeID
	rootID         conversation.NodeID
	queID          conversation.NodeID
	nodeID         conversation.NodeID
	tree           *conversation.Tree
}

type Option func(*WebChat)

// WithBaseURL sets the service base URL, e.g. https://chat.openai.com.
func WithBaseURL(baseURL string) Option {
	return func(w *WebChat) {
		w.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithBackendURL overrides the backend API URL derived from the base URL,
// for reverse proxies that only expose the backend path.
func WithBackendURL(backendURL string) Option {
	return func(w *WebChat) {
		w.backendURL = strings.TrimRight(backendURL, "/")
	}
}

// WithAccessToken sets the bearer access token.
func WithAccessToken(accessToken string) Option {
	return func(w *WebChat) {
		w.accessToken = accessToken
	}
}

// WithModel sets the model slug sent with completions.
func WithModel(model string) Option {
	return func(w *WebChat) {
		w.model = model
	}
}

// WithHistoryAndTrainingDisabled asks the backend to keep exchanges out of
// remote history and training.
func WithHistoryAndTrainingDisabled(disabled bool) Option {
	return func(w *WebChat) {
		w.historyAndTrainingDisabled = disabled
	}
}

// WithHTTPClient replaces the HTTP client used for backend calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(w *WebChat) {
		w.httpClient = httpClient
	}
}

// WithConversationID resumes an existing remote conversation. The first
// operation that needs the node tree loads it from the server.
func WithConversationID(conversationID string) Option {
	return func(w *WebChat) {
		w.conversationID = conversationID
	}
}

// WithCurrentNodeID positions a resumed conversation at the given node
// instead of the server-declared current node. It only applies to the first
// load; an id the mapping does not contain is ignored.
func WithCurrentNodeID(id conversation.NodeID) Option {
	return func(w *WebChat) {
		w.resumeNodeID = id
	}
}

// WithBackend injects a backend implementation and skips construction of the
// default client, along with its token and URL checks.
func WithBackend(backend Backend) Option {
	return func(w *WebChat) {
		w.backend = backend
	}
}

// New creates a session. Configuration problems are reported here rather
// than on first use.
func New(options ...Option) (*WebChat, error) {
	w := &WebChat{
		model: backendapi.DefaultModel,
		tree:  conversation.NewTree(),
	}
	for _, option := range options {
		option(w)
	}

	if w.backend == nil {
		if w.baseURL == "" && w.backendURL == "" {
			return nil, ErrMissingBaseURL
		}
		if w.accessToken == "" {
			return nil, ErrMissingAccessToken
		}
		clientOptions := []backendapi.Option{}
		if w.backendURL != "" {
			clientOptions = append(clientOptions, backendapi.WithBackendURL(w.backendURL))
		}
		if w.httpClient != nil {
			clientOptions = append(clientOptions, backendapi.WithHTTPClient(w.httpClient))
		}
		w.backend = backendapi.NewClient(w.baseURL, w.accessToken, clientOptions...)
	}
	return w, nil
}

// ConversationID returns the remote conversation id, or "" before the first
// exchange.
func (w *WebChat) ConversationID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conversationID
}

// TreeID returns the id of the synthetic tree anchor.
func (w *WebChat) TreeID() conversation.NodeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.treeID
}

// RootID returns the id of the root acknowledgment node.
func (w *WebChat) RootID() conversation.NodeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rootID
}

// CurrentQuestionID returns the question half of the pointer pair.
func (w *WebChat) CurrentQuestionID() conversation.NodeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queID
}

// CurrentAnswerID returns the answer half of the pointer pair.
func (w *WebChat) CurrentAnswerID() conversation.NodeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nodeID
}

// Model returns the model slug sent with completions.
func (w *WebChat) Model() string {
	return w.model
}

// Len returns the number of nodes in the local tree.
func (w *WebChat) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Len()
}

// Node returns the stored node with the given id.
func (w *WebChat) Node(id conversation.NodeID) (*conversation.Node, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Get(id)
}

// Nodes returns all stored nodes ordered by id.
func (w *WebChat) Nodes() []*conversation.Node {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Nodes()
}

func (w *WebChat) String() string {
	id := w.ConversationID()
	if id == "" {
		id = "none"
	}
	return fmt.Sprintf("<WebChat: %s>", id)
}
