package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cubenlp/WebChatter/pkg/conversation"
)

const (
	// BackendPath is appended to the base URL to reach the backend API.
	BackendPath = "/backend-api"

	defaultTimeout = 120 * time.Second
)

// Client talks to the conversational backend over its web REST API, using a
// bearer access token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	backendURL  string
	accessToken string
	userAgent   string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBackendURL overrides the backend API URL derived from the base URL.
func WithBackendURL(backendURL string) Option {
	return func(c *Client) {
		c.backendURL = strings.TrimRight(backendURL, "/")
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a client for the backend reachable at baseURL,
// authenticating with accessToken.
func NewClient(baseURL string, accessToken string, options ...Option) *Client {
	client := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
	}
	for _, option := range options {
		option(client)
	}
	if client.backendURL == "" && client.baseURL != "" {
		client.backendURL = client.baseURL + BackendPath
	}
	if client.baseURL == "" && client.backendURL != "" {
		client.baseURL = strings.TrimSuffix(client.backendURL, BackendPath)
	}
	return client
}

// BackendURL returns the resolved backend API URL.
func (c *Client) BackendURL() string {
	return c.backendURL
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// doJSON performs one JSON request. A nil payload sends no body, a nil out
// discards the response body.
func (c *Client) doJSON(ctx context.Context, method string, requestURL string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encode request payload")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return errors.Wrapf(ErrRemoteCall, "%s %s: %v", method, requestURL, err)
	}
	c.setHeaders(req)

	log.Trace().Str("method", method).Str("url", requestURL).Msg("backend request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(ErrRemoteCall, "%s %s: %v", method, requestURL, err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(ErrRemoteCall, "%s %s: read response: %v", method, requestURL, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Wrapf(ErrRemoteCall, "%s %s: status %d: %s",
			method, requestURL, resp.StatusCode, bodyExcerpt(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(ErrRemoteCall, "%s %s: decode response: %v", method, requestURL, err)
	}
	return nil
}

func bodyExcerpt(data []byte) string {
	const maxExcerpt = 200
	excerpt := strings.TrimSpace(string(data))
	if len(excerpt) > maxExcerpt {
		excerpt = excerpt[:maxExcerpt] + "..."
	}
	return excerpt
}

func pageQuery(offset int, limit int, order string) string {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	if order == "" {
		order = "updated"
	}
	query.Set("order", order)
	return query.Encode()
}

// AccountStatus fetches the account plan and entitlement details.
func (c *Client) AccountStatus(ctx context.Context) (*AccountStatus, error) {
	var status AccountStatus
	if err := c.doJSON(ctx, http.MethodGet, c.backendURL+"/accounts/check", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Models fetches the model categories available to the account.
func (c *Client) Models(ctx context.Context, historyAndTrainingDisabled bool) (*ModelList, error) {
	query := url.Values{}
	query.Set("history_and_training_disabled", strconv.FormatBool(historyAndTrainingDisabled))

	var models ModelList
	if err := c.doJSON(ctx, http.MethodGet, c.backendURL+"/models?"+query.Encode(), nil, &models); err != nil {
		return nil, err
	}
	return &models, nil
}

// BetaFeatures fetches the beta feature flags of the account.
func (c *Client) BetaFeatures(ctx context.Context) (map[string]bool, error) {
	features := map[string]bool{}
	if err := c.doJSON(ctx, http.MethodGet, c.backendURL+"/settings/beta_features", nil, &features); err != nil {
		return nil, err
	}
	return features, nil
}

// ConversationLimit fetches the message cap of the account.
func (c *Client) ConversationLimit(ctx context.Context) (*ConversationLimit, error) {
	var limit ConversationLimit
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/public-api/conversation_limit", nil, &limit); err != nil {
		return nil, err
	}
	return &limit, nil
}

// Conversations fetches one page of the conversation listing.
func (c *Client) Conversations(ctx context.Context, offset int, limit int, order string) (*ConversationPage, error) {
	var page ConversationPage
	if err := c.doJSON(ctx, http.MethodGet, c.backendURL+"/conversations?"+pageQuery(offset, limit, order), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SharedConversations fetches one page of the shared conversation listing.
func (c *Client) SharedConversations(ctx context.Context, offset int, limit int, order string) (*ConversationPage, error) {
	var page ConversationPage
	if err := c.doJSON(ctx, http.MethodGet, c.backendURL+"/shared_conversations?"+pageQuery(offset, limit, order), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Conversation fetches the full node mapping of one conversation.
func (c *Client) Conversation(ctx context.Context, conversationID string) (*ConversationPayload, error) {
	var payload ConversationPayload
	requestURL := c.backendURL + "/conversation/" + url.PathEscape(conversationID)
	if err := c.doJSON(ctx, http.MethodGet, requestURL, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SetConversationTitle renames a conversation.
func (c *Client) SetConversationTitle(ctx context.Context, conversationID string, title string) error {
	payload := map[string]string{"title": title}
	requestURL := c.backendURL + "/conversation/" + url.PathEscape(conversationID)
	return c.doJSON(ctx, http.MethodPatch, requestURL, payload, nil)
}

// DeleteConversation hides a conversation on the server. The backend models
// deletion as setting is_visible to false.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	payload := map[string]bool{"is_visible": false}
	requestURL := c.backendURL + "/conversation/" + url.PathEscape(conversationID)
	return c.doJSON(ctx, http.MethodPatch, requestURL, payload, nil)
}

// GenerateConversationTitle asks the server to title a conversation based on
// one of its messages, and returns the generated title.
func (c *Client) GenerateConversationTitle(ctx context.Context, conversationID string, messageID conversation.NodeID) (string, error) {
	payload := map[string]string{"message_id": messageID.String()}
	requestURL := c.backendURL + "/conversation/gen_title/" + url.PathEscape(conversationID)

	var result struct {
		Title string `json:"title"`
	}
	if err := c.doJSON(ctx, http.MethodPost, requestURL, payload, &result); err != nil {
		return "", err
	}
	return result.Title, nil
}

// RequestDataExport asks the server to prepare an export of the account
// data. The export itself arrives out of band.
func (c *Client) RequestDataExport(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, c.backendURL+"/accounts/data_export", struct{}{}, nil)
}
