package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// DefaultModel is the model slug used when the caller does not pick one.
const DefaultModel = "text-davinci-002-render-sha"

// CompletionAction selects how the backend treats the sent message.
type CompletionAction string

const (
	// ActionNext appends a new message to the conversation.
	ActionNext CompletionAction = "next"
	// ActionVariant regenerates the answer to an already sent message.
	ActionVariant CompletionAction = "variant"
)

// CompletionRequest describes one completion call. ConversationID is left
// empty on the first turn of a conversation; ParentMessageID then carries the
// client-generated tree anchor id.
type CompletionRequest struct {
	Action                     CompletionAction
	MessageID                  conversation.NodeID
	Text                       string
	ParentMessageID            conversation.NodeID
	ConversationID             string
	Model                      string
	HistoryAndTrainingDisabled bool
}

type completionMessageContent struct {
	ContentType string   `json:"content_type"`
	Parts       []string `json:"parts"`
}

type completionMessageAuthor struct {
	Role string `json:"role"`
}

type completionMessage struct {
	ID      conversation.NodeID      `json:"id"`
	Author  completionMessageAuthor  `json:"author"`
	Content completionMessageContent `json:"content"`
}

type completionBody struct {
	Action                     CompletionAction    `json:"action"`
	Messages                   []completionMessage `json:"messages"`
	ConversationID             string              `json:"conversation_id,omitempty"`
	ParentMessageID            conversation.NodeID `json:"parent_message_id"`
	Model                      string              `json:"model"`
	HistoryAndTrainingDisabled bool                `json:"history_and_training_disabled"`
}

// ConversationFrame is one data frame of a completion event stream. Message
// holds the raw node payload of the frame.
type ConversationFrame struct {
	Message        json.RawMessage `json:"message"`
	ConversationID string          `json:"conversation_id"`
	Error          json.RawMessage `json:"error,omitempty"`
}

// Err returns the server error carried by the frame, if any.
func (f ConversationFrame) Err() error {
	if len(f.Error) == 0 || bytes.Equal(f.Error, jsonNull) {
		return nil
	}
	return errors.Wrapf(ErrRemoteCall, "server error in completion stream: %s", string(f.Error))
}

// Node normalizes the frame's message into a conversation node attached to
// the given parent, with the given initial children.
func (f ConversationFrame) Node(parent conversation.NodeID, children ...conversation.NodeID) (*conversation.Node, error) {
	return conversation.NewNodeFromRaw(conversation.RawNode{
		Message:  f.Message,
		Parent:   &parent,
		Children: children,
	})
}

// CompletionExchange holds the two meaningful frames of a completion stream:
// the second to last frame and the last one before the end marker. On the
// first turn of a conversation the penultimate frame describes the root
// acknowledgment node; on later turns it is ignorable. The final frame
// always describes the answer.
type CompletionExchange struct {
	Penultimate ConversationFrame
	Final       ConversationFrame
}

var (
	jsonNull   = []byte("null")
	doneMarker = []byte("[DONE]")
)

// splitEventStream splits a complete SSE body into its data frames, dropping
// blanks and the end marker.
func splitEventStream(body []byte) [][]byte {
	var frames [][]byte
	for _, chunk := range bytes.Split(body, []byte("data:")) {
		chunk = bytes.TrimSpace(chunk)
		if len(chunk) == 0 || bytes.Equal(chunk, doneMarker) {
			continue
		}
		frames = append(frames, chunk)
	}
	return frames
}

// CreateCompletion sends one message and returns the last two frames of the
// resulting event stream. The body is read in full before splitting; partial
// frames are never surfaced.
func (c *Client) CreateCompletion(ctx context.Context, request CompletionRequest) (*CompletionExchange, error) {
	model := request.Model
	if model == "" {
		model = DefaultModel
	}
	body := completionBody{
		Action: request.Action,
		Messages: []completionMessage{
			{
				ID:     request.MessageID,
				Author: completionMessageAuthor{Role: "user"},
				Content: completionMessageContent{
					ContentType: "text",
					Parts:       []string{request.Text},
				},
			},
		},
		ConversationID:             request.ConversationID,
		ParentMessageID:            request.ParentMessageID,
		Model:                      model,
		HistoryAndTrainingDisabled: request.HistoryAndTrainingDisabled,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode completion request")
	}

	requestURL := c.backendURL + "/conversation"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrRemoteCall, "POST %s: %v", requestURL, err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrRemoteCall, "POST %s: %v", requestURL, err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrRemoteCall, "POST %s: read stream: %v", requestURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrRemoteCall, "POST %s: status %d: %s",
			requestURL, resp.StatusCode, bodyExcerpt(raw))
	}

	frames := splitEventStream(raw)
	log.Debug().
		Str("conversation_id", request.ConversationID).
		Str("action", string(request.Action)).
		Int("frames", len(frames)).
		Msg("completion stream received")

	if len(frames) < 2 {
		return nil, errors.Wrapf(ErrRemoteCall, "completion stream too short: %d frames", len(frames))
	}

	var exchange CompletionExchange
	if err := json.Unmarshal(frames[len(frames)-2], &exchange.Penultimate); err != nil {
		return nil, errors.Wrapf(ErrRemoteCall, "decode penultimate frame: %v", err)
	}
	if err := json.Unmarshal(frames[len(frames)-1], &exchange.Final); err != nil {
		return nil, errors.Wrapf(ErrRemoteCall, "decode final frame: %v", err)
	}
	if err := exchange.Final.Err(); err != nil {
		return nil, err
	}
	return &exchange, nil
}
