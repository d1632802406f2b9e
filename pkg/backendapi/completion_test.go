package backendapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubenlp/WebChatter/pkg/conversation"
)

func frameJSON(messageID string, text string, conversationID string) string {
	frame := map[string]interface{}{
		"message": map[string]interface{}{
			"id": messageID,
			"content": map[string]interface{}{
				"content_type": "text",
				"parts":        []string{text},
			},
		},
		"conversation_id": conversationID,
		"error":           nil,
	}
	data, _ := json.Marshal(frame)
	return string(data)
}

func sseBody(frames ...string) string {
	var b strings.Builder
	for _, frame := range frames {
		b.WriteString("data: ")
		b.WriteString(frame)
		b.WriteString("\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func TestSplitEventStream(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"two frames and done", sseBody(`{"a":1}`, `{"b":2}`), 2},
		{"no done marker", "data: {\"a\":1}\n\ndata: {\"b\":2}\n\n", 2},
		{"blank chunks dropped", "\n\ndata: \n\ndata: {\"a\":1}\n\n", 1},
		{"empty body", "", 0},
		{"progressive frames", sseBody(`{"a":1}`, `{"b":2}`, `{"c":3}`, `{"d":4}`), 4},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			frames := splitEventStream([]byte(c.body))
			assert.Len(t, frames, c.want)
		})
	}
}

func TestCreateCompletionFirstTurn(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/backend-api/conversation", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(sseBody(
			frameJSON("root-1", "", "conv-1"),
			frameJSON("ans-1", "the answer", "conv-1"),
		)))
	})

	exchange, err := client.CreateCompletion(context.Background(), CompletionRequest{
		Action:          ActionNext,
		MessageID:       "que-1",
		Text:            "what is a monad",
		ParentMessageID: "tree-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "next", captured["action"])
	assert.Equal(t, "tree-1", captured["parent_message_id"])
	assert.Equal(t, DefaultModel, captured["model"])
	_, hasConversationID := captured["conversation_id"]
	assert.False(t, hasConversationID, "first turn sends no conversation id")

	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	message := messages[0].(map[string]interface{})
	assert.Equal(t, "que-1", message["id"])
	assert.Equal(t, map[string]interface{}{"role": "user"}, message["author"])
	content := message["content"].(map[string]interface{})
	assert.Equal(t, "text", content["content_type"])
	assert.Equal(t, []interface{}{"what is a monad"}, content["parts"])

	assert.Equal(t, "conv-1", exchange.Final.ConversationID)
	node, err := exchange.Final.Node("que-1")
	require.NoError(t, err)
	assert.Equal(t, conversation.NodeID("ans-1"), node.ID())
	text, _ := node.Message()
	assert.Equal(t, "the answer", text)
}

func TestCreateCompletionTakesLastTwoFrames(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sseBody(
			frameJSON("ans-1", "the", "conv-1"),
			frameJSON("ans-1", "the ans", "conv-1"),
			frameJSON("ans-1", "the answ", "conv-1"),
			frameJSON("ans-1", "the answer", "conv-1"),
		)))
	})

	exchange, err := client.CreateCompletion(context.Background(), CompletionRequest{
		Action:          ActionNext,
		MessageID:       "que-2",
		Text:            "and then",
		ParentMessageID: "ans-0",
		ConversationID:  "conv-1",
	})
	require.NoError(t, err)

	node, err := exchange.Final.Node("que-2")
	require.NoError(t, err)
	text, _ := node.Message()
	assert.Equal(t, "the answer", text)

	node, err = exchange.Penultimate.Node("que-2")
	require.NoError(t, err)
	text, _ = node.Message()
	assert.Equal(t, "the answ", text)
}

func TestCreateCompletionSendsConversationID(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(sseBody(
			frameJSON("x", "ignored", "conv-9"),
			frameJSON("ans-9", "yes", "conv-9"),
		)))
	})

	_, err := client.CreateCompletion(context.Background(), CompletionRequest{
		Action:          ActionVariant,
		MessageID:       "que-9",
		Text:            "again please",
		ParentMessageID: "ans-8",
		ConversationID:  "conv-9",
		Model:           "gpt-4",
	})
	require.NoError(t, err)

	assert.Equal(t, "variant", captured["action"])
	assert.Equal(t, "conv-9", captured["conversation_id"])
	assert.Equal(t, "gpt-4", captured["model"])
}

func TestCreateCompletionShortStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sseBody(frameJSON("ans-1", "alone", "conv-1"))))
	})

	_, err := client.CreateCompletion(context.Background(), CompletionRequest{
		Action:          ActionNext,
		MessageID:       "que-1",
		Text:            "hello",
		ParentMessageID: "tree-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteCall)
	assert.Contains(t, err.Error(), "too short")
}

func TestCreateCompletionErrorFrame(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sseBody(
			frameJSON("root-1", "", "conv-1"),
			`{"message": null, "conversation_id": "conv-1", "error": "rate limited"}`,
		)))
	})

	_, err := client.CreateCompletion(context.Background(), CompletionRequest{
		Action:          ActionNext,
		MessageID:       "que-1",
		Text:            "hello",
		ParentMessageID: "tree-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteCall)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCreateCompletionStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "expired"}`))
	})

	_, err := client.CreateCompletion(context.Background(), CompletionRequest{
		Action:          ActionNext,
		MessageID:       "que-1",
		Text:            "hello",
		ParentMessageID: "tree-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteCall)
	assert.Contains(t, err.Error(), "status 403")
}
