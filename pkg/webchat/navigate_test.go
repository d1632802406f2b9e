package webchat

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubenlp/WebChatter/pkg/backendapi"
	"github.com/cubenlp/WebChatter/pkg/conversation"
)

// twoTurnChat runs two scripted exchanges: q1/a1 under root-1, q2/a2 under
// ans-1.
func twoTurnChat(t *testing.T) (*WebChat, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{
		completions: []*backendapi.CompletionExchange{
			exchangeOf("root-1", "ans-1", "a1", "conv-1"),
			exchangeOf("ignored", "ans-2", "a2", "conv-1"),
		},
	}
	chat := newTestChat(t, backend)
	_, err := chat.Ask(context.Background(), "q1")
	require.NoError(t, err)
	_, err = chat.Ask(context.Background(), "q2")
	require.NoError(t, err)
	return chat, backend
}

func TestGotoUnknownNode(t *testing.T) {
	chat, _ := twoTurnChat(t)
	err := chat.Goto("nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrUnknownNode)
}

func TestGotoAnchorFails(t *testing.T) {
	chat, _ := twoTurnChat(t)
	before := chat.CurrentAnswerID()

	err := chat.Goto(chat.TreeID())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Equal(t, before, chat.CurrentAnswerID(), "pointer unchanged after refusal")
}

func TestGotoAnswerSetsPointerPair(t *testing.T) {
	chat, _ := twoTurnChat(t)
	firstQuestion := mustParent(t, chat, "ans-1")

	require.NoError(t, chat.Goto("ans-1"))
	assert.Equal(t, conversation.NodeID("ans-1"), chat.CurrentAnswerID())
	assert.Equal(t, firstQuestion, chat.CurrentQuestionID())
}

func TestGotoQuestionUsesMessageBearingParent(t *testing.T) {
	chat, _ := twoTurnChat(t)
	firstQuestion := mustParent(t, chat, "ans-1")

	// the question's parent is the blank root acknowledgment, which still
	// bears a message
	require.NoError(t, chat.Goto(firstQuestion))
	assert.Equal(t, firstQuestion, chat.CurrentAnswerID())
	assert.Equal(t, chat.RootID(), chat.CurrentQuestionID())
}

func TestGotoRootCollapsesPair(t *testing.T) {
	chat, _ := twoTurnChat(t)

	// the root's parent is the anchor, which carries no message, so both
	// pointers land on the root
	require.NoError(t, chat.Goto(chat.RootID()))
	assert.Equal(t, chat.RootID(), chat.CurrentAnswerID())
	assert.Equal(t, chat.RootID(), chat.CurrentQuestionID())
}

func TestGoBackWalksExchanges(t *testing.T) {
	chat, _ := twoTurnChat(t)
	firstQuestion := mustParent(t, chat, "ans-1")

	require.NoError(t, chat.GoBack())
	assert.Equal(t, conversation.NodeID("ans-1"), chat.CurrentAnswerID())
	assert.Equal(t, firstQuestion, chat.CurrentQuestionID())
}

func TestGoBackAfterFirstAskReachesRoot(t *testing.T) {
	backend := &fakeBackend{}
	chat := establishedChat(t, backend)

	require.NoError(t, chat.GoBack())
	assert.Equal(t, chat.RootID(), chat.CurrentAnswerID())

	err := chat.GoBack()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAtRoot)
}

func TestGoBackOnEmptySession(t *testing.T) {
	chat := newTestChat(t, &fakeBackend{})
	err := chat.GoBack()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAtRoot)
}

func TestChatLogFollowsActiveThread(t *testing.T) {
	chat, _ := twoTurnChat(t)

	log, err := chat.ChatLog()
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, log, "anchor and blank root are skipped")

	require.NoError(t, chat.Goto("ans-1"))
	log, err = chat.ChatLog()
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "a1"}, log)
}

func TestChatLogOnEmptySession(t *testing.T) {
	chat := newTestChat(t, &fakeBackend{})
	log, err := chat.ChatLog()
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestPrintLog(t *testing.T) {
	chat, _ := twoTurnChat(t)

	var buf bytes.Buffer
	require.NoError(t, chat.PrintLog(&buf))
	assert.Equal(t, "Q: q1\n\nA: a1\n\nQ: q2\n\nA: a2\n\n", buf.String())
}

func mustParent(t *testing.T, chat *WebChat, id conversation.NodeID) conversation.NodeID {
	t.Helper()
	node, err := chat.Node(id)
	require.NoError(t, err)
	parent, ok := node.Parent()
	require.True(t, ok)
	return parent
}
