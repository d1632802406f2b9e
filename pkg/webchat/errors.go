package webchat

import "errors"

var (
	// ErrMissingAccessToken indicates a session built without an access token.
	ErrMissingAccessToken = errors.New("access token is not set")

	// ErrMissingBaseURL indicates a session built without a base URL.
	ErrMissingBaseURL = errors.New("base url is not set")

	// ErrEmptyMessage indicates an ask with a blank message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoConversation indicates an operation that needs an established
	// conversation before any exchange happened.
	ErrNoConversation = errors.New("conversation id is not set")

	// ErrConversationIDChange indicates an attempt to rebind a session to a
	// different conversation. The id is set once and never changes.
	ErrConversationIDChange = errors.New("conversation id cannot change")

	// ErrInvalidTarget indicates navigation to a node that carries no
	// message, such as the tree anchor.
	ErrInvalidTarget = errors.New("target node carries no message")

	// ErrAtRoot indicates a back step from the first answer of the
	// conversation.
	ErrAtRoot = errors.New("already at the conversation root")

	// ErrMalformedTree indicates remote or persisted conversation data whose
	// node relationships cannot be resolved into a tree.
	ErrMalformedTree = errors.New("cannot resolve conversation tree")
)
