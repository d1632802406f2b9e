// Package webchat drives conversations against the web backend of a
// conversational AI service, speaking the same REST API the official web
// client speaks.
//
// The package keeps a local mirror of the remote conversation as a tree of
// nodes. Every exchange appends a question node and an answer node, branches
// created by regeneration or by asking from an earlier point stay addressable,
// and a pointer pair (current question, current answer) marks the active
// thread. Sessions can be navigated (Goto, GoBack), resynchronized from the
// server (LoadConversation), persisted to disk (Save, Load) and resumed.
//
// A WebChat is safe for concurrent use; every operation that touches session
// state holds the session lock for its full duration.
package webchat
