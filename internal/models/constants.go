// Package models contains data types shared by the chat client, the
// development server and the TUI.
package models

// Chat handler wire constants
const (
	// DefaultHandlerPath is the path of the streaming chat handler.
	DefaultHandlerPath = "/chat/handler/"

	ParamMessage    = "message"
	ParamModel      = "model"
	ParamDisableRAG = "disable_rag"

	// DisableRAGValue is the only value of disable_rag the server honours.
	DisableRAGValue = "1"
)

// SSE event names
const (
	// EventMessage is the type of unnamed events.
	EventMessage = "message"
	// EventEnd marks the end of a chat stream.
	EventEnd = "end"
)

// Retrieval toggle values
const (
	RetrievalOn  = "on"
	RetrievalOff = "off"
)

// SessionCookieName is the cookie carrying the server-side session key.
const SessionCookieName = "sessionid"
