package models

import "strings"

// ChatRequest is a single question sent to the chat handler
type ChatRequest struct {
	Message string
	// Model is optional; empty means the server default.
	Model string
	// DisableRetrieval asks the server to skip retrieval augmentation.
	DisableRetrieval bool
}

// NewChatRequest builds a request from the raw input and selector values.
// retrieval is the value of the retrieval toggle; only RetrievalOff disables it.
func NewChatRequest(message, model, retrieval string) ChatRequest {
	return ChatRequest{
		Message:          strings.TrimSpace(message),
		Model:            strings.TrimSpace(model),
		DisableRetrieval: retrieval == RetrievalOff,
	}
}

// Empty reports whether the request carries no question
func (r ChatRequest) Empty() bool {
	return strings.TrimSpace(r.Message) == ""
}
