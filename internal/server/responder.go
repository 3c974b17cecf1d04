package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diogo/ragchat/internal/models"
)

// Request is a question received by the handler
type Request struct {
	models.ChatRequest
	// SessionID is the per-session memory key.
	SessionID string
}

// Responder produces answer tokens for a request. Each token is passed to
// emit in order; a non-nil error from emit means the client went away.
type Responder interface {
	Respond(ctx context.Context, req Request, emit func(token string) error) error
}

// ResponderFunc adapts a function to the Responder interface
type ResponderFunc func(ctx context.Context, req Request, emit func(token string) error) error

// Respond calls f
func (f ResponderFunc) Respond(ctx context.Context, req Request, emit func(token string) error) error {
	return f(ctx, req, emit)
}

// EchoResponder answers by echoing the question back word by word
type EchoResponder struct {
	// Delay is the pause before each token.
	Delay time.Duration
}

// Respond implements Responder
func (e EchoResponder) Respond(ctx context.Context, req Request, emit func(token string) error) error {
	retrieval := "on"
	if req.DisableRetrieval {
		retrieval = "off"
	}
	model := req.Model
	if model == "" {
		model = "default"
	}

	answer := fmt.Sprintf("You asked: %s\n\n_model: %s, retrieval: %s_", req.Message, model, retrieval)

	for _, tok := range splitTokens(answer) {
		if e.Delay > 0 {
			timer := time.NewTimer(e.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := emit(tok); err != nil {
			return err
		}
	}
	return nil
}

// splitTokens splits s into word tokens that keep their trailing whitespace,
// so concatenating them yields s again
func splitTokens(s string) []string {
	var tokens []string
	var cur strings.Builder
	inSpace := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if !isSpace && inSpace && cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
		inSpace = isSpace
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
