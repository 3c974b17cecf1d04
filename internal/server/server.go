// Package server implements a development chat handler that streams answers
// over Server-Sent Events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/internal/sse"
)

// Server serves the chat handler
type Server struct {
	responder   Responder
	handlerPath string
	logger      zerolog.Logger
	router      *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithHandlerPath overrides the handler path
func WithHandlerPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.handlerPath = path
		}
	}
}

// WithLogger sets the server logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server answering with responder
func New(responder Responder, opts ...Option) *Server {
	s := &Server{
		responder:   responder,
		handlerPath: models.DefaultHandlerPath,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = mux.NewRouter()
	s.router.HandleFunc(s.handlerPath, s.handleChat).Methods(http.MethodGet, http.MethodPost)
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("path", s.handlerPath).Msg("chat handler listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type chatBody struct {
	Message string `json:"message"`
}

// handleChat streams the answer to one question.
// GET reads ?message=..., POST reads {"message": "..."}.
// Tokens are sent as data: {"token": "..."}; a failure as data: {"error": "..."};
// the stream always finishes with an end event.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSession(w, r)

	var question string
	if r.Method == http.MethodPost {
		var body chatBody
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			question = body.Message
		}
	} else {
		question = r.URL.Query().Get(models.ParamMessage)
	}

	if question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty message"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	req := Request{
		ChatRequest: models.ChatRequest{
			Message:          question,
			Model:            r.URL.Query().Get(models.ParamModel),
			DisableRetrieval: r.URL.Query().Get(models.ParamDisableRAG) == models.DisableRAGValue,
		},
		SessionID: sessionID,
	}

	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := sse.NewEncoder(w)
	log := s.logger.With().Str("session", sessionID).Logger()
	log.Debug().Str("model", req.Model).Bool("disable_rag", req.DisableRetrieval).Msg("chat request")

	var tokens int
	err := s.responder.Respond(r.Context(), req, func(token string) error {
		tokens++
		return enc.EncodeJSON("", map[string]string{"token": token})
	})
	if err != nil && r.Context().Err() == nil {
		log.Warn().Err(err).Msg("responder failed")
		_ = enc.EncodeJSON("", map[string]string{"error": err.Error()})
	}

	_ = enc.Encode(models.StreamEvent{Type: models.EventEnd})
	log.Debug().Int("tokens", tokens).Msg("chat stream finished")
}

// ensureSession returns the session id cookie, issuing one if missing
func ensureSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(models.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
