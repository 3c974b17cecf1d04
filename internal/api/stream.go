package api

import (
	"context"
	"errors"
	"io"
	"sync"

	apierrors "github.com/diogo/ragchat/internal/errors"
	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/internal/sse"
)

// EventStream is an open chat stream
type EventStream struct {
	decoder *sse.Decoder
	body    io.ReadCloser
	cancel  context.CancelFunc

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func newEventStream(body io.ReadCloser, cancel context.CancelFunc) *EventStream {
	return &EventStream{
		decoder: sse.NewDecoder(body),
		body:    body,
		cancel:  cancel,
	}
}

// Recv blocks until the next event arrives. It returns io.EOF when the server
// closes the stream and ErrStreamClosed after Close.
func (s *EventStream) Recv() (models.StreamEvent, error) {
	ev, err := s.decoder.Decode()
	if err == nil {
		return ev, nil
	}

	if s.isClosed() {
		return models.StreamEvent{}, apierrors.ErrStreamClosed
	}
	if errors.Is(err, io.EOF) {
		return models.StreamEvent{}, io.EOF
	}
	if errors.Is(err, context.Canceled) {
		return models.StreamEvent{}, err
	}
	return models.StreamEvent{}, apierrors.NewNetworkError("read", err)
}

// Close tears the connection down. It is safe to call more than once.
func (s *EventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		err = s.body.Close()
	})
	return err
}

func (s *EventStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
