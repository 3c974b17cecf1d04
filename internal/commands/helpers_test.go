package commands

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/diogo/ragchat/internal/chat"
	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/models"
)

// scriptedStream replays events and then reports EOF
type scriptedStream struct {
	events []models.StreamEvent
}

func (s *scriptedStream) Recv() (models.StreamEvent, error) {
	if len(s.events) == 0 {
		return models.StreamEvent{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *scriptedStream) Close() error { return nil }

func scripted(events ...models.StreamEvent) chat.Streamer {
	return chat.StreamerFunc(func(_ context.Context, _ models.ChatRequest) (chat.Stream, error) {
		return &scriptedStream{events: append([]models.StreamEvent(nil), events...)}, nil
	})
}

func token(s string) models.StreamEvent {
	return models.StreamEvent{Data: `{"token":"` + s + `"}`}
}

func endEvent() models.StreamEvent {
	return models.StreamEvent{Type: models.EventEnd}
}

type testEnv struct {
	deps   *Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &testEnv{
		deps: &Dependencies{
			LoadConfig: func() (config.Config, error) { return cfg, nil },
			Stdout:     stdout,
			Stderr:     stderr,
			IsTTY:      func() bool { return false },
		},
		stdout: stdout,
		stderr: stderr,
	}
}

func (e *testEnv) run(args ...string) error {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// syncWriter serializes writes from the spinner goroutine
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
