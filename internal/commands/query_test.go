package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diogo/ragchat/internal/chat"
	"github.com/diogo/ragchat/internal/config"
	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/internal/server"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(server.New(server.EchoResponder{}))
	t.Cleanup(ts.Close)
	return ts
}

func configFor(ts *httptest.Server) config.Config {
	cfg := config.DefaultConfig()
	cfg.ServerURL = ts.URL
	return cfg
}

func TestQuery_StreamsAnswer(t *testing.T) {
	env := newTestEnv(t, configFor(echoServer(t)))

	if err := env.run("what is go?"); err != nil {
		t.Fatalf("query failed: %v\nstderr: %s", err, env.stderr.String())
	}

	out := env.stdout.String()
	if !strings.Contains(out, "You asked: what is go?") {
		t.Errorf("expected echoed answer, got %q", out)
	}
	if !strings.Contains(out, "model: default, retrieval: on") {
		t.Errorf("expected default selection, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected output to end with a newline")
	}
}

func TestQuery_FlagsShapeRequest(t *testing.T) {
	env := newTestEnv(t, configFor(echoServer(t)))

	if err := env.run("--raw", "-m", "llama3", "--no-rag", "hello"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "model: llama3, retrieval: off") {
		t.Errorf("unexpected output %q", env.stdout.String())
	}
}

func TestQuery_ServerFlagOverridesConfig(t *testing.T) {
	ts := echoServer(t)
	cfg := config.DefaultConfig()
	cfg.ServerURL = "http://127.0.0.1:1"
	env := newTestEnv(t, cfg)

	if err := env.run("--server", ts.URL, "hi"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "You asked: hi") {
		t.Errorf("unexpected output %q", env.stdout.String())
	}
}

func TestQuery_FromStdin(t *testing.T) {
	env := newTestEnv(t, configFor(echoServer(t)))
	env.deps.Stdin = strings.NewReader("  piped question \n")

	if err := env.run(); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "You asked: piped question") {
		t.Errorf("unexpected output %q", env.stdout.String())
	}
}

func TestQuery_OutputFile(t *testing.T) {
	env := newTestEnv(t, configFor(echoServer(t)))
	out := filepath.Join(t.TempDir(), "answer.md")

	if err := env.run("-o", out, "save me"); err != nil {
		t.Fatalf("query failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "You asked: save me") {
		t.Errorf("unexpected file content %q", data)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("expected nothing on stdout, got %q", env.stdout.String())
	}
	if !strings.Contains(env.stderr.String(), "Answer saved to") {
		t.Errorf("expected confirmation on stderr, got %q", env.stderr.String())
	}
}

func TestQuery_EmptyPrompt(t *testing.T) {
	env := newTestEnv(t, config.DefaultConfig())
	if err := env.run("   "); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestQuery_HTTPErrorBeforeAnyToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"index unavailable"}`))
	}))
	defer ts.Close()

	env := newTestEnv(t, configFor(ts))
	err := env.run("q")
	if err == nil {
		t.Fatal("expected error when the stream fails before any token")
	}

	stderr := env.stderr.String()
	if !strings.Contains(stderr, "HTTP Status: 500") {
		t.Errorf("expected status in stderr, got %q", stderr)
	}
	if !strings.Contains(stderr, "index unavailable") {
		t.Errorf("expected server message in stderr, got %q", stderr)
	}
}

func TestQuery_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	cfg := config.DefaultConfig()
	cfg.ServerURL = url
	env := newTestEnv(t, cfg)

	if err := env.run("q"); err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if !strings.Contains(env.stderr.String(), "ragchat serve") {
		t.Errorf("expected server hint, got %q", env.stderr.String())
	}
}

func TestQuery_RawSuppressesErrorDecoration(t *testing.T) {
	env := newTestEnv(t, config.DefaultConfig())
	env.deps.Streamer = chat.StreamerFunc(func(context.Context, models.ChatRequest) (chat.Stream, error) {
		return nil, errors.New("dial failed")
	})

	if err := env.run("--raw", "q"); err == nil {
		t.Fatal("expected error")
	}
	if env.stderr.Len() != 0 {
		t.Errorf("expected no decoration in raw mode, got %q", env.stderr.String())
	}
}

func TestQuery_ServerErrorPayloadKeepsStreaming(t *testing.T) {
	env := newTestEnv(t, config.DefaultConfig())
	env.deps.Streamer = scripted(
		token("partial"),
		models.StreamEvent{Data: `{"error":"retriever timeout"}`},
		token(" more"),
		endEvent(),
	)

	if err := env.run("q"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	want := "partial\n[error] retriever timeout more\n"
	if env.stdout.String() != want {
		t.Errorf("stdout = %q, want %q", env.stdout.String(), want)
	}
}

func TestQuery_LocalizedErrorLabel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Locale = "fa"
	env := newTestEnv(t, cfg)
	env.deps.Streamer = scripted(models.StreamEvent{Data: `{"error":"x"}`}, endEvent())

	if err := env.run("q"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "[خطا] x") {
		t.Errorf("unexpected output %q", env.stdout.String())
	}
}

func TestQuery_EOFAfterTokensSucceeds(t *testing.T) {
	env := newTestEnv(t, config.DefaultConfig())
	env.deps.Streamer = scripted(token("cut off"))

	if err := env.run("q"); err != nil {
		t.Fatalf("expected partial answer to succeed, got %v", err)
	}
	if !strings.Contains(env.stdout.String(), "cut off") {
		t.Errorf("unexpected output %q", env.stdout.String())
	}
}

func TestQuery_EOFBeforeTokensFails(t *testing.T) {
	env := newTestEnv(t, config.DefaultConfig())
	env.deps.Streamer = scripted()

	err := env.run("q")
	if !errors.Is(err, chat.ErrEndedWithoutEnd) {
		t.Fatalf("expected ErrEndedWithoutEnd, got %v", err)
	}
}

func TestQuery_MalformedPayloadIgnored(t *testing.T) {
	env := newTestEnv(t, config.DefaultConfig())
	env.deps.Streamer = scripted(
		models.StreamEvent{Data: `not json`},
		token("ok"),
		endEvent(),
	)

	if err := env.run("q"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if env.stdout.String() != "ok\n" {
		t.Errorf("stdout = %q", env.stdout.String())
	}
}

func TestQuery_DecoratedOutput(t *testing.T) {
	env := newTestEnv(t, config.DefaultConfig())
	env.deps.IsTTY = func() bool { return true }
	env.deps.Streamer = scripted(token("hi"), endEvent())

	if err := env.run("q"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "✦ Assistant") {
		t.Errorf("expected assistant label, got %q", env.stdout.String())
	}
}

func TestQuery_ContextCancelled(t *testing.T) {
	env := newTestEnv(t, config.DefaultConfig())
	env.deps.Streamer = chat.StreamerFunc(func(ctx context.Context, _ models.ChatRequest) (chat.Stream, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cmd := NewRootCmd(env.deps)
	cmd.SetArgs([]string{"--raw", "q"})
	if err := cmd.ExecuteContext(ctx); err == nil {
		t.Error("expected error after cancellation")
	}
}

func TestSpinnerLifecycle(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&syncWriter{w: &buf}, "Waiting")
	s.start()
	time.Sleep(100 * time.Millisecond)

	s.halt()
	// A second halt must not panic or block
	s.halt()
}

func TestFormatErrorMessage(t *testing.T) {
	if got := formatErrorMessage(nil, "ctx"); got != "" {
		t.Fatalf("expected empty for nil error, got %s", got)
	}

	out := formatErrorMessage(errors.New("plain"), "Failed")
	if !strings.Contains(out, "Failed: plain") {
		t.Errorf("unexpected message %q", out)
	}

	out = formatErrorMessage(chat.ErrEndedWithoutEnd, "Request failed")
	if !strings.Contains(out, "Hint") {
		t.Errorf("expected hint, got %q", out)
	}
}
