package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer

	quiet := New(&buf, false)
	quiet.Debug().Msg("hidden")
	quiet.Warn().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written by non-verbose logger: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warning missing from output: %q", out)
	}

	buf.Reset()
	verbose := New(&buf, true)
	verbose.Debug().Str("stream", "1").Msg("opened")
	if !strings.Contains(buf.String(), "opened") {
		t.Errorf("debug message missing from verbose output: %q", buf.String())
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ragchat.log")

	logger, closer, err := NewFile(path, true)
	if err != nil {
		t.Fatalf("NewFile() error: %v", err)
	}
	logger.Info().Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"hello"`) {
		t.Errorf("log file content = %q", string(data))
	}
}
