package errors

import (
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError(400, "/chat/handler/", "empty message")

	expected := "API error [400] at /chat/handler/: empty message"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	noStatus := NewAPIError(0, "/chat/handler/", "bad content type")
	if noStatus.Error() != "API error at /chat/handler/: bad content type" {
		t.Errorf("unexpected message: %s", noStatus.Error())
	}
}

func TestAPIError_Helpers(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewAPIError(502, "/x", "bad gateway").WithBody("oops"))

	if got := GetHTTPStatus(err); got != 502 {
		t.Errorf("GetHTTPStatus() = %d, want 502", got)
	}
	if got := GetEndpoint(err); got != "/x" {
		t.Errorf("GetEndpoint() = %q, want /x", got)
	}
	if got := GetResponseBody(err); got != "oops" {
		t.Errorf("GetResponseBody() = %q, want oops", got)
	}
	if !IsAPIError(err) {
		t.Error("IsAPIError() should be true")
	}

	plain := errors.New("plain")
	if GetHTTPStatus(plain) != 0 || GetEndpoint(plain) != "" || GetResponseBody(plain) != "" {
		t.Error("helpers should return zero values for plain errors")
	}
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("connect", cause)

	if err.Error() != "network error during connect: connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("NetworkError should unwrap to its cause")
	}
	if !IsNetworkError(fmt.Errorf("stream: %w", err)) {
		t.Error("IsNetworkError() should see through wrapping")
	}

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: cause}
	if !IsNetworkError(opErr) {
		t.Error("IsNetworkError() should accept *net.OpError")
	}
	if IsNetworkError(nil) {
		t.Error("IsNetworkError(nil) should be false")
	}
	if IsNetworkError(errors.New("other")) {
		t.Error("IsNetworkError() should be false for unrelated errors")
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("invalid json", "{")

	if err.Error() != "parse error: invalid json" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("ParseError should match ErrInvalidResponse")
	}
	if !IsParseError(fmt.Errorf("x: %w", err)) {
		t.Error("IsParseError() should see through wrapping")
	}
	if errors.Is(err, ErrStreamClosed) {
		t.Error("ParseError should not match ErrStreamClosed")
	}
}
