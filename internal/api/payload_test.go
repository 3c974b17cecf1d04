package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "github.com/diogo/ragchat/internal/errors"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		want   Payload
		wantOK bool
	}{
		{"token", `{"token": "Hel"}`, Payload{Token: "Hel"}, true},
		{"error", `{"error": "x"}`, Payload{Error: "x"}, true},
		{"both", `{"token": "a", "error": "b"}`, Payload{Token: "a", Error: "b"}, true},
		{"unicode", `{"token": "سلام"}`, Payload{Token: "سلام"}, true},
		{"empty object", `{}`, Payload{}, true},
		{"non-string token", `{"token": 5}`, Payload{}, true},
		{"json array", `["token"]`, Payload{}, true},
		{"not json", `Hello`, Payload{}, false},
		{"truncated", `{"token": "He`, Payload{}, false},
		{"empty", ``, Payload{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload(tt.data)
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.True(t, apierrors.IsParseError(err))
				assert.ErrorIs(t, err, apierrors.ErrInvalidResponse)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePayload_ErrorKeepsData(t *testing.T) {
	_, err := ParsePayload("Hello")

	var perr *apierrors.ParseError
	if assert.ErrorAs(t, err, &perr) {
		assert.Equal(t, "Hello", perr.Data)
	}
}
