package api

import (
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/ragchat/internal/errors"
)

// Payload is the body of an unnamed chat event
type Payload struct {
	// Token is a fragment of the assistant's answer.
	Token string
	// Error is a server-reported failure.
	Error string
}

// ParsePayload decodes an event body. Data that is not valid JSON yields a
// *errors.ParseError. Fields of any type other than string are ignored.
func ParsePayload(data string) (Payload, error) {
	if !gjson.Valid(data) {
		return Payload{}, apierrors.NewParseError("event data is not valid JSON", data)
	}

	result := gjson.Parse(data)
	if !result.IsObject() {
		return Payload{}, nil
	}

	var p Payload
	if tok := result.Get("token"); tok.Type == gjson.String {
		p.Token = tok.String()
	}
	if errField := result.Get("error"); errField.Type == gjson.String {
		p.Error = errField.String()
	}
	return p, nil
}
