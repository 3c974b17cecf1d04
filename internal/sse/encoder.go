package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diogo/ragchat/internal/models"
)

// Encoder writes events to an event stream, flushing after each one
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder returns an encoder writing to w. If w implements http.Flusher
// every event is flushed as soon as it is written.
func NewEncoder(w io.Writer) *Encoder {
	f, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: f}
}

// Encode writes a single event. Multi-line data is split over several data
// lines; an empty payload is still written as one empty data line.
func (e *Encoder) Encode(ev models.StreamEvent) error {
	var sb strings.Builder
	if ev.Type != "" && ev.Type != models.EventMessage {
		fmt.Fprintf(&sb, "event: %s\n", ev.Type)
	}
	if ev.ID != "" {
		fmt.Fprintf(&sb, "id: %s\n", ev.ID)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(&sb, "data: %s\n", line)
	}
	sb.WriteByte('\n')

	if _, err := io.WriteString(e.w, sb.String()); err != nil {
		return err
	}
	e.flush()
	return nil
}

// EncodeJSON marshals v and writes it as the data of an event
func (e *Encoder) EncodeJSON(eventType string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	return e.Encode(models.StreamEvent{Type: eventType, Data: string(payload)})
}

// Comment writes a comment line, typically used as a keep-alive
func (e *Encoder) Comment(text string) error {
	if _, err := fmt.Fprintf(e.w, ": %s\n\n", text); err != nil {
		return err
	}
	e.flush()
	return nil
}

func (e *Encoder) flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}
