// Package sse implements the text/event-stream wire format used by the chat handler.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/diogo/ragchat/internal/models"
)

// ContentType is the media type of an event stream
const ContentType = "text/event-stream"

// MaxLineSize bounds a single line of the stream
const MaxLineSize = 1 << 20

// Decoder reads events from an event stream
type Decoder struct {
	scanner *bufio.Scanner
	lastID  string
	started bool
}

// NewDecoder returns a decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	sc.Split(scanLines)
	return &Decoder{scanner: sc}
}

// Decode blocks until the next event is dispatched.
//
// Unnamed events are only dispatched when they carry at least one data line.
// Named events are dispatched even without data, so "event: end" followed by
// a blank line terminates a stream. A partial event at EOF is discarded and
// io.EOF is returned. Lines longer than MaxLineSize fail with
// bufio.ErrTooLong. Retry hints are ignored since streams are never
// reconnected.
func (d *Decoder) Decode() (models.StreamEvent, error) {
	var (
		eventType string
		data      strings.Builder
		hasData   bool
	)

	for {
		if !d.scanner.Scan() {
			if err := d.scanner.Err(); err != nil {
				return models.StreamEvent{}, err
			}
			return models.StreamEvent{}, io.EOF
		}
		line := d.scanner.Text()

		if !d.started {
			line = strings.TrimPrefix(line, "\ufeff")
			d.started = true
		}

		if line == "" {
			named := eventType != "" && eventType != models.EventMessage
			if !hasData && !named {
				eventType = ""
				continue
			}
			ev := models.StreamEvent{
				Type: eventType,
				Data: data.String(),
				ID:   d.lastID,
			}
			if ev.Type == "" {
				ev.Type = models.EventMessage
			}
			return ev, nil
		}

		field, value := splitField(line)
		switch field {
		case "":
			// comment
		case "event":
			eventType = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.lastID = value
			}
		}
	}
}

// scanLines splits on CRLF, LF or a lone CR
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			// a LF may follow in the next read
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// splitField splits "field: value" into its parts. Comment lines yield an
// empty field name.
func splitField(line string) (string, string) {
	idx := strings.IndexByte(line, ':')
	switch {
	case idx == 0:
		return "", line[1:]
	case idx < 0:
		return line, ""
	}
	value := line[idx+1:]
	value = strings.TrimPrefix(value, " ")
	return line[:idx], value
}
