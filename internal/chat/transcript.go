// Package chat implements the chat stream controller: an append-only
// transcript plus the lifecycle of the single active answer stream.
package chat

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/diogo/ragchat/internal/models"
)

// Message is one transcript entry. A *Message is the handle returned by
// Append; assistant messages grow in place while their stream is open.
type Message struct {
	ID   string
	Role models.Role

	mu   sync.RWMutex
	text strings.Builder
}

func newMessage(role models.Role, text string) *Message {
	m := &Message{
		ID:   uuid.NewString(),
		Role: role,
	}
	m.text.WriteString(text)
	return m
}

// Text returns the current message text
func (m *Message) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text.String()
}

func (m *Message) appendText(s string) {
	m.mu.Lock()
	m.text.WriteString(s)
	m.mu.Unlock()
}

// Transcript is an ordered, append-only list of messages
type Transcript struct {
	mu       sync.RWMutex
	messages []*Message
}

// NewTranscript returns an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) add(m *Message) {
	t.mu.Lock()
	t.messages = append(t.messages, m)
	t.mu.Unlock()
}

// Messages returns a snapshot of the transcript in order
func (t *Transcript) Messages() []*Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the newest message, or nil
func (t *Transcript) Last() *Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return nil
	}
	return t.messages[len(t.messages)-1]
}
