package models

// StreamEvent is one dispatched server-sent event
type StreamEvent struct {
	// Type is the event name; EventMessage for unnamed events.
	Type string
	Data string
	ID   string
}

// IsEnd reports whether the event terminates the stream
func (e StreamEvent) IsEnd() bool {
	return e.Type == EventEnd
}

// IsMessage reports whether the event is an unnamed data event
func (e StreamEvent) IsMessage() bool {
	return e.Type == "" || e.Type == EventMessage
}
