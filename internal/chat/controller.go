package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/diogo/ragchat/internal/api"
	"github.com/diogo/ragchat/internal/models"
)

// Stream is an open answer stream
type Stream interface {
	Recv() (models.StreamEvent, error)
	Close() error
}

// Streamer opens answer streams
type Streamer interface {
	Open(ctx context.Context, req models.ChatRequest) (Stream, error)
}

// StreamerFunc adapts a function to the Streamer interface
type StreamerFunc func(ctx context.Context, req models.ChatRequest) (Stream, error)

// Open calls f
func (f StreamerFunc) Open(ctx context.Context, req models.ChatRequest) (Stream, error) {
	return f(ctx, req)
}

// FromClient returns a Streamer backed by an API client
func FromClient(c *api.Client) Streamer {
	return StreamerFunc(func(ctx context.Context, req models.ChatRequest) (Stream, error) {
		s, err := c.Stream(ctx, req)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// ErrEndedWithoutEnd is recorded when the server closes the connection
// without sending an end event
var ErrEndedWithoutEnd = errors.New("stream closed before end event")

// State is the controller state
type State int

const (
	// StateIdle means no stream is open and sending is enabled.
	StateIdle State = iota
	// StateStreaming means one stream is open and sending is disabled.
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ChangeKind identifies what a Change reports
type ChangeKind int

const (
	// ChangeAppend reports a new transcript message.
	ChangeAppend ChangeKind = iota
	// ChangeToken reports a token appended to the answer.
	ChangeToken
	// ChangeError reports a server error appended to the answer.
	ChangeError
	// ChangeState reports a state transition.
	ChangeState
)

// Change is delivered to observers after every visible mutation
type Change struct {
	Kind    ChangeKind
	Message *Message
	// Delta is the text appended to Message for token and error changes.
	Delta string
	State State
	// Err is the cause of a transition to idle, if any.
	Err error
}

// Selection holds the optional model and retrieval toggle values
type Selection struct {
	Model string
	// Retrieval is the toggle value; models.RetrievalOff disables retrieval.
	Retrieval string
}

// Request builds the chat request for query
func (s Selection) Request(query string) models.ChatRequest {
	return models.NewChatRequest(query, s.Model, s.Retrieval)
}

type activeStream struct {
	id     uint64
	cancel context.CancelFunc
	answer *Message
	stream Stream
}

// Controller owns the transcript and at most one open answer stream
type Controller struct {
	streamer   Streamer
	transcript *Transcript
	labels     Labels
	logger     zerolog.Logger
	observers  []func(Change)
	baseCtx    context.Context

	mu      sync.Mutex
	active  *activeStream
	nextID  uint64
	lastErr error
}

// Option configures a Controller
type Option func(*Controller)

// WithObserver registers a callback invoked after every change. Observers
// are called outside the controller lock, possibly from a stream goroutine.
func WithObserver(fn func(Change)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithLabels sets the localized labels
func WithLabels(l Labels) Option {
	return func(c *Controller) {
		c.labels = l
	}
}

// WithLogger sets the controller logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithContext sets the parent context of every stream
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		c.baseCtx = ctx
	}
}

// NewController creates an idle controller
func NewController(streamer Streamer, opts ...Option) *Controller {
	c := &Controller{
		streamer:   streamer,
		transcript: NewTranscript(),
		labels:     LabelsFor(DefaultLocale),
		logger:     zerolog.Nop(),
		baseCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcript returns the controller's transcript
func (c *Controller) Transcript() *Transcript {
	return c.transcript
}

// Labels returns the localized labels
func (c *Controller) Labels() Labels {
	return c.labels
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return StateStreaming
	}
	return StateIdle
}

// Streaming reports whether a stream is open
func (c *Controller) Streaming() bool {
	return c.State() == StateStreaming
}

// SendEnabled reports whether a new question may be sent
func (c *Controller) SendEnabled() bool {
	return !c.Streaming()
}

// LastError returns why the most recent stream ended, or nil when it ended
// with an end event or was stopped
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Append adds a message to the transcript and returns its handle
func (c *Controller) Append(role models.Role, text string) *Message {
	m := newMessage(role, text)
	c.transcript.add(m)
	c.notify(Change{Kind: ChangeAppend, Message: m})
	return m
}

// Submit starts a stream for the trimmed input. It reports whether a stream
// was started.
func (c *Controller) Submit(input string, sel Selection) bool {
	return c.StartStream(strings.TrimSpace(input), sel)
}

// StartStream appends the question and an empty answer and opens a stream
// for it. An empty query is a no-op. Any stream that is still open is
// closed first.
func (c *Controller) StartStream(query string, sel Selection) bool {
	req := sel.Request(query)
	if req.Empty() {
		return false
	}

	c.mu.Lock()
	c.closeLocked()
	c.nextID++
	ctx, cancel := context.WithCancel(c.baseCtx)

	user := newMessage(models.RoleUser, req.Message)
	c.transcript.add(user)
	answer := newMessage(models.RoleAssistant, "")
	c.transcript.add(answer)

	as := &activeStream{id: c.nextID, cancel: cancel, answer: answer}
	c.active = as
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Debug().
		Uint64("stream", as.id).
		Str("model", req.Model).
		Bool("disable_rag", req.DisableRetrieval).
		Msg("stream started")

	c.notify(
		Change{Kind: ChangeState, State: StateStreaming},
		Change{Kind: ChangeAppend, Message: user},
		Change{Kind: ChangeAppend, Message: answer},
	)

	go c.run(ctx, as, req)
	return true
}

// StopStream closes the open stream, if any, and re-enables sending. It is
// safe to call at any time.
func (c *Controller) StopStream() {
	c.mu.Lock()
	had := c.active != nil
	if had {
		c.logger.Debug().Uint64("stream", c.active.id).Msg("stream stopped")
	}
	c.closeLocked()
	c.mu.Unlock()

	if had {
		c.notify(Change{Kind: ChangeState, State: StateIdle})
	}
}

// run pumps one stream until it ends or is abandoned
func (c *Controller) run(ctx context.Context, as *activeStream, req models.ChatRequest) {
	stream, err := c.streamer.Open(ctx, req)
	if err != nil {
		c.finish(as.id, err)
		return
	}
	if !c.attach(as, stream) {
		stream.Close()
		return
	}

	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrEndedWithoutEnd
			}
			c.finish(as.id, err)
			return
		}

		switch {
		case ev.IsEnd():
			c.finish(as.id, nil)
			return
		case ev.IsMessage():
			c.apply(as.id, ev)
		}
	}
}

// attach records the opened stream unless as was abandoned meanwhile
func (c *Controller) attach(as *activeStream, stream Stream) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != as {
		return false
	}
	as.stream = stream
	return true
}

// apply folds one event payload into the answer of stream id
func (c *Controller) apply(id uint64, ev models.StreamEvent) {
	p, err := api.ParsePayload(ev.Data)
	if err != nil {
		c.logger.Debug().Err(err).Uint64("stream", id).Str("data", ev.Data).Msg("discarding malformed payload")
		return
	}

	c.mu.Lock()
	if c.active == nil || c.active.id != id {
		c.mu.Unlock()
		return
	}
	answer := c.active.answer

	var changes []Change
	if p.Token != "" {
		answer.appendText(p.Token)
		changes = append(changes, Change{Kind: ChangeToken, Message: answer, Delta: p.Token})
	}
	if p.Error != "" {
		text := c.labels.ErrorText(p.Error)
		answer.appendText(text)
		changes = append(changes, Change{Kind: ChangeError, Message: answer, Delta: text})
	}
	c.mu.Unlock()

	c.notify(changes...)
}

// finish ends stream id after an end event or a transport failure
func (c *Controller) finish(id uint64, cause error) {
	c.mu.Lock()
	if c.active == nil || c.active.id != id {
		c.mu.Unlock()
		return
	}
	c.lastErr = cause
	c.closeLocked()
	c.mu.Unlock()

	if cause != nil {
		c.logger.Debug().Err(cause).Uint64("stream", id).Msg("stream ended")
	} else {
		c.logger.Debug().Uint64("stream", id).Msg("stream completed")
	}

	c.notify(Change{Kind: ChangeState, State: StateIdle, Err: cause})
}

func (c *Controller) closeLocked() {
	if c.active == nil {
		return
	}
	c.active.cancel()
	if c.active.stream != nil {
		c.active.stream.Close()
	}
	c.active = nil
}

func (c *Controller) notify(changes ...Change) {
	for _, ch := range changes {
		for _, fn := range c.observers {
			fn(ch)
		}
	}
}
