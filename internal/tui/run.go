package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/diogo/ragchat/internal/chat"
)

// forwarder relays controller changes into a running program. Observers
// fire on the program's own goroutine when Update submits or stops, and
// tea.Program.Send blocks until the loop reads, so changes are queued and
// delivered in order by a separate goroutine.
type forwarder struct {
	mu      sync.Mutex
	program *tea.Program
	queue   []chat.Change

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newForwarder() *forwarder {
	return &forwarder{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (f *forwarder) set(p *tea.Program) {
	f.mu.Lock()
	f.program = p
	f.mu.Unlock()
	f.signal()
}

// send queues a change and never blocks
func (f *forwarder) send(ch chat.Change) {
	f.mu.Lock()
	f.queue = append(f.queue, ch)
	f.mu.Unlock()
	f.signal()
}

func (f *forwarder) signal() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// run delivers queued changes until stop is called
func (f *forwarder) run() {
	for {
		select {
		case <-f.done:
			return
		case <-f.wake:
		}

		for {
			f.mu.Lock()
			p, batch := f.program, f.queue
			if p == nil || len(batch) == 0 {
				f.mu.Unlock()
				break
			}
			f.queue = nil
			f.mu.Unlock()

			for _, ch := range batch {
				p.Send(controllerChangeMsg{change: ch})
			}
		}
	}
}

func (f *forwarder) stop() {
	f.stopOnce.Do(func() { close(f.done) })
}

// newProgram wires a controller over streamer to a chat program. The
// returned stop func must be called once the program has exited.
func newProgram(streamer chat.Streamer, labels chat.Labels, logger zerolog.Logger, opts Options, popts ...tea.ProgramOption) (*tea.Program, *chat.Controller, func()) {
	fwd := newForwarder()
	ctrl := chat.NewController(streamer,
		chat.WithLabels(labels),
		chat.WithLogger(logger),
		chat.WithObserver(fwd.send),
	)

	p := tea.NewProgram(NewModel(ctrl, opts), popts...)
	fwd.set(p)
	go fwd.run()

	return p, ctrl, func() {
		ctrl.StopStream()
		fwd.stop()
	}
}

// RunChat starts the chat TUI. Any open stream is stopped on exit.
func RunChat(streamer chat.Streamer, labels chat.Labels, logger zerolog.Logger, opts Options) error {
	p, _, stop := newProgram(streamer, labels, logger, opts,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	defer stop()

	_, err := p.Run()
	return err
}
