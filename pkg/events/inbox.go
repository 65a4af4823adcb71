package events

import (
	"sync"

	"github.com/go-drift/sprig/pkg/errors"
)

// Inbox is a many-producer, single-consumer queue of raw events. Producers
// hold a Sender and never block. The consumer drains once per frame on the
// UI goroutine. Events from one sender arrive in send order.
type Inbox struct {
	mu      sync.Mutex
	queue   []Raw
	senders int
	opened  bool
}

// NewInbox returns an empty inbox with no senders.
func NewInbox() *Inbox {
	return &Inbox{}
}

// NewSender returns a producer handle. The inbox counts as disconnected
// once every sender it ever handed out has been closed and its queue is
// empty.
func (in *Inbox) NewSender() *Sender {
	in.mu.Lock()
	in.senders++
	in.opened = true
	in.mu.Unlock()
	return &Sender{inbox: in}
}

// Len returns the number of queued events.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}

// Disconnected reports whether all senders are closed and nothing is left
// to drain.
func (in *Inbox) Disconnected() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.disconnectedLocked()
}

func (in *Inbox) disconnectedLocked() bool {
	return in.opened && in.senders == 0 && len(in.queue) == 0
}

// Drain delivers queued events to fn in arrival order and returns how
// many were delivered. Events sent while draining wait for the next call.
// If fn fails, the undelivered remainder goes back to the front of the
// queue and the error is returned. Draining a disconnected inbox fails
// with a KindDisconnected error.
func (in *Inbox) Drain(fn func(Raw) error) (int, error) {
	in.mu.Lock()
	if in.disconnectedLocked() {
		in.mu.Unlock()
		return 0, errors.Disconnected("events.Inbox.Drain")
	}
	pending := in.queue
	in.queue = nil
	in.mu.Unlock()

	for i, raw := range pending {
		if err := fn(raw); err != nil {
			in.requeue(pending[i+1:])
			return i, err
		}
	}
	return len(pending), nil
}

func (in *Inbox) requeue(rest []Raw) {
	if len(rest) == 0 {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	queue := make([]Raw, 0, len(rest)+len(in.queue))
	queue = append(queue, rest...)
	in.queue = append(queue, in.queue...)
}

// Sender is a producer handle for an Inbox. It is safe for concurrent use.
type Sender struct {
	inbox  *Inbox
	mu     sync.Mutex
	closed bool
}

// Send enqueues raw. It never blocks and returns false if the sender has
// been closed.
func (s *Sender) Send(raw Raw) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	in := s.inbox
	in.mu.Lock()
	in.queue = append(in.queue, raw)
	in.mu.Unlock()
	return true
}

// Close releases the sender. Closing twice is a no-op.
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	in := s.inbox
	in.mu.Lock()
	in.senders--
	in.mu.Unlock()
}
