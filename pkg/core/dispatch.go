package core

import (
	"github.com/go-drift/sprig/pkg/errors"
	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/node"
)

type pendingEvent struct {
	target node.ID
	event  events.Event
}

// EnqueueEvent queues ev for delivery to target on the next
// DispatchEvents. Targets must be live nodes.
func (t *Tree) EnqueueEvent(target node.ID, ev events.Event) error {
	if _, ok := t.nodes[target]; !ok {
		return errors.NotFound("core.Tree.EnqueueEvent", target)
	}
	t.pending = append(t.pending, pendingEvent{target: target, event: ev})
	return nil
}

// PendingEvents returns the number of queued events.
func (t *Tree) PendingEvents() int {
	return len(t.pending)
}

// DispatchEvents delivers queued events in order to the handler the
// target registered for the event's type and returns how many reached a
// handler. Events whose target has since disappeared, or has no handler
// for the type, are dropped.
//
// A panicking handler stops delivery; it is reported and returned as an
// error, and the events after it stay queued.
func (t *Tree) DispatchEvents() (int, error) {
	pending := t.pending
	t.pending = nil

	delivered := 0
	for i, p := range pending {
		if _, ok := t.nodes[p.target]; !ok {
			t.log.WithField("node", p.target.Short()).Debug("dropping event for removed node")
			continue
		}
		ok, err := t.deliver(p)
		if err != nil {
			t.pending = append(pending[i+1:len(pending):len(pending)], t.pending...)
			return delivered, err
		}
		if ok {
			delivered++
		}
	}
	return delivered, nil
}

func (t *Tree) deliver(p pendingEvent) (delivered bool, err error) {
	defer errors.RecoverWithCallback("core.Tree.DispatchEvents", func(perr *errors.PanicError) {
		delivered, err = false, errors.Panicked("core.Tree.DispatchEvents", p.target, perr)
	})
	return t.handlers.Dispatch(p.target, p.event), nil
}
