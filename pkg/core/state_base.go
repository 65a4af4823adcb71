package core

import (
	"sync"

	"github.com/go-drift/sprig/pkg/node"
)

// State is the persistent per-node object a view's body is rendered
// from. Each hook fires exactly once per event.
type State interface {
	// WillAppear is called after the state is created and before the
	// node's first patch.
	WillAppear()
	// WillUpdate is called before a property change is applied, with the
	// incoming view.
	WillUpdate(next View)
	// WillDisappear is called before the node is removed, including when
	// it is replaced by a view of a different kind.
	WillDisappear()
}

// stateBase is satisfied by any struct that embeds StateBase.
type stateBase interface {
	state() *StateBase
}

func (s *StateBase) state() *StateBase { return s }

// StateBase provides no-op lifecycle hooks, render requests and cleanup
// registration. Embed it in your state to eliminate boilerplate.
//
// Example:
//
//	type counterState struct {
//	    core.StateBase
//	    count int
//	}
//
//	func (s *counterState) increment() {
//	    s.SetState(func() { s.count++ })
//	}
type StateBase struct {
	tree      *Tree
	id        node.ID
	disposers []func()
	disposed  bool
	mu        sync.Mutex
}

// bind attaches the state to its node. Called by the tree.
func (s *StateBase) bind(tree *Tree, id node.ID) {
	s.tree = tree
	s.id = id
}

// NodeID returns the identity of the node that owns this state, or
// node.Nil before the state is attached.
func (s *StateBase) NodeID() node.ID {
	return s.id
}

// Context returns the value the node inherited from the nearest ancestor
// implementing ContextProvider, or the tree's root context. It is nil
// before the state is attached and after the node is gone.
func (s *StateBase) Context() any {
	if s.tree == nil {
		return nil
	}
	if n, ok := s.tree.nodes[s.id]; ok {
		return n.context
	}
	return nil
}

// SetState executes the given function and marks the owning tree as
// needing a render. Safe to call after disappearance (becomes a no-op).
//
// SetState is NOT thread-safe. It must only be called from the UI
// goroutine; other goroutines should go through the host's inbox.
func (s *StateBase) SetState(fn func()) {
	if s.disposed {
		return
	}
	if fn != nil {
		fn()
	}
	if s.tree != nil {
		s.tree.RequestRender()
	}
}

// OnDisappear registers a cleanup function to run when the node
// disappears. Returns an unregister function. Cleanups run once, in
// reverse registration order.
func (s *StateBase) OnDisappear(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		// Already gone, run cleanup immediately
		cleanup()
		return func() {}
	}

	index := len(s.disposers)
	s.disposers = append(s.disposers, cleanup)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if index < len(s.disposers) {
			s.disposers[index] = nil
		}
	}
}

// runDisposers executes all registered cleanups in reverse order. The
// tree calls it right after WillDisappear.
func (s *StateBase) runDisposers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true
	s.tree = nil

	for i := len(s.disposers) - 1; i >= 0; i-- {
		if s.disposers[i] != nil {
			s.disposers[i]()
		}
	}
	s.disposers = nil
}

// WillAppear is a no-op default implementation.
func (s *StateBase) WillAppear() {}

// WillUpdate is a no-op default implementation.
func (s *StateBase) WillUpdate(View) {}

// WillDisappear is a no-op default implementation. Cleanups registered
// with OnDisappear run regardless of overrides.
func (s *StateBase) WillDisappear() {}

// IsDisposed returns true once the owning node has disappeared.
func (s *StateBase) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// noState is shared by every view that does not implement StatefulView.
type noState struct{}

func (noState) WillAppear()     {}
func (noState) WillUpdate(View) {}
func (noState) WillDisappear()  {}

var sharedNoState State = noState{}
