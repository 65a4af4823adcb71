// Package nvtree mirrors the renderable part of the view tree on the
// native side. It applies patches in order and drives a Backend that
// owns the actual platform views.
package nvtree

import (
	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/native"
)

// Backend creates and arranges native views. H is the backend's handle
// type. Every method is called on the goroutine that owns the native
// views.
type Backend[H any] interface {
	// Create makes a native view for p and returns its handle.
	Create(p native.Payload) (H, error)
	// Update changes the content of an existing view.
	Update(h H, p native.Payload) error
	// SetChildren replaces children [offset, offset+length) of h with
	// children, in order.
	SetChildren(h H, offset, length int, children []H) error
	// SetRoot makes h the visible root.
	SetRoot(h H) error
	// Remove releases h and detaches it from its parent's children. Its
	// own children have already been removed.
	Remove(h H) error
	// Poll returns the next pending raw event without blocking, or nil
	// when none is pending.
	Poll() (*events.Raw, error)
}

// Replacer is implemented by backends that can change a view's kind in
// place. Without it, a replace patch removes the old view and creates a
// new one.
type Replacer[H any] interface {
	Replace(h H, p native.Payload) error
}
