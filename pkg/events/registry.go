package events

import (
	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/go-drift/sprig/pkg/node"
)

// Registry maps (node, event type) pairs to handlers. Keys are the 16
// identity bytes followed by the type byte, so all handlers of one node
// share a prefix and can be dropped together.
//
// Registry is not safe for concurrent use; it lives on the UI goroutine.
type Registry struct {
	tree *iradix.Tree[Handler]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tree: iradix.New[Handler]()}
}

func registryKey(id node.ID, typ Type) []byte {
	k := make([]byte, len(id)+1)
	copy(k, id[:])
	k[len(id)] = byte(typ)
	return k
}

// Set registers h for events of typ on id, replacing any previous handler.
// A nil handler removes the entry.
func (r *Registry) Set(id node.ID, typ Type, h Handler) {
	if h == nil {
		r.Remove(id, typ)
		return
	}
	r.tree, _, _ = r.tree.Insert(registryKey(id, typ), h)
}

// Remove drops the handler for typ on id, if any.
func (r *Registry) Remove(id node.ID, typ Type) {
	r.tree, _, _ = r.tree.Delete(registryKey(id, typ))
}

// RemoveNode drops every handler registered for id.
func (r *Registry) RemoveNode(id node.ID) {
	r.tree, _ = r.tree.DeletePrefix(id[:])
}

// Lookup returns the handler for typ on id.
func (r *Registry) Lookup(id node.ID, typ Type) (Handler, bool) {
	return r.tree.Get(registryKey(id, typ))
}

// Types returns the set of event types id has handlers for.
func (r *Registry) Types(id node.ID) Mask {
	var m Mask
	r.tree.Root().WalkPrefix(id[:], func(k []byte, _ Handler) bool {
		m = m.With(Type(k[len(k)-1]))
		return false
	})
	return m
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return r.tree.Len()
}

// Dispatch delivers ev to the handler registered for its type on id and
// reports whether one was found.
func (r *Registry) Dispatch(id node.ID, ev Event) bool {
	h, ok := r.Lookup(id, ev.Type())
	if !ok {
		return false
	}
	h(ev)
	return true
}
