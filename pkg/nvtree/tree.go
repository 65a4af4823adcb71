package nvtree

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/sprig/pkg/errors"
	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/native"
	"github.com/go-drift/sprig/pkg/node"
	"github.com/go-drift/sprig/pkg/patch"
)

// Tree is the native tree applier. It keeps one node per renderable
// identity with the backend handle, the last payload, the parent and the
// ordered child list, and applies patches strictly in order.
//
// A Tree is not safe for concurrent use and must run on the goroutine
// that owns the backend's native views.
type Tree[H any] struct {
	backend Backend[H]
	nodes   map[node.ID]*nativeNode[H]
	root    node.ID
	log     *logrus.Entry
}

type nativeNode[H any] struct {
	handle   H
	payload  native.Payload
	parent   node.ID
	children []node.ID
}

// Option configures a Tree.
type Option func(*options)

type options struct {
	log *logrus.Entry
}

// WithLogger sets the entry the applier logs through.
func WithLogger(entry *logrus.Entry) Option {
	return func(o *options) {
		o.log = entry
	}
}

// New returns an empty applier driving backend.
func New[H any](backend Backend[H], opts ...Option) *Tree[H] {
	o := options{log: logrus.NewEntry(logrus.StandardLogger())}
	for _, opt := range opts {
		opt(&o)
	}
	return &Tree[H]{
		backend: backend,
		nodes:   make(map[node.ID]*nativeNode[H]),
		log:     o.log.WithField("component", "nvtree"),
	}
}

// Node is a read-only snapshot of one applied node.
type Node[H any] struct {
	ID       node.ID
	Handle   H
	Payload  native.Payload
	Parent   node.ID
	Children []node.ID
}

// Lookup returns a snapshot of the node with the given identity.
func (t *Tree[H]) Lookup(id node.ID) (Node[H], bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node[H]{}, false
	}
	return Node[H]{
		ID:       id,
		Handle:   n.handle,
		Payload:  n.payload,
		Parent:   n.parent,
		Children: slices.Clone(n.children),
	}, true
}

// Root returns the identity last designated as the visible root.
func (t *Tree[H]) Root() (node.ID, bool) {
	return t.root, !t.root.IsNil()
}

// Len returns the number of live native nodes.
func (t *Tree[H]) Len() int {
	return len(t.nodes)
}

// Poll returns the backend's next pending raw event, or nil.
func (t *Tree[H]) Poll() (*events.Raw, error) {
	raw, err := t.backend.Poll()
	if err != nil {
		return nil, errors.Backend("nvtree.Tree.Poll", node.Nil, err)
	}
	return raw, nil
}

// ApplyAll pops and applies patches from q until it is empty or a patch
// fails. It returns the number of patches applied successfully. The
// failing patch is consumed.
func (t *Tree[H]) ApplyAll(q *patch.Queue) (int, error) {
	applied := 0
	for {
		p, ok := q.Pop()
		if !ok {
			return applied, nil
		}
		if err := t.Apply(p); err != nil {
			return applied, err
		}
		applied++
	}
}

// Apply applies one patch. Patches addressing unknown identities, and
// region patches that would create a cycle or do not fit the stored
// child list, fail before anything is changed. Backend errors are
// wrapped and returned unchanged underneath.
func (t *Tree[H]) Apply(p patch.Patch) error {
	if t.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		t.log.WithField("patch", p.String()).Debug("apply")
	}
	switch p.Op {
	case patch.OpUpdate:
		return t.update(p.ID, p.Payload)
	case patch.OpReplace:
		return t.replace(p.ID, p.Payload)
	case patch.OpRegion:
		return t.setRegion(p.ID, p.Offset, p.Length, p.Children)
	case patch.OpRemove:
		return t.remove(p.ID)
	case patch.OpSetRoot:
		return t.setRoot(p.ID)
	default:
		return errors.Backend("nvtree.Tree.Apply", p.ID, fmt.Errorf("unknown patch op %v", p.Op))
	}
}

func (t *Tree[H]) update(id node.ID, payload native.Payload) error {
	const op = "nvtree.Tree.Update"
	if n, ok := t.nodes[id]; ok {
		if err := t.backend.Update(n.handle, payload); err != nil {
			return errors.Backend(op, id, err)
		}
		n.payload = payload
		return nil
	}
	h, err := t.backend.Create(payload)
	if err != nil {
		return errors.Backend(op, id, err)
	}
	t.nodes[id] = &nativeNode[H]{handle: h, payload: payload}
	return nil
}

func (t *Tree[H]) replace(id node.ID, payload native.Payload) error {
	const op = "nvtree.Tree.Replace"
	n, ok := t.nodes[id]
	if !ok {
		return errors.NotFound(op, id)
	}
	for _, child := range n.children {
		if err := t.removeSubtree(op, id, child); err != nil {
			return err
		}
	}
	n.children = nil

	if r, ok := t.backend.(Replacer[H]); ok {
		if err := r.Replace(n.handle, payload); err != nil {
			return errors.Backend(op, id, err)
		}
		n.payload = payload
		return nil
	}

	if err := t.backend.Remove(n.handle); err != nil {
		return errors.Backend(op, id, err)
	}
	h, err := t.backend.Create(payload)
	if err != nil {
		// The old handle is gone, so the node is gone too.
		t.forget(id, n)
		return errors.Backend(op, id, err)
	}
	n.handle = h
	n.payload = payload
	return t.reattach(op, id, n)
}

// forget drops a node whose native view no longer exists from the mirror
// and from its parent's child list.
func (t *Tree[H]) forget(id node.ID, n *nativeNode[H]) {
	delete(t.nodes, id)
	if t.root == id {
		t.root = node.Nil
	}
	if parent, ok := t.nodes[n.parent]; ok {
		parent.children = slices.DeleteFunc(parent.children, func(c node.ID) bool { return c == id })
	}
}

// reattach points the root, or the parent's child list, at a node whose
// handle changed. The backend detached the old handle when it was
// removed, so the new one is inserted at the same index.
func (t *Tree[H]) reattach(op string, id node.ID, n *nativeNode[H]) error {
	if t.root == id {
		if err := t.backend.SetRoot(n.handle); err != nil {
			return errors.Backend(op, id, err)
		}
	}
	parent, ok := t.nodes[n.parent]
	if !ok {
		return nil
	}
	i := slices.Index(parent.children, id)
	if i < 0 {
		return nil
	}
	if err := t.backend.SetChildren(parent.handle, i, 0, []H{n.handle}); err != nil {
		return errors.Backend(op, id, err)
	}
	return nil
}

func (t *Tree[H]) setRegion(id node.ID, offset, length int, children []node.ID) error {
	const op = "nvtree.Tree.SetRegion"
	n, ok := t.nodes[id]
	if !ok {
		return errors.NotFound(op, id)
	}
	if offset < 0 || length < 0 || offset+length > len(n.children) {
		return errors.Region(op, id, offset, length, len(n.children))
	}
	handles := make([]H, len(children))
	for i, child := range children {
		if child == id || t.isAncestor(child, id) {
			return errors.Cycle(op, child)
		}
		c, ok := t.nodes[child]
		if !ok {
			return errors.NotFound(op, child)
		}
		handles[i] = c.handle
	}

	if err := t.backend.SetChildren(n.handle, offset, length, handles); err != nil {
		return errors.Backend(op, id, err)
	}

	dropped := slices.Clone(n.children[offset : offset+length])
	n.children = splice(n.children, offset, length, children)
	for _, child := range children {
		t.nodes[child].parent = id
	}
	for _, old := range dropped {
		if c, ok := t.nodes[old]; ok && c.parent == id && !slices.Contains(n.children, old) {
			c.parent = node.Nil
		}
	}
	return nil
}

// isAncestor reports whether candidate is a proper ancestor of id.
func (t *Tree[H]) isAncestor(candidate, id node.ID) bool {
	seen := 0
	for cur := t.nodes[id]; cur != nil && !cur.parent.IsNil(); cur = t.nodes[cur.parent] {
		if cur.parent == candidate {
			return true
		}
		if seen++; seen > len(t.nodes) {
			return true
		}
	}
	return false
}

// splice replaces list[offset:offset+length] with children: the overlap
// is overwritten in place, surplus old slots are deleted, and extra new
// entries are inserted right after the overlap.
func splice(list []node.ID, offset, length int, children []node.ID) []node.ID {
	overlap := min(length, len(children))
	copy(list[offset:offset+overlap], children[:overlap])
	end := offset + overlap
	switch {
	case len(children) < length:
		return slices.Delete(list, end, offset+length)
	case len(children) > length:
		return slices.Insert(list, end, children[overlap:]...)
	default:
		return list
	}
}

// remove tears down id's subtree and detaches id from its parent's child
// list, matching the backend, which detaches a view when it is removed.
func (t *Tree[H]) remove(id node.ID) error {
	const op = "nvtree.Tree.Remove"
	n, ok := t.nodes[id]
	if !ok {
		return errors.NotFound(op, id)
	}
	parentID := n.parent
	if err := t.removeSubtree(op, node.Nil, id); err != nil {
		return err
	}
	if parent, ok := t.nodes[parentID]; ok {
		parent.children = slices.DeleteFunc(parent.children, func(c node.ID) bool { return c == id })
	}
	return nil
}

// removeSubtree tears down id and its descendants leaf to root. Children
// already removed or since moved to another parent are skipped.
func (t *Tree[H]) removeSubtree(op string, parent, id node.ID) error {
	n, ok := t.nodes[id]
	if !ok || (!parent.IsNil() && n.parent != parent) {
		return nil
	}
	for _, child := range n.children {
		if err := t.removeSubtree(op, id, child); err != nil {
			return err
		}
	}
	if err := t.backend.Remove(n.handle); err != nil {
		return errors.Backend(op, id, err)
	}
	delete(t.nodes, id)
	if t.root == id {
		t.root = node.Nil
	}
	return nil
}

func (t *Tree[H]) setRoot(id node.ID) error {
	const op = "nvtree.Tree.SetRoot"
	n, ok := t.nodes[id]
	if !ok {
		return errors.NotFound(op, id)
	}
	if err := t.backend.SetRoot(n.handle); err != nil {
		return errors.Backend(op, id, err)
	}
	t.root = id
	return nil
}
