package core

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/sprig/pkg/errors"
	"github.com/go-drift/sprig/pkg/native"
	"github.com/go-drift/sprig/pkg/node"
	"github.com/go-drift/sprig/pkg/patch"
)

// position is where a node sits: its parent, its nearest renderable
// ancestor, the first index it claims in that ancestor's child list, the
// key it was matched by and the context it inherits.
type position struct {
	parent   node.ID
	ancestor node.ID
	start    int
	key      childKey
	context  any
}

// childKey is the key siblings are matched by. Explicit keys and
// auto-keys live in separate spaces.
type childKey struct {
	value    uint64
	explicit bool
}

// assignKeys returns the match key of each view. Views without an
// explicit key are numbered in order, skipping keyed siblings, so
// [A, B, C(1), D(2), E] yields auto-keys 0, 1, 2 for A, B and E.
func assignKeys(views []View) []childKey {
	keys := make([]childKey, len(views))
	var auto uint64
	for i, v := range views {
		if k, ok := v.Key().Value(); ok {
			keys[i] = childKey{value: k, explicit: true}
			continue
		}
		keys[i] = childKey{value: auto}
		auto++
	}
	return keys
}

// diff reconciles the node id against view and returns the renderable
// identities the node contributes to its nearest renderable ancestor, in
// order.
func (t *Tree) diff(id node.ID, view View, pos position, depth int) ([]node.ID, error) {
	if depth > t.maxDepth {
		return nil, errors.RenderCycle("core.Tree.diff", id, t.maxDepth)
	}

	n, exists := t.nodes[id]
	switch {
	case !exists:
		n = t.add(id, view, pos)
	case !SameKind(n.view, view):
		t.place(n, pos)
		t.replace(n, view)
	default:
		t.place(n, pos)
		t.update(n, view)
	}

	body, err := t.body(n)
	if err != nil {
		return nil, err
	}
	inherited, err := t.subviewContext(n)
	if err != nil {
		return nil, err
	}

	childPos := position{parent: n.id, ancestor: pos.ancestor, start: pos.start, context: inherited}
	if n.renderable {
		childPos.ancestor = n.id
		childPos.start = 0
	}
	contribution, err := t.diffChildren(n, children(body), childPos, depth)
	if err != nil {
		return nil, err
	}

	if n.renderable {
		t.spliceRegion(n, contribution)
		n.length = 1
		return []node.ID{n.id}, nil
	}
	n.length = len(contribution)
	return contribution, nil
}

func (t *Tree) place(n *treeNode, pos position) {
	n.parent = pos.parent
	n.ancestor = pos.ancestor
	n.start = pos.start
	n.key = pos.key
	n.context = pos.context
}

// add creates the node for a new identity.
func (t *Tree) add(id node.ID, view View, pos position) *treeNode {
	n := &treeNode{
		id:         id,
		view:       view,
		renderable: isRenderable(view),
	}
	t.place(n, pos)
	t.nodes[id] = n
	n.state = t.createState(id, view)
	n.state.WillAppear()
	if n.renderable {
		t.emit(patch.Update(id, t.payload(n)))
	}
	return n
}

// update handles a new view of the same kind at an existing identity.
func (t *Tree) update(n *treeNode, view View) {
	if n.view.Equal(view) {
		n.view = view
		if n.renderable {
			// Handlers are closures and never compare equal; refresh them.
			t.payload(n)
		}
		return
	}
	n.state.WillUpdate(view)
	n.view = view
	if n.renderable {
		t.emit(patch.Update(n.id, t.payload(n)))
	}
}

// replace tears down n's subtree and state and rebuilds n at the same
// identity from a view of a different kind.
func (t *Tree) replace(n *treeNode, view View) {
	for _, child := range n.children {
		t.remove(child)
	}
	n.children = nil
	n.rendered = nil
	t.disappear(n)

	wasRenderable := n.renderable
	n.view = view
	n.renderable = isRenderable(view)
	n.state = t.createState(n.id, view)
	n.state.WillAppear()

	switch {
	case wasRenderable && n.renderable:
		t.emit(patch.Replace(n.id, t.payload(n)))
	case wasRenderable:
		t.emitRemove(n)
	case n.renderable:
		t.emit(patch.Update(n.id, t.payload(n)))
	}
}

// remove tears down the subtree rooted at id in post-order.
func (t *Tree) remove(id node.ID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, child := range n.children {
		t.remove(child)
	}
	t.disappear(n)
	if n.renderable {
		t.emitRemove(n)
	}
	delete(t.nodes, id)
}

// emitRemove queues the removal of renderable n. Removing a native view
// detaches it from its parent, so n also leaves its ancestor's mirrored
// child list.
func (t *Tree) emitRemove(n *treeNode) {
	t.emit(patch.Remove(n.id))
	if anc, ok := t.nodes[n.ancestor]; ok {
		anc.rendered = slices.DeleteFunc(anc.rendered, func(id node.ID) bool { return id == n.id })
	}
}

func (t *Tree) disappear(n *treeNode) {
	n.state.WillDisappear()
	if sb, ok := n.state.(stateBase); ok {
		sb.state().runDisposers()
	}
	t.handlers.RemoveNode(n.id)
}

func (t *Tree) createState(id node.ID, view View) State {
	sv, ok := view.(StatefulView)
	if !ok {
		return sharedNoState
	}
	s := sv.CreateState()
	if s == nil {
		return sharedNoState
	}
	if sb, ok := s.(stateBase); ok {
		sb.state().bind(t, id)
	}
	return s
}

func (t *Tree) payload(n *treeNode) native.Payload {
	return n.view.(renderable).payload(n.id, t.handlers)
}

// body evaluates the node's body, recovering panics.
func (t *Tree) body(n *treeNode) (body View, err error) {
	switch v := n.view.(type) {
	case Empty:
		return nil, nil
	case Fragment:
		return v, nil
	}

	defer errors.RecoverWithCallback(opRender, func(perr *errors.PanicError) {
		body, err = nil, errors.Panicked(opRender, n.id, perr)
	})
	return n.view.Body(n.state), nil
}

// subviewContext returns the context n's children inherit.
func (t *Tree) subviewContext(n *treeNode) (ctx any, err error) {
	p, ok := n.view.(ContextProvider)
	if !ok {
		return n.context, nil
	}
	defer errors.RecoverWithCallback(opRender, func(perr *errors.PanicError) {
		ctx, err = nil, errors.Panicked(opRender, n.id, perr)
	})
	return p.SubviewContext(n.state, n.context), nil
}

// diffChildren matches views against n's previous children by key,
// removes the unmatched old children, and diffs every view in order. It
// returns the concatenated contributions of the children.
func (t *Tree) diffChildren(n *treeNode, views []View, pos position, depth int) ([]node.ID, error) {
	old := n.children
	byKey := make(map[childKey]node.ID, len(old))
	for _, id := range old {
		child, ok := t.nodes[id]
		if !ok {
			continue
		}
		if _, dup := byKey[child.key]; !dup {
			byKey[child.key] = id
		}
	}

	keys := assignKeys(views)
	ids := make([]node.ID, len(views))
	matched := make(map[node.ID]bool, len(views))
	seen := make(map[childKey]bool, len(views))
	for i, k := range keys {
		if seen[k] {
			t.log.WithFields(logrus.Fields{
				"parent": n.id.Short(),
				"key":    k.value,
			}).Warn("duplicate key among siblings; later view gets a new identity")
			ids[i] = node.New()
			continue
		}
		seen[k] = true
		if id, ok := byKey[k]; ok {
			ids[i] = id
			matched[id] = true
			continue
		}
		ids[i] = node.New()
	}

	for _, id := range old {
		if !matched[id] {
			t.remove(id)
		}
	}
	n.children = ids

	var contribution []node.ID
	cursor := pos.start
	for i, view := range views {
		childPos := position{parent: n.id, ancestor: pos.ancestor, start: cursor, key: keys[i], context: pos.context}
		c, err := t.diff(ids[i], view, childPos, depth+1)
		if err != nil {
			return nil, err
		}
		contribution = append(contribution, c...)
		cursor += len(c)
	}
	return contribution, nil
}

// spliceRegion emits a region patch when the renderable node n's child
// list changed. The patch covers the smallest window that differs: the
// common prefix and suffix of the old and new lists are left alone.
func (t *Tree) spliceRegion(n *treeNode, next []node.ID) {
	prev := n.rendered
	if slices.Equal(prev, next) {
		return
	}
	offset, length, replacement := regionWindow(prev, next)
	t.emit(patch.Region(n.id, offset, length, slices.Clone(replacement)))
	n.rendered = slices.Clone(next)
}

// regionWindow returns the window of prev to replace and the part of next
// replacing it.
func regionWindow(prev, next []node.ID) (offset, length int, replacement []node.ID) {
	limit := min(len(prev), len(next))
	for offset < limit && prev[offset] == next[offset] {
		offset++
	}
	suffix := 0
	for suffix < limit-offset && prev[len(prev)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}
	return offset, len(prev) - offset - suffix, next[offset : len(next)-suffix]
}
