package core

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/sprig/pkg/errors"
	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/node"
	"github.com/go-drift/sprig/pkg/patch"
)

// DefaultMaxDepth bounds how deeply bodies may nest within one render.
const DefaultMaxDepth = 256

const opRender = "core.Tree.Render"

// Tree is the reconciler. It owns the persistent node for every identity,
// diffs each new root view against them, and appends the resulting
// patches to its queue.
//
// A Tree is not safe for concurrent use. Render, DispatchEvents and every
// state hook run on the UI goroutine.
type Tree struct {
	nodes       map[node.ID]*treeNode
	root        node.ID
	visibleRoot node.ID

	queue    *patch.Queue
	handlers *events.Registry
	log      *logrus.Entry
	maxDepth int
	context  any

	rendered    bool
	needsRender bool
	pending     []pendingEvent

	// OnNeedsRender is called when a state requests a render, so a host
	// that idles between frames knows to schedule one.
	OnNeedsRender func()
}

type treeNode struct {
	id         node.ID
	view       View
	state      State
	renderable bool
	key        childKey
	context    any

	parent   node.ID
	ancestor node.ID
	start    int
	length   int
	children []node.ID

	// rendered mirrors the applier's child list of a renderable node.
	rendered []node.ID
}

// Option configures a Tree.
type Option func(*Tree)

// WithMaxDepth bounds body nesting. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.maxDepth = n
		}
	}
}

// WithLogger sets the entry the tree logs through.
func WithLogger(entry *logrus.Entry) Option {
	return func(t *Tree) {
		if entry != nil {
			t.log = entry
		}
	}
}

// WithQueue makes the tree emit into q instead of a fresh queue.
func WithQueue(q *patch.Queue) Option {
	return func(t *Tree) {
		if q != nil {
			t.queue = q
		}
	}
}

// WithContext sets the context the root view inherits.
func WithContext(v any) Option {
	return func(t *Tree) { t.context = v }
}

// NewTree returns an empty tree.
func NewTree(opts ...Option) *Tree {
	t := &Tree{
		nodes:    make(map[node.ID]*treeNode),
		queue:    patch.NewQueue(),
		handlers: events.NewRegistry(),
		log:      logrus.NewEntry(logrus.StandardLogger()),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.WithField("component", "tree")
	return t
}

// Render diffs root against the current tree and queues the patches that
// bring the native tree into agreement. The root identity is minted on
// the first call and kept after.
//
// Any error aborts the pass. Patches already queued stay queued; the tree
// and the applier may then disagree, so callers should treat errors as
// fatal to the session or rebuild from scratch.
func (t *Tree) Render(root View) error {
	if root == nil {
		root = Empty{}
	}
	if t.root.IsNil() {
		t.root = node.New()
	}
	t.needsRender = false
	t.rendered = true

	contribution, err := t.diff(t.root, root, position{context: t.context}, 0)
	if err != nil {
		return err
	}
	return t.updateVisibleRoot(contribution)
}

func (t *Tree) updateVisibleRoot(contribution []node.ID) error {
	switch len(contribution) {
	case 0:
		t.visibleRoot = node.Nil
	case 1:
		if contribution[0] != t.visibleRoot {
			t.visibleRoot = contribution[0]
			t.emit(patch.SetRoot(t.visibleRoot))
		}
	default:
		return errors.InvalidRoot(opRender, t.root, len(contribution))
	}
	return nil
}

// Patches returns the queue the tree emits into.
func (t *Tree) Patches() *patch.Queue {
	return t.queue
}

// Handlers returns the event handler registry maintained by the tree.
func (t *Tree) Handlers() *events.Registry {
	return t.handlers
}

// Root returns the identity of the root node, if a render has happened.
func (t *Tree) Root() (node.ID, bool) {
	return t.root, !t.root.IsNil()
}

// VisibleRoot returns the renderable node last designated as the native
// root.
func (t *Tree) VisibleRoot() (node.ID, bool) {
	return t.visibleRoot, !t.visibleRoot.IsNil()
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NeedsRender reports whether the tree has never rendered or a render
// was requested since the last one.
func (t *Tree) NeedsRender() bool {
	return !t.rendered || t.needsRender
}

// RequestRender marks the tree as needing a render.
func (t *Tree) RequestRender() {
	if t.needsRender {
		return
	}
	t.needsRender = true
	if t.OnNeedsRender != nil {
		t.OnNeedsRender()
	}
}

// NodeInfo is a read-only snapshot of one node.
type NodeInfo struct {
	ID         node.ID
	View       View
	State      State
	Renderable bool
	Parent     node.ID
	// Ancestor is the nearest renderable ancestor, or node.Nil.
	Ancestor node.ID
	// Start and Length locate the node's renderable descendants (or the
	// node itself) in Ancestor's child list.
	Start    int
	Length   int
	Children []node.ID
	// Context is the value the node inherited from its ancestors.
	Context any
}

// Lookup returns a snapshot of the node with the given identity.
func (t *Tree) Lookup(id node.ID) (NodeInfo, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return NodeInfo{}, false
	}
	return n.info(), true
}

// Walk visits nodes depth-first in pre-order, starting at the root, until
// fn returns false.
func (t *Tree) Walk(fn func(NodeInfo) bool) {
	if t.root.IsNil() {
		return
	}
	t.walk(t.root, fn)
}

func (t *Tree) walk(id node.ID, fn func(NodeInfo) bool) bool {
	n, ok := t.nodes[id]
	if !ok {
		return true
	}
	if !fn(n.info()) {
		return false
	}
	for _, child := range n.children {
		if !t.walk(child, fn) {
			return false
		}
	}
	return true
}

func (n *treeNode) info() NodeInfo {
	return NodeInfo{
		ID:         n.id,
		View:       n.view,
		State:      n.state,
		Renderable: n.renderable,
		Parent:     n.parent,
		Ancestor:   n.ancestor,
		Start:      n.start,
		Length:     n.length,
		Children:   slices.Clone(n.children),
		Context:    n.context,
	}
}

func (t *Tree) emit(p patch.Patch) {
	if t.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		t.log.WithField("patch", p.String()).Debug("emit")
	}
	t.queue.Push(p)
}
