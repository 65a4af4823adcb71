package core_test

import (
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/go-drift/sprig/pkg/core"
	"github.com/go-drift/sprig/pkg/native"
	"github.com/go-drift/sprig/pkg/node"
	"github.com/go-drift/sprig/pkg/nvtree"
	"github.com/go-drift/sprig/pkg/patch"
	sprigtest "github.com/go-drift/sprig/pkg/testing"
)

// fataler is the part of testing.TB the harness needs; *rapid.T
// satisfies it too.
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// harness renders through a tree and applies every patch to an applier
// backed by a recording backend.
type harness struct {
	t       fataler
	tree    *core.Tree
	backend *sprigtest.RecordingBackend
	applier *nvtree.Tree[int]
}

func newHarness(t fataler, opts ...core.Option) *harness {
	backend := sprigtest.NewRecordingBackend()
	return &harness{
		t:       t,
		tree:    core.NewTree(opts...),
		backend: backend,
		applier: nvtree.New[int](backend),
	}
}

// render renders v, applies the resulting patches and returns them.
func (h *harness) render(v core.View) []patch.Patch {
	h.t.Helper()
	if err := h.tree.Render(v); err != nil {
		h.t.Fatalf("Render: %v", err)
	}
	patches := h.tree.Patches().Drain()
	for _, p := range patches {
		if err := h.applier.Apply(p); err != nil {
			h.t.Fatalf("Apply(%s): %v", p, err)
		}
	}
	h.checkAgreement()
	return patches
}

// checkAgreement verifies that every renderable node of the tree exists in
// the applier with the children the tree's subregions describe, and that
// the backend holds the same handles.
func (h *harness) checkAgreement() {
	h.t.Helper()
	type slot struct {
		start int
		id    node.ID
	}
	byAncestor := make(map[node.ID][]slot)
	var renderables []node.ID
	h.tree.Walk(func(n core.NodeInfo) bool {
		if n.Renderable {
			renderables = append(renderables, n.ID)
			if !n.Ancestor.IsNil() {
				byAncestor[n.Ancestor] = append(byAncestor[n.Ancestor], slot{n.Start, n.ID})
			}
		}
		return true
	})

	if h.applier.Len() != len(renderables) {
		h.t.Fatalf("applier has %d nodes, tree has %d renderables", h.applier.Len(), len(renderables))
	}
	if h.backend.Live() != len(renderables) {
		h.t.Fatalf("backend has %d views, tree has %d renderables", h.backend.Live(), len(renderables))
	}

	for _, id := range renderables {
		an, ok := h.applier.Lookup(id)
		if !ok {
			h.t.Fatalf("renderable %s missing from applier", id.Short())
		}
		slots := byAncestor[id]
		slices.SortFunc(slots, func(a, b slot) int { return a.start - b.start })
		want := make([]node.ID, len(slots))
		for i, s := range slots {
			if s.start != i {
				h.t.Fatalf("node %s claims index %d, want %d", s.id.Short(), s.start, i)
			}
			want[i] = s.id
		}
		if diff := cmp.Diff(want, an.Children, cmpopts.EquateEmpty()); diff != "" {
			h.t.Fatalf("applier children of %s differ (-tree +applier):\n%s", id.Short(), diff)
		}

		handles := make([]int, len(an.Children))
		for i, c := range an.Children {
			cn, _ := h.applier.Lookup(c)
			handles[i] = cn.Handle
		}
		view, ok := h.backend.View(an.Handle)
		if !ok {
			h.t.Fatalf("backend view %d missing", an.Handle)
		}
		if diff := cmp.Diff(handles, view.Children, cmpopts.EquateEmpty()); diff != "" {
			h.t.Fatalf("backend children of %s differ (-applier +backend):\n%s", id.Short(), diff)
		}
	}
}

// texts returns the visible Text payloads in depth-first order.
func (h *harness) texts() []string {
	var out []string
	var walk func(handle int)
	walk = func(handle int) {
		v, ok := h.backend.View(handle)
		if !ok {
			return
		}
		if t, ok := v.Payload.(native.Text); ok {
			out = append(out, t.Text)
		}
		for _, c := range v.Children {
			walk(c)
		}
	}
	if root := h.backend.RootHandle(); root != 0 {
		walk(root)
	}
	return out
}

// ids returns every node identity in pre-order.
func (h *harness) ids() []node.ID {
	var out []node.ID
	h.tree.Walk(func(n core.NodeInfo) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

func ops(patches []patch.Patch) []patch.Op {
	out := make([]patch.Op, len(patches))
	for i, p := range patches {
		out[i] = p.Op
	}
	return out
}

func text(s string) core.Text {
	return core.Text{Text: s}
}

func keyedText(key uint64, s string) core.Text {
	return core.Text{ViewBase: core.ViewBase{ListKey: core.KeyOf(key)}, Text: s}
}

func layer(children ...core.View) core.Layer {
	return core.Layer{Children: core.Group(children...)}
}
