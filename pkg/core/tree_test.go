package core_test

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/go-drift/sprig/pkg/core"
	"github.com/go-drift/sprig/pkg/errors"
	"github.com/go-drift/sprig/pkg/native"
	"github.com/go-drift/sprig/pkg/patch"
	sprigtest "github.com/go-drift/sprig/pkg/testing"
)

func TestTree_InitialRender(t *testing.T) {
	h := newHarness(t)
	patches := h.render(layer(text("a"), text("b")))

	want := []patch.Op{patch.OpUpdate, patch.OpUpdate, patch.OpUpdate, patch.OpRegion, patch.OpSetRoot}
	if diff := cmp.Diff(want, ops(patches)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
	root, ok := h.tree.VisibleRoot()
	if !ok {
		t.Fatal("expected a visible root")
	}
	if applied, _ := h.applier.Root(); applied != root {
		t.Errorf("applier root = %s, want %s", applied.Short(), root.Short())
	}
	if h.tree.NeedsRender() {
		t.Error("NeedsRender after a render")
	}
}

func TestTree_NeedsRenderBeforeFirstRender(t *testing.T) {
	tree := core.NewTree()
	if !tree.NeedsRender() {
		t.Error("a fresh tree should need a render")
	}
	if _, ok := tree.Root(); ok {
		t.Error("a fresh tree should have no root")
	}
}

func TestTree_IdenticalRenderEmitsNothing(t *testing.T) {
	h := newHarness(t)
	view := layer(text("a"), layer(text("b")), text("c"))
	h.render(view)
	before := h.ids()

	if patches := h.render(view); len(patches) != 0 {
		t.Fatalf("expected no patches, got %v", patches)
	}
	if diff := cmp.Diff(before, h.ids()); diff != "" {
		t.Errorf("identities changed (-before +after):\n%s", diff)
	}
}

func TestTree_UpdateKeepsIdentity(t *testing.T) {
	h := newHarness(t)
	h.render(layer(text("a"), text("b")))
	before := h.ids()

	patches := h.render(layer(text("a"), text("changed")))
	if len(patches) != 1 || patches[0].Op != patch.OpUpdate {
		t.Fatalf("expected one update, got %v", patches)
	}
	if got := patches[0].Payload.(native.Text).Text; got != "changed" {
		t.Errorf("payload text = %q, want %q", got, "changed")
	}
	if diff := cmp.Diff(before, h.ids()); diff != "" {
		t.Errorf("identities changed (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "changed"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_KindChangeReplaces(t *testing.T) {
	h := newHarness(t)
	h.render(layer(text("a")))
	before := h.ids()

	patches := h.render(layer(core.TextField{Value: "a"}))
	if diff := cmp.Diff([]patch.Op{patch.OpReplace}, ops(patches)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, h.ids()); diff != "" {
		t.Errorf("identities changed (-before +after):\n%s", diff)
	}
	if got := h.backend.Methods(); got[len(got)-1] != "Replace" {
		t.Errorf("last backend call = %s, want Replace", got[len(got)-1])
	}
}

func TestTree_RenderableToCompositeRemovesNativeView(t *testing.T) {
	h := newHarness(t)
	h.render(layer(text("a"), text("b")))

	wrapped := core.Compose("wrap", "x", func(s string) core.View { return text(s) })
	patches := h.render(layer(wrapped, text("b")))

	// The first child node changes kind: its native view goes away and the
	// composite's body contributes a new one at the same index.
	want := []patch.Op{patch.OpRemove, patch.OpUpdate, patch.OpRegion}
	if diff := cmp.Diff(want, ops(patches)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	if patches[2].Offset != 0 || patches[2].Length != 0 || len(patches[2].Children) != 1 {
		t.Errorf("region = %s, want an insert at 0", patches[2])
	}
	if diff := cmp.Diff([]string{"x", "b"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_KeyedReorderMovesOnly(t *testing.T) {
	var life sprigtest.Lifecycle
	probe := func(key uint64, name string) core.View {
		return sprigtest.ProbeView{
			ViewBase: core.ViewBase{ListKey: core.KeyOf(key)},
			Name:     name,
			Child:    text(name),
			Recorder: &life,
		}
	}

	h := newHarness(t)
	h.render(layer(probe(1, "x"), probe(2, "y")))
	life.Reset()

	patches := h.render(layer(probe(2, "y"), probe(1, "x")))
	if len(patches) != 1 || patches[0].Op != patch.OpRegion {
		t.Fatalf("expected a single region patch, got %v", patches)
	}
	if patches[0].Offset != 0 || patches[0].Length != 2 || len(patches[0].Children) != 2 {
		t.Errorf("region = %s, want [0+2] with two children", patches[0])
	}
	if life.Total(sprigtest.HookAppear) != 0 || life.Total(sprigtest.HookDisappear) != 0 {
		t.Errorf("reorder should keep states, got %v", life.Events)
	}
	if diff := cmp.Diff([]string{"y", "x"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_KeyedInsertKeepsAutoKeyedSiblings(t *testing.T) {
	h := newHarness(t)
	h.render(layer(text("a"), text("b")))
	before := h.ids()

	patches := h.render(layer(text("a"), keyedText(5, "k"), text("b")))
	if diff := cmp.Diff([]patch.Op{patch.OpUpdate, patch.OpRegion}, ops(patches)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	region := patches[1]
	if region.Offset != 1 || region.Length != 0 {
		t.Errorf("region = %s, want an insert at 1", region)
	}
	if region.Children[0] != patches[0].ID {
		t.Error("inserted child should be the newly created node")
	}

	after := h.ids()
	for _, id := range before {
		if _, ok := h.tree.Lookup(id); !ok {
			t.Errorf("node %s lost its identity", id.Short())
		}
	}
	if len(after) != len(before)+1 {
		t.Errorf("got %d nodes, want %d", len(after), len(before)+1)
	}
	if diff := cmp.Diff([]string{"a", "k", "b"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_RemovalIsPostOrder(t *testing.T) {
	var life sprigtest.Lifecycle
	inner := sprigtest.ProbeView{Name: "inner", Child: text("leaf"), Recorder: &life}
	outer := sprigtest.ProbeView{Name: "outer", Child: layer(inner), Recorder: &life}

	h := newHarness(t)
	h.render(outer)
	leafHandle, layerHandle := 0, 0
	for _, c := range h.backend.Calls() {
		if c.Method != "Create" {
			continue
		}
		switch c.Payload.(type) {
		case native.Text:
			leafHandle = c.Handle
		case native.Layer:
			layerHandle = c.Handle
		}
	}
	h.backend.Reset()

	patches := h.render(core.Empty{})
	if diff := cmp.Diff([]patch.Op{patch.OpRemove, patch.OpRemove}, ops(patches)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}

	wantLife := []sprigtest.LifecycleEvent{
		{Name: "outer", Hook: sprigtest.HookAppear},
		{Name: "inner", Hook: sprigtest.HookAppear},
		{Name: "inner", Hook: sprigtest.HookDisappear},
		{Name: "outer", Hook: sprigtest.HookDisappear},
	}
	if diff := cmp.Diff(wantLife, life.Events); diff != "" {
		t.Errorf("lifecycle mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []sprigtest.Call{
		{Method: "Remove", Handle: leafHandle},
		{Method: "Remove", Handle: layerHandle},
	}
	if diff := cmp.Diff(wantCalls, h.backend.Calls()); diff != "" {
		t.Errorf("backend calls mismatch (-want +got):\n%s", diff)
	}
	if _, ok := h.tree.VisibleRoot(); ok {
		t.Error("visible root should be cleared")
	}
	if h.tree.Handlers().Len() != 0 {
		t.Errorf("handlers left behind: %d", h.tree.Handlers().Len())
	}
}

func TestTree_SubregionsTrackFragments(t *testing.T) {
	h := newHarness(t)
	h.render(layer(text("a"), core.Group(text("b"), text("c")), text("d")))

	frag := findNode(t, h.tree, func(n core.NodeInfo) bool {
		_, ok := n.View.(core.Fragment)
		return ok
	})
	if frag.Start != 1 || frag.Length != 2 {
		t.Fatalf("fragment region = [%d+%d], want [1+2]", frag.Start, frag.Length)
	}

	patches := h.render(layer(text("a"), core.Group(text("b")), text("d")))
	if diff := cmp.Diff([]patch.Op{patch.OpRemove}, ops(patches)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	frag, _ = h.tree.Lookup(frag.ID)
	if frag.Length != 1 {
		t.Errorf("fragment length = %d, want 1", frag.Length)
	}
	d := findNode(t, h.tree, func(n core.NodeInfo) bool {
		v, ok := n.View.(core.Text)
		return ok && v.Text == "d"
	})
	if d.Start != 2 {
		t.Errorf("d starts at %d, want 2", d.Start)
	}

	patches = h.render(layer(text("a"), core.Group(text("b"), text("c2"), text("c3")), text("d")))
	want := []patch.Op{patch.OpUpdate, patch.OpUpdate, patch.OpRegion}
	if diff := cmp.Diff(want, ops(patches)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	if r := patches[2]; r.Offset != 2 || r.Length != 0 || len(r.Children) != 2 {
		t.Errorf("region = %s, want an insert of two at 2", r)
	}
	if diff := cmp.Diff([]string{"a", "b", "c2", "c3", "d"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_NestedLayersKeepTheirOwnRegions(t *testing.T) {
	h := newHarness(t)
	h.render(layer(text("a"), layer(text("b1"), text("b2")), text("c")))

	patches := h.render(layer(text("a"), layer(text("b2")), text("c")))
	// Auto-keys are positional: b1's node takes "b2" and the second text
	// goes away.
	if diff := cmp.Diff([]patch.Op{patch.OpRemove, patch.OpUpdate}, ops(patches)); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b2", "c"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

type loop struct {
	core.ViewBase
	depth int
}

func (l loop) Body(core.State) core.View  { return loop{depth: l.depth + 1} }
func (l loop) Equal(other core.View) bool     { return core.EqualAs(l, other) }

func TestTree_RenderCycle(t *testing.T) {
	tree := core.NewTree(core.WithMaxDepth(16))
	err := tree.Render(loop{})
	if errors.KindOf(err) != errors.KindRenderCycle {
		t.Fatalf("expected a render cycle error, got %v", err)
	}
	if !stderrors.Is(err, errors.ErrRenderCycle) {
		t.Errorf("error should match ErrRenderCycle: %v", err)
	}
}

type panicky struct{ core.ViewBase }

func (panicky) Body(core.State) core.View    { panic("boom") }
func (p panicky) Equal(other core.View) bool { return core.EqualAs(p, other) }

type recordingHandler struct {
	errs   []*errors.TreeError
	panics []*errors.PanicError
}

func (r *recordingHandler) HandleError(err *errors.TreeError)  { r.errs = append(r.errs, err) }
func (r *recordingHandler) HandlePanic(err *errors.PanicError) { r.panics = append(r.panics, err) }

func captureErrors(t *testing.T) *recordingHandler {
	t.Helper()
	r := &recordingHandler{}
	errors.SetHandler(r)
	t.Cleanup(func() { errors.SetHandler(nil) })
	return r
}

func TestTree_PanicInBody(t *testing.T) {
	reported := captureErrors(t)
	tree := core.NewTree()

	err := tree.Render(layer(panicky{}))
	if errors.KindOf(err) != errors.KindPanic {
		t.Fatalf("expected a panic error, got %v", err)
	}
	var perr *errors.PanicError
	if !stderrors.As(err, &perr) || perr.Value != "boom" {
		t.Errorf("expected the panic value to be wrapped, got %v", err)
	}
	if len(reported.panics) != 1 {
		t.Errorf("expected the panic to be reported once, got %d", len(reported.panics))
	}
}

func TestTree_InvalidRoot(t *testing.T) {
	tree := core.NewTree()
	err := tree.Render(core.Group(text("a"), text("b")))
	if errors.KindOf(err) != errors.KindInvalidRoot {
		t.Fatalf("expected an invalid root error, got %v", err)
	}
}

func TestTree_EmptyRoot(t *testing.T) {
	h := newHarness(t)
	for _, v := range []core.View{nil, core.Empty{}, core.Group()} {
		if patches := h.render(v); len(patches) != 0 {
			t.Errorf("Render(%#v) emitted %v", v, patches)
		}
		if _, ok := h.tree.VisibleRoot(); ok {
			t.Errorf("Render(%#v) set a visible root", v)
		}
	}
}

func TestTree_RootThroughComposites(t *testing.T) {
	h := newHarness(t)
	app := core.Compose("app", 1, func(int) core.View {
		return core.Group(nil, core.Empty{}, layer(text("hi")))
	})
	patches := h.render(app)
	if patches[len(patches)-1].Op != patch.OpSetRoot {
		t.Fatalf("last patch = %s, want set-root", patches[len(patches)-1])
	}
	root, _ := h.tree.VisibleRoot()
	info, _ := h.tree.Lookup(root)
	if _, ok := info.View.(core.Layer); !ok {
		t.Errorf("visible root is %T, want core.Layer", info.View)
	}

	// A different renderable at the root moves the native root.
	patches = h.render(core.Compose("app", 2, func(int) core.View { return text("only") }))
	if last := patches[len(patches)-1]; last.Op != patch.OpSetRoot {
		t.Fatalf("last patch = %s, want set-root", last)
	}
	if diff := cmp.Diff([]string{"only"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_DuplicateKeysWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	h := newHarness(t, core.WithLogger(logrus.NewEntry(logger)))
	h.render(layer(keyedText(1, "a"), keyedText(1, "b")))

	if !bytes.Contains(buf.Bytes(), []byte("duplicate key")) {
		t.Errorf("expected a duplicate key warning, got %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"level":"warning"`)) {
		t.Errorf("expected a warning level entry, got %q", buf.String())
	}
	if diff := cmp.Diff([]string{"a", "b"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}

	// The later duplicate never matches, so it is rebuilt on every render.
	patches := h.render(layer(keyedText(1, "a"), keyedText(1, "b")))
	if diff := cmp.Diff([]patch.Op{patch.OpRemove, patch.OpUpdate, patch.OpRegion}, ops(patches)); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_DebugLogsPatches(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	h := newHarness(t, core.WithLogger(logrus.NewEntry(logger)))
	h.render(text("a"))
	if !bytes.Contains(buf.Bytes(), []byte("component=tree")) {
		t.Errorf("expected tree log entries, got %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("set-root")) {
		t.Errorf("expected the set-root patch to be logged, got %q", buf.String())
	}
}

func TestTree_WithQueue(t *testing.T) {
	q := patch.NewQueue(patch.WithCoalescing())
	tree := core.NewTree(core.WithQueue(q))
	if tree.Patches() != q {
		t.Fatal("tree should emit into the given queue")
	}
	if err := tree.Render(text("a")); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 2 {
		t.Errorf("queue holds %d patches, want 2", q.Len())
	}
}

func findNode(t *testing.T, tree *core.Tree, match func(core.NodeInfo) bool) core.NodeInfo {
	t.Helper()
	var found core.NodeInfo
	ok := false
	tree.Walk(func(n core.NodeInfo) bool {
		if match(n) {
			found, ok = n, true
			return false
		}
		return true
	})
	if !ok {
		t.Fatal("no matching node")
	}
	return found
}
