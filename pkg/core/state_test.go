package core_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/sprig/pkg/core"
	"github.com/go-drift/sprig/pkg/errors"
	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/native"
	"github.com/go-drift/sprig/pkg/node"
	"github.com/go-drift/sprig/pkg/patch"
	sprigtest "github.com/go-drift/sprig/pkg/testing"
)

func counter(label string) core.View {
	return core.Stateful("counter", label,
		func(string) int { return 0 },
		func(label string, count int, setState func(func(int) int)) core.View {
			return core.Layer{
				OnPointer: func(ev events.Pointer) {
					if ev.Phase == events.PointerUp {
						setState(func(c int) int { return c + 1 })
					}
				},
				Children: core.Group(text(fmt.Sprintf("%s: %d", label, count))),
			}
		},
	)
}

func TestStateful_PointerUpdatesText(t *testing.T) {
	h := newHarness(t)
	requests := 0
	h.tree.OnNeedsRender = func() { requests++ }

	app := counter("taps")
	h.render(app)
	target, _ := h.tree.VisibleRoot()

	for range 2 {
		if err := h.tree.EnqueueEvent(target, events.Pointer{Phase: events.PointerUp}); err != nil {
			t.Fatal(err)
		}
	}
	if got := h.tree.PendingEvents(); got != 2 {
		t.Fatalf("PendingEvents = %d, want 2", got)
	}
	delivered, err := h.tree.DispatchEvents()
	if err != nil {
		t.Fatal(err)
	}
	if delivered != 2 {
		t.Errorf("delivered %d events, want 2", delivered)
	}
	if !h.tree.NeedsRender() {
		t.Fatal("state change should request a render")
	}
	if requests != 1 {
		t.Errorf("OnNeedsRender called %d times, want 1", requests)
	}

	patches := h.render(app)
	if len(patches) != 1 || patches[0].Op != patch.OpUpdate {
		t.Fatalf("expected one text update, got %v", patches)
	}
	if diff := cmp.Diff([]string{"taps: 2"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestStateful_StateSurvivesPropChange(t *testing.T) {
	h := newHarness(t)
	h.render(counter("a"))
	target, _ := h.tree.VisibleRoot()
	if err := h.tree.EnqueueEvent(target, events.Pointer{Phase: events.PointerUp}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.tree.DispatchEvents(); err != nil {
		t.Fatal(err)
	}

	h.render(counter("b"))
	if diff := cmp.Diff([]string{"b: 1"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}

	// A composite with another name is a different kind and starts over.
	h.render(core.Stateful("other", "c",
		func(string) int { return 10 },
		func(label string, n int, _ func(func(int) int)) core.View {
			return text(fmt.Sprintf("%s: %d", label, n))
		},
	))
	if diff := cmp.Diff([]string{"c: 10"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestCompose_KindAndEquality(t *testing.T) {
	body := func(s string) core.View { return text(s) }
	a1 := core.Compose("a", "x", body)
	a2 := core.Compose("a", "y", body)
	b1 := core.Compose("b", "x", body)

	if !core.SameKind(a1, a2) {
		t.Error("same name should be the same kind")
	}
	if core.SameKind(a1, b1) {
		t.Error("different names should be different kinds")
	}
	if a1.Equal(a2) {
		t.Error("different props should not be equal")
	}
	if !a1.Equal(core.Compose("a", "x", func(string) core.View { return nil })) {
		t.Error("body functions should not take part in equality")
	}
	if core.SameKind(a1, core.Compose("a", 1, func(int) core.View { return nil })) {
		t.Error("different prop types should be different kinds")
	}
	if k, ok := a1.WithKey(7).Key().Value(); !ok || k != 7 {
		t.Errorf("WithKey(7).Key() = %d, %v", k, ok)
	}
}

func TestCompose_NameChangeRebuilds(t *testing.T) {
	var life sprigtest.Lifecycle
	body := func(s string) core.View {
		return sprigtest.ProbeView{Name: s, Child: text(s), Recorder: &life}
	}
	h := newHarness(t)
	h.render(core.Compose("a", "x", body))

	patches := h.render(core.Compose("a", "y", body))
	if diff := cmp.Diff([]patch.Op{patch.OpUpdate}, ops(patches)); diff != "" {
		t.Errorf("prop change ops mismatch (-want +got):\n%s", diff)
	}
	if life.Count("x", sprigtest.HookUpdate) != 1 {
		t.Errorf("expected the probe to see an update, got %v", life.Events)
	}

	patches = h.render(core.Compose("b", "y", body))
	want := []patch.Op{patch.OpRemove, patch.OpUpdate, patch.OpSetRoot}
	if diff := cmp.Diff(want, ops(patches)); diff != "" {
		t.Errorf("name change ops mismatch (-want +got):\n%s", diff)
	}
	if life.Total(sprigtest.HookDisappear) != 1 || life.Count("y", sprigtest.HookAppear) != 1 {
		t.Errorf("expected the probe to be rebuilt, got %v", life.Events)
	}
}

func TestProbe_WillUpdateSeesNextView(t *testing.T) {
	h := newHarness(t)
	h.render(sprigtest.ProbeView{Name: "p", Value: 1, Child: text("a")})
	root, _ := h.tree.Root()
	info, _ := h.tree.Lookup(root)
	probe := info.State.(*sprigtest.Probe)

	h.render(sprigtest.ProbeView{Name: "p", Value: 1, Child: text("b")})
	if probe.Updated != 0 {
		t.Errorf("equal views should not call WillUpdate, got %d", probe.Updated)
	}
	h.render(sprigtest.ProbeView{Name: "p", Value: 2, Child: text("b")})
	if probe.Updated != 1 {
		t.Fatalf("Updated = %d, want 1", probe.Updated)
	}
	if got := probe.Last.(sprigtest.ProbeView).Value; got != 2 {
		t.Errorf("WillUpdate saw value %d, want 2", got)
	}
	if probe.NodeID() != root {
		t.Errorf("NodeID = %s, want %s", probe.NodeID().Short(), root.Short())
	}
}

type resource struct {
	name     string
	released *[]string
}

func (r *resource) Dispose() { *r.released = append(*r.released, r.name) }

type owner struct {
	core.ViewBase
	released *[]string
	states   *[]*ownerState
}

func (o owner) Body(state core.State) core.View {
	s := state.(*ownerState)
	return text(fmt.Sprint(s.count.Value()))
}

func (o owner) Equal(other core.View) bool { return core.EqualAs(o, other) }

func (o owner) CreateState() core.State {
	s := &ownerState{released: o.released}
	*o.states = append(*o.states, s)
	return s
}

type ownerState struct {
	core.StateBase
	released *[]string
	count    *core.Managed[int]
	first    *resource
	second   *resource
}

func (s *ownerState) WillAppear() {
	s.count = core.NewManaged(s, 0)
	s.first = core.UseResource(s, func() *resource { return &resource{name: "first", released: s.released} })
	s.second = core.UseResource(s, func() *resource { return &resource{name: "second", released: s.released} })
	s.OnDisappear(func() { *s.released = append(*s.released, "cleanup") })
}

func TestManaged_RequestsRender(t *testing.T) {
	var released []string
	var states []*ownerState
	h := newHarness(t)
	view := owner{released: &released, states: &states}
	h.render(view)

	s := states[0]
	s.count.Set(4)
	if !h.tree.NeedsRender() {
		t.Fatal("Set should request a render")
	}
	h.render(view)
	s.count.Update(func(n int) int { return n + 1 })
	h.render(view)
	if diff := cmp.Diff([]string{"5"}, h.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestUseResource_ReleasedOnDisappear(t *testing.T) {
	var released []string
	var states []*ownerState
	h := newHarness(t)
	h.render(layer(owner{released: &released, states: &states}))
	if len(released) != 0 {
		t.Fatalf("nothing should be released yet, got %v", released)
	}

	h.render(layer())
	want := []string{"cleanup", "second", "first"}
	if diff := cmp.Diff(want, released); diff != "" {
		t.Errorf("release order mismatch (-want +got):\n%s", diff)
	}

	s := states[0]
	if !s.IsDisposed() {
		t.Error("state should be disposed")
	}
	s.count.Set(9)
	if h.tree.NeedsRender() {
		t.Error("a disposed state must not request renders")
	}
	if s.count.Value() != 0 {
		t.Errorf("Set after disposal changed the value to %d", s.count.Value())
	}

	late := false
	s.OnDisappear(func() { late = true })
	if !late {
		t.Error("cleanups registered after disposal should run immediately")
	}
}

func TestStateBase_UnregisterCleanup(t *testing.T) {
	var released []string
	var states []*ownerState
	h := newHarness(t)
	h.render(layer(owner{released: &released, states: &states}))

	ran := false
	unregister := states[0].OnDisappear(func() { ran = true })
	unregister()
	h.render(layer())
	if ran {
		t.Error("unregistered cleanup ran")
	}
}

func TestEvents_HandlerMaskInPayload(t *testing.T) {
	h := newHarness(t)
	patches := h.render(core.Layer{
		OnPointer: func(events.Pointer) {},
		OnScroll:  func(events.Scroll) {},
	})
	payload := patches[0].Payload.(native.Layer)
	want := events.MaskOf(events.TypePointer, events.TypeScroll)
	if payload.Handlers != want {
		t.Errorf("handler mask = %08b, want %08b", payload.Handlers, want)
	}
	if payload.Opacity != 1 || payload.Transform != native.Identity {
		t.Errorf("defaults not applied: opacity %v transform %v", payload.Opacity, payload.Transform)
	}

	root, _ := h.tree.VisibleRoot()
	if got := h.tree.Handlers().Types(root); got != want {
		t.Errorf("registered types = %08b, want %08b", got, want)
	}

	// Dropping a handler changes the mask and so the payload.
	patches = h.render(core.Layer{OnPointer: func(events.Pointer) {}})
	if len(patches) != 1 || patches[0].Payload.(native.Layer).Handlers != events.MaskOf(events.TypePointer) {
		t.Errorf("expected an update with the pointer mask, got %v", patches)
	}
	if _, ok := h.tree.Handlers().Lookup(root, events.TypeScroll); ok {
		t.Error("scroll handler should be unregistered")
	}
}

func TestEvents_HandlersRefreshedWithoutPatches(t *testing.T) {
	h := newHarness(t)
	var got []string
	view := func(tag string) core.View {
		return core.Layer{OnKey: func(events.Key) { got = append(got, tag) }}
	}
	h.render(view("first"))
	if patches := h.render(view("second")); len(patches) != 0 {
		t.Fatalf("equal layers should not emit, got %v", patches)
	}

	root, _ := h.tree.VisibleRoot()
	if err := h.tree.EnqueueEvent(root, events.Key{Code: events.KeyA}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.tree.DispatchEvents(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"second"}, got); diff != "" {
		t.Errorf("handler calls mismatch (-want +got):\n%s", diff)
	}
}

func TestEvents_OnlyTargetReceives(t *testing.T) {
	h := newHarness(t)
	var got []string
	h.render(core.Layer{
		OnPointer: func(events.Pointer) { got = append(got, "outer") },
		Children: core.Group(core.Layer{
			OnPointer: func(events.Pointer) { got = append(got, "inner") },
		}),
	})
	inner := findNode(t, h.tree, func(n core.NodeInfo) bool {
		return n.Renderable && !n.Ancestor.IsNil()
	})
	if err := h.tree.EnqueueEvent(inner.ID, events.Pointer{}); err != nil {
		t.Fatal(err)
	}
	// No hover handler: dropped without error.
	if err := h.tree.EnqueueEvent(inner.ID, events.Hover{}); err != nil {
		t.Fatal(err)
	}
	delivered, err := h.tree.DispatchEvents()
	if err != nil {
		t.Fatal(err)
	}
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	if diff := cmp.Diff([]string{"inner"}, got); diff != "" {
		t.Errorf("handler calls mismatch (-want +got):\n%s", diff)
	}
}

func TestEvents_UnknownTarget(t *testing.T) {
	h := newHarness(t)
	h.render(core.Layer{})
	err := h.tree.EnqueueEvent(node.New(), events.Pointer{})
	if errors.KindOf(err) != errors.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestEvents_DroppedAfterRemoval(t *testing.T) {
	h := newHarness(t)
	called := false
	h.render(layer(core.Layer{OnPointer: func(events.Pointer) { called = true }}))
	inner := findNode(t, h.tree, func(n core.NodeInfo) bool {
		return n.Renderable && !n.Ancestor.IsNil()
	})
	if err := h.tree.EnqueueEvent(inner.ID, events.Pointer{}); err != nil {
		t.Fatal(err)
	}

	h.render(layer())
	delivered, err := h.tree.DispatchEvents()
	if err != nil {
		t.Fatal(err)
	}
	if delivered != 0 || called {
		t.Error("events for removed nodes must be dropped")
	}
	if h.tree.PendingEvents() != 0 {
		t.Errorf("PendingEvents = %d, want 0", h.tree.PendingEvents())
	}
}

func TestEvents_PanickingHandler(t *testing.T) {
	reported := captureErrors(t)
	h := newHarness(t)
	calls := 0
	h.render(core.Layer{OnPointer: func(ev events.Pointer) {
		calls++
		if ev.Phase == events.PointerDown {
			panic("bad handler")
		}
	}})
	root, _ := h.tree.VisibleRoot()
	for _, phase := range []events.PointerPhase{events.PointerDown, events.PointerUp, events.PointerUp} {
		if err := h.tree.EnqueueEvent(root, events.Pointer{Phase: phase}); err != nil {
			t.Fatal(err)
		}
	}

	_, err := h.tree.DispatchEvents()
	if errors.KindOf(err) != errors.KindPanic {
		t.Fatalf("expected a panic error, got %v", err)
	}
	if len(reported.panics) != 1 {
		t.Errorf("reported %d panics, want 1", len(reported.panics))
	}
	if got := h.tree.PendingEvents(); got != 2 {
		t.Fatalf("PendingEvents = %d, want 2", got)
	}

	delivered, err := h.tree.DispatchEvents()
	if err != nil || delivered != 2 {
		t.Errorf("second dispatch = %d, %v; want 2, nil", delivered, err)
	}
	if calls != 3 {
		t.Errorf("handler called %d times, want 3", calls)
	}
}
