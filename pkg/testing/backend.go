package testing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/native"
)

// Call records one backend method invocation.
type Call struct {
	Method   string
	Handle   int
	Payload  native.Payload
	Offset   int
	Length   int
	Children []int
}

func (c Call) String() string {
	switch c.Method {
	case "Create":
		return fmt.Sprintf("Create(%s) -> %d", c.Payload.Kind(), c.Handle)
	case "Update", "Replace":
		return fmt.Sprintf("%s(%d, %s)", c.Method, c.Handle, c.Payload.Kind())
	case "SetChildren":
		return fmt.Sprintf("SetChildren(%d, %d, %d, %v)", c.Handle, c.Offset, c.Length, c.Children)
	default:
		return fmt.Sprintf("%s(%d)", c.Method, c.Handle)
	}
}

// FakeView is the backend-side state of one handle.
type FakeView struct {
	Payload  native.Payload
	Children []int
}

// RecordingBackend is an in-memory backend with integer handles. It
// records every call, keeps its own child lists so tests can compare
// them with the applier's, and rejects calls on unknown handles.
//
// It implements nvtree.Backend[int] and nvtree.Replacer[int]; wrap it
// with WithoutReplace to exercise the remove-and-create fallback.
type RecordingBackend struct {
	views map[int]*FakeView
	next  int
	root  int
	calls []Call
	fail  map[string]error
	queue []events.Raw
}

// ErrUnknownHandle is returned for calls on handles the backend never
// created or already removed.
var ErrUnknownHandle = errors.New("unknown handle")

// NewRecordingBackend returns an empty backend. Handles start at 1.
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{views: make(map[int]*FakeView)}
}

// FailNext makes the next call to method return err.
func (b *RecordingBackend) FailNext(method string, err error) {
	if b.fail == nil {
		b.fail = make(map[string]error)
	}
	b.fail[method] = err
}

func (b *RecordingBackend) injected(method string) error {
	if err, ok := b.fail[method]; ok {
		delete(b.fail, method)
		return err
	}
	return nil
}

func (b *RecordingBackend) view(h int) (*FakeView, error) {
	v, ok := b.views[h]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownHandle, h)
	}
	return v, nil
}

// Create implements nvtree.Backend.
func (b *RecordingBackend) Create(p native.Payload) (int, error) {
	if err := b.injected("Create"); err != nil {
		return 0, err
	}
	b.next++
	b.views[b.next] = &FakeView{Payload: p}
	b.calls = append(b.calls, Call{Method: "Create", Handle: b.next, Payload: p})
	return b.next, nil
}

// Update implements nvtree.Backend.
func (b *RecordingBackend) Update(h int, p native.Payload) error {
	if err := b.injected("Update"); err != nil {
		return err
	}
	v, err := b.view(h)
	if err != nil {
		return err
	}
	v.Payload = p
	b.calls = append(b.calls, Call{Method: "Update", Handle: h, Payload: p})
	return nil
}

// Replace implements nvtree.Replacer.
func (b *RecordingBackend) Replace(h int, p native.Payload) error {
	if err := b.injected("Replace"); err != nil {
		return err
	}
	v, err := b.view(h)
	if err != nil {
		return err
	}
	v.Payload = p
	v.Children = nil
	b.calls = append(b.calls, Call{Method: "Replace", Handle: h, Payload: p})
	return nil
}

// SetChildren implements nvtree.Backend.
func (b *RecordingBackend) SetChildren(h, offset, length int, children []int) error {
	if err := b.injected("SetChildren"); err != nil {
		return err
	}
	v, err := b.view(h)
	if err != nil {
		return err
	}
	if offset < 0 || length < 0 || offset+length > len(v.Children) {
		return fmt.Errorf("region [%d, %d) outside %d children", offset, offset+length, len(v.Children))
	}
	for _, c := range children {
		if _, err := b.view(c); err != nil {
			return err
		}
	}
	v.Children = slices.Replace(v.Children, offset, offset+length, children...)
	b.calls = append(b.calls, Call{
		Method:   "SetChildren",
		Handle:   h,
		Offset:   offset,
		Length:   length,
		Children: slices.Clone(children),
	})
	return nil
}

// SetRoot implements nvtree.Backend.
func (b *RecordingBackend) SetRoot(h int) error {
	if err := b.injected("SetRoot"); err != nil {
		return err
	}
	if _, err := b.view(h); err != nil {
		return err
	}
	b.root = h
	b.calls = append(b.calls, Call{Method: "SetRoot", Handle: h})
	return nil
}

// Remove implements nvtree.Backend.
func (b *RecordingBackend) Remove(h int) error {
	if err := b.injected("Remove"); err != nil {
		return err
	}
	if _, err := b.view(h); err != nil {
		return err
	}
	delete(b.views, h)
	for _, v := range b.views {
		v.Children = slices.DeleteFunc(v.Children, func(c int) bool { return c == h })
	}
	if b.root == h {
		b.root = 0
	}
	b.calls = append(b.calls, Call{Method: "Remove", Handle: h})
	return nil
}

// Poll implements nvtree.Backend. It returns queued events in order.
func (b *RecordingBackend) Poll() (*events.Raw, error) {
	if err := b.injected("Poll"); err != nil {
		return nil, err
	}
	if len(b.queue) == 0 {
		return nil, nil
	}
	raw := b.queue[0]
	b.queue = b.queue[1:]
	return &raw, nil
}

// Push queues a raw event for Poll.
func (b *RecordingBackend) Push(raw events.Raw) {
	b.queue = append(b.queue, raw)
}

// Calls returns the recorded calls.
func (b *RecordingBackend) Calls() []Call {
	return b.calls
}

// Methods returns the names of the recorded calls in order.
func (b *RecordingBackend) Methods() []string {
	out := make([]string, len(b.calls))
	for i, c := range b.calls {
		out[i] = c.Method
	}
	return out
}

// Reset forgets the recorded calls but keeps the views.
func (b *RecordingBackend) Reset() {
	b.calls = nil
}

// View returns the live view for h.
func (b *RecordingBackend) View(h int) (FakeView, bool) {
	v, ok := b.views[h]
	if !ok {
		return FakeView{}, false
	}
	return FakeView{Payload: v.Payload, Children: slices.Clone(v.Children)}, true
}

// Live returns the number of live handles.
func (b *RecordingBackend) Live() int {
	return len(b.views)
}

// RootHandle returns the visible root handle, or 0.
func (b *RecordingBackend) RootHandle() int {
	return b.root
}

// WithoutReplace hides the backend's Replace method.
func WithoutReplace(b *RecordingBackend) *PlainBackend {
	return &PlainBackend{b: b}
}

// PlainBackend forwards to a RecordingBackend but does not implement
// nvtree.Replacer.
type PlainBackend struct {
	b *RecordingBackend
}

func (p *PlainBackend) Create(payload native.Payload) (int, error) { return p.b.Create(payload) }
func (p *PlainBackend) Update(h int, payload native.Payload) error { return p.b.Update(h, payload) }
func (p *PlainBackend) SetChildren(h, offset, length int, children []int) error {
	return p.b.SetChildren(h, offset, length, children)
}
func (p *PlainBackend) SetRoot(h int) error         { return p.b.SetRoot(h) }
func (p *PlainBackend) Remove(h int) error          { return p.b.Remove(h) }
func (p *PlainBackend) Poll() (*events.Raw, error) { return p.b.Poll() }
