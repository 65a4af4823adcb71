package core

import (
	"reflect"
)

// View is an immutable description of one virtual view. Views are cheap
// to construct and are rebuilt on every render; identity lives in the
// Tree, not in the view value.
type View interface {
	// Body returns the view's content given its persistent state. It is
	// only called after the state for this node exists.
	Body(state State) View
	// Equal reports whether other describes the same properties. It must
	// return false when other is a different kind of view.
	Equal(other View) bool
	// Key returns the optional list key used to match siblings.
	Key() Key
}

// StatefulView is implemented by views that own persistent state.
// CreateState is called once when the node first appears, or when it is
// replaced by a view of a different kind.
type StatefulView interface {
	View
	CreateState() State
}

// ContextProvider is implemented by views that change the context their
// descendants inherit. SubviewContext receives the node's state and the
// value the node itself inherited, and returns the value for everything
// below it. Views that do not implement it pass their context through.
//
// The context is whatever the application puts at the root with
// WithContext: a theme or a locale. States read it
// through StateBase.Context.
type ContextProvider interface {
	SubviewContext(state State, inherited any) any
}

// KindChecker refines the kind comparison of views that share a Go type,
// such as the generic views returned by Compose.
type KindChecker interface {
	SameKind(other View) bool
}

// KindOf returns the kind tag of v.
func KindOf(v View) reflect.Type {
	return reflect.TypeOf(v)
}

// SameKind reports whether a and b are the same kind of view. Nodes keep
// their state across renders only while their kind stays the same.
func SameKind(a, b View) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if KindOf(a) != KindOf(b) {
		return false
	}
	if checker, ok := a.(KindChecker); ok {
		return checker.SameKind(b)
	}
	return true
}

// EqualAs implements View.Equal for views whose fields are all comparable:
//
//	func (v Label) Equal(other core.View) bool { return core.EqualAs(v, other) }
func EqualAs[T comparable](v T, other View) bool {
	o, ok := other.(T)
	return ok && o == v
}

// Key is an optional list key. The zero value is NoKey.
type Key struct {
	value uint64
	set   bool
}

// NoKey is the absent key.
var NoKey Key

// KeyOf returns the key n.
func KeyOf(n uint64) Key {
	return Key{value: n, set: true}
}

// Value returns the key and whether one is set.
func (k Key) Value() (uint64, bool) {
	return k.value, k.set
}

// ViewBase provides Key for views that embed it. Set ListKey to
// distinguish siblings whose order may change.
type ViewBase struct {
	ListKey Key
}

// Key returns ListKey.
func (b ViewBase) Key() Key {
	return b.ListKey
}

// Empty is a view with no content. It is never renderable and its body is
// never evaluated.
type Empty struct{}

func (Empty) Body(State) View       { return Empty{} }
func (Empty) Equal(other View) bool { return EqualAs(Empty{}, other) }
func (Empty) Key() Key              { return NoKey }

// Fragment is an ordered list of views that expands in place into its
// parent's children. It is never renderable.
type Fragment []View

// Body returns the fragment itself; the tree expands it into children.
func (f Fragment) Body(State) View { return f }

// Equal compares element-wise.
func (f Fragment) Equal(other View) bool {
	o, ok := other.(Fragment)
	if !ok || len(o) != len(f) {
		return false
	}
	for i := range f {
		if !viewsEqual(f[i], o[i]) {
			return false
		}
	}
	return true
}

func (Fragment) Key() Key { return NoKey }

// Group is shorthand for Fragment{views...}.
func Group(views ...View) Fragment {
	return Fragment(views)
}

func viewsEqual(a, b View) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return SameKind(a, b) && a.Equal(b)
}

// children normalizes a body into the ordered list of child views: nil
// and Empty yield none, a Fragment yields its elements, anything else
// yields itself.
func children(body View) []View {
	switch b := body.(type) {
	case nil:
		return nil
	case Empty:
		return nil
	case Fragment:
		if !slicesContainsNil(b) {
			return b
		}
		out := make([]View, 0, len(b))
		for _, v := range b {
			if v != nil {
				out = append(out, v)
			}
		}
		return out
	default:
		return []View{body}
	}
}

func slicesContainsNil(views []View) bool {
	for _, v := range views {
		if v == nil {
			return true
		}
	}
	return false
}
