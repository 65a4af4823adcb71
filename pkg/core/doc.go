// Package core provides views, persistent state and the reconciler that
// turns successive view trees into patches for the native tree.
//
// # Views
//
// A View is an immutable description of part of the UI. Views are cheap
// values rebuilt on every render. A view's Body describes its content in
// terms of other views; the tree expands bodies until it reaches the
// primitive views (Layer, Text, TextField, Surface, VisualEffect), which
// are the only ones that correspond to native views. Empty has no
// content, and a Fragment expands in place into its parent's children.
//
// Composite views are usually declared with Compose or Stateful:
//
//	func Badge(count int) core.View {
//	    return core.Compose("badge", count, func(count int) core.View {
//	        return core.Layer{
//	            Background: native.ColorRed,
//	            Children:   core.Group(core.Text{Text: strconv.Itoa(count)}),
//	        }
//	    })
//	}
//
// # State
//
// Views implementing StatefulView own a State that lives as long as the
// node. Embed StateBase for no-op hooks and SetState:
//
//	type clockState struct {
//	    core.StateBase
//	    now time.Time
//	}
//
//	func (s *clockState) tick(t time.Time) {
//	    s.SetState(func() { s.now = t })
//	}
//
// # Reconciliation
//
// Tree.Render diffs a root view against the persistent tree. Nodes keep
// their identity and state while their kind stays the same; siblings are
// matched by Key, or by position among unkeyed siblings. The tree emits
// update, replace, remove, region and set-root patches into a
// patch.Queue, which nvtree applies to a backend.
package core
