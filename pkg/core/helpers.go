package core

// Compose declares a composite view inline from a name, comparable props
// and a body function:
//
//	func Greeting(name string) core.View {
//	    return core.Compose("greeting", name, func(name string) core.View {
//	        return core.Text{Text: "Hello, " + name}
//	    })
//	}
//
// Two composites are the same kind when their names and prop types match.
// They are equal when their props are equal; the body function is not
// compared.
func Compose[P comparable](name string, props P, body func(props P) View) Composite[P] {
	return Composite[P]{name: name, props: props, body: body}
}

// Composite is the view returned by Compose.
type Composite[P comparable] struct {
	name  string
	props P
	body  func(P) View
	key   Key
}

// WithKey returns a copy of c carrying a list key.
func (c Composite[P]) WithKey(key uint64) Composite[P] {
	c.key = KeyOf(key)
	return c
}

// Name returns the name given to Compose.
func (c Composite[P]) Name() string { return c.name }

// Props returns the props given to Compose.
func (c Composite[P]) Props() P { return c.props }

func (c Composite[P]) Body(State) View {
	if c.body == nil {
		return nil
	}
	return c.body(c.props)
}

func (c Composite[P]) Equal(other View) bool {
	o, ok := other.(Composite[P])
	return ok && o.name == c.name && o.props == c.props
}

func (c Composite[P]) Key() Key { return c.key }

func (c Composite[P]) SameKind(other View) bool {
	o, ok := other.(Composite[P])
	return ok && o.name == c.name
}

// Stateful declares a stateful composite view inline using closures. Use
// this for small self-contained views that don't need lifecycle hooks.
//
//	counter := core.Stateful("counter", label,
//	    func(string) int { return 0 },
//	    func(label string, count int, setState func(func(int) int)) core.View {
//	        return core.Layer{
//	            OnPointer: func(ev events.Pointer) {
//	                if ev.Phase == events.PointerUp {
//	                    setState(func(c int) int { return c + 1 })
//	                }
//	            },
//	            Children: core.Group(core.Text{Text: fmt.Sprintf("%s: %d", label, count)}),
//	        }
//	    },
//	)
//
// init runs once when the node appears. setState transforms the current
// value and requests a render.
//
// For views with many state fields or lifecycle hooks, implement
// [StatefulView] with a state that embeds [StateBase] instead.
func Stateful[P comparable, S any](
	name string,
	props P,
	init func(props P) S,
	body func(props P, state S, setState func(func(S) S)) View,
) StatefulComposite[P, S] {
	return StatefulComposite[P, S]{name: name, props: props, init: init, body: body}
}

// StatefulComposite is the view returned by Stateful.
type StatefulComposite[P comparable, S any] struct {
	name  string
	props P
	init  func(P) S
	body  func(P, S, func(func(S) S)) View
	key   Key
}

// WithKey returns a copy of c carrying a list key.
func (c StatefulComposite[P, S]) WithKey(key uint64) StatefulComposite[P, S] {
	c.key = KeyOf(key)
	return c
}

func (c StatefulComposite[P, S]) CreateState() State {
	s := &inlineState[S]{}
	if c.init != nil {
		s.value = c.init(c.props)
	}
	return s
}

func (c StatefulComposite[P, S]) Body(state State) View {
	s := state.(*inlineState[S])
	if c.body == nil {
		return nil
	}
	return c.body(c.props, s.value, s.update)
}

func (c StatefulComposite[P, S]) Equal(other View) bool {
	o, ok := other.(StatefulComposite[P, S])
	return ok && o.name == c.name && o.props == c.props
}

func (c StatefulComposite[P, S]) Key() Key { return c.key }

func (c StatefulComposite[P, S]) SameKind(other View) bool {
	o, ok := other.(StatefulComposite[P, S])
	return ok && o.name == c.name
}

type inlineState[S any] struct {
	StateBase
	value S
}

func (s *inlineState[S]) update(fn func(S) S) {
	s.SetState(func() {
		s.value = fn(s.value)
	})
}
