package core

// Disposable is a resource released when the node owning it disappears.
type Disposable interface {
	Dispose()
}

// UseResource creates a resource and releases it when the state's node
// disappears.
//
//	func (s *playerState) WillAppear() {
//	    s.decoder = core.UseResource(s, openDecoder)
//	}
func UseResource[R Disposable](s stateBase, create func() R) R {
	resource := create()
	s.state().OnDisappear(resource.Dispose)
	return resource
}

// Managed holds a value and requests a render whenever it changes. It is
// tied to one StateBase.
//
// Managed is NOT thread-safe. It must only be accessed from the UI
// goroutine.
//
//	type counterState struct {
//	    core.StateBase
//	    count *core.Managed[int]
//	}
//
//	func (s *counterState) WillAppear() {
//	    s.count = core.NewManaged(s, 0)
//	}
type Managed[T any] struct {
	base  *StateBase
	value T
}

// NewManaged creates a managed value owned by s.
func NewManaged[T any](s stateBase, initial T) *Managed[T] {
	return &Managed[T]{
		base:  s.state(),
		value: initial,
	}
}

// Value returns the current value.
func (m *Managed[T]) Value() T {
	return m.value
}

// Set replaces the value and requests a render.
func (m *Managed[T]) Set(value T) {
	m.base.SetState(func() { m.value = value })
}

// Update applies transform to the current value and requests a render.
func (m *Managed[T]) Update(transform func(T) T) {
	m.base.SetState(func() { m.value = transform(m.value) })
}
