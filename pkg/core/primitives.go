package core

import (
	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/native"
	"github.com/go-drift/sprig/pkg/node"
)

// renderable is implemented only by the primitive views in this file.
// A renderable view corresponds to exactly one native view.
type renderable interface {
	View
	// payload returns what the backend draws for the node, after
	// registering the view's event handlers for id.
	payload(id node.ID, handlers *events.Registry) native.Payload
}

func isRenderable(v View) bool {
	_, ok := v.(renderable)
	return ok
}

// Layer is a rectangular native container. It is the only primitive that
// receives input events.
type Layer struct {
	ViewBase
	Bounds       native.Rect
	Background   native.Color
	CornerRadius float64
	BorderWidth  float64
	BorderColor  native.Color
	ClipContents bool
	// Transform is applied about the layer origin. The zero value means
	// no transform.
	Transform native.Affine
	// Opacity between 0 and 1. The zero value means fully opaque; set
	// Hidden to make the layer invisible.
	Opacity float64
	Hidden  bool

	Children Fragment

	OnHover   func(events.Hover)
	OnPointer func(events.Pointer)
	OnKey     func(events.Key)
	OnScroll  func(events.Scroll)
}

func (l Layer) Body(State) View { return l.Children }

// Equal compares the layer's own properties and which handlers are set.
// Children are reconciled separately and do not take part.
func (l Layer) Equal(other View) bool {
	o, ok := other.(Layer)
	if !ok {
		return false
	}
	return l.ListKey == o.ListKey &&
		l.Bounds == o.Bounds &&
		l.Background == o.Background &&
		l.CornerRadius == o.CornerRadius &&
		l.BorderWidth == o.BorderWidth &&
		l.BorderColor == o.BorderColor &&
		l.ClipContents == o.ClipContents &&
		l.Transform == o.Transform &&
		l.Opacity == o.Opacity &&
		l.Hidden == o.Hidden &&
		l.handlerMask() == o.handlerMask()
}

func (l Layer) handlerMask() events.Mask {
	var m events.Mask
	if l.OnHover != nil {
		m = m.With(events.TypeHover)
	}
	if l.OnPointer != nil {
		m = m.With(events.TypePointer)
	}
	if l.OnKey != nil {
		m = m.With(events.TypeKey)
	}
	if l.OnScroll != nil {
		m = m.With(events.TypeScroll)
	}
	return m
}

func (l Layer) payload(id node.ID, handlers *events.Registry) native.Payload {
	handlers.Set(id, events.TypeHover, wrapHandler(l.OnHover))
	handlers.Set(id, events.TypePointer, wrapHandler(l.OnPointer))
	handlers.Set(id, events.TypeKey, wrapHandler(l.OnKey))
	handlers.Set(id, events.TypeScroll, wrapHandler(l.OnScroll))

	transform := l.Transform
	if transform.IsZero() {
		transform = native.Identity
	}
	opacity := l.Opacity
	switch {
	case l.Hidden:
		opacity = 0
	case opacity == 0:
		opacity = 1
	}
	return native.Layer{
		Bounds:       l.Bounds,
		Background:   l.Background,
		CornerRadius: l.CornerRadius,
		BorderWidth:  l.BorderWidth,
		BorderColor:  l.BorderColor,
		ClipContents: l.ClipContents,
		Transform:    transform,
		Opacity:      opacity,
		Handlers:     l.handlerMask(),
	}
}

func wrapHandler[E events.Event](fn func(E)) events.Handler {
	if fn == nil {
		return nil
	}
	return func(ev events.Event) {
		if e, ok := ev.(E); ok {
			fn(e)
		}
	}
}

// Text is a run of static text.
type Text struct {
	ViewBase
	Bounds   native.Rect
	Text     string
	Color    native.Color
	FontSize float64
}

func (Text) Body(State) View         { return Empty{} }
func (t Text) Equal(other View) bool { return EqualAs(t, other) }

func (t Text) payload(node.ID, *events.Registry) native.Payload {
	return native.Text{Bounds: t.Bounds, Text: t.Text, Color: t.Color, FontSize: t.FontSize}
}

// TextField is an editable single-line text input.
type TextField struct {
	ViewBase
	Bounds      native.Rect
	Value       string
	Placeholder string
	Secure      bool
}

func (TextField) Body(State) View         { return Empty{} }
func (t TextField) Equal(other View) bool { return EqualAs(t, other) }

func (t TextField) payload(node.ID, *events.Registry) native.Payload {
	return native.TextField{Bounds: t.Bounds, Value: t.Value, Placeholder: t.Placeholder, Secure: t.Secure}
}

// Surface reserves a region whose pixels come from outside the tree, such
// as a video or GPU context identified by Source.
type Surface struct {
	ViewBase
	Bounds native.Rect
	Source string
}

func (Surface) Body(State) View         { return Empty{} }
func (s Surface) Equal(other View) bool { return EqualAs(s, other) }

func (s Surface) payload(node.ID, *events.Registry) native.Payload {
	return native.Surface{Bounds: s.Bounds, Source: s.Source}
}

// VisualEffect blurs or tints what lies behind it. It may hold children.
type VisualEffect struct {
	ViewBase
	Bounds   native.Rect
	Material native.Material
	Children Fragment
}

func (v VisualEffect) Body(State) View { return v.Children }

// Equal compares the effect's own properties; children do not take part.
func (v VisualEffect) Equal(other View) bool {
	o, ok := other.(VisualEffect)
	return ok && v.ListKey == o.ListKey && v.Bounds == o.Bounds && v.Material == o.Material
}

func (v VisualEffect) payload(node.ID, *events.Registry) native.Payload {
	return native.VisualEffect{Bounds: v.Bounds, Material: v.Material}
}
