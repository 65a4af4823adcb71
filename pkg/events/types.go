// Package events defines the typed input events delivered to views, the
// handler registry keyed by node identity, and the inbox that carries raw
// backend events onto the UI goroutine.
package events

import "fmt"

// Type identifies an event type.
type Type uint8

const (
	TypeHover Type = iota
	TypePointer
	TypeKey
	TypeScroll

	typeCount
)

// Types lists every event type in order.
var Types = []Type{TypeHover, TypePointer, TypeKey, TypeScroll}

func (t Type) String() string {
	switch t {
	case TypeHover:
		return "hover"
	case TypePointer:
		return "pointer"
	case TypeKey:
		return "key"
	case TypeScroll:
		return "scroll"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	return t < typeCount
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid event type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(data []byte) error {
	for _, candidate := range Types {
		if candidate.String() == string(data) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", data)
}

// Mask is a set of event types.
type Mask uint8

// MaskOf returns the set containing types.
func MaskOf(types ...Type) Mask {
	var m Mask
	for _, t := range types {
		m = m.With(t)
	}
	return m
}

// Has reports whether t is in the set.
func (m Mask) Has(t Type) bool {
	return m&(1<<t) != 0
}

// With returns the set with t added.
func (m Mask) With(t Type) Mask {
	return m | 1<<t
}

// Event is a typed input event.
type Event interface {
	Type() Type
}

// Handler receives events of one type for one node.
type Handler func(Event)
