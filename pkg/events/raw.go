package events

import (
	"encoding/json"
	"fmt"

	"github.com/go-drift/sprig/pkg/errors"
	"github.com/go-drift/sprig/pkg/node"
)

// Raw is an event as produced by a backend: the target node, the event
// type, and the type-specific body still encoded.
type Raw struct {
	Target node.ID         `json:"target"`
	Type   Type            `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// NewRaw encodes ev for target.
func NewRaw(target node.ID, ev Event) (Raw, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Raw{}, err
	}
	return Raw{Target: target, Type: ev.Type(), Data: data}, nil
}

// Decode returns the typed event carried by raw.
func Decode(raw Raw) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch raw.Type {
	case TypeHover:
		var e Hover
		err = unmarshalData(raw.Data, &e)
		ev = e
	case TypePointer:
		var e Pointer
		err = unmarshalData(raw.Data, &e)
		ev = e
	case TypeKey:
		var e Key
		err = unmarshalData(raw.Data, &e)
		ev = e
	case TypeScroll:
		var e Scroll
		err = unmarshalData(raw.Data, &e)
		ev = e
	default:
		err = fmt.Errorf("unknown event type %d", uint8(raw.Type))
	}
	if err != nil {
		return nil, errors.Decode("events.Decode", raw.Target, err)
	}
	return ev, nil
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
