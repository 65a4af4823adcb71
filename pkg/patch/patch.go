// Package patch defines the instructions the reconciler emits for the
// native tree applier and the ordered queue that carries them.
package patch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-drift/sprig/pkg/native"
	"github.com/go-drift/sprig/pkg/node"
)

// Op identifies a patch operation.
type Op uint8

const (
	// OpSetRoot designates a node as the visible root.
	OpSetRoot Op = iota + 1
	// OpUpdate updates a native view, creating it if it does not exist.
	OpUpdate
	// OpReplace swaps a native view for one of a different kind, dropping
	// its descendants.
	OpReplace
	// OpRegion replaces a window of a node's child list.
	OpRegion
	// OpRemove removes a native view and its descendants.
	OpRemove
)

var opNames = map[Op]string{
	OpSetRoot: "set-root",
	OpUpdate:  "update",
	OpReplace: "replace",
	OpRegion:  "region",
	OpRemove:  "remove",
}

// Ops lists every operation.
var Ops = []Op{OpSetRoot, OpUpdate, OpReplace, OpRegion, OpRemove}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Op) MarshalText() ([]byte, error) {
	if _, ok := opNames[o]; !ok {
		return nil, fmt.Errorf("invalid patch op %d", uint8(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Op) UnmarshalText(data []byte) error {
	for op, name := range opNames {
		if name == string(data) {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("unknown patch op %q", data)
}

// Patch is one instruction for the applier. Which fields are meaningful
// depends on Op:
//
//	OpSetRoot  ID
//	OpUpdate   ID, Payload
//	OpReplace  ID, Payload
//	OpRegion   ID, Offset, Length, Children
//	OpRemove   ID
type Patch struct {
	Op       Op
	ID       node.ID
	Payload  native.Payload
	Offset   int
	Length   int
	Children []node.ID
}

// SetRoot returns a patch designating id as the visible root.
func SetRoot(id node.ID) Patch {
	return Patch{Op: OpSetRoot, ID: id}
}

// Update returns an update-or-create patch.
func Update(id node.ID, p native.Payload) Patch {
	return Patch{Op: OpUpdate, ID: id, Payload: p}
}

// Replace returns a patch replacing id's native view with p.
func Replace(id node.ID, p native.Payload) Patch {
	return Patch{Op: OpReplace, ID: id, Payload: p}
}

// Region returns a patch replacing children [offset, offset+length) of id
// with children.
func Region(id node.ID, offset, length int, children []node.ID) Patch {
	return Patch{Op: OpRegion, ID: id, Offset: offset, Length: length, Children: children}
}

// Remove returns a patch removing id and its descendants.
func Remove(id node.ID) Patch {
	return Patch{Op: OpRemove, ID: id}
}

func (p Patch) String() string {
	switch p.Op {
	case OpUpdate, OpReplace:
		kind := "nil"
		if p.Payload != nil {
			kind = p.Payload.Kind().String()
		}
		return fmt.Sprintf("%s %s %s", p.Op, p.ID.Short(), kind)
	case OpRegion:
		ids := make([]string, len(p.Children))
		for i, c := range p.Children {
			ids[i] = c.Short()
		}
		return fmt.Sprintf("%s %s [%d+%d] <- [%s]", p.Op, p.ID.Short(), p.Offset, p.Length, strings.Join(ids, " "))
	default:
		return fmt.Sprintf("%s %s", p.Op, p.ID.Short())
	}
}

type wirePatch struct {
	Op       Op              `json:"op"`
	ID       node.ID         `json:"id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Offset   int             `json:"offset,omitempty"`
	Length   int             `json:"length,omitempty"`
	Children []node.ID       `json:"children,omitempty"`
}

// MarshalJSON implements json.Marshaler. The payload is written with its
// kind so it can be decoded without context.
func (p Patch) MarshalJSON() ([]byte, error) {
	w := wirePatch{
		Op:       p.Op,
		ID:       p.ID,
		Offset:   p.Offset,
		Length:   p.Length,
		Children: p.Children,
	}
	if p.Payload != nil {
		data, err := native.Marshal(p.Payload)
		if err != nil {
			return nil, err
		}
		w.Payload = data
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var w wirePatch
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Patch{
		Op:       w.Op,
		ID:       w.ID,
		Offset:   w.Offset,
		Length:   w.Length,
		Children: w.Children,
	}
	if len(w.Payload) > 0 {
		payload, err := native.Unmarshal(w.Payload)
		if err != nil {
			return err
		}
		p.Payload = payload
	}
	return nil
}
