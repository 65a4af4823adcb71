// Package native describes what a backend is asked to draw: one payload
// struct per renderable kind, plus the geometry and color types they use.
package native

import (
	"encoding/json"
	"fmt"

	"github.com/go-drift/sprig/pkg/events"
)

// Kind identifies a renderable payload variant.
type Kind uint8

const (
	KindLayer Kind = iota + 1
	KindText
	KindTextField
	KindSurface
	KindVisualEffect
)

var kindNames = map[Kind]string{
	KindLayer:        "layer",
	KindText:         "text",
	KindTextField:    "text-field",
	KindSurface:      "surface",
	KindVisualEffect: "visual-effect",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("invalid payload kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(data []byte) error {
	for kind, name := range kindNames {
		if name == string(data) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown payload kind %q", data)
}

// Payload is the data a backend needs to create or update one native
// view. The set of implementations is closed.
type Payload interface {
	Kind() Kind
	isPayload()
}

// Layer is a rectangular container with optional background, border and
// event handlers. Handlers lists the event types the view handles; the
// handlers themselves stay on the reconciler side.
type Layer struct {
	Bounds       Rect        `json:"bounds"`
	Background   Color       `json:"background"`
	CornerRadius float64     `json:"cornerRadius,omitempty"`
	BorderWidth  float64     `json:"borderWidth,omitempty"`
	BorderColor  Color       `json:"borderColor"`
	ClipContents bool        `json:"clipContents,omitempty"`
	Transform    Affine      `json:"transform"`
	Opacity      float64     `json:"opacity"`
	Handlers     events.Mask `json:"handlers,omitempty"`
}

// Text is a run of static text.
type Text struct {
	Bounds   Rect    `json:"bounds"`
	Text     string  `json:"text"`
	Color    Color   `json:"color"`
	FontSize float64 `json:"fontSize,omitempty"`
}

// TextField is an editable single-line text input.
type TextField struct {
	Bounds      Rect   `json:"bounds"`
	Value       string `json:"value"`
	Placeholder string `json:"placeholder,omitempty"`
	Secure      bool   `json:"secure,omitempty"`
}

// Surface is a region whose pixels are produced outside the view tree,
// for example by a video decoder or a GPU context.
type Surface struct {
	Bounds Rect   `json:"bounds"`
	Source string `json:"source"`
}

// Material selects the backdrop of a VisualEffect.
type Material uint8

const (
	MaterialDefault Material = iota
	MaterialLight
	MaterialDark
	MaterialSidebar
	MaterialPopover
)

var materialNames = [...]string{"default", "light", "dark", "sidebar", "popover"}

func (m Material) String() string {
	if int(m) < len(materialNames) {
		return materialNames[m]
	}
	return fmt.Sprintf("Material(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Material) MarshalText() ([]byte, error) {
	if int(m) >= len(materialNames) {
		return nil, fmt.Errorf("invalid material %d", uint8(m))
	}
	return []byte(materialNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Material) UnmarshalText(data []byte) error {
	for i, name := range materialNames {
		if name == string(data) {
			*m = Material(i)
			return nil
		}
	}
	return fmt.Errorf("unknown material %q", data)
}

// VisualEffect blurs or tints whatever lies behind it and may hold
// children.
type VisualEffect struct {
	Bounds   Rect     `json:"bounds"`
	Material Material `json:"material"`
}

func (Layer) Kind() Kind        { return KindLayer }
func (Text) Kind() Kind         { return KindText }
func (TextField) Kind() Kind    { return KindTextField }
func (Surface) Kind() Kind      { return KindSurface }
func (VisualEffect) Kind() Kind { return KindVisualEffect }

func (Layer) isPayload()        {}
func (Text) isPayload()         {}
func (TextField) isPayload()    {}
func (Surface) isPayload()      {}
func (VisualEffect) isPayload() {}

// Equal reports whether a and b describe the same native view content.
func Equal(a, b Payload) bool {
	return a == b
}

type envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Marshal encodes p together with its kind.
func Marshal(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: p.Kind(), Data: data})
}

// Unmarshal decodes a payload written by Marshal. JSON null yields a nil
// payload.
func Unmarshal(data []byte) (Payload, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	var p Payload
	var err error
	switch env.Kind {
	case KindLayer:
		var v Layer
		err = json.Unmarshal(env.Data, &v)
		p = v
	case KindText:
		var v Text
		err = json.Unmarshal(env.Data, &v)
		p = v
	case KindTextField:
		var v TextField
		err = json.Unmarshal(env.Data, &v)
		p = v
	case KindSurface:
		var v Surface
		err = json.Unmarshal(env.Data, &v)
		p = v
	case KindVisualEffect:
		var v VisualEffect
		err = json.Unmarshal(env.Data, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown payload kind %d", uint8(env.Kind))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Kind, err)
	}
	return p, nil
}
