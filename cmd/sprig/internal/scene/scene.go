// Package scene reads YAML descriptions of view trees for the sprig CLI.
//
//	root:
//	  layer:
//	    bounds: [0, 0, 320, 480]
//	    background: "#FF202020"
//	    children:
//	      - text: {text: Title, font_size: 20}
//	      - key: 7
//	        component:
//	          name: row
//	          props: first
//	          body:
//	            text: {text: first}
//	      - group:
//	          - text: {text: a}
//	          - text: {text: b}
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/sprig/pkg/core"
	"github.com/go-drift/sprig/pkg/native"
)

// Scene is one parsed file.
type Scene struct {
	Name string `yaml:"name,omitempty"`
	Root *Node  `yaml:"root"`
}

// Node describes one view. Exactly one of the kind fields must be set.
type Node struct {
	Key *uint64 `yaml:"key,omitempty"`

	Layer     *Layer     `yaml:"layer,omitempty"`
	Text      *Text      `yaml:"text,omitempty"`
	TextField *TextField `yaml:"text_field,omitempty"`
	Surface   *Surface   `yaml:"surface,omitempty"`
	Effect    *Effect    `yaml:"effect,omitempty"`
	Group     []*Node    `yaml:"group,omitempty"`
	Component *Component `yaml:"component,omitempty"`
	Empty     bool       `yaml:"empty,omitempty"`
}

// Bounds is [left, top, width, height]. Omitted bounds are empty.
type Bounds []float64

func (b Bounds) rect() native.Rect {
	if len(b) != 4 {
		return native.Rect{}
	}
	return native.RectFromLTWH(b[0], b[1], b[2], b[3])
}

func (b Bounds) validate(path string) error {
	if len(b) != 0 && len(b) != 4 {
		return fmt.Errorf("%s: bounds want 4 numbers, got %d", path, len(b))
	}
	return nil
}

// Layer is a container view. Children are nodes in order.
type Layer struct {
	Bounds       Bounds       `yaml:"bounds"`
	Background   native.Color `yaml:"background"`
	CornerRadius float64      `yaml:"corner_radius"`
	BorderWidth  float64      `yaml:"border_width"`
	BorderColor  native.Color `yaml:"border_color"`
	Clip         bool         `yaml:"clip"`
	Opacity      float64      `yaml:"opacity"`
	Hidden       bool         `yaml:"hidden"`
	Children     []*Node      `yaml:"children"`
}

// Text is a static label.
type Text struct {
	Bounds   Bounds       `yaml:"bounds"`
	Text     string       `yaml:"text"`
	Color    native.Color `yaml:"color"`
	FontSize float64      `yaml:"font_size"`
}

// TextField is an editable text input. Secure hides the value.
type TextField struct {
	Bounds      Bounds `yaml:"bounds"`
	Value       string `yaml:"value"`
	Placeholder string `yaml:"placeholder"`
	Secure      bool   `yaml:"secure"`
}

// Surface is a view backed by external content, named by Source.
type Surface struct {
	Bounds Bounds `yaml:"bounds"`
	Source string `yaml:"source"`
}

// Effect is a blurred backdrop of the given material with children on top.
type Effect struct {
	Bounds   Bounds          `yaml:"bounds"`
	Material native.Material `yaml:"material"`
	Children []*Node         `yaml:"children"`
}

// Component is a named composite. Nodes with the same name keep their
// identity across scenes; a different props string counts as a change.
type Component struct {
	Name  string `yaml:"name"`
	Props string `yaml:"props"`
	Body  *Node  `yaml:"body"`
}

// Load reads and parses a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Parse parses scene YAML. Unknown fields are errors.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	if s.Root == nil {
		return nil, errors.New("scene has no root")
	}
	if err := s.Root.validate("root"); err != nil {
		return nil, err
	}
	return &s, nil
}

func (n *Node) validate(path string) error {
	if n == nil {
		return fmt.Errorf("%s: empty node", path)
	}
	kinds := 0
	for _, set := range []bool{
		n.Layer != nil, n.Text != nil, n.TextField != nil, n.Surface != nil,
		n.Effect != nil, n.Group != nil, n.Component != nil, n.Empty,
	} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return fmt.Errorf("%s: want exactly one view kind, got %d", path, kinds)
	}
	if n.Key != nil && (n.Group != nil || n.Empty) {
		return fmt.Errorf("%s: groups and empty views cannot carry a key", path)
	}

	var children []*Node
	var bounds Bounds
	switch {
	case n.Layer != nil:
		children, bounds = n.Layer.Children, n.Layer.Bounds
	case n.Text != nil:
		bounds = n.Text.Bounds
	case n.TextField != nil:
		bounds = n.TextField.Bounds
	case n.Surface != nil:
		bounds = n.Surface.Bounds
	case n.Effect != nil:
		children, bounds = n.Effect.Children, n.Effect.Bounds
	case n.Group != nil:
		children = n.Group
	case n.Component != nil:
		if n.Component.Name == "" {
			return fmt.Errorf("%s: component needs a name", path)
		}
		if n.Component.Body != nil {
			return n.Component.Body.validate(path + ".body")
		}
	}
	if err := bounds.validate(path); err != nil {
		return err
	}
	for i, c := range children {
		if err := c.validate(fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// View builds the scene's root view.
func (s *Scene) View() core.View {
	return s.Root.View()
}

// View builds the view n describes.
func (n *Node) View() core.View {
	base := core.ViewBase{}
	if n.Key != nil {
		base.ListKey = core.KeyOf(*n.Key)
	}
	switch {
	case n.Layer != nil:
		l := n.Layer
		return core.Layer{
			ViewBase:     base,
			Bounds:       l.Bounds.rect(),
			Background:   l.Background,
			CornerRadius: l.CornerRadius,
			BorderWidth:  l.BorderWidth,
			BorderColor:  l.BorderColor,
			ClipContents: l.Clip,
			Opacity:      l.Opacity,
			Hidden:       l.Hidden,
			Children:     views(l.Children),
		}
	case n.Text != nil:
		t := n.Text
		return core.Text{ViewBase: base, Bounds: t.Bounds.rect(), Text: t.Text, Color: t.Color, FontSize: t.FontSize}
	case n.TextField != nil:
		t := n.TextField
		return core.TextField{ViewBase: base, Bounds: t.Bounds.rect(), Value: t.Value, Placeholder: t.Placeholder, Secure: t.Secure}
	case n.Surface != nil:
		return core.Surface{ViewBase: base, Bounds: n.Surface.Bounds.rect(), Source: n.Surface.Source}
	case n.Effect != nil:
		e := n.Effect
		return core.VisualEffect{ViewBase: base, Bounds: e.Bounds.rect(), Material: e.Material, Children: views(e.Children)}
	case n.Group != nil:
		return views(n.Group)
	case n.Component != nil:
		body := n.Component.Body
		c := core.Compose(n.Component.Name, n.Component.Props, func(string) core.View {
			if body == nil {
				return nil
			}
			return body.View()
		})
		if n.Key != nil {
			c = c.WithKey(*n.Key)
		}
		return c
	default:
		return core.Empty{}
	}
}

func views(nodes []*Node) core.Fragment {
	out := make(core.Fragment, len(nodes))
	for i, n := range nodes {
		out[i] = n.View()
	}
	return out
}
