// Package console is a native backend that prints every call instead of
// drawing, for running scenes from the command line.
package console

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/native"
)

// Backend prints calls to a writer and tracks handles and child lists so
// that malformed calls fail the way a real backend would.
type Backend struct {
	out      io.Writer
	next     int
	views    map[int][]int
	root     int
	Payloads bool
}

// New returns a backend writing to out.
func New(out io.Writer) *Backend {
	return &Backend{out: out, views: make(map[int][]int)}
}

func (b *Backend) printf(format string, args ...any) {
	fmt.Fprintf(b.out, format+"\n", args...)
}

func (b *Backend) describe(p native.Payload) string {
	if p == nil {
		return "nil"
	}
	if !b.Payloads {
		return p.Kind().String()
	}
	data, err := native.Marshal(p)
	if err != nil {
		return p.Kind().String()
	}
	return string(data)
}

func (b *Backend) check(h int) error {
	if _, ok := b.views[h]; !ok {
		return fmt.Errorf("unknown handle %d", h)
	}
	return nil
}

func (b *Backend) Create(p native.Payload) (int, error) {
	b.next++
	b.views[b.next] = nil
	b.printf("create #%d %s", b.next, b.describe(p))
	return b.next, nil
}

func (b *Backend) Update(h int, p native.Payload) error {
	if err := b.check(h); err != nil {
		return err
	}
	b.printf("update #%d %s", h, b.describe(p))
	return nil
}

func (b *Backend) Replace(h int, p native.Payload) error {
	if err := b.check(h); err != nil {
		return err
	}
	b.views[h] = nil
	b.printf("replace #%d %s", h, b.describe(p))
	return nil
}

func (b *Backend) SetChildren(h, offset, length int, children []int) error {
	if err := b.check(h); err != nil {
		return err
	}
	list := b.views[h]
	if offset < 0 || length < 0 || offset+length > len(list) {
		return fmt.Errorf("region [%d, %d) outside %d children of #%d", offset, offset+length, len(list), h)
	}
	for _, c := range children {
		if err := b.check(c); err != nil {
			return err
		}
	}
	b.views[h] = slices.Replace(list, offset, offset+length, children...)
	b.printf("children #%d [%d+%d] <- %s", h, offset, length, handles(children))
	return nil
}

func (b *Backend) SetRoot(h int) error {
	if err := b.check(h); err != nil {
		return err
	}
	b.root = h
	b.printf("root #%d", h)
	return nil
}

func (b *Backend) Remove(h int) error {
	if err := b.check(h); err != nil {
		return err
	}
	delete(b.views, h)
	for v, list := range b.views {
		b.views[v] = slices.DeleteFunc(list, func(c int) bool { return c == h })
	}
	if b.root == h {
		b.root = 0
	}
	b.printf("remove #%d", h)
	return nil
}

// Poll never has events; the console has no input.
func (b *Backend) Poll() (*events.Raw, error) {
	return nil, nil
}

// Live returns the number of live handles.
func (b *Backend) Live() int {
	return len(b.views)
}

// Tree renders the live hierarchy under the root as an indented outline.
func (b *Backend) Tree() string {
	if b.root == 0 {
		return "(empty)\n"
	}
	var sb strings.Builder
	var walk func(h, depth int)
	walk = func(h, depth int) {
		fmt.Fprintf(&sb, "%s#%d\n", strings.Repeat("  ", depth), h)
		for _, c := range b.views[h] {
			walk(c, depth+1)
		}
	}
	walk(b.root, 0)
	return sb.String()
}

func handles(hs []int) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = fmt.Sprintf("#%d", h)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
