// Package errors provides structured error handling for the reconciler,
// the native tree applier and the host loop.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/go-drift/sprig/pkg/node"
)

// Kind identifies the category of an error.
type Kind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindNotFound indicates a patch or diff addressed a node that does not exist.
	KindNotFound
	// KindCycle indicates a node would become its own ancestor.
	KindCycle
	// KindBackend indicates a failure reported by the rendering backend.
	KindBackend
	// KindRenderCycle indicates body rendering exceeded the depth bound.
	KindRenderCycle
	// KindRegion indicates a child region outside the stored child list.
	KindRegion
	// KindInvalidRoot indicates the root view does not resolve to one renderable node.
	KindInvalidRoot
	// KindDisconnected indicates every producer of the event inbox has gone away.
	KindDisconnected
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindDecode indicates a raw event could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindCycle:
		return "cycle"
	case KindBackend:
		return "backend"
	case KindRenderCycle:
		return "render-cycle"
	case KindRegion:
		return "region"
	case KindInvalidRoot:
		return "invalid-root"
	case KindDisconnected:
		return "disconnected"
	case KindPanic:
		return "panic"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by TreeError.Is.
var (
	ErrNotFound     = stderrors.New("no such node")
	ErrCycle        = stderrors.New("node would become its own ancestor")
	ErrRenderCycle  = stderrors.New("render depth exceeded")
	ErrRegion       = stderrors.New("child region out of range")
	ErrInvalidRoot  = stderrors.New("root does not resolve to a single renderable node")
	ErrDisconnected = stderrors.New("event producers disconnected")
)

var sentinels = map[Kind]error{
	KindNotFound:     ErrNotFound,
	KindCycle:        ErrCycle,
	KindRenderCycle:  ErrRenderCycle,
	KindRegion:       ErrRegion,
	KindInvalidRoot:  ErrInvalidRoot,
	KindDisconnected: ErrDisconnected,
}

// TreeError is a failure of a reconciler, applier or host operation.
type TreeError struct {
	// Op is the operation that failed (e.g., "nvtree.Apply").
	Op string
	// Kind categorizes the error.
	Kind Kind
	// ID is the node the operation addressed, if any.
	ID node.ID
	// Err is the underlying error. For backend errors it is the backend's
	// error, unchanged.
	Err error
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *TreeError) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if !e.ID.IsNil() {
		return fmt.Sprintf("%s [%s] node=%s: %s", e.Op, e.Kind, e.ID.Short(), msg)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Op, e.Kind, msg)
}

func (e *TreeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *TreeError) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok {
		return s == target
	}
	return false
}

func newError(op string, kind Kind, id node.ID, err error) *TreeError {
	return &TreeError{Op: op, Kind: kind, ID: id, Err: err, Timestamp: time.Now()}
}

// NotFound reports that id does not exist.
func NotFound(op string, id node.ID) *TreeError {
	return newError(op, KindNotFound, id, ErrNotFound)
}

// Cycle reports that id would become its own ancestor.
func Cycle(op string, id node.ID) *TreeError {
	return newError(op, KindCycle, id, ErrCycle)
}

// Backend wraps an error returned by the rendering backend.
func Backend(op string, id node.ID, err error) *TreeError {
	return newError(op, KindBackend, id, err)
}

// RenderCycle reports that rendering id went deeper than limit.
func RenderCycle(op string, id node.ID, limit int) *TreeError {
	return newError(op, KindRenderCycle, id, fmt.Errorf("%w (limit %d)", ErrRenderCycle, limit))
}

// Region reports a child region that does not fit the stored child list.
func Region(op string, id node.ID, offset, length, size int) *TreeError {
	return newError(op, KindRegion, id,
		fmt.Errorf("%w: [%d, %d) of %d children", ErrRegion, offset, offset+length, size))
}

// InvalidRoot reports a root resolving to count renderable nodes.
func InvalidRoot(op string, id node.ID, count int) *TreeError {
	return newError(op, KindInvalidRoot, id, fmt.Errorf("%w (got %d)", ErrInvalidRoot, count))
}

// Disconnected reports that the event inbox lost all of its producers.
func Disconnected(op string) *TreeError {
	return newError(op, KindDisconnected, node.Nil, ErrDisconnected)
}

// Decode wraps a raw event decoding failure.
func Decode(op string, id node.ID, err error) *TreeError {
	return newError(op, KindDecode, id, err)
}

// Panicked wraps a panic recovered while working on id.
func Panicked(op string, id node.ID, p *PanicError) *TreeError {
	return newError(op, KindPanic, id, p)
}

// KindOf returns the Kind of the first TreeError in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var te *TreeError
	if stderrors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.Tree.Render").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the framework.
type ErrorHandler interface {
	// HandleError is called when an operation fails.
	HandleError(err *TreeError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
