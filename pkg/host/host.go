// Package host drives a view tree against a native backend one frame at a
// time: it collects raw events, dispatches them, re-renders when state
// changed and applies the resulting patches.
//
// A Host and everything it owns run on one goroutine. Other goroutines
// hand events over through a Sender.
package host

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/go-drift/sprig/pkg/config"
	"github.com/go-drift/sprig/pkg/core"
	"github.com/go-drift/sprig/pkg/errors"
	"github.com/go-drift/sprig/pkg/events"
	"github.com/go-drift/sprig/pkg/nvtree"
	"github.com/go-drift/sprig/pkg/patch"
	"github.com/go-drift/sprig/pkg/trace"
)

// ErrClosed is returned by Frame after Close.
var ErrClosed = stderrors.New("host closed")

const tracerName = "github.com/go-drift/sprig/pkg/host"

// FrameStats summarizes one frame.
type FrameStats struct {
	Frame     uint64
	Events    int
	Delivered int
	Rendered  bool
	Patches   int
}

// Host owns a reconciler and an applier bound to one backend.
type Host[H any] struct {
	tree     *core.Tree
	applier  *nvtree.Tree[H]
	inbox    *events.Inbox
	poller   *events.Sender
	build    func() core.View
	recorder *trace.Recorder
	metrics  *metrics
	tracer   oteltrace.Tracer
	timings  *FrameTimings
	log      *logrus.Entry
	wake     chan struct{}
	frame    uint64
	closed   bool
}

type options struct {
	log        *logrus.Entry
	registerer prometheus.Registerer
	namespace  string
	app        string
	provider   oteltrace.TracerProvider
	recorder   *trace.Recorder
	treeOpts   []core.Option
	window     int
}

// Option configures a Host.
type Option func(*options)

// WithLogger sets the entry the host, tree and applier log through.
func WithLogger(entry *logrus.Entry) Option {
	return func(o *options) {
		if entry != nil {
			o.log = entry
		}
	}
}

// WithRegisterer registers the host's metrics with reg. Without it the
// metrics go to a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithNamespace prefixes metric names. The default is "sprig".
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithApp labels metrics and trace frames with an application name.
func WithApp(name string) Option {
	return func(o *options) { o.app = name }
}

// WithTracerProvider sets where frame spans go. The default is the global
// provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) { o.provider = tp }
}

// WithRecorder records every applied patch batch. The caller keeps
// ownership and closes the recorder after the host.
func WithRecorder(r *trace.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithTreeOptions passes options to the reconciler.
func WithTreeOptions(opts ...core.Option) Option {
	return func(o *options) { o.treeOpts = append(o.treeOpts, opts...) }
}

// WithTimingWindow sets how many frame durations Timings keeps.
func WithTimingWindow(n int) Option {
	return func(o *options) { o.window = n }
}

// FromConfig applies a loaded sprig.yaml.
func FromConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.log = logrus.NewEntry(cfg.Logger())
		o.namespace = cfg.Metrics.Namespace
		o.app = cfg.App.Name
		o.treeOpts = append(o.treeOpts, cfg.TreeOptions(o.log)...)
	}
}

// New returns a host that renders build's view into backend. build is
// called on every render; it should return a fresh description of the
// whole UI.
func New[H any](backend nvtree.Backend[H], build func() core.View, opts ...Option) *Host[H] {
	o := options{
		log:       logrus.NewEntry(logrus.StandardLogger()),
		namespace: "sprig",
		window:    120,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registerer == nil {
		o.registerer = prometheus.NewRegistry()
	}
	if o.provider == nil {
		o.provider = otel.GetTracerProvider()
	}
	if build == nil {
		build = func() core.View { return core.Empty{} }
	}

	log := o.log.WithField("component", "host")
	if o.app != "" {
		log = log.WithField("app", o.app)
	}
	treeOpts := append([]core.Option{core.WithLogger(o.log)}, o.treeOpts...)

	inbox := events.NewInbox()
	h := &Host[H]{
		tree:     core.NewTree(treeOpts...),
		applier:  nvtree.New(backend, nvtree.WithLogger(o.log)),
		inbox:    inbox,
		poller:   inbox.NewSender(),
		build:    build,
		recorder: o.recorder,
		metrics:  newMetrics(o.registerer, o.namespace, o.app),
		tracer:   o.provider.Tracer(tracerName),
		timings:  NewFrameTimings(o.window),
		log:      log,
		wake:     make(chan struct{}, 1),
	}
	h.tree.OnNeedsRender = h.signal
	return h
}

// Tree returns the reconciler.
func (h *Host[H]) Tree() *core.Tree { return h.tree }

// Applier returns the native tree applier.
func (h *Host[H]) Applier() *nvtree.Tree[H] { return h.applier }

// Timings returns recent frame durations.
func (h *Host[H]) Timings() *FrameTimings { return h.timings }

// Sender returns a new producer handle for the host's inbox. Senders may
// be used from any goroutine and must be closed when done.
func (h *Host[H]) Sender() *events.Sender {
	return h.inbox.NewSender()
}

// Invalidate forces a render on the next frame.
func (h *Host[H]) Invalidate() {
	h.tree.RequestRender()
}

// Wake returns a channel that receives when a state requested a render.
func (h *Host[H]) Wake() <-chan struct{} {
	return h.wake
}

func (h *Host[H]) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Frame runs one cycle: poll the backend into the inbox, drain and
// dispatch every queued event, render if needed and apply the patches.
// Any error aborts the frame; it is logged, reported and returned.
//
// When a patch fails to apply, the patches before it are recorded and the
// rest of the batch is discarded. The native tree no longer matches the
// reconciler at that point, so the error should end the session.
func (h *Host[H]) Frame(ctx context.Context) (stats FrameStats, err error) {
	if h.closed {
		return stats, ErrClosed
	}
	start := time.Now()
	h.frame++
	stats.Frame = h.frame

	ctx, span := h.tracer.Start(ctx, "sprig.Frame",
		oteltrace.WithAttributes(attribute.Int64("sprig.frame", int64(h.frame))))
	defer span.End()
	defer func() {
		elapsed := time.Since(start)
		h.metrics.frameDuration.Observe(elapsed.Seconds())
		h.metrics.treeNodes.Set(float64(h.tree.Len()))
		h.timings.Add(elapsed)
		span.SetAttributes(
			attribute.Int("sprig.events", stats.Events),
			attribute.Int("sprig.patches", stats.Patches),
			attribute.Bool("sprig.rendered", stats.Rendered),
		)
		if err != nil {
			h.fail(span, err)
			return
		}
		span.SetStatus(codes.Ok, "")
	}()

	if err = h.poll(); err != nil {
		return stats, err
	}
	if stats.Events, err = h.drain(); err != nil {
		return stats, err
	}
	if stats.Delivered, err = h.tree.DispatchEvents(); err != nil {
		return stats, err
	}
	if h.tree.NeedsRender() {
		stats.Rendered = true
		if err = h.tree.Render(h.build()); err != nil {
			return stats, err
		}
	}
	// The render above already answered any wake-up raised during
	// dispatch.
	select {
	case <-h.wake:
	default:
	}
	stats.Patches, err = h.apply(ctx)
	return stats, err
}

func (h *Host[H]) poll() error {
	for {
		raw, err := h.applier.Poll()
		if err != nil {
			return err
		}
		if raw == nil {
			return nil
		}
		h.poller.Send(*raw)
	}
}

// drain moves the inbox backlog into the tree's event queue. Events that
// do not decode, or whose target is gone, are dropped.
func (h *Host[H]) drain() (int, error) {
	return h.inbox.Drain(func(raw events.Raw) error {
		ev, err := events.Decode(raw)
		if err != nil {
			h.log.WithError(err).WithField("target", raw.Target.Short()).Warn("dropping undecodable event")
			return nil
		}
		if err := h.tree.EnqueueEvent(raw.Target, ev); err != nil {
			h.log.WithFields(logrus.Fields{
				"target": raw.Target.Short(),
				"type":   raw.Type.String(),
			}).Debug("dropping event for unknown node")
		}
		return nil
	})
}

// apply applies every queued patch in order and records what was applied.
func (h *Host[H]) apply(ctx context.Context) (int, error) {
	patches := h.tree.Patches().Drain()
	if len(patches) == 0 {
		return 0, nil
	}
	_, span := h.tracer.Start(ctx, "sprig.Apply",
		oteltrace.WithAttributes(attribute.Int("sprig.queued", len(patches))))
	defer span.End()

	applied := len(patches)
	var applyErr error
	for i, p := range patches {
		if err := h.applier.Apply(p); err != nil {
			applied, applyErr = i, err
			break
		}
		h.metrics.patches.WithLabelValues(p.Op.String()).Inc()
	}
	if err := h.record(patches[:applied]); err != nil && applyErr == nil {
		applyErr = err
	}
	if applyErr != nil {
		span.RecordError(applyErr)
		span.SetStatus(codes.Error, applyErr.Error())
	}
	return applied, applyErr
}

func (h *Host[H]) record(patches []patch.Patch) error {
	if h.recorder == nil || len(patches) == 0 {
		return nil
	}
	if _, err := h.recorder.Record(time.Now(), patches); err != nil {
		return fmt.Errorf("record frame %d: %w", h.frame, err)
	}
	return nil
}

func (h *Host[H]) fail(span oteltrace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	h.metrics.frameErrors.Inc()
	h.log.WithError(err).WithField("frame", h.frame).Error("frame aborted")

	var te *errors.TreeError
	if stderrors.As(err, &te) {
		errors.Report(te)
	}
}

// Run calls Frame on every tick and whenever a state requests a render,
// until ctx is done or a frame fails.
func (h *Host[H]) Run(ctx context.Context, tick <-chan time.Time) error {
	if _, err := h.Frame(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		case <-h.wake:
		}
		if _, err := h.Frame(ctx); err != nil {
			return err
		}
	}
}

// Close closes the host's own inbox sender. Frames after Close fail with
// ErrClosed. Senders handed out by Sender must be closed by their owners.
func (h *Host[H]) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.poller.Close()
	return nil
}
