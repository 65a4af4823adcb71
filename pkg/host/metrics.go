package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/go-drift/sprig/pkg/patch"
)

type metrics struct {
	patches       *prometheus.CounterVec
	frameDuration prometheus.Histogram
	treeNodes     prometheus.Gauge
	frameErrors   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, namespace, app string) *metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{}
	if app != "" {
		labels["app"] = app
	}
	m := &metrics{
		patches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "patches_total",
			Help:        "Patches applied to the native tree, by operation.",
			ConstLabels: labels,
		}, []string{"op"}),
		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "frame_duration_seconds",
			Help:        "Time spent in one host frame.",
			ConstLabels: labels,
			Buckets:     []float64{.0005, .001, .002, .004, .008, .016, .033, .066, .1},
		}),
		treeNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "tree_nodes",
			Help:        "Live nodes in the view tree.",
			ConstLabels: labels,
		}),
		frameErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "frame_errors_total",
			Help:        "Frames aborted by an error.",
			ConstLabels: labels,
		}),
	}
	// Every op series exists from the first scrape.
	for _, op := range patch.Ops {
		m.patches.WithLabelValues(op.String())
	}
	return m
}
