// Package metrics exposes Prometheus collectors for uploads, publication and sweeps.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalog"

// Metrics groups the catalog collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	uploads        *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
	publications   *prometheus.CounterVec
	sweptObjects   prometheus.Counter
	sweepRuns      *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the instance registered with the global Prometheus registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNew(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNew builds collectors on reg. Collectors already registered with the same
// descriptor are reused; any other registration error panics.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Asset uploads by kind and outcome.",
		}, []string{"kind", "status"}),
		uploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "upload_duration_seconds",
			Help:      "Time spent uploading one asset.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publication",
			Name:      "operations_total",
			Help:      "Publication operations by name and error kind.",
		}, []string{"operation", "result"}),
		sweptObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "deleted_objects_total",
			Help:      "Provisional objects removed by the sweeper.",
		}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "runs_total",
			Help:      "Sweeper runs by outcome.",
		}, []string{"status"}),
	}

	m.uploads = register(reg, m.uploads)
	m.uploadDuration = register(reg, m.uploadDuration)
	m.publications = register(reg, m.publications)
	m.sweptObjects = register(reg, m.sweptObjects)
	m.sweepRuns = register(reg, m.sweepRuns)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveUpload records one upload attempt of the given asset kind.
func (m *Metrics) ObserveUpload(kind string, err error, took time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.uploads.WithLabelValues(kind, status).Inc()
	m.uploadDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// IncPublication counts a finished publication operation; result is "ok" or an error kind.
func (m *Metrics) IncPublication(operation, result string) {
	if m == nil {
		return
	}
	m.publications.WithLabelValues(operation, result).Inc()
}

// ObserveSweep records a sweeper run and the number of objects it deleted.
func (m *Metrics) ObserveSweep(deleted int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.sweepRuns.WithLabelValues(status).Inc()
	m.sweptObjects.Add(float64(deleted))
}
