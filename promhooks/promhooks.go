// Package promhooks exports bridge hook callbacks as Prometheus metrics.
package promhooks

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/cachebridge"
)

type Hooks struct {
	events    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	misses    prometheus.Counter
	skipped   *prometheus.CounterVec
	decode    prometheus.Counter
	missing   *prometheus.CounterVec
	transport *prometheus.CounterVec
}

var _ cachebridge.Hooks = (*Hooks)(nil)

// New registers the bridge metrics on reg under namespace. Registering twice
// on the same registry returns the registration error.
func New(reg prometheus.Registerer, namespace string) (h *Hooks, err error) {
	if reg == nil {
		return nil, errors.New("promhooks: nil registerer")
	}
	defer func() {
		// promauto panics on duplicate registration
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = errors.New("promhooks: registration failed")
			}
			h = nil
		}
	}()

	f := promauto.With(reg)
	h = &Hooks{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cachebridge",
			Name:      "events_total",
			Help:      "Events processed, by mode and terminal state",
		}, []string{"mode", "state"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cachebridge",
			Name:      "event_duration_seconds",
			Help:      "Time spent on one event including the cache round trip",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"mode"}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cachebridge",
			Name:      "cache_misses_total",
			Help:      "GET events that found no record",
		}),
		skipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cachebridge",
			Name:      "fields_skipped_total",
			Help:      "Configured source fields absent from a decoded record",
		}, []string{"source"}),
		decode: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cachebridge",
			Name:      "decode_failures_total",
			Help:      "Stored records that could not be decoded",
		}),
		missing: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cachebridge",
			Name:      "missing_fields_total",
			Help:      "SET events lacking a configured field",
		}, []string{"field"}),
		transport: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cachebridge",
			Name:      "transport_errors_total",
			Help:      "Provider failures, by mode",
		}, []string{"mode"}),
	}
	return h, nil
}

func (h *Hooks) CacheMiss(string)                  { h.misses.Inc() }
func (h *Hooks) FieldSkipped(_ string, src string) { h.skipped.WithLabelValues(src).Inc() }
func (h *Hooks) DecodeFailed(string, error)        { h.decode.Inc() }
func (h *Hooks) MissingField(_ string, f string)   { h.missing.WithLabelValues(f).Inc() }
func (h *Hooks) TransportError(_ string, m cachebridge.Mode, _ error) {
	h.transport.WithLabelValues(m.String()).Inc()
}

func (h *Hooks) Completed(_ string, m cachebridge.Mode, s cachebridge.State, elapsed time.Duration) {
	h.events.WithLabelValues(m.String(), s.String()).Inc()
	h.duration.WithLabelValues(m.String()).Observe(elapsed.Seconds())
}
