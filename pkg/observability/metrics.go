package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arcade/pkg/domain"
)

// Namespace prefixes every metric name.
const Namespace = "arcade"

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	StateVisits   *prometheus.CounterVec
	MacroCalls    *prometheus.CounterVec
	MacroDuration *prometheus.HistogramVec
	NoMatches     *prometheus.CounterVec
	Sessions      prometheus.Counter
	StoreOps      *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StateVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "state_visits_total",
			Help:      "Total number of state visits.",
		}, []string{"state"}),
		MacroCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "macro_calls_total",
			Help:      "Total number of macro calls by outcome.",
		}, []string{"macro", "outcome"}),
		MacroDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "macro_duration_seconds",
			Help:      "Duration of macro calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"macro"}),
		NoMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "no_match_total",
			Help:      "Total number of utterances that matched no transition.",
		}, []string{"state", "fallback"}),
		Sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of sessions started.",
		}),
		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "store_operations_total",
			Help:      "Total number of session store calls by outcome.",
		}, []string{"op", "outcome"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "store_duration_seconds",
			Help:      "Duration of session store calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.StateVisits, m.MacroCalls, m.MacroDuration, m.NoMatches, m.Sessions,
			m.StoreOps, m.StoreDuration)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.StateVisits.WithLabelValues(string(e.StateID)).Inc()
			if e.Initial {
				m.Sessions.Inc()
			}
		},
		OnMacroReturn: func(_ context.Context, e *domain.MacroEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.MacroCalls.WithLabelValues(e.Macro, outcome).Inc()
			m.MacroDuration.WithLabelValues(e.Macro).Observe(e.Duration.Seconds())
		},
		OnNoMatch: func(_ context.Context, e *domain.NoMatchEvent) {
			fallback := "none"
			if e.Fallback != "" {
				fallback = string(e.Fallback)
			}
			m.NoMatches.WithLabelValues(string(e.StateID), fallback).Inc()
		},
	}
}
