package observability

import (
	"context"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "turing"

// Metrics holds the engine collectors.
type Metrics struct {
	Steps          prometheus.Counter
	Runs           *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	ParseErrors    prometheus.Counter
	MalformedLines prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total number of transitions applied.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run from first step to halt.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Rule texts rejected by the parser.",
		}),
		MalformedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_lines_total",
			Help:      "Individual rule lines rejected by the parser.",
		}),
	}

	for _, c := range []prometheus.Collector{m.Steps, m.Runs, m.RunDuration, m.ParseErrors, m.MalformedLines} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			m.Steps.Inc()
		},
		OnHalt: func(ctx context.Context, e *domain.HaltEvent) {
			m.Runs.WithLabelValues(string(e.Outcome)).Inc()
			m.RunDuration.Observe(e.Duration.Seconds())
		},
		OnParseError: func(ctx context.Context, e *domain.ParseErrorEvent) {
			m.ParseErrors.Inc()
			m.MalformedLines.Add(float64(e.Lines))
		},
	}
}
