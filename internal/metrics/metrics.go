// Package metrics counts processed records on a private Prometheus registry.
//
// Every run gets its own registry, so counters start at zero and nothing is
// exported to the process-wide default registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	appliedName = "txengine_transactions_applied_total"
	ignoredName = "txengine_transactions_ignored_total"
	skippedName = "txengine_rows_skipped_total"
)

// Metrics holds the run counters.
type Metrics struct {
	registry *prometheus.Registry

	TransactionsApplied *prometheus.CounterVec
	TransactionsIgnored *prometheus.CounterVec
	RowsSkipped         prometheus.Counter
}

// New creates the counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TransactionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: appliedName,
			Help: "Transactions that changed the ledger",
		}, []string{"type"}),

		TransactionsIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: ignoredName,
			Help: "Transactions left as no-ops (locked, insufficient funds, bad dispute target, ...)",
		}, []string{"type", "reason"}),

		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: skippedName,
			Help: "Malformed input rows dropped at ingestion",
		}),
	}
}

// Registry returns the registry the counters live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Applied counts one applied transaction of the given type.
func (m *Metrics) Applied(kind string) {
	m.TransactionsApplied.WithLabelValues(kind).Inc()
}

// Ignored counts one ignored transaction of the given type.
func (m *Metrics) Ignored(kind, reason string) {
	m.TransactionsIgnored.WithLabelValues(kind, reason).Inc()
}

// Skipped counts one malformed input row.
func (m *Metrics) Skipped() {
	m.RowsSkipped.Inc()
}

// Totals is a point-in-time read of the counters, summed over types.
type Totals struct {
	Applied  int
	Ignored  int
	Skipped  int
	ByReason map[string]int
}

// Totals gathers the registry.
func (m *Metrics) Totals() (Totals, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Totals{}, fmt.Errorf("gathering metrics: %w", err)
	}

	t := Totals{ByReason: make(map[string]int)}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			n := int(metric.GetCounter().GetValue())
			switch mf.GetName() {
			case appliedName:
				t.Applied += n
			case skippedName:
				t.Skipped += n
			case ignoredName:
				t.Ignored += n
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == "reason" {
						t.ByReason[lp.GetValue()] += n
					}
				}
			}
		}
	}
	return t, nil
}
