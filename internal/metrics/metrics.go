// Package metrics counts what the transaction boundary and the transaction
// scope do: translated errors, rollbacks and commits.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	mdwerror "github.com/msto63/itemdb/foundation/core/error"
)

// Observer receives boundary and scope events
type Observer interface {
	// Translated is called once per raw failure turned into a domain error
	Translated(operation string, code mdwerror.Code)

	// RolledBack is called after a successful rollback on failure
	RolledBack(operation string)

	// RollbackFailed is called when the rollback itself failed
	RollbackFailed(operation string)

	// Committed is called after a successful commit
	Committed()

	// CommitFailed is called when a commit failed and was rolled back
	CommitFailed()
}

// Nop discards all events
type Nop struct{}

func (Nop) Translated(string, mdwerror.Code) {}
func (Nop) RolledBack(string)                {}
func (Nop) RollbackFailed(string)            {}
func (Nop) Committed()                       {}
func (Nop) CommitFailed()                    {}

// Prometheus counts events with client_golang counters
type Prometheus struct {
	errorsTranslated *prometheus.CounterVec
	rollbacks        *prometheus.CounterVec
	rollbackFailures *prometheus.CounterVec
	commits          prometheus.Counter
	commitFailures   prometheus.Counter
}

// NewPrometheus registers the itemdb counters on reg
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		errorsTranslated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemdb_errors_translated_total",
				Help: "Raw storage failures translated into domain errors by operation and code",
			},
			[]string{"operation", "code"},
		),
		rollbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemdb_rollbacks_total",
				Help: "Transactions rolled back after a failed unit of work",
			},
			[]string{"operation"},
		),
		rollbackFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemdb_rollback_failures_total",
				Help: "Rollbacks that failed themselves",
			},
			[]string{"operation"},
		),
		commits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "itemdb_commits_total",
				Help: "Committed transaction scopes",
			},
		),
		commitFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "itemdb_commit_failures_total",
				Help: "Failed commits that were rolled back",
			},
		),
	}
}

func (p *Prometheus) Translated(operation string, code mdwerror.Code) {
	p.errorsTranslated.WithLabelValues(operation, code.String()).Inc()
}

func (p *Prometheus) RolledBack(operation string) {
	p.rollbacks.WithLabelValues(operation).Inc()
}

func (p *Prometheus) RollbackFailed(operation string) {
	p.rollbackFailures.WithLabelValues(operation).Inc()
}

func (p *Prometheus) Committed() {
	p.commits.Inc()
}

func (p *Prometheus) CommitFailed() {
	p.commitFailures.Inc()
}

// Summary renders every itemdb counter with a non-zero value as one sorted
// line, e.g. `itemdb_rollbacks_total{operation="get_item"} 1`.
func Summary(gatherer prometheus.Gatherer) ([]string, error) {
	families, err := gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "itemdb_") {
			continue
		}
		for _, m := range family.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}

			labels := make([]string, 0, len(m.GetLabel()))
			for _, pair := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", pair.GetName(), pair.GetValue()))
			}

			name := family.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}

	sort.Strings(lines)
	return lines, nil
}
