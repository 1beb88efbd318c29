// Package health runs readiness checks against the item store's backends
// and folds them into one report.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a backend
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a single check
type CheckResult struct {
	Name     string         `json:"name"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration time.Duration  `json:"duration"`
	Details  map[string]any `json:"details,omitempty"`
}

// Checker is implemented by every check
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &namedCheck{name: name, fn: fn}
}

func (c *namedCheck) Name() string { return c.name }

func (c *namedCheck) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// Registry runs a set of checkers concurrently
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	service  string
	version  string
}

// NewRegistry creates an empty registry
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		service:  service,
		version:  version,
	}
}

// Register adds a checker, replacing one with the same name
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// Check runs all checks. Results are sorted by name; the overall status is the
// worst individual status.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checkers := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		checkers = append(checkers, c)
	}
	r.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			if result.Name == "" {
				result.Name = c.Name()
			}
			results[i] = result
		}(i, checker)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	overall := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}

	return &Report{
		Service: r.service,
		Version: r.version,
		Status:  overall,
		Checks:  results,
	}
}

// Report is the combined result of all checks
type Report struct {
	Service string        `json:"service"`
	Version string        `json:"version"`
	Status  Status        `json:"status"`
	Checks  []CheckResult `json:"checks"`
}

// String returns a one-line summary
func (r *Report) String() string {
	return fmt.Sprintf("Service: %s, Status: %s, Checks: %d", r.Service, r.Status, len(r.Checks))
}

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingCheck reports unhealthy when the ping fails and degraded when it takes
// longer than slow. A zero slow threshold disables the degraded state.
func PingCheck(name string, p Pinger, slow time.Duration) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		start := time.Now()
		err := p.PingContext(ctx)
		elapsed := time.Since(start)

		result := CheckResult{
			Name:    name,
			Status:  StatusHealthy,
			Message: "reachable",
			Details: map[string]any{"latency_ms": elapsed.Milliseconds()},
		}
		switch {
		case err != nil:
			result.Status = StatusUnhealthy
			result.Message = err.Error()
		case slow > 0 && elapsed > slow:
			result.Status = StatusDegraded
			result.Message = fmt.Sprintf("slow ping (%s)", elapsed.Round(time.Millisecond))
		}
		return result
	})
}
