package sharederr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced by the research core. Components
// wrap one of these so callers can classify a failure with errors.Is while
// still getting a human-readable message.
var (
	ErrInputInvalid           = errors.New("input invalid")
	ErrEnrichmentGateFailed   = errors.New("enrichment gate failed")
	ErrBudgetExceeded         = errors.New("budget exceeded")
	ErrUnresolvedDependencies = errors.New("unresolved dependencies")
	ErrWorkerTimeout          = errors.New("worker timeout")
	ErrWorkerFailed           = errors.New("worker error")
	ErrAdapterDegraded        = errors.New("adapter degraded")
)

func wrapKind(sentinel error, msg string) error {
	return fmt.Errorf("%s: %w", msg, sentinel)
}

// InputInvalid wraps ErrInputInvalid: malformed ResearchInput fields.
func InputInvalid(msg string) error { return wrapKind(ErrInputInvalid, msg) }

// EnrichmentGateFailed wraps ErrEnrichmentGateFailed: missing/stale enrichment.
func EnrichmentGateFailed(msg string) error { return wrapKind(ErrEnrichmentGateFailed, msg) }

// BudgetExceeded wraps ErrBudgetExceeded: max_web_calls surpassed mid-pipeline.
func BudgetExceeded(msg string) error { return wrapKind(ErrBudgetExceeded, msg) }

// UnresolvedDependencies wraps ErrUnresolvedDependencies: unschedulable graph.
func UnresolvedDependencies(msg string) error { return wrapKind(ErrUnresolvedDependencies, msg) }

// WorkerTimeout wraps ErrWorkerTimeout: a worker exceeded its per-step deadline.
func WorkerTimeout(msg string) error { return wrapKind(ErrWorkerTimeout, msg) }

// WorkerFailed wraps ErrWorkerFailed: an uncaught worker failure.
func WorkerFailed(msg string) error { return wrapKind(ErrWorkerFailed, msg) }

// AdapterDegraded wraps ErrAdapterDegraded: an adapter returned empty/null.
func AdapterDegraded(msg string) error { return wrapKind(ErrAdapterDegraded, msg) }
