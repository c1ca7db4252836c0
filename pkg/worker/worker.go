// Package worker implements the Worker Protocol & Telemetry:
// the uniform capability contract every research worker satisfies, and the
// execution envelope the scheduler wraps around each call — per-step
// timeout, status classification, and WorkerRun telemetry recording.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// Result is the normal-completion output of a Worker.
type Result struct {
	Data     interface{}
	Unknowns []model.Unknown
	Errors   []string
	Evidence []model.EvidenceDraft
	WebCalls int
	CostUSD  float64
}

// Worker is a single-purpose asynchronous unit implementing the standard
// result contract. The capability is variant-free: output shape differs per
// worker, but the runtime only ever treats Data as opaque JSON.
type Worker interface {
	// Name is the worker's registry key and the AgentSpec node name.
	Name() string
	// Run executes the worker against the shared Runtime. It may return an
	// error for an uncaught failure (recorded as a failed WorkerRun) or a Result
	// for normal/partial completion.
	Run(ctx context.Context, rt *Runtime) (Result, error)
}

// Runtime bundles what a worker needs to read upstream state: the Job, its
// strategy/assumptions, and the shared context map published by previously
// completed workers. Workers never mutate SharedContext directly — the
// scheduler publishes a worker's Data into it only after the worker
// completes.
type Runtime struct {
	Job           *model.Job
	Property      *model.ResearchProperty
	SharedContext map[string]interface{}
	Assumptions   map[string]interface{}
}

// Func adapts a plain function to the Worker interface.
type Func struct {
	WorkerName string
	Fn         func(ctx context.Context, rt *Runtime) (Result, error)
}

func (f Func) Name() string { return f.WorkerName }
func (f Func) Run(ctx context.Context, rt *Runtime) (Result, error) {
	return f.Fn(ctx, rt)
}

// Execute runs w under a hard per-step deadline and returns a fully
// populated WorkerRun plus the Result (zero-valued on failure/timeout) per
// the execution envelope:
//
//   - success with no errors            -> success
//   - success with non-empty errors     -> partial
//   - timeout                            -> failed, errors=["Worker timed out after Ns"]
//   - uncaught panic/error               -> failed, errors=[exc string]
func Execute(ctx context.Context, w Worker, rt *Runtime, timeoutSeconds int) (model.WorkerRun, Result) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%v", r)}
			}
		}()
		result, err := w.Run(ctx, rt)
		done <- outcome{result: result, err: err}
	}()

	run := model.WorkerRun{WorkerName: w.Name()}

	select {
	case <-ctx.Done():
		run.Status = model.WorkerFailed
		run.Errors = []string{fmt.Sprintf("Worker timed out after %ds", timeoutSeconds)}
		run.RuntimeMs = time.Since(start).Milliseconds()
		return run, Result{}
	case o := <-done:
		run.RuntimeMs = time.Since(start).Milliseconds()
		if o.err != nil {
			run.Status = model.WorkerFailed
			run.Errors = []string{o.err.Error()}
			return run, Result{}
		}
		run.WebCalls = o.result.WebCalls
		run.CostUSD = o.result.CostUSD
		run.Unknowns = o.result.Unknowns
		run.Errors = o.result.Errors
		if len(o.result.Errors) > 0 {
			run.Status = model.WorkerPartial
		} else {
			run.Status = model.WorkerSuccess
		}
		return run, o.result
	}
}
