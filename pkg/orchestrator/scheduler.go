// Package orchestrator implements the dependency-aware scheduler: a
// generic batch scheduler over a declared dependency graph of named
// agents, capped by max_parallel_agents and max_steps.
//
// The scheduler itself knows nothing about research workers — it operates
// on AgentSpec closures supplied by the supervisor, which is what keeps
// this package reusable for both the fixed pipeline ordering and the full
// orchestrated dependency graph (the two execution modes differ only in
// which specs the supervisor hands in, not in the scheduling algorithm).
package orchestrator

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/sharederr"
)

// RunFunc is the unit of work the scheduler invokes for one agent once its
// dependencies have all completed. shared is a read-only snapshot of every
// previously completed agent's published data; the scheduler itself owns
// publishing this agent's own data back into the authoritative context
// after Run returns, so implementations must never mutate shared.
type RunFunc func(ctx context.Context, shared map[string]interface{}) (data interface{}, run model.WorkerRun, err error)

// AgentSpec is one schedulable node in the dependency graph.
type AgentSpec struct {
	Name         string
	Dependencies []string
	Run          RunFunc
}

// Execution is one completed node's full outcome, in the order the
// scheduler finished it.
type Execution struct {
	Name string
	Run  model.WorkerRun
	Err  error
}

// Options bounds a single Run call, mirroring model.Limits.
type Options struct {
	MaxSteps          int
	MaxParallelAgents int
}

// Run drives specs to completion under the dependency graph, batch size,
// and step budget:
//
//  1. pending starts as every spec name, in declared order.
//  2. ready = pending names whose dependencies are all in completed.
//  3. If ready is empty while pending is non-empty, the graph is stuck —
//     return sharederr.UnresolvedDependencies naming the stuck specs.
//  4. batch_size = min(max_parallel_agents, len(ready), max_steps-len(executions)).
//  5. Take the first batch_size ready names (declared order), run them
//     concurrently, await the whole batch, then publish each into shared
//     and mark it completed before computing the next ready set.
//  6. Stop once len(executions) == max_steps or pending is empty.
//
// If any agent's Run returns a non-nil error, the rest of its batch still
// runs to completion (in-flight work is never cancelled), but Run returns
// immediately afterward with that error — callers (the supervisor) decide
// what an abort-triggering error means for the Job.
func Run(ctx context.Context, specs []AgentSpec, shared map[string]interface{}, opts Options) ([]Execution, error) {
	byName := make(map[string]AgentSpec, len(specs))
	pending := make([]string, 0, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
		pending = append(pending, s.Name)
	}

	completed := make(map[string]bool, len(specs))
	executions := make([]Execution, 0, len(specs))

	for len(pending) > 0 {
		if opts.MaxSteps > 0 && len(executions) >= opts.MaxSteps {
			break
		}

		ready := readyNames(pending, byName, completed)
		if len(ready) == 0 {
			return executions, sharederr.UnresolvedDependencies("stuck on: " + strings.Join(pending, ", "))
		}

		batchSize := len(ready)
		if opts.MaxParallelAgents > 0 && opts.MaxParallelAgents < batchSize {
			batchSize = opts.MaxParallelAgents
		}
		if opts.MaxSteps > 0 {
			remaining := opts.MaxSteps - len(executions)
			if remaining < batchSize {
				batchSize = remaining
			}
		}
		batch := ready[:batchSize]

		results, datas := runBatch(ctx, batch, byName, shared)

		var abortErr error
		for i, name := range batch {
			shared[name] = datas[i]
			completed[name] = true
			executions = append(executions, results[i])
			if results[i].Err != nil && abortErr == nil {
				abortErr = results[i].Err
			}
		}
		pending = removeNames(pending, batch)

		if abortErr != nil {
			return executions, abortErr
		}
	}

	return executions, nil
}

// runBatch executes one batch concurrently against an immutable snapshot
// of shared, so concurrent readers and the post-batch writer never race on
// the same map.
func runBatch(ctx context.Context, names []string, byName map[string]AgentSpec, shared map[string]interface{}) ([]Execution, []interface{}) {
	snapshot := make(map[string]interface{}, len(shared))
	for k, v := range shared {
		snapshot[k] = v
	}

	results := make([]Execution, len(names))
	datas := make([]interface{}, len(names))

	var eg errgroup.Group
	for i, name := range names {
		i, name := i, name
		spec := byName[name]
		eg.Go(func() error {
			data, run, err := spec.Run(ctx, snapshot)
			datas[i] = data
			results[i] = Execution{Name: name, Run: run, Err: err}
			return nil
		})
	}
	_ = eg.Wait() // RunFunc never returns a non-nil error from eg.Go itself; failures ride in Execution.Err

	return results, datas
}

func readyNames(pending []string, byName map[string]AgentSpec, completed map[string]bool) []string {
	ready := make([]string, 0, len(pending))
	for _, name := range pending {
		spec := byName[name]
		satisfied := true
		for _, dep := range spec.Dependencies {
			if !completed[dep] {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, name)
		}
	}
	return ready
}

func removeNames(pending []string, remove []string) []string {
	removeSet := make(map[string]bool, len(remove))
	for _, r := range remove {
		removeSet[r] = true
	}
	out := make([]string, 0, len(pending)-len(remove))
	for _, p := range pending {
		if !removeSet[p] {
			out = append(out, p)
		}
	}
	return out
}
