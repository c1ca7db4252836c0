package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// WorkerRunRepo persists per-Job, per-Worker execution telemetry.
type WorkerRunRepo struct {
	db *sqlx.DB
}

// Insert records one worker's WorkerRun telemetry row.
func (r *WorkerRunRepo) Insert(ctx context.Context, run *model.WorkerRun) error {
	unknowns, err := json.Marshal(run.Unknowns)
	if err != nil {
		return fmt.Errorf("marshal worker run unknowns: %w", err)
	}
	errs, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("marshal worker run errors: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO worker_runs
			(job_id, worker_name, status, runtime_ms, cost_usd, web_calls, data, unknowns, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.JobID, run.WorkerName, run.Status, run.RuntimeMs, run.CostUSD, run.WebCalls,
		run.Data, unknowns, errs)
	if err != nil {
		return fmt.Errorf("insert worker run: %w", err)
	}
	return nil
}

// ListByJob returns every WorkerRun for a Job, ordered by id ascending (the
// order they completed in).
func (r *WorkerRunRepo) ListByJob(ctx context.Context, jobID string) ([]model.WorkerRun, error) {
	var rows []struct {
		ID         int64              `db:"id"`
		JobID      string             `db:"job_id"`
		WorkerName string             `db:"worker_name"`
		Status     model.WorkerStatus `db:"status"`
		RuntimeMs  int64              `db:"runtime_ms"`
		CostUSD    float64            `db:"cost_usd"`
		WebCalls   int                `db:"web_calls"`
		Data       json.RawMessage    `db:"data"`
		Unknowns   []byte             `db:"unknowns"`
		Errors     []byte             `db:"errors"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM worker_runs WHERE job_id = $1 ORDER BY id ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list worker runs: %w", err)
	}
	out := make([]model.WorkerRun, 0, len(rows))
	for _, row := range rows {
		wr := model.WorkerRun{
			ID: row.ID, JobID: row.JobID, WorkerName: row.WorkerName, Status: row.Status,
			RuntimeMs: row.RuntimeMs, CostUSD: row.CostUSD, WebCalls: row.WebCalls, Data: row.Data,
		}
		if len(row.Unknowns) > 0 {
			if err := json.Unmarshal(row.Unknowns, &wr.Unknowns); err != nil {
				return nil, fmt.Errorf("unmarshal worker run unknowns: %w", err)
			}
		}
		if len(row.Errors) > 0 {
			if err := json.Unmarshal(row.Errors, &wr.Errors); err != nil {
				return nil, fmt.Errorf("unmarshal worker run errors: %w", err)
			}
		}
		out = append(out, wr)
	}
	return out, nil
}

// SumWebCalls totals the web_calls spent across every WorkerRun recorded for
// a Job so far, the running figure the budget check compares against
// max_web_calls; the check runs after each worker completes.
func (r *WorkerRunRepo) SumWebCalls(ctx context.Context, jobID string) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(web_calls), 0) FROM worker_runs WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, fmt.Errorf("sum worker run web calls: %w", err)
	}
	return total, nil
}
