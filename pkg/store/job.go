package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// JobRepo persists Job rows.
type JobRepo struct {
	db *sqlx.DB
}

// Insert creates a new Job row, serializing its Limits into LimitsRaw first.
func (r *JobRepo) Insert(ctx context.Context, j *model.Job) error {
	raw, err := json.Marshal(j.Limits)
	if err != nil {
		return fmt.Errorf("marshal job limits: %w", err)
	}
	j.LimitsRaw = raw

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO jobs
			(id, trace_id, research_property_id, status, progress, current_step,
			 strategy, assumptions, limits, results, error_message, created_at,
			 started_at, completed_at)
		VALUES
			(:id, :trace_id, :research_property_id, :status, :progress, :current_step,
			 :strategy, :assumptions, :limits, :results, :error_message, :created_at,
			 :started_at, :completed_at)
	`, j)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// FindByID returns a Job with Limits decoded from its stored JSON column.
func (r *JobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	var j model.Job
	err := r.db.GetContext(ctx, &j, `SELECT * FROM jobs WHERE id = $1`, id)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	if err := decodeLimits(&j); err != nil {
		return nil, err
	}
	return &j, nil
}

// FindInProgressByProperty returns the in-progress Job for a property, if
// any, so the supervisor can enforce at-most-one-job-in-flight.
func (r *JobRepo) FindInProgressByProperty(ctx context.Context, propertyID string) (*model.Job, error) {
	var j model.Job
	err := r.db.GetContext(ctx, &j, `
		SELECT * FROM jobs
		WHERE research_property_id = $1 AND status IN ('pending', 'in_progress')
		ORDER BY created_at DESC LIMIT 1
	`, propertyID)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find in-progress job: %w", err)
	}
	if err := decodeLimits(&j); err != nil {
		return nil, err
	}
	return &j, nil
}

// FindLatestByProperty returns the most recently created Job for a
// property, regardless of status, so callers can surface whatever research
// currently exists without knowing a job ID in advance.
func (r *JobRepo) FindLatestByProperty(ctx context.Context, propertyID string) (*model.Job, error) {
	var j model.Job
	err := r.db.GetContext(ctx, &j, `
		SELECT * FROM jobs
		WHERE research_property_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, propertyID)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest job by property: %w", err)
	}
	if err := decodeLimits(&j); err != nil {
		return nil, err
	}
	return &j, nil
}

func decodeLimits(j *model.Job) error {
	if len(j.LimitsRaw) == 0 {
		return nil
	}
	if err := json.Unmarshal(j.LimitsRaw, &j.Limits); err != nil {
		return fmt.Errorf("unmarshal job limits: %w", err)
	}
	return nil
}

// UpdateProgress advances status/progress/current_step mid-run.
func (r *JobRepo) UpdateProgress(ctx context.Context, id string, status model.JobStatus, progress int, currentStep string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, progress = $3, current_step = $4 WHERE id = $1
	`, id, status, progress, currentStep)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// MarkStarted flips a Job to in_progress and stamps started_at.
func (r *JobRepo) MarkStarted(ctx context.Context, id string, startedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'in_progress', started_at = $2 WHERE id = $1
	`, id, startedAt)
	if err != nil {
		return fmt.Errorf("mark job started: %w", err)
	}
	return nil
}

// Complete persists the final results envelope and flips the Job to
// completed.
func (r *JobRepo) Complete(ctx context.Context, id string, results json.RawMessage, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'completed', progress = 100, results = $2, completed_at = $3
		WHERE id = $1
	`, id, results, completedAt)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// Fail flips a Job to failed and records the error message.
func (r *JobRepo) Fail(ctx context.Context, id string, errMsg string, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'failed', error_message = $2, completed_at = $3 WHERE id = $1
	`, id, errMsg, completedAt)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}
