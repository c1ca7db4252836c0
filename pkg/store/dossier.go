package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// DossierRepo persists per-Job narrative Dossier records.
type DossierRepo struct {
	db *sqlx.DB
}

type dossierRow struct {
	ID        int64  `db:"id"`
	JobID     string `db:"job_id"`
	Markdown  string `db:"markdown"`
	Citations []byte `db:"citations"`
}

// Upsert replaces the Dossier row for a Job.
func (r *DossierRepo) Upsert(ctx context.Context, d *model.Dossier) error {
	citations, err := json.Marshal(d.Citations)
	if err != nil {
		return fmt.Errorf("marshal dossier citations: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dossiers (job_id, markdown, citations)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE SET markdown = EXCLUDED.markdown, citations = EXCLUDED.citations
	`, d.JobID, d.Markdown, citations)
	if err != nil {
		return fmt.Errorf("upsert dossier: %w", err)
	}
	return nil
}

// FindByJob returns the Dossier for a Job, or nil if none exists.
func (r *DossierRepo) FindByJob(ctx context.Context, jobID string) (*model.Dossier, error) {
	var row dossierRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM dossiers WHERE job_id = $1`, jobID)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find dossier: %w", err)
	}
	d := model.Dossier{ID: row.ID, JobID: row.JobID, Markdown: row.Markdown}
	if len(row.Citations) > 0 {
		if err := json.Unmarshal(row.Citations, &d.Citations); err != nil {
			return nil, fmt.Errorf("unmarshal dossier citations: %w", err)
		}
	}
	return &d, nil
}
