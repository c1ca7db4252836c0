package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// EvidenceRepo persists EvidenceItem rows and satisfies evidence.Repository.
type EvidenceRepo struct {
	db *sqlx.DB
}

// FindByHash looks up the single EvidenceItem carrying hash, if any.
func (r *EvidenceRepo) FindByHash(ctx context.Context, hash string) (*model.EvidenceItem, error) {
	var item model.EvidenceItem
	err := r.db.GetContext(ctx, &item, `SELECT * FROM evidence_items WHERE hash = $1`, hash)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find evidence by hash: %w", err)
	}
	return &item, nil
}

// Insert creates a new EvidenceItem row.
func (r *EvidenceRepo) Insert(ctx context.Context, item *model.EvidenceItem) error {
	rows, err := r.db.NamedQueryContext(ctx, `
		INSERT INTO evidence_items
			(job_id, research_property_id, category, claim, source_url, captured_at,
			 raw_excerpt, confidence, hash)
		VALUES
			(:job_id, :research_property_id, :category, :claim, :source_url, :captured_at,
			 :raw_excerpt, :confidence, :hash)
		RETURNING id
	`, item)
	if err != nil {
		return fmt.Errorf("insert evidence item: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&item.ID); err != nil {
			return fmt.Errorf("scan inserted evidence id: %w", err)
		}
	}
	return nil
}

// Update overwrites the mutable fields of an existing EvidenceItem, keyed by
// its unchanging hash (the hash itself never changes on update).
func (r *EvidenceRepo) Update(ctx context.Context, item *model.EvidenceItem) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE evidence_items
		SET job_id = :job_id,
		    research_property_id = :research_property_id,
		    category = :category,
		    claim = :claim,
		    source_url = :source_url,
		    captured_at = :captured_at,
		    raw_excerpt = :raw_excerpt,
		    confidence = :confidence
		WHERE hash = :hash
	`, item)
	if err != nil {
		return fmt.Errorf("update evidence item: %w", err)
	}
	return nil
}

// ListByJob returns every EvidenceItem currently bound to a Job, ordered by
// id ascending. Because the hash-keyed upsert rebinds job_id in place, this
// is the set of evidence whose most recent emission belongs to the job —
// the basis for risk coverage counting and dossier citations.
func (r *EvidenceRepo) ListByJob(ctx context.Context, jobID string) ([]model.EvidenceItem, error) {
	var items []model.EvidenceItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM evidence_items WHERE job_id = $1 ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list evidence by job: %w", err)
	}
	return items, nil
}

// ListByProperty returns every EvidenceItem captured for a property across
// all jobs, ordered by id ascending (the output assembler's canonical
// ordering).
func (r *EvidenceRepo) ListByProperty(ctx context.Context, propertyID string) ([]model.EvidenceItem, error) {
	var items []model.EvidenceItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM evidence_items WHERE research_property_id = $1 ORDER BY id ASC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list evidence by property: %w", err)
	}
	return items, nil
}
