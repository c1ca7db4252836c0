package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// CompSaleRepo persists the ranked comparable sales selected for a Job.
type CompSaleRepo struct {
	db *sqlx.DB
}

type compSaleRow struct {
	ID              int64      `db:"id"`
	JobID           string     `db:"job_id"`
	Address         string     `db:"address"`
	DistanceMi      float64    `db:"distance_mi"`
	SaleDate        *time.Time `db:"sale_date"`
	SalePrice       float64    `db:"sale_price"`
	Sqft            *int       `db:"sqft"`
	Beds            *int       `db:"beds"`
	Baths           *float64   `db:"baths"`
	YearBuilt       *int       `db:"year_built"`
	SimilarityScore float64    `db:"similarity_score"`
	SourceURL       string     `db:"source_url"`
	Details         []byte     `db:"details"`
}

func (row compSaleRow) toModel() (model.CompSale, error) {
	c := model.CompSale{
		ID: row.ID, JobID: row.JobID, Address: row.Address, DistanceMi: row.DistanceMi,
		SaleDate: row.SaleDate, SalePrice: row.SalePrice, Sqft: row.Sqft, Beds: row.Beds,
		Baths: row.Baths, YearBuilt: row.YearBuilt, SimilarityScore: row.SimilarityScore,
		SourceURL: row.SourceURL,
	}
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &c.Details); err != nil {
			return c, fmt.Errorf("unmarshal comp sale details: %w", err)
		}
	}
	return c, nil
}

// ReplaceForJob deletes and re-inserts every CompSale for a Job, matching
// the ranker's all-or-nothing replacement semantics (a re-run replaces the
// prior comp set wholesale).
func (r *CompSaleRepo) ReplaceForJob(ctx context.Context, jobID string, comps []model.CompSale) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comp sale replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comp_sales WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("clear comp sales: %w", err)
	}
	for _, c := range comps {
		details, err := json.Marshal(c.Details)
		if err != nil {
			return fmt.Errorf("marshal comp sale details: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO comp_sales
				(job_id, address, distance_mi, sale_date, sale_price, sqft, beds, baths,
				 year_built, similarity_score, source_url, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, jobID, c.Address, c.DistanceMi, c.SaleDate, c.SalePrice, c.Sqft, c.Beds, c.Baths,
			c.YearBuilt, c.SimilarityScore, c.SourceURL, details)
		if err != nil {
			return fmt.Errorf("insert comp sale: %w", err)
		}
	}
	return tx.Commit()
}

// ListForJob returns the ranked comp sales for a Job, ordered by similarity
// score descending.
func (r *CompSaleRepo) ListForJob(ctx context.Context, jobID string) ([]model.CompSale, error) {
	var rows []compSaleRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM comp_sales WHERE job_id = $1 ORDER BY similarity_score DESC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list comp sales: %w", err)
	}
	out := make([]model.CompSale, 0, len(rows))
	for _, row := range rows {
		c, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CompRentalRepo persists the ranked comparable rentals selected for a Job.
type CompRentalRepo struct {
	db *sqlx.DB
}

type compRentalRow struct {
	ID              int64      `db:"id"`
	JobID           string     `db:"job_id"`
	Address         string     `db:"address"`
	DistanceMi      float64    `db:"distance_mi"`
	DateListed      *time.Time `db:"date_listed"`
	Rent            float64    `db:"rent"`
	Sqft            *int       `db:"sqft"`
	Beds            *int       `db:"beds"`
	Baths           *float64   `db:"baths"`
	SimilarityScore float64    `db:"similarity_score"`
	SourceURL       string     `db:"source_url"`
	Details         []byte     `db:"details"`
}

func (row compRentalRow) toModel() (model.CompRental, error) {
	c := model.CompRental{
		ID: row.ID, JobID: row.JobID, Address: row.Address, DistanceMi: row.DistanceMi,
		DateListed: row.DateListed, Rent: row.Rent, Sqft: row.Sqft, Beds: row.Beds,
		Baths: row.Baths, SimilarityScore: row.SimilarityScore, SourceURL: row.SourceURL,
	}
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &c.Details); err != nil {
			return c, fmt.Errorf("unmarshal comp rental details: %w", err)
		}
	}
	return c, nil
}

// ReplaceForJob deletes and re-inserts every CompRental for a Job.
func (r *CompRentalRepo) ReplaceForJob(ctx context.Context, jobID string, comps []model.CompRental) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comp rental replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comp_rentals WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("clear comp rentals: %w", err)
	}
	for _, c := range comps {
		details, err := json.Marshal(c.Details)
		if err != nil {
			return fmt.Errorf("marshal comp rental details: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO comp_rentals
				(job_id, address, distance_mi, date_listed, rent, sqft, beds, baths,
				 similarity_score, source_url, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, jobID, c.Address, c.DistanceMi, c.DateListed, c.Rent, c.Sqft, c.Beds, c.Baths,
			c.SimilarityScore, c.SourceURL, details)
		if err != nil {
			return fmt.Errorf("insert comp rental: %w", err)
		}
	}
	return tx.Commit()
}

// ListForJob returns the ranked comp rentals for a Job, ordered by
// similarity score descending.
func (r *CompRentalRepo) ListForJob(ctx context.Context, jobID string) ([]model.CompRental, error) {
	var rows []compRentalRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM comp_rentals WHERE job_id = $1 ORDER BY similarity_score DESC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list comp rentals: %w", err)
	}
	out := make([]model.CompRental, 0, len(rows))
	for _, row := range rows {
		c, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
