package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// UnderwritingRepo persists per-Job Underwriting records.
type UnderwritingRepo struct {
	db *sqlx.DB
}

// underwritingPayload is the jsonb-serialized portion of Underwriting — the
// computed ranges, fees, and sensitivity table produced by the underwriting
// calculator.
type underwritingPayload struct {
	ARVEstimate  model.Range3           `json:"arv_estimate"`
	RentEstimate model.Range3           `json:"rent_estimate"`
	RehabRange   model.Range2           `json:"rehab_estimated_range"`
	OfferPrice   model.Range3           `json:"offer_price_recommendation"`
	Fees         model.Fees             `json:"fees"`
	Sensitivity  []model.SensitivityRow `json:"sensitivity_table"`
}

// Upsert replaces the Underwriting row for a Job (re-runs supersede the
// prior calculation).
func (r *UnderwritingRepo) Upsert(ctx context.Context, u *model.Underwriting) error {
	payload, err := json.Marshal(underwritingPayload{
		ARVEstimate: u.ARVEstimate, RentEstimate: u.RentEstimate, RehabRange: u.RehabRange,
		OfferPrice: u.OfferPrice, Fees: u.Fees, Sensitivity: u.Sensitivity,
	})
	if err != nil {
		return fmt.Errorf("marshal underwriting payload: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO underwritings (job_id, rehab_tier, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE SET rehab_tier = EXCLUDED.rehab_tier, data = EXCLUDED.data
	`, u.JobID, u.RehabTier, payload)
	if err != nil {
		return fmt.Errorf("upsert underwriting: %w", err)
	}
	return nil
}

// FindByJob returns the latest Underwriting for a Job, or nil if none exists.
func (r *UnderwritingRepo) FindByJob(ctx context.Context, jobID string) (*model.Underwriting, error) {
	var row struct {
		ID        int64           `db:"id"`
		JobID     string          `db:"job_id"`
		RehabTier model.RehabTier `db:"rehab_tier"`
		Data      []byte          `db:"data"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT * FROM underwritings WHERE job_id = $1`, jobID)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find underwriting: %w", err)
	}
	var payload underwritingPayload
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal underwriting payload: %w", err)
		}
	}
	return &model.Underwriting{
		ID: row.ID, JobID: row.JobID, RehabTier: row.RehabTier,
		ARVEstimate: payload.ARVEstimate, RentEstimate: payload.RentEstimate,
		RehabRange: payload.RehabRange, OfferPrice: payload.OfferPrice,
		Fees: payload.Fees, Sensitivity: payload.Sensitivity,
	}, nil
}

// RiskScoreRepo persists per-Job RiskScore records.
type RiskScoreRepo struct {
	db *sqlx.DB
}

type riskScoreRow struct {
	ID              int64   `db:"id"`
	JobID           string  `db:"job_id"`
	TitleRisk       float64 `db:"title_risk"`
	DataConfidence  float64 `db:"data_confidence"`
	ComplianceFlags []byte  `db:"compliance_flags"`
	Notes           string  `db:"notes"`
}

func (row riskScoreRow) toModel() (model.RiskScore, error) {
	rs := model.RiskScore{
		ID: row.ID, JobID: row.JobID, TitleRisk: row.TitleRisk,
		DataConfidence: row.DataConfidence, Notes: row.Notes,
	}
	if len(row.ComplianceFlags) > 0 {
		if err := json.Unmarshal(row.ComplianceFlags, &rs.ComplianceFlags); err != nil {
			return rs, fmt.Errorf("unmarshal compliance flags: %w", err)
		}
	}
	return rs, nil
}

// Upsert replaces the RiskScore row for a Job.
func (r *RiskScoreRepo) Upsert(ctx context.Context, rs *model.RiskScore) error {
	flags, err := json.Marshal(rs.ComplianceFlags)
	if err != nil {
		return fmt.Errorf("marshal compliance flags: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO risk_scores (job_id, title_risk, data_confidence, compliance_flags, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id) DO UPDATE SET
			title_risk = EXCLUDED.title_risk,
			data_confidence = EXCLUDED.data_confidence,
			compliance_flags = EXCLUDED.compliance_flags,
			notes = EXCLUDED.notes
	`, rs.JobID, rs.TitleRisk, rs.DataConfidence, flags, rs.Notes)
	if err != nil {
		return fmt.Errorf("upsert risk score: %w", err)
	}
	return nil
}

// FindByJob returns the RiskScore for a Job, or nil if none exists.
func (r *RiskScoreRepo) FindByJob(ctx context.Context, jobID string) (*model.RiskScore, error) {
	var row riskScoreRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM risk_scores WHERE job_id = $1`, jobID)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find risk score: %w", err)
	}
	rs, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &rs, nil
}
