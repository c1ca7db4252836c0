package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// CRMRepo reads the internal CRM tables the research core matches researched
// addresses against (parcel-fact backfill and internal comp candidates).
// It is read-only: the core never writes back to CRM state.
type CRMRepo struct {
	db *sqlx.DB
}

// FindPropertyByAddress matches a CRM property by a loose address/city/state
// heuristic (case-insensitive) — the same match the geocode worker uses to
// decide whether enrichment is available at all. City/state are optional:
// an empty value widens to match any. An exact address match is tried
// first; on a miss, a %address% substring match is tried as a fallback.
func (r *CRMRepo) FindPropertyByAddress(ctx context.Context, address, city, state string) (*model.CRMProperty, error) {
	cityPattern, statePattern := wildcardIfEmpty(city), wildcardIfEmpty(state)

	p, err := r.findOneByAddressPattern(ctx, address, cityPattern, statePattern)
	if err != nil || p != nil {
		return p, err
	}
	return r.findOneByAddressPattern(ctx, "%"+address+"%", cityPattern, statePattern)
}

func (r *CRMRepo) findOneByAddressPattern(ctx context.Context, addressPattern, cityPattern, statePattern string) (*model.CRMProperty, error) {
	var p model.CRMProperty
	err := r.db.GetContext(ctx, &p, `
		SELECT * FROM properties
		WHERE address ILIKE $1 AND city ILIKE $2 AND state ILIKE $3
		ORDER BY updated_at DESC NULLS LAST
		LIMIT 1
	`, addressPattern, cityPattern, statePattern)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find crm property by address: %w", err)
	}
	return &p, nil
}

func wildcardIfEmpty(v string) string {
	if v == "" {
		return "%"
	}
	return v
}

// LatestSkipTrace returns the most recent SkipTrace recorded for a CRM
// property, if any.
func (r *CRMRepo) LatestSkipTrace(ctx context.Context, propertyID int64) (*model.SkipTrace, error) {
	var st model.SkipTrace
	err := r.db.GetContext(ctx, &st, `
		SELECT * FROM skip_traces WHERE property_id = $1 ORDER BY created_at DESC LIMIT 1
	`, propertyID)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest skip trace: %w", err)
	}
	return &st, nil
}

// LatestZillowEnrichment returns the most recent ZillowEnrichment recorded
// for a CRM property, decoding its embedded price history, if any.
func (r *CRMRepo) LatestZillowEnrichment(ctx context.Context, propertyID int64) (*model.ZillowEnrichment, error) {
	var z model.ZillowEnrichment
	err := r.db.GetContext(ctx, &z, `
		SELECT * FROM zillow_enrichments WHERE property_id = $1 ORDER BY updated_at DESC NULLS LAST LIMIT 1
	`, propertyID)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest zillow enrichment: %w", err)
	}
	if len(z.PriceHistoryJSON) > 0 {
		if err := json.Unmarshal(z.PriceHistoryJSON, &z.PriceHistory); err != nil {
			return nil, fmt.Errorf("unmarshal zillow price history: %w", err)
		}
	}
	return &z, nil
}

// NearbySoldCandidates returns CRM properties in the same city/state that
// have a recorded sale price, for the comps_sales worker to hard-filter and
// score alongside externally scraped candidates.
func (r *CRMRepo) NearbySoldCandidates(ctx context.Context, city, state string, limit int) ([]model.CRMProperty, error) {
	var rows []model.CRMProperty
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM properties
		WHERE city ILIKE $1 AND state ILIKE $2 AND status = 'sold' AND price IS NOT NULL
		ORDER BY updated_at DESC NULLS LAST
		LIMIT $3
	`, city, state, limit)
	if err != nil {
		return nil, fmt.Errorf("list nearby sold candidates: %w", err)
	}
	return rows, nil
}

// NearbyActiveRentalCandidates returns CRM properties in the same city/state
// currently listed for rent, for the comps_rentals worker.
func (r *CRMRepo) NearbyActiveRentalCandidates(ctx context.Context, city, state string, limit int) ([]model.CRMProperty, error) {
	var rows []model.CRMProperty
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM properties
		WHERE city ILIKE $1 AND state ILIKE $2 AND status = 'for_rent' AND price IS NOT NULL
		ORDER BY updated_at DESC NULLS LAST
		LIMIT $3
	`, city, state, limit)
	if err != nil {
		return nil, fmt.Errorf("list nearby active rental candidates: %w", err)
	}
	return rows, nil
}
