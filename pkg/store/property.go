package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// PropertyRepo persists ResearchProperty rows.
type PropertyRepo struct {
	db *sqlx.DB
}

// FindByStableKey returns the property registered under key, or nil if none
// exists (the supervisor uses this to dedupe repeat submissions of the same
// address).
func (r *PropertyRepo) FindByStableKey(ctx context.Context, key string) (*model.ResearchProperty, error) {
	var p model.ResearchProperty
	err := r.db.GetContext(ctx, &p, `SELECT * FROM research_properties WHERE stable_key = $1`, key)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find research property by stable key: %w", err)
	}
	return &p, nil
}

// FindByID returns the property by primary key.
func (r *PropertyRepo) FindByID(ctx context.Context, id string) (*model.ResearchProperty, error) {
	var p model.ResearchProperty
	err := r.db.GetContext(ctx, &p, `SELECT * FROM research_properties WHERE id = $1`, id)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("find research property by id: %w", err)
	}
	return &p, nil
}

// Insert creates a new ResearchProperty row.
func (r *PropertyRepo) Insert(ctx context.Context, p *model.ResearchProperty) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO research_properties
			(id, stable_key, raw_address, normalized_address, city, state, zip_code,
			 apn, geo_lat, geo_lng, latest_profile, created_at, updated_at)
		VALUES
			(:id, :stable_key, :raw_address, :normalized_address, :city, :state, :zip_code,
			 :apn, :geo_lat, :geo_lng, :latest_profile, :created_at, :updated_at)
	`, p)
	if err != nil {
		return fmt.Errorf("insert research property: %w", err)
	}
	return nil
}

// UpdateProfile rewrites the normalized address, geocode, APN, and structured
// profile snapshot populated by the geocode worker.
func (r *PropertyRepo) UpdateProfile(ctx context.Context, id string, normalizedAddress string, lat, lng *float64, apn string, profile model.PropertyProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal property profile: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE research_properties
		SET normalized_address = $2, geo_lat = $3, geo_lng = $4, apn = $5,
		    latest_profile = $6, updated_at = now()
		WHERE id = $1
	`, id, normalizedAddress, lat, lng, apn, raw)
	if err != nil {
		return fmt.Errorf("update research property profile: %w", err)
	}
	return nil
}
