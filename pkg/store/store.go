// Package store wraps the research core's Postgres persistence in one
// repository per entity, backed by jmoiron/sqlx for typed scans over a
// database/sql pool (lib/pq driver).
package store

import (
	"github.com/jmoiron/sqlx"
)

// Store bundles every per-entity repository the research core needs.
type Store struct {
	db *sqlx.DB

	Properties    *PropertyRepo
	Jobs          *JobRepo
	Evidence      *EvidenceRepo
	CompSales     *CompSaleRepo
	CompRentals   *CompRentalRepo
	Underwritings *UnderwritingRepo
	RiskScores    *RiskScoreRepo
	Dossiers      *DossierRepo
	WorkerRuns    *WorkerRunRepo
	CRM           *CRMRepo
}

// New builds a Store wiring every repository over the shared connection.
func New(db *sqlx.DB) *Store {
	return &Store{
		db:            db,
		Properties:    &PropertyRepo{db: db},
		Jobs:          &JobRepo{db: db},
		Evidence:      &EvidenceRepo{db: db},
		CompSales:     &CompSaleRepo{db: db},
		CompRentals:   &CompRentalRepo{db: db},
		Underwritings: &UnderwritingRepo{db: db},
		RiskScores:    &RiskScoreRepo{db: db},
		Dossiers:      &DossierRepo{db: db},
		WorkerRuns:    &WorkerRunRepo{db: db},
		CRM:           &CRMRepo{db: db},
	}
}

// DB returns the underlying connection for components (e.g. the supervisor)
// that need to open their own transaction scope.
func (s *Store) DB() *sqlx.DB { return s.db }
