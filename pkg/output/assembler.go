// Package output implements the Output Assembler : it reads
// every table a job populated and renders the canonical ResearchOutput
// envelope.
package output

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/store"
)

// ResearchOutput is the canonical, fully-assembled research result for one
// Job: the property profile, ranked comps, underwriting and
// risk numbers, the narrative dossier, every piece of evidence, and the
// per-worker execution telemetry, plus the raw per-worker data payloads
// that have no dedicated table (environmental/hazard/RapidAPI workers).
type ResearchOutput struct {
	JobID        string                 `json:"job_id"`
	TraceID      string                 `json:"trace_id"`
	Status       model.JobStatus        `json:"status"`
	Strategy     model.Strategy         `json:"strategy"`
	Property     PropertyOutput         `json:"property"`
	CompSales    []model.CompSale       `json:"comp_sales"`
	CompRentals  []model.CompRental     `json:"comp_rentals"`
	Underwriting *model.Underwriting    `json:"underwriting,omitempty"`
	RiskScore    *model.RiskScore       `json:"risk_score,omitempty"`
	Dossier      *model.Dossier         `json:"dossier,omitempty"`
	Evidence     []model.EvidenceItem   `json:"evidence"`
	WorkerRuns   []model.WorkerRun      `json:"worker_runs"`
	ExtraData    map[string]interface{} `json:"extra_data,omitempty"`
}

// PropertyOutput is the identity + latest structured profile for the
// property a Job researched.
type PropertyOutput struct {
	ID                string                 `json:"id"`
	StableKey         string                 `json:"stable_key"`
	NormalizedAddress string                 `json:"normalized_address"`
	City              string                 `json:"city"`
	State             string                 `json:"state"`
	ZipCode           string                 `json:"zip_code"`
	APN               string                 `json:"apn"`
	Profile           *model.PropertyProfile `json:"profile,omitempty"`
}

// extraDataWorkers are the workers with no dedicated relational table:
// their Data payload is surfaced verbatim under ExtraData, keyed by worker
// name, rather than dropped.
var extraDataWorkers = map[string]bool{
	"public_records": true, "permits_violations": true, "subdivision_research": true,
	"neighborhood_intel": true, "flood_zone": true, "epa_environmental": true,
	"wildfire_hazard": true, "hud_opportunity": true, "wetlands": true,
	"historic_places": true, "seismic_hazard": true, "school_district": true,
	"us_real_estate": true, "walk_score": true, "redfin": true, "rentcast": true,
}

// Assemble reads every table a job populated and renders the envelope.
func Assemble(ctx context.Context, s *store.Store, jobID string) (*ResearchOutput, error) {
	job, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("no such job: %s", jobID)
	}

	property, err := s.Properties.FindByID(ctx, job.ResearchPropertyID)
	if err != nil {
		return nil, fmt.Errorf("find research property: %w", err)
	}
	if property == nil {
		return nil, fmt.Errorf("research property not found for job %s", jobID)
	}

	sales, err := s.CompSales.ListForJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list comp sales: %w", err)
	}
	rentals, err := s.CompRentals.ListForJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list comp rentals: %w", err)
	}
	underwriting, err := s.Underwritings.FindByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("find underwriting: %w", err)
	}
	risk, err := s.RiskScores.FindByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("find risk score: %w", err)
	}
	dossier, err := s.Dossiers.FindByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("find dossier: %w", err)
	}
	evidenceItems, err := s.Evidence.ListByProperty(ctx, property.ID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	workerRuns, err := s.WorkerRuns.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list worker runs: %w", err)
	}

	var profile *model.PropertyProfile
	if len(property.LatestProfile) > 0 {
		var p model.PropertyProfile
		if err := json.Unmarshal(property.LatestProfile, &p); err == nil {
			profile = &p
		}
	}

	extraData := map[string]interface{}{}
	for _, run := range workerRuns {
		if !extraDataWorkers[run.WorkerName] || len(run.Data) == 0 {
			continue
		}
		var decoded interface{}
		if err := json.Unmarshal(run.Data, &decoded); err == nil {
			extraData[run.WorkerName] = decoded
		}
	}

	return &ResearchOutput{
		JobID:    job.ID,
		TraceID:  job.TraceID,
		Status:   job.Status,
		Strategy: job.Strategy,
		Property: PropertyOutput{
			ID:                property.ID,
			StableKey:         property.StableKey,
			NormalizedAddress: property.NormalizedAddress,
			City:              property.City,
			State:             property.State,
			ZipCode:           property.ZipCode,
			APN:               property.APN,
			Profile:           profile,
		},
		CompSales:    sales,
		CompRentals:  rentals,
		Underwriting: underwriting,
		RiskScore:    risk,
		Dossier:      dossier,
		Evidence:     evidenceItems,
		WorkerRuns:   workerRuns,
		ExtraData:    extraData,
	}, nil
}
