package workers

import (
	"context"
	"testing"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

func intPtr(v int) *int { return &v }

func TestUnderwriting_WholesaleHappyPath(t *testing.T) {
	w := Underwriting(Deps{})

	rt := &worker.Runtime{
		Job: &model.Job{ID: "job-1", Strategy: model.StrategyWholesale},
		Assumptions: map[string]interface{}{
			"rehab_tier": "medium",
		},
		SharedContext: map[string]interface{}{
			"normalize_geocode": map[string]interface{}{
				"property_profile": model.PropertyProfile{
					ParcelFacts: model.ParcelFacts{Sqft: intPtr(1500)},
				},
			},
			"comps_sales": map[string]interface{}{
				"comps_sales": []model.CompSale{
					{SalePrice: 400000},
					{SalePrice: 420000},
					{SalePrice: 440000},
				},
			},
			"comps_rentals": map[string]interface{}{
				"comps_rentals": []model.CompRental{},
			},
		},
	}

	result, err := w.Run(context.Background(), rt)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, ok := result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map[string]interface{} data, got %T", result.Data)
	}
	calc, ok := data["underwrite"].(model.Underwriting)
	if !ok {
		t.Fatalf("expected model.Underwriting, got %T", data["underwrite"])
	}
	if calc.ARVEstimate.Base == nil {
		t.Fatal("expected a non-nil ARV base")
	}
	if *calc.ARVEstimate.Base != 420000 {
		t.Errorf("ARV base = %v, want 420000", *calc.ARVEstimate.Base)
	}

	risk, ok := data["risk_score"].(model.RiskScore)
	if !ok {
		t.Fatalf("expected model.RiskScore, got %T", data["risk_score"])
	}
	if risk.TitleRisk != 0.75 {
		t.Errorf("title_risk = %v, want 0.75 (no owner names)", risk.TitleRisk)
	}

	found := false
	for _, f := range risk.ComplianceFlags {
		if f == "insufficient_rental_comps" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected insufficient_rental_comps flag, got %v", risk.ComplianceFlags)
	}

	if len(result.Evidence) != 1 || result.Evidence[0].Confidence != 1.0 {
		t.Errorf("expected exactly one full-confidence evidence item, got %+v", result.Evidence)
	}
}

func TestUnderwriting_NoCompsYieldsUnknowns(t *testing.T) {
	w := Underwriting(Deps{})
	rt := &worker.Runtime{
		Job:         &model.Job{ID: "job-2", Strategy: model.StrategyFlip},
		Assumptions: map[string]interface{}{},
		SharedContext: map[string]interface{}{
			"normalize_geocode": map[string]interface{}{
				"property_profile": model.PropertyProfile{},
			},
		},
	}

	result, err := w.Run(context.Background(), rt)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Unknowns) != 2 {
		t.Fatalf("expected unknowns for missing arv and rent, got %+v", result.Unknowns)
	}
}
