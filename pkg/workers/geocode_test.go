package workers

import (
	"testing"
	"time"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

func TestResolveEnrichmentMaxAgeHours(t *testing.T) {
	tests := []struct {
		name        string
		assumptions map[string]interface{}
		want        *int
	}{
		{"nil assumptions", nil, nil},
		{"explicit hours wins", map[string]interface{}{"enriched_max_age_hours": float64(24)}, intPtr(24)},
		{"require_enriched_data implies default window", map[string]interface{}{"require_enriched_data": true}, intPtr(defaultEnrichmentMaxAgeHours)},
		{"neither set", map[string]interface{}{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveEnrichmentMaxAgeHours(tt.assumptions)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ResolveEnrichmentMaxAgeHours() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ResolveEnrichmentMaxAgeHours() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestComputeEnrichmentStatus_StaleEnrichedFailsFreshnessOnly(t *testing.T) {
	// CRM match present, skip trace + zillow both 200 hours old, max_age_hours=24.
	now := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	created := now.Add(-200 * time.Hour)
	updated := now.Add(-200 * time.Hour)

	crm := &model.CRMProperty{ID: 1}
	skip := &model.SkipTrace{OwnerName: "Jane Doe", CreatedAt: created}
	zillow := &model.ZillowEnrichment{UpdatedAt: &updated}
	maxAge := 24

	status := ComputeEnrichmentStatus(crm, skip, zillow, &maxAge, now)

	if !status.IsEnriched {
		t.Error("expected IsEnriched=true with all three CRM sources present")
	}
	if status.IsFresh == nil || *status.IsFresh {
		t.Fatalf("expected IsFresh=false for 200h-old data against a 24h window, got %v", status.IsFresh)
	}
	if status.AgeHours == nil || *status.AgeHours < 199 || *status.AgeHours > 201 {
		t.Errorf("expected age_hours ~200, got %v", status.AgeHours)
	}
}

func TestComputeEnrichmentStatus_NoTimestampsButWindowSetIsNotFresh(t *testing.T) {
	maxAge := 168
	status := ComputeEnrichmentStatus(nil, nil, nil, &maxAge, time.Now())
	if status.IsFresh == nil || *status.IsFresh {
		t.Fatalf("expected IsFresh=false (not nil) when a window is set but no timestamps exist, got %v", status.IsFresh)
	}
	if status.IsEnriched {
		t.Error("expected IsEnriched=false with no CRM sources")
	}
	if len(status.Missing) != 3 {
		t.Errorf("expected all 3 sources listed missing, got %v", status.Missing)
	}
}

func TestComputeEnrichmentStatus_NoWindowMeansFreshIsNil(t *testing.T) {
	status := ComputeEnrichmentStatus(nil, nil, nil, nil, time.Now())
	if status.IsFresh != nil {
		t.Errorf("expected IsFresh=nil when max_age_hours is nil, got %v", *status.IsFresh)
	}
}

func TestComputeEnrichmentStatus_FreshWithinWindow(t *testing.T) {
	now := time.Now()
	created := now.Add(-1 * time.Hour)
	updated := now.Add(-1 * time.Hour)
	crm := &model.CRMProperty{ID: 1}
	skip := &model.SkipTrace{OwnerName: "Jane Doe", CreatedAt: created}
	zillow := &model.ZillowEnrichment{UpdatedAt: &updated}
	maxAge := 168

	status := ComputeEnrichmentStatus(crm, skip, zillow, &maxAge, now)
	if !status.IsEnriched {
		t.Error("expected IsEnriched=true")
	}
	if status.IsFresh == nil || !*status.IsFresh {
		t.Fatalf("expected IsFresh=true within the window, got %v", status.IsFresh)
	}
}
