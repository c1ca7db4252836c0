package workers

import (
	"context"
	"strings"
	"testing"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

func baseDossierRuntime() *worker.Runtime {
	return &worker.Runtime{
		Job:      &model.Job{ID: "job-1", Strategy: model.StrategyFlip},
		Property: &model.ResearchProperty{NormalizedAddress: "123 main st, newark, nj 07102"},
		SharedContext: map[string]interface{}{
			"normalize_geocode": map[string]interface{}{
				"property_profile": model.PropertyProfile{
					ParcelFacts: model.ParcelFacts{Sqft: intPtr(1200)},
				},
			},
		},
	}
}

func TestDossierWriter_FallsBackToStructuredWithoutLLM(t *testing.T) {
	w := DossierWriter(Deps{})
	rt := baseDossierRuntime()

	result, err := w.Run(context.Background(), rt)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, ok := result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map data, got %T", result.Data)
	}
	dossier, ok := data["dossier"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected nested dossier map, got %T", data["dossier"])
	}
	markdown, ok := dossier["markdown"].(string)
	if !ok || markdown == "" {
		t.Fatalf("expected a non-empty structured markdown dossier")
	}
	if !strings.Contains(markdown, "# Investment Research Memo") {
		t.Errorf("expected memo header, got:\n%s", markdown)
	}
	if !strings.Contains(markdown, "Square footage: 1200") {
		t.Errorf("expected profile section to render sqft, got:\n%s", markdown)
	}
	if result.WebCalls != 0 {
		t.Errorf("expected zero web calls with no LLM configured, got %d", result.WebCalls)
	}
}

func TestDossierWriter_StructuredFallbackIsByteExactAcrossRuns(t *testing.T) {
	w := DossierWriter(Deps{})

	run := func() string {
		rt := baseDossierRuntime()
		result, err := w.Run(context.Background(), rt)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		data := result.Data.(map[string]interface{})
		dossier := data["dossier"].(map[string]interface{})
		return dossier["markdown"].(string)
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("expected byte-exact structured dossier across reruns with unchanged context;\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestDossierWriter_OmitsSectionsForMissingSources(t *testing.T) {
	w := DossierWriter(Deps{})
	rt := &worker.Runtime{
		Job:           &model.Job{ID: "job-2", Strategy: model.StrategyRental},
		Property:      &model.ResearchProperty{NormalizedAddress: "999 nowhere ave"},
		SharedContext: map[string]interface{}{},
	}

	result, _ := w.Run(context.Background(), rt)
	data := result.Data.(map[string]interface{})
	markdown := data["dossier"].(map[string]interface{})["markdown"].(string)

	for _, section := range []string{"## Property Profile", "## Comparable Sales", "## Underwriting", "## Risk Assessment"} {
		if strings.Contains(markdown, section) {
			t.Errorf("expected %q to be omitted when its source is absent, got:\n%s", section, markdown)
		}
	}
}
