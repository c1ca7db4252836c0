package workers

import (
	"context"
	"strings"

	"github.com/propresearch/agentic-research-core/pkg/adapters"
	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

// NeighborhoodIntel runs crime/safety, schools/demographics, and market-trend
// searches around the property's city/state and asks the narrative LLM for a
// short synthesis of the findings.
func NeighborhoodIntel(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "neighborhood_intel",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			city := strings.TrimSpace(rt.Property.City)
			state := strings.TrimSpace(rt.Property.State)
			location := joinNonEmpty([]string{city, state}, ", ")

			if location == "" {
				return worker.Result{
					Data:     map[string]interface{}{"neighborhood_data": nil},
					Unknowns: []model.Unknown{{Field: "neighborhood", Reason: "No location data"}},
				}, nil
			}

			searches := []struct {
				key   string
				query string
			}{
				{"crime", "crime rate safety statistics " + location},
				{"schools", "school ratings demographics " + location},
				{"market_trends", "real estate market trends home values " + location},
			}

			neighborhoodData := map[string]interface{}{
				"crime":         []searchHitSummary{},
				"schools":       []searchHitSummary{},
				"demographics":  []searchHitSummary{},
				"market_trends": []searchHitSummary{},
				"walkability":   []searchHitSummary{},
			}

			var evidence []model.EvidenceDraft
			var webCalls int
			anyFound := false

			if d.Search != nil {
				for _, s := range searches {
					hits := d.Search.Search(ctx, s.query, 5, true)
					webCalls++
					if len(hits) == 0 {
						continue
					}
					anyFound = true
					neighborhoodData[s.key] = summarize(hits, "neighborhood", 300)
					for _, h := range hits {
						evidence = append(evidence, model.EvidenceDraft{
							Category:   "neighborhood",
							Claim:      h.Title,
							SourceURL:  h.URL,
							RawExcerpt: truncate(h.Snippet, 300),
							Confidence: adapters.SourceQualityScore(h.URL, "neighborhood"),
						})
					}
				}
			}

			var costUSD float64
			if anyFound && d.LLM != nil {
				prompt := buildNeighborhoodSummaryPrompt(location, neighborhoodData)
				summary, err := d.LLM.Generate(ctx, prompt, "claude-3-5-sonnet-20241022", 600)
				if err == nil {
					neighborhoodData["ai_summary"] = summary
					costUSD = 0.01
				} else {
					neighborhoodData["ai_summary"] = nil
				}
			} else {
				neighborhoodData["ai_summary"] = nil
			}

			return worker.Result{
				Data:     map[string]interface{}{"neighborhood_data": neighborhoodData},
				Evidence: evidence,
				WebCalls: webCalls,
				CostUSD:  costUSD,
			}, nil
		},
	}
}

func truncate(s string, n int) string {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func buildNeighborhoodSummaryPrompt(location string, data map[string]interface{}) string {
	var b strings.Builder
	b.WriteString("Summarize the neighborhood research findings for ")
	b.WriteString(location)
	b.WriteString(" in 2-3 concise sentences covering crime/safety, schools, and market trends. ")
	b.WriteString("Base the summary only on the evidence provided below.\n\n")
	for _, key := range []string{"crime", "schools", "market_trends"} {
		hits, ok := data[key].([]searchHitSummary)
		if !ok {
			continue
		}
		b.WriteString(key + ":\n")
		for _, h := range hits {
			b.WriteString("- " + h.Title + ": " + h.Snippet + "\n")
		}
	}
	return b.String()
}
