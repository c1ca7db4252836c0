package workers

import (
	"context"
	"fmt"

	"github.com/propresearch/agentic-research-core/pkg/adapters"
	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

// searchBackedWorker is the shared shape of public_records,
// permits_violations, and subdivision_research: build a query, search,
// rank hits by source quality, and emit one evidence draft per hit.
func searchBackedWorker(d Deps, name, category string, buildQuery func(rt *worker.Runtime) string, maxResults int, includeText bool, dataKey string) worker.Worker {
	return worker.Func{
		WorkerName: name,
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			if d.Search == nil {
				return worker.Result{
					Unknowns: []model.Unknown{{Field: name, Reason: "No search provider is configured."}},
				}, nil
			}

			query := buildQuery(rt)
			hits := d.Search.Search(ctx, query, maxResults, includeText)
			hits = sortByQualityDesc(hits, category)

			var unknowns []model.Unknown
			var evidence []model.EvidenceDraft
			if len(hits) == 0 {
				unknowns = append(unknowns, model.Unknown{
					Field:  name,
					Reason: fmt.Sprintf("No %s hits returned by configured search provider.", category),
				})
			}

			for _, h := range hits {
				sourceURL := h.URL
				if sourceURL == "" {
					sourceURL = "internal://search/no-url"
				}
				sq := adapters.SourceQualityScore(sourceURL, category)
				evidence = append(evidence, model.EvidenceDraft{
					Category:   category,
					Claim:      fmt.Sprintf("%s candidate found: %s.", category, h.Title),
					SourceURL:  sourceURL,
					RawExcerpt: h.Snippet,
					Confidence: sq,
				})
			}

			return worker.Result{
				Data:     map[string]interface{}{dataKey: summarize(hits, category, 500)},
				Unknowns: unknowns,
				Evidence: evidence,
				WebCalls: 1,
			}, nil
		},
	}
}

// PublicRecords searches for assessor/recorder/parcel records.
func PublicRecords(d Deps) worker.Worker {
	return searchBackedWorker(d, "public_records", "public_records", func(rt *worker.Runtime) string {
		return rt.Property.NormalizedAddress + " assessor recorder parcel"
	}, 5, false, "public_records_hits")
}

// PermitsViolations searches open-data portals for permits and code
// violations.
func PermitsViolations(d Deps) worker.Worker {
	return searchBackedWorker(d, "permits_violations", "permits", func(rt *worker.Runtime) string {
		return rt.Property.NormalizedAddress + " permits violations open data"
	}, 5, false, "permit_violation_hits")
}

// SubdivisionResearch searches for zoning, lot-size, frontage, and
// subdivision requirements, honoring an optional subdivision_goal
// assumption.
func SubdivisionResearch(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "subdivision_research",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			goal := "subdivide and build"
			if v, ok := rt.Assumptions["subdivision_goal"].(string); ok && v != "" {
				goal = v
			}

			query := fmt.Sprintf("%s, %s %s %s zoning minimum lot size frontage subdivision requirements %s",
				rt.Property.RawAddress, rt.Property.City, rt.Property.State, rt.Property.ZipCode, goal)

			if d.Search == nil {
				return worker.Result{
					Unknowns: []model.Unknown{{Field: "subdivision_research", Reason: "No search provider is configured."}},
				}, nil
			}

			hits := d.Search.Search(ctx, query, 8, true)
			hits = sortByQualityDesc(hits, "subdivision")
			if len(hits) > 8 {
				hits = hits[:8]
			}

			var unknowns []model.Unknown
			var evidence []model.EvidenceDraft
			if len(hits) == 0 {
				unknowns = append(unknowns, model.Unknown{Field: "subdivision_research", Reason: "No subdivision sources returned by configured search provider."})
			}
			for _, h := range hits {
				sourceURL := h.URL
				if sourceURL == "" {
					sourceURL = "internal://search/no-url"
				}
				snippet := h.Snippet
				if len(snippet) > 500 {
					snippet = snippet[:500]
				}
				evidence = append(evidence, model.EvidenceDraft{
					Category:   "subdivision",
					Claim:      "Subdivision source candidate found: " + h.Title + ".",
					SourceURL:  sourceURL,
					RawExcerpt: snippet,
					Confidence: adapters.SourceQualityScore(sourceURL, "subdivision"),
				})
			}

			return worker.Result{
				Data: map[string]interface{}{
					"subdivision_research": map[string]interface{}{
						"goal":  goal,
						"query": query,
						"hits":  summarize(hits, "subdivision", 500),
					},
				},
				Unknowns: unknowns,
				Evidence: evidence,
				WebCalls: 1,
			}, nil
		},
	}
}
