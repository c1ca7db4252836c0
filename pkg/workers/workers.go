// Package workers implements the research core's worker catalog: one
// Worker per research concern, each honoring the
// worker.Worker contract. Workers never talk to Postgres or outbound
// services directly except through Deps — the store and adapter surfaces
// injected at registry construction — so every worker can be exercised in
// isolation against fakes.
package workers

import (
	"time"

	"github.com/propresearch/agentic-research-core/pkg/adapters"
	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/store"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

// Deps bundles every collaborator a worker needs. A worker's constructor
// closes over Deps rather than receiving it per-call, so the scheduler only
// ever deals in worker.Worker values.
type Deps struct {
	Store    *store.Store
	Search   adapters.SearchProvider
	Geocoder adapters.Geocoder
	GIS      adapters.GISAdapter
	LLM      adapters.NarrativeLLM
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// searchHitSummary is the trimmed, source-quality-stamped projection of a
// search hit every search-backed worker publishes into its Data payload.
type searchHitSummary struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Snippet       string  `json:"snippet"`
	SourceQuality float64 `json:"source_quality"`
}

func summarize(hits []adapters.SearchHit, category string, snippetLimit int) []searchHitSummary {
	out := make([]searchHitSummary, 0, len(hits))
	for _, h := range hits {
		snippet := h.Snippet
		if snippetLimit > 0 && len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}
		out = append(out, searchHitSummary{
			Title:         h.Title,
			URL:           h.URL,
			Snippet:       snippet,
			SourceQuality: adapters.SourceQualityScore(h.URL, category),
		})
	}
	return out
}

// geoFromContext recovers the lat/lng published by the geocode worker into
// SharedContext. Every hazard/GIS worker depends on normalize_geocode and
// reads its coordinates back this way rather than re-geocoding.
func geoFromContext(rt *worker.Runtime) (lat, lng float64, ok bool) {
	raw, present := rt.SharedContext["normalize_geocode"]
	if !present {
		return 0, 0, false
	}
	m, ok2 := raw.(map[string]interface{})
	if !ok2 {
		return 0, 0, false
	}
	profile, ok3 := m["property_profile"].(model.PropertyProfile)
	if !ok3 || profile.GeoLat == nil || profile.GeoLng == nil {
		return 0, 0, false
	}
	return *profile.GeoLat, *profile.GeoLng, true
}

// sortByQualityDesc orders hits by descending source quality, matching the
// Python workers' `sorted(..., reverse=True)` ranking step.
func sortByQualityDesc(hits []adapters.SearchHit, category string) []adapters.SearchHit {
	scored := make([]adapters.SearchHit, len(hits))
	copy(scored, hits)
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0; j-- {
			if adapters.SourceQualityScore(scored[j].URL, category) > adapters.SourceQualityScore(scored[j-1].URL, category) {
				scored[j], scored[j-1] = scored[j-1], scored[j]
			} else {
				break
			}
		}
	}
	return scored
}
