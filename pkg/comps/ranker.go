// Package comps implements the comparable ranker: the hard-filter, scoring,
// and dedupe/rank pipeline blending internal CRM candidates with
// text-extracted external candidates into at most 8 ranked comparables per
// research job.
package comps

import (
	"sort"
	"strings"
	"time"

	"github.com/propresearch/agentic-research-core/pkg/adapters"
	"github.com/propresearch/agentic-research-core/pkg/sharedmath"
)

// DistanceProxyMi returns a coarse distance proxy in miles derived from
// zip/city/state matches, in lieu of a true geodesic distance.
func DistanceProxyMi(targetZip, candidateZip, targetCity, candidateCity, targetState, candidateState string) float64 {
	if targetZip != "" && candidateZip != "" && targetZip == candidateZip {
		return 0.5
	}
	if targetCity != "" && candidateCity != "" && strings.EqualFold(targetCity, candidateCity) &&
		targetState != "" && candidateState != "" && strings.EqualFold(targetState, candidateState) {
		return 1.5
	}
	if targetState != "" && candidateState != "" && strings.EqualFold(targetState, candidateState) {
		return 4.0
	}
	return 50.0
}

// RecencyMonths returns the number of whole months between value and today
// (or time.Now() if today is zero). A nil value is treated as maximally
// stale (999 months).
func RecencyMonths(value *time.Time, today time.Time) int {
	if value == nil {
		return 999
	}
	if today.IsZero() {
		today = time.Now()
	}
	return (today.Year()-value.Year())*12 + (int(today.Month()) - int(value.Month()))
}

// HardFilterInput bundles the fields PassesHardFilters needs to evaluate a
// single candidate against a target.
type HardFilterInput struct {
	DistanceMi       float64
	RadiusMi         float64
	SaleOrListDate   *time.Time
	MaxRecencyMonths int
	TargetSqft       *int
	CandidateSqft    *int
	TargetBeds       *int
	CandidateBeds    *int
	TargetBaths      *float64
	CandidateBaths   *float64
}

// PassesHardFilters reports whether a candidate survives the non-negotiable
// distance, recency, size, bed, and bath filters.
func PassesHardFilters(in HardFilterInput) bool {
	if in.DistanceMi > in.RadiusMi {
		return false
	}
	if RecencyMonths(in.SaleOrListDate, time.Time{}) > in.MaxRecencyMonths {
		return false
	}
	if in.TargetSqft != nil && in.CandidateSqft != nil && *in.TargetSqft > 0 && *in.CandidateSqft > 0 {
		lower := float64(*in.TargetSqft) * 0.75
		upper := float64(*in.TargetSqft) * 1.25
		cand := float64(*in.CandidateSqft)
		if cand < lower || cand > upper {
			return false
		}
	}
	if in.TargetBeds != nil && in.CandidateBeds != nil {
		diff := *in.TargetBeds - *in.CandidateBeds
		if diff < 0 {
			diff = -diff
		}
		if diff > 1 {
			return false
		}
	}
	if in.TargetBaths != nil && in.CandidateBaths != nil {
		diff := *in.TargetBaths - *in.CandidateBaths
		if diff < 0 {
			diff = -diff
		}
		if diff > 1.0 {
			return false
		}
	}
	return true
}

// SimilarityInput bundles the fields SimilarityScore needs.
type SimilarityInput struct {
	DistanceMi     float64
	RadiusMi       float64
	TargetSqft     *int
	CandidateSqft  *int
	TargetBeds     *int
	CandidateBeds  *int
	TargetBaths    *float64
	CandidateBaths *float64
	SaleOrListDate *time.Time
}

// SimilarityScore returns the weighted blend of distance, size, bed/bath,
// and recency components in [0,1], rounded to 6 decimal places.
func SimilarityScore(in SimilarityInput) float64 {
	radius := in.RadiusMi
	if radius < 0.1 {
		radius = 0.1
	}
	distanceComponent := sharedmath.Clamp(1.0-(in.DistanceMi/radius), 0, 1)

	sqftComponent := 0.5
	if in.TargetSqft != nil && in.CandidateSqft != nil && *in.TargetSqft > 0 && *in.CandidateSqft > 0 {
		target := float64(*in.TargetSqft)
		cand := float64(*in.CandidateSqft)
		diff := cand - target
		if diff < 0 {
			diff = -diff
		}
		denom := target
		if denom < 1 {
			denom = 1
		}
		sqftComponent = sharedmath.Clamp(1.0-diff/denom, 0, 1)
	}

	bedComponent := 0.5
	if in.TargetBeds != nil && in.CandidateBeds != nil {
		diff := *in.TargetBeds - *in.CandidateBeds
		if diff < 0 {
			diff = -diff
		}
		switch diff {
		case 0:
			bedComponent = 1.0
		case 1:
			bedComponent = 0.6
		default:
			bedComponent = 0.0
		}
	}

	bathComponent := 0.5
	if in.TargetBaths != nil && in.CandidateBaths != nil {
		diff := *in.TargetBaths - *in.CandidateBaths
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff == 0:
			bathComponent = 1.0
		case diff <= 1.0:
			bathComponent = 0.6
		default:
			bathComponent = 0.0
		}
	}

	months := RecencyMonths(in.SaleOrListDate, time.Time{})
	recencyComponent := sharedmath.Clamp(1.0-float64(months)/12.0, 0, 1)

	bedBathComponent := (bedComponent + bathComponent) / 2.0

	score := 0.35*distanceComponent + 0.30*sqftComponent + 0.20*bedBathComponent + 0.15*recencyComponent
	return round6(sharedmath.Clamp(score, 0, 1))
}

// Candidate is a scored comparable awaiting dedupe and ranking.
type Candidate struct {
	Address         string
	City            string
	State           string
	Zip             string
	DistanceMi      float64
	Price           *float64
	Sqft            *int
	Beds            *int
	Baths           *float64
	YearBuilt       *int
	Date            *time.Time
	SimilarityScore float64
	SourceURL       string
	Origin          string // "internal" or "external"
	SourceQuality   *float64
	EffectiveScore  float64
}

// effectiveScore returns 0.85*similarity + 0.15*source_quality, rounded to 6
// decimal places, deriving source quality from the URL when not already set.
func effectiveScore(c Candidate) float64 {
	sq := 0.0
	if c.SourceQuality != nil {
		sq = *c.SourceQuality
	} else {
		sq = adapters.SourceQualityScore(c.SourceURL, "comps")
	}
	return round6(0.85*c.SimilarityScore + 0.15*sq)
}

func round6(v float64) float64 {
	const factor = 1e6
	scaled := v * factor
	if scaled >= 0 {
		return float64(int64(scaled+0.5)) / factor
	}
	return float64(int64(scaled-0.5)) / factor
}

// DedupeAndRank deduplicates candidates by (lower(trim(address)),
// lower(trim(source_url))) keeping the first occurrence, stamps each
// survivor's effective score, sorts by (effective_score desc, similarity_score
// desc, date desc with null last), and returns the top n.
func DedupeAndRank(candidates []Candidate, n int) []Candidate {
	seen := make(map[string]bool, len(candidates))
	deduped := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(strings.TrimSpace(c.Address)) + "|" + strings.ToLower(strings.TrimSpace(c.SourceURL))
		if seen[key] {
			continue
		}
		seen[key] = true
		if c.SourceQuality == nil {
			sq := adapters.SourceQualityScore(c.SourceURL, "comps")
			c.SourceQuality = &sq
		}
		c.EffectiveScore = effectiveScore(c)
		deduped = append(deduped, c)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		ei, ej := deduped[i].EffectiveScore, deduped[j].EffectiveScore
		if ei != ej {
			return ei > ej
		}
		if deduped[i].SimilarityScore != deduped[j].SimilarityScore {
			return deduped[i].SimilarityScore > deduped[j].SimilarityScore
		}
		di, dj := deduped[i].Date, deduped[j].Date
		if di == nil && dj == nil {
			return false
		}
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return di.After(*dj)
	})

	if n > 0 && len(deduped) > n {
		deduped = deduped[:n]
	}
	return deduped
}
