package comps

import (
	"testing"
	"time"
)

func intPtr(v int) *int              { return &v }
func floatPtr(v float64) *float64    { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func TestDistanceProxyMi(t *testing.T) {
	tests := []struct {
		name                   string
		tz, cz, tc, cc, ts, cs string
		expected               float64
	}{
		{name: "same zip", tz: "07102", cz: "07102", expected: 0.5},
		{name: "same city state", tc: "Newark", cc: "newark", ts: "NJ", cs: "nj", expected: 1.5},
		{name: "same state only", ts: "NJ", cs: "NJ", expected: 4.0},
		{name: "no match", tc: "Newark", cc: "Boise", ts: "NJ", cs: "ID", expected: 50.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceProxyMi(tt.tz, tt.cz, tt.tc, tt.cc, tt.ts, tt.cs)
			if got != tt.expected {
				t.Errorf("DistanceProxyMi() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDistanceProxyMi_Monotonic(t *testing.T) {
	sameZip := DistanceProxyMi("07102", "07102", "Newark", "Newark", "NJ", "NJ")
	sameCity := DistanceProxyMi("07102", "07103", "Newark", "Newark", "NJ", "NJ")
	sameState := DistanceProxyMi("07102", "", "Newark", "Jersey City", "NJ", "NJ")
	if !(sameZip <= sameCity && sameCity <= sameState) {
		t.Errorf("expected sameZip <= sameCity <= sameState, got %v <= %v <= %v", sameZip, sameCity, sameState)
	}
}

func TestRecencyMonths(t *testing.T) {
	today := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	if got := RecencyMonths(nil, today); got != 999 {
		t.Errorf("RecencyMonths(nil) = %d, want 999", got)
	}
	sixMonthsAgo := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	if got := RecencyMonths(&sixMonthsAgo, today); got != 6 {
		t.Errorf("RecencyMonths(6mo ago) = %d, want 6", got)
	}
}

func TestPassesHardFilters(t *testing.T) {
	today := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	recent := today.AddDate(0, -1, 0)
	stale := today.AddDate(-2, 0, 0)

	base := HardFilterInput{
		DistanceMi:       1.0,
		RadiusMi:         3.0,
		SaleOrListDate:   &recent,
		MaxRecencyMonths: 12,
		TargetSqft:       intPtr(1500),
		CandidateSqft:    intPtr(1500),
		TargetBeds:       intPtr(3),
		CandidateBeds:    intPtr(3),
		TargetBaths:      floatPtr(2.0),
		CandidateBaths:   floatPtr(2.0),
	}
	if !PassesHardFilters(base) {
		t.Error("expected base candidate to pass")
	}

	tooFar := base
	tooFar.DistanceMi = 10.0
	if PassesHardFilters(tooFar) {
		t.Error("expected too-far candidate to fail")
	}

	tooOld := base
	tooOld.SaleOrListDate = &stale
	if PassesHardFilters(tooOld) {
		t.Error("expected stale candidate to fail (12 months older than 12 months)")
	}

	wrongSize := base
	wrongSize.CandidateSqft = intPtr(3000)
	if PassesHardFilters(wrongSize) {
		t.Error("expected oversized candidate to fail")
	}

	bedsOff := base
	bedsOff.CandidateBeds = intPtr(1)
	if PassesHardFilters(bedsOff) {
		t.Error("expected beds off-by-2 to fail")
	}

	bathsOff := base
	bathsOff.CandidateBaths = floatPtr(4.0)
	if PassesHardFilters(bathsOff) {
		t.Error("expected baths off-by-2 to fail")
	}
}

func TestSimilarityScore_Bounded(t *testing.T) {
	in := SimilarityInput{
		DistanceMi:     0.5,
		RadiusMi:       3.0,
		TargetSqft:     intPtr(1500),
		CandidateSqft:  intPtr(1500),
		TargetBeds:     intPtr(3),
		CandidateBeds:  intPtr(3),
		TargetBaths:    floatPtr(2.0),
		CandidateBaths: floatPtr(2.0),
		SaleOrListDate: nil,
	}
	got := SimilarityScore(in)
	if got < 0 || got > 1 {
		t.Errorf("SimilarityScore() = %v, want in [0,1]", got)
	}
}

func TestSimilarityScore_MonotonicInDistance(t *testing.T) {
	mk := func(distance float64) SimilarityInput {
		return SimilarityInput{
			DistanceMi:     distance,
			RadiusMi:       5.0,
			TargetSqft:     intPtr(1500),
			CandidateSqft:  intPtr(1500),
			TargetBeds:     intPtr(3),
			CandidateBeds:  intPtr(3),
			TargetBaths:    floatPtr(2.0),
			CandidateBaths: floatPtr(2.0),
		}
	}
	near := SimilarityScore(mk(0.5))
	mid := SimilarityScore(mk(2.5))
	far := SimilarityScore(mk(4.9))
	if !(near >= mid && mid >= far) {
		t.Errorf("expected similarity to decrease with distance: near=%v mid=%v far=%v", near, mid, far)
	}
}

func TestSimilarityScore_UnknownFieldsDefaultToHalf(t *testing.T) {
	in := SimilarityInput{DistanceMi: 1.0, RadiusMi: 3.0}
	got := SimilarityScore(in)
	if got < 0 || got > 1 {
		t.Errorf("SimilarityScore() with all-unknown fields = %v, want in [0,1]", got)
	}
	// Unknown sqft/beds/baths each score 0.5; a missing date scores 0 recency.
	want := round6(0.35*(1.0-1.0/3.0) + 0.30*0.5 + 0.20*0.5 + 0.15*0.0)
	if got != want {
		t.Errorf("SimilarityScore() with all-unknown fields = %v, want %v", got, want)
	}
}

func TestEffectiveScore_DerivesSourceQuality(t *testing.T) {
	c := Candidate{SimilarityScore: 0.8, SourceURL: "https://tax.nj.gov/parcel/1"}
	got := effectiveScore(c)
	want := round6(0.85*0.8 + 0.15*0.95)
	if got != want {
		t.Errorf("effectiveScore() = %v, want %v", got, want)
	}
}

func TestDedupeAndRank(t *testing.T) {
	d1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	candidates := []Candidate{
		{Address: "123 Main St", SourceURL: "https://a.com", SimilarityScore: 0.9, Date: &d1, SourceQuality: floatPtr(0.5)},
		{Address: "123 MAIN ST", SourceURL: "HTTPS://A.COM", SimilarityScore: 0.1, Date: &d2, SourceQuality: floatPtr(0.1)}, // dup, should be dropped
		{Address: "456 Oak Ave", SourceURL: "https://b.com", SimilarityScore: 0.95, Date: &d2, SourceQuality: floatPtr(0.5)},
		{Address: "789 Elm Rd", SourceURL: "https://c.com", SimilarityScore: 0.5, Date: nil, SourceQuality: floatPtr(0.5)},
	}

	ranked := DedupeAndRank(candidates, 8)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 deduped candidates, got %d", len(ranked))
	}

	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].EffectiveScore < ranked[i].EffectiveScore {
			t.Errorf("expected descending effective score, got %v before %v", ranked[i-1].EffectiveScore, ranked[i].EffectiveScore)
		}
	}

	if ranked[len(ranked)-1].Address != "789 Elm Rd" {
		t.Errorf("expected lowest-scoring null-date candidate to sort last, got %q last", ranked[len(ranked)-1].Address)
	}
}

func TestDedupeAndRank_TopN(t *testing.T) {
	candidates := make([]Candidate, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, Candidate{
			Address:         string(rune('A' + i)),
			SourceURL:       "https://example.com/" + string(rune('A'+i)),
			SimilarityScore: 0.5,
			SourceQuality:   floatPtr(0.5),
		})
	}
	ranked := DedupeAndRank(candidates, 8)
	if len(ranked) != 8 {
		t.Errorf("expected top 8, got %d", len(ranked))
	}
}
