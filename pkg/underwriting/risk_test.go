package underwriting

import "testing"

func TestSynthesizeRisk_NoOwnerNoComps(t *testing.T) {
	result := SynthesizeRisk(RiskInput{
		EvidenceConfidences: []float64{0.8, 0.9, 0.7},
		UnknownCount:        1,
		HasOwnerNames:       false,
		HasSalesComps:       false,
		HasRentalComps:      false,
	})

	if result.TitleRisk != 0.75 {
		t.Errorf("expected title_risk 0.75 with no owner, got %v", result.TitleRisk)
	}
	wantFlags := []string{"owner_not_verified", "insufficient_sales_comps", "insufficient_rental_comps"}
	if len(result.ComplianceFlags) != len(wantFlags) {
		t.Fatalf("expected %v, got %v", wantFlags, result.ComplianceFlags)
	}
	for i, f := range wantFlags {
		if result.ComplianceFlags[i] != f {
			t.Errorf("flag[%d] = %q, want %q", i, result.ComplianceFlags[i], f)
		}
	}
	if result.DataConfidence < 0 || result.DataConfidence > 1 {
		t.Errorf("data_confidence out of bounds: %v", result.DataConfidence)
	}
}

func TestSynthesizeRisk_WithOwner(t *testing.T) {
	result := SynthesizeRisk(RiskInput{
		EvidenceConfidences: []float64{0.9},
		HasOwnerNames:       true,
		HasSalesComps:       true,
		HasRentalComps:      true,
	})
	if result.TitleRisk != 0.35 {
		t.Errorf("expected title_risk 0.35 with owner, got %v", result.TitleRisk)
	}
	if len(result.ComplianceFlags) != 0 {
		t.Errorf("expected no compliance flags, got %v", result.ComplianceFlags)
	}
}

func TestSynthesizeRisk_ValuationConflict(t *testing.T) {
	arv := 500000.0
	zestimate := 300000.0
	result := SynthesizeRisk(RiskInput{
		HasOwnerNames:  true,
		HasSalesComps:  true,
		HasRentalComps: true,
		ARVBase:        &arv,
		Zestimate:      &zestimate,
	})

	found := false
	for _, f := range result.ComplianceFlags {
		if f == "valuation_conflict_zestimate_vs_comps" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected valuation conflict flag, got %v", result.ComplianceFlags)
	}
}

func TestSynthesizeRisk_UnknownPenaltyCapped(t *testing.T) {
	result := SynthesizeRisk(RiskInput{
		UnknownCount:   20, // would be 2.0 uncapped, capped to 0.6
		HasOwnerNames:  true,
		HasSalesComps:  true,
		HasRentalComps: true,
	})
	if result.DataConfidence < 0 {
		t.Errorf("data_confidence should be clamped at 0, got %v", result.DataConfidence)
	}
}
