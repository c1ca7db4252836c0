package underwriting

import (
	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/sharedmath"
)

// RiskInput bundles the evidence, comp presence, and valuation cross-checks
// the risk synthesizer needs.
type RiskInput struct {
	EvidenceConfidences        []float64
	UnknownCount               int
	HasOwnerNames              bool
	HasSalesComps              bool
	HasRentalComps             bool
	ARVBase                    *float64
	Zestimate                  *float64
	RentBase                   *float64
	RentZestimate              *float64
	ValuationConflictThreshold float64 // default 0.30
}

// SynthesizeRisk computes the per-Job RiskScore: a deterministic blend of
// evidence coverage, mean evidence confidence, unknown-field penalties, and
// cross-source valuation contradiction checks.
func SynthesizeRisk(in RiskInput) model.RiskScore {
	evidenceCount := len(in.EvidenceConfidences)
	coverage := float64(evidenceCount) / 12.0
	if coverage > 1.0 {
		coverage = 1.0
	}

	meanConfidence := 0.5
	if evidenceCount > 0 {
		meanConfidence = sharedmath.Mean(in.EvidenceConfidences)
	}
	qualityAdjustment := (meanConfidence - 0.5) * 0.4

	unknownPenalty := float64(in.UnknownCount) * 0.1
	if unknownPenalty > 0.6 {
		unknownPenalty = 0.6
	}

	titleRisk := 0.75
	if in.HasOwnerNames {
		titleRisk = 0.35
	}

	var complianceFlags []string
	if !in.HasOwnerNames {
		complianceFlags = append(complianceFlags, "owner_not_verified")
	}
	if !in.HasSalesComps {
		complianceFlags = append(complianceFlags, "insufficient_sales_comps")
	}
	if !in.HasRentalComps {
		complianceFlags = append(complianceFlags, "insufficient_rental_comps")
	}

	threshold := in.ValuationConflictThreshold

	contradictionPenalty := 0.0
	if in.ARVBase != nil && in.Zestimate != nil {
		denom := abs(*in.Zestimate)
		if denom < 1.0 {
			denom = 1.0
		}
		diffRatio := abs(*in.ARVBase-*in.Zestimate) / denom
		if diffRatio > threshold {
			complianceFlags = append(complianceFlags, "valuation_conflict_zestimate_vs_comps")
			contradictionPenalty += 0.12
		}
	}
	if in.RentBase != nil && in.RentZestimate != nil {
		denom := abs(*in.RentZestimate)
		if denom < 1.0 {
			denom = 1.0
		}
		diffRatio := abs(*in.RentBase-*in.RentZestimate) / denom
		if diffRatio > threshold {
			complianceFlags = append(complianceFlags, "rent_conflict_zestimate_vs_comps")
			contradictionPenalty += 0.10
		}
	}

	dataConfidence := sharedmath.Clamp(coverage-unknownPenalty+0.25+qualityAdjustment-contradictionPenalty, 0, 1)

	return model.RiskScore{
		TitleRisk:       round3(titleRisk),
		DataConfidence:  round3(dataConfidence),
		ComplianceFlags: complianceFlags,
		Notes:           "Risk score combines deterministic coverage, evidence quality, and cross-source contradiction checks.",
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func round3(v float64) float64 {
	const factor = 1e3
	if v >= 0 {
		return float64(int64(v*factor+0.5)) / factor
	}
	return float64(int64(v*factor-0.5)) / factor
}
