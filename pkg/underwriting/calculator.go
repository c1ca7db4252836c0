// Package underwriting implements the deterministic ARV/rent/rehab/offer
// math and the risk-score synthesis that the underwriting worker runs once
// comps have been ranked.
package underwriting

import (
	"strings"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/sharedmath"
)

var rehabPerSqft = map[string]float64{
	"light":  15.0,
	"medium": 35.0,
	"heavy":  60.0,
}

// DefaultFees returns the fee map defaults: closing 5000, holding 3000,
// assignment 10000 for wholesale strategies (else 0), misc 1500.
func DefaultFees(strategy model.Strategy) model.Fees {
	assignment := 0.0
	if strategy == model.StrategyWholesale {
		assignment = 10000.0
	}
	total := 5000.0 + 3000.0 + assignment + 1500.0
	return model.Fees{
		Closing:       5000.0,
		Holding:       3000.0,
		AssignmentFee: assignment,
		Misc:          1500.0,
		Total:         total,
	}
}

// NormalizeRehabTier coerces an arbitrary assumptions value to a valid
// RehabTier, defaulting (and coercing invalid input) to "medium".
func NormalizeRehabTier(raw string) model.RehabTier {
	switch model.RehabTier(strings.ToLower(strings.TrimSpace(raw))) {
	case model.RehabLight:
		return model.RehabLight
	case model.RehabHeavy:
		return model.RehabHeavy
	default:
		return model.RehabMedium
	}
}

// Input bundles the values the underwriting calculator needs; all optional
// fields are nil-safe (a nil operand propagates a nil result).
type Input struct {
	Strategy     model.Strategy
	SalePrices   []float64
	Rents        []float64
	RehabTierRaw string
	Sqft         *int
	Fees         model.Fees
	TargetMargin float64 // flip only, default 0.20
}

// Calculate runs the deterministic ARV/rent/rehab/offer math for one
// strategy, returning a fully-populated Underwriting
// value, including the Sensitivity grid built by SensitivityTable.
func Calculate(in Input) model.Underwriting {
	tier := NormalizeRehabTier(in.RehabTierRaw)

	var arvBase *float64
	if len(in.SalePrices) > 0 {
		v := sharedmath.Mean(in.SalePrices)
		arvBase = &v
	}
	arvRange := tripleRange(arvBase, 0.9, 1.1)

	var rentBase *float64
	if len(in.Rents) > 0 {
		v := sharedmath.Mean(in.Rents)
		rentBase = &v
	}
	rentRange := tripleRange(rentBase, 0.9, 1.1)

	perSqft := rehabPerSqft[string(tier)]
	var rehabBase *float64
	if in.Sqft != nil && *in.Sqft > 0 {
		v := float64(*in.Sqft) * perSqft
		rehabBase = &v
	}
	rehabLow, rehabHigh := rangeOf(rehabBase, 0.8, 1.2)

	fees := in.Fees
	fees.Total = fees.Closing + fees.Holding + fees.AssignmentFee + fees.Misc

	offerBase := computeOfferBase(in.Strategy, arvBase, rentBase, rehabBase, fees.Total, in.TargetMargin)
	offerRange := tripleRange(offerBase, 0.9, 1.1)

	return model.Underwriting{
		ARVEstimate:  arvRange,
		RentEstimate: rentRange,
		RehabTier:    tier,
		RehabRange:   model.Range2{Low: rehabLow, High: rehabHigh},
		OfferPrice:   offerRange,
		Fees:         fees,
		Sensitivity:  SensitivityTable(arvBase, offerBase),
	}
}

func computeOfferBase(strategy model.Strategy, arvBase, rentBase, rehabBase *float64, totalFees, targetMargin float64) *float64 {
	if arvBase == nil {
		return nil
	}
	arv := *arvBase

	rehabHighOrZero := 0.0
	if rehabBase != nil {
		rehabHighOrZero = *rehabBase * 1.2
	}
	rehabBaseOrZero := 0.0
	if rehabBase != nil {
		rehabBaseOrZero = *rehabBase
	}

	var base float64
	switch strategy {
	case model.StrategyWholesale:
		base = arv*0.70 - rehabHighOrZero - totalFees
	case model.StrategyFlip:
		base = arv*(1.0-targetMargin) - rehabBaseOrZero - totalFees
	default: // rental
		rentCap := arv * 0.75
		if rentBase != nil {
			rentCap = *rentBase * 100.0
		}
		cap := arv * 0.80
		if rentCap < cap {
			cap = rentCap
		}
		base = cap - rehabBaseOrZero - totalFees
	}
	return &base
}

func tripleRange(base *float64, lowMult, highMult float64) model.Range3 {
	if base == nil {
		return model.Range3{}
	}
	low := *base * lowMult
	high := *base * highMult
	b := *base
	return model.Range3{Low: &low, Base: &b, High: &high}
}

func rangeOf(base *float64, lowMult, highMult float64) (*float64, *float64) {
	if base == nil {
		return nil, nil
	}
	low := *base * lowMult
	high := *base * highMult
	return &low, &high
}

// SensitivityTable returns the fixed three-row sensitivity table: a
// conservative, base, and optimistic scenario with fixed multipliers and
// offer adjustments, each row's arv_base/offer_base scaled from the job's
// computed arvBase/offerBase (nil-safe).
func SensitivityTable(arvBase, offerBase *float64) []model.SensitivityRow {
	rows := []model.SensitivityRow{
		{Scenario: "conservative", Multiplier: 0.95, OfferAdjustment: -0.08},
		{Scenario: "base", Multiplier: 1.0, OfferAdjustment: 0.0},
		{Scenario: "optimistic", Multiplier: 1.05, OfferAdjustment: 0.08},
	}
	for i := range rows {
		if arvBase != nil {
			v := *arvBase * rows[i].Multiplier
			rows[i].ARVBase = &v
		}
		if offerBase != nil {
			v := *offerBase * (1.0 + rows[i].OfferAdjustment)
			rows[i].OfferBase = &v
		}
	}
	return rows
}
