package workers

import (
	"context"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/underwriting"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

// Underwriting computes ARV/rent/rehab/offer ranges from the ranked comps
// and derives a deterministic risk score from evidence coverage, quality,
// and cross-source valuation contradiction checks.
func Underwriting(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "underwriting",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			profile, _ := propertyProfileFromContext(rt)
			sales := compSalesFromContext(rt)
			rentals := compRentalsFromContext(rt)

			var salePrices, rents []float64
			for _, s := range sales {
				salePrices = append(salePrices, s.SalePrice)
			}
			for _, r := range rentals {
				rents = append(rents, r.Rent)
			}

			rehabTierRaw, _ := rt.Assumptions["rehab_tier"].(string)
			targetMargin := assumptionFloat(rt.Assumptions, "target_margin", 0.20)

			fees := underwriting.DefaultFees(rt.Job.Strategy)
			fees.Closing = assumptionFloat(rt.Assumptions, "closing_cost", fees.Closing)
			fees.Holding = assumptionFloat(rt.Assumptions, "holding_cost", fees.Holding)
			fees.AssignmentFee = assumptionFloat(rt.Assumptions, "assignment_fee", fees.AssignmentFee)
			fees.Misc = assumptionFloat(rt.Assumptions, "misc_fee", fees.Misc)

			calc := underwriting.Calculate(underwriting.Input{
				Strategy: rt.Job.Strategy, SalePrices: salePrices, Rents: rents,
				RehabTierRaw: rehabTierRaw, Sqft: profile.ParcelFacts.Sqft, Fees: fees, TargetMargin: targetMargin,
			})
			calc.JobID = rt.Job.ID

			var unknowns []model.Unknown
			if calc.ARVEstimate.Base == nil {
				unknowns = append(unknowns, model.Unknown{Field: "arv_estimate", Reason: "No qualified sales comps available."})
			}
			if calc.RentEstimate.Base == nil {
				unknowns = append(unknowns, model.Unknown{Field: "rent_estimate", Reason: "No qualified rental comps available."})
			}

			var evidenceConfidences []float64
			if d.Store != nil {
				items, err := d.Store.Evidence.ListByJob(ctx, rt.Job.ID)
				if err == nil {
					for _, item := range items {
						evidenceConfidences = append(evidenceConfidences, item.Confidence)
					}
				}
			}

			var zestimate, rentZestimate *float64
			if v, ok := profile.AssessedValues["zestimate"]; ok {
				zestimate = &v
			}
			if v, ok := profile.AssessedValues["rent_zestimate"]; ok {
				rentZestimate = &v
			}

			risk := underwriting.SynthesizeRisk(underwriting.RiskInput{
				EvidenceConfidences: evidenceConfidences, UnknownCount: len(unknowns),
				HasOwnerNames: len(profile.OwnerNames) > 0, HasSalesComps: len(sales) > 0, HasRentalComps: len(rentals) > 0,
				ARVBase: calc.ARVEstimate.Base, Zestimate: zestimate, RentBase: calc.RentEstimate.Base, RentZestimate: rentZestimate,
				ValuationConflictThreshold: assumptionFloat(rt.Assumptions, "valuation_conflict_threshold", 0.30),
			})
			risk.JobID = rt.Job.ID

			var errs []string
			if d.Store != nil {
				if err := d.Store.Underwritings.Upsert(ctx, &calc); err != nil {
					errs = append(errs, "Persisting underwriting failed: "+err.Error())
				}
				if err := d.Store.RiskScores.Upsert(ctx, &risk); err != nil {
					errs = append(errs, "Persisting risk score failed: "+err.Error())
				}
			}

			evidence := []model.EvidenceDraft{{
				Category:   "underwriting",
				Claim:      "Underwriting calculations generated deterministically from comps and configured assumptions.",
				SourceURL:  "internal://agentic_jobs/" + rt.Job.ID + "/underwriting",
				RawExcerpt: "strategy=" + string(rt.Job.Strategy),
				Confidence: 1.0,
			}}

			return worker.Result{
				Data:     map[string]interface{}{"underwrite": calc, "risk_score": risk},
				Unknowns: unknowns,
				Errors:   errs,
				Evidence: evidence,
			}, nil
		},
	}
}

func compSalesFromContext(rt *worker.Runtime) []model.CompSale {
	raw, ok := rt.SharedContext["comps_sales"]
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	sales, _ := m["comps_sales"].([]model.CompSale)
	return sales
}

func compRentalsFromContext(rt *worker.Runtime) []model.CompRental {
	raw, ok := rt.SharedContext["comps_rentals"]
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	rentals, _ := m["comps_rentals"].([]model.CompRental)
	return rentals
}
