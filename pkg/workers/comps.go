package workers

import (
	"context"
	"strings"

	"github.com/propresearch/agentic-research-core/pkg/comps"
	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

var urbanRadiusCities = map[string]bool{
	"new york": true, "san francisco": true, "chicago": true, "boston": true,
	"los angeles": true, "seattle": true, "washington": true, "philadelphia": true,
}

func defaultCompRadiusMi(city string) float64 {
	if urbanRadiusCities[strings.ToLower(strings.TrimSpace(city))] {
		return 1.0
	}
	return 3.0
}

func assumptionFloat(assumptions map[string]interface{}, key string, def float64) float64 {
	if assumptions == nil {
		return def
	}
	switch v := assumptions[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func assumptionInt(assumptions map[string]interface{}, key string, def int) int {
	if assumptions == nil {
		return def
	}
	switch v := assumptions[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// internalCompCandidates reads CRM sold/for-rent properties in the same
// city/state and converts each into a scored comps.Candidate, skipping the
// property the job is itself researching.
func internalCompCandidates(rows []model.CRMProperty, rp *model.ResearchProperty, radius float64, targetSqft, targetBeds *int, targetBaths *float64, rental bool) []comps.Candidate {
	out := make([]comps.Candidate, 0, len(rows))
	for _, cand := range rows {
		if strings.EqualFold(strings.TrimSpace(cand.Address), strings.TrimSpace(rp.RawAddress)) {
			continue
		}
		if cand.Price == nil {
			continue
		}

		when := cand.UpdatedAt
		if when == nil {
			t := cand.CreatedAt
			when = &t
		}

		distance := comps.DistanceProxyMi(rp.ZipCode, cand.ZipCode, rp.City, cand.City, rp.State, cand.State)
		if !comps.PassesHardFilters(comps.HardFilterInput{
			DistanceMi: distance, RadiusMi: radius, SaleOrListDate: when, MaxRecencyMonths: 12,
			TargetSqft: targetSqft, CandidateSqft: cand.SquareFeet, TargetBeds: targetBeds,
			CandidateBeds: cand.Bedrooms, TargetBaths: targetBaths, CandidateBaths: cand.Bathrooms,
		}) {
			continue
		}

		score := comps.SimilarityScore(comps.SimilarityInput{
			DistanceMi: distance, RadiusMi: radius, TargetSqft: targetSqft, CandidateSqft: cand.SquareFeet,
			TargetBeds: targetBeds, CandidateBeds: cand.Bedrooms, TargetBaths: targetBaths,
			CandidateBaths: cand.Bathrooms, SaleOrListDate: when,
		})

		sq := 0.95
		c := comps.Candidate{
			Address: cand.Address + ", " + cand.City + ", " + cand.State + " " + cand.ZipCode,
			City:    cand.City, State: cand.State, Zip: cand.ZipCode, DistanceMi: distance,
			Price: cand.Price, Sqft: cand.SquareFeet, Beds: cand.Bedrooms, Baths: cand.Bathrooms,
			YearBuilt: cand.YearBuilt, Date: when, SimilarityScore: score,
			SourceURL: internalSourceURL(cand.ID), Origin: "internal", SourceQuality: &sq,
		}
		out = append(out, c)
	}
	return out
}

func internalSourceURL(id int64) string {
	return "internal://properties/" + itoa(id)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// externalCompCandidates searches for comp candidates and text-extracts rows
// from each hit, hard-filtering and scoring exactly as internal candidates
// are.
func externalCompCandidates(ctx context.Context, d Deps, rp *model.ResearchProperty, rental bool, radius float64, targetSqft, targetBeds *int, targetBaths *float64, maxResults int, query string) ([]comps.Candidate, int, []string) {
	if d.Search == nil {
		return nil, 0, nil
	}
	hits := d.Search.Search(ctx, query, maxResults, true)

	var out []comps.Candidate
	for _, h := range hits {
		blob := strings.TrimSpace(h.Title + " " + h.Snippet + " " + h.Text)
		if blob == "" {
			continue
		}
		sourceURL := h.URL
		if sourceURL == "" {
			sourceURL = "internal://search/no-url"
		}

		published := comps.ParsePublishedDate(h.PublishedDate)
		for _, row := range comps.ExtractCompRows(blob, rental, published, d.now()) {
			distance := comps.DistanceProxyMi(rp.ZipCode, row.Zip, rp.City, row.City, rp.State, row.State)
			if !comps.PassesHardFilters(comps.HardFilterInput{
				DistanceMi: distance, RadiusMi: radius, SaleOrListDate: row.Date, MaxRecencyMonths: 12,
				TargetSqft: targetSqft, CandidateSqft: row.Sqft, TargetBeds: targetBeds,
				CandidateBeds: row.Beds, TargetBaths: targetBaths, CandidateBaths: row.Baths,
			}) {
				continue
			}
			score := comps.SimilarityScore(comps.SimilarityInput{
				DistanceMi: distance, RadiusMi: radius, TargetSqft: targetSqft, CandidateSqft: row.Sqft,
				TargetBeds: targetBeds, CandidateBeds: row.Beds, TargetBaths: targetBaths,
				CandidateBaths: row.Baths, SaleOrListDate: row.Date,
			})
			if row.Price == nil {
				continue
			}
			out = append(out, comps.Candidate{
				Address: row.Address, City: row.City, State: row.State, Zip: row.Zip,
				DistanceMi: distance, Price: row.Price, Sqft: row.Sqft, Beds: row.Beds, Baths: row.Baths,
				Date: row.Date, SimilarityScore: score, SourceURL: sourceURL, Origin: "external",
			})
		}
	}
	return out, 1, nil
}

func toCompSales(candidates []comps.Candidate) []model.CompSale {
	out := make([]model.CompSale, 0, len(candidates))
	for _, c := range candidates {
		price := 0.0
		if c.Price != nil {
			price = *c.Price
		}
		out = append(out, model.CompSale{
			Address: c.Address, DistanceMi: c.DistanceMi, SaleDate: c.Date, SalePrice: price,
			Sqft: c.Sqft, Beds: c.Beds, Baths: c.Baths, YearBuilt: c.YearBuilt,
			SimilarityScore: c.SimilarityScore, SourceURL: c.SourceURL,
			Details: model.CompDetails{Origin: compOrigin(c.Origin), SourceQuality: sourceQualityOf(c), EffectiveScore: c.EffectiveScore},
		})
	}
	return out
}

func toCompRentals(candidates []comps.Candidate) []model.CompRental {
	out := make([]model.CompRental, 0, len(candidates))
	for _, c := range candidates {
		rent := 0.0
		if c.Price != nil {
			rent = *c.Price
		}
		out = append(out, model.CompRental{
			Address: c.Address, DistanceMi: c.DistanceMi, DateListed: c.Date, Rent: rent,
			Sqft: c.Sqft, Beds: c.Beds, Baths: c.Baths, SimilarityScore: c.SimilarityScore, SourceURL: c.SourceURL,
			Details: model.CompDetails{Origin: compOrigin(c.Origin), SourceQuality: sourceQualityOf(c), EffectiveScore: c.EffectiveScore},
		})
	}
	return out
}

func compOrigin(origin string) model.CompOrigin {
	if origin == "internal" {
		return model.OriginInternal
	}
	return model.OriginExternal
}

func sourceQualityOf(c comps.Candidate) float64 {
	if c.SourceQuality != nil {
		return *c.SourceQuality
	}
	return 0
}

// CompsSales builds the comps_sales worker: internal CRM sold-property
// candidates are combined with externally text-extracted candidates, hard
// filtered, scored, deduped, and ranked down to the top 8, persisted
// replacing the prior comp set.
func CompsSales(d Deps) worker.Worker {
	return compsWorker(d, "comps_sales", false)
}

// CompsRentals builds the comps_rentals worker: identical shape to
// CompsSales but sourced from active rental listings.
func CompsRentals(d Deps) worker.Worker {
	return compsWorker(d, "comps_rentals", true)
}

func compsWorker(d Deps, name string, rental bool) worker.Worker {
	return worker.Func{
		WorkerName: name,
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			profile, ok := propertyProfileFromContext(rt)
			if !ok {
				return worker.Result{
					Data:     map[string]interface{}{name: []interface{}{}},
					Unknowns: []model.Unknown{{Field: name, Reason: "Missing property profile from prior worker."}},
				}, nil
			}

			rp := rt.Property
			radiusKey, minKey, fallbackKey := "sales_radius_mi", "min_sales_comps", "sales_fallback_radius_mi"
			if rental {
				radiusKey, minKey, fallbackKey = "rental_radius_mi", "min_rental_comps", "rental_fallback_radius_mi"
			}

			radius := assumptionFloat(rt.Assumptions, radiusKey, defaultCompRadiusMi(rp.City))
			targetSqft, targetBeds, targetBaths := profile.ParcelFacts.Sqft, profile.ParcelFacts.Beds, profile.ParcelFacts.Baths

			var errs []string
			webCalls := 0

			var internalRows []model.CRMProperty
			if d.Store != nil {
				var err error
				if rental {
					internalRows, err = d.Store.CRM.NearbyActiveRentalCandidates(ctx, rp.City, rp.State, 250)
				} else {
					internalRows, err = d.Store.CRM.NearbySoldCandidates(ctx, rp.City, rp.State, 250)
				}
				if err != nil {
					errs = append(errs, "Internal comp candidate lookup failed: "+err.Error())
				}
			}
			internalCandidates := internalCompCandidates(internalRows, rp, radius, targetSqft, targetBeds, targetBaths, rental)

			var externalCandidates []comps.Candidate
			if len(internalCandidates) < 8 {
				hint := rp.City + " " + rp.State + " " + rp.ZipCode
				if rental {
					hint += " homes for rent"
				} else {
					hint += " recently sold homes"
				}
				var extWebCalls int
				var extErrs []string
				externalCandidates, extWebCalls, extErrs = externalCompCandidates(ctx, d, rp, rental, radius, targetSqft, targetBeds, targetBaths, 10, hint)
				webCalls += extWebCalls
				errs = append(errs, extErrs...)
			}

			selected := comps.DedupeAndRank(append(internalCandidates, externalCandidates...), 8)

			minComps := assumptionInt(rt.Assumptions, minKey, 5)
			if len(selected) < minComps {
				fallbackRadius := assumptionFloat(rt.Assumptions, fallbackKey, maxFloat(radius, 5.0))
				if fallbackRadius > radius {
					hint := rp.City + " " + rp.State + " " + rp.ZipCode + " nearby"
					relaxed, extWebCalls, extErrs := externalCompCandidates(ctx, d, rp, rental, fallbackRadius, targetSqft, targetBeds, targetBaths, 15, hint)
					webCalls += extWebCalls
					errs = append(errs, extErrs...)
					selected = comps.DedupeAndRank(append(append(internalCandidates, externalCandidates...), relaxed...), 8)
				}
			}

			var evidence []model.EvidenceDraft
			for _, c := range selected {
				category := "comps_sales"
				claimPrice := "sale_price"
				if rental {
					category, claimPrice = "comps_rentals", "rent"
				}
				evidence = append(evidence, model.EvidenceDraft{
					Category:   category,
					Claim:      "Selected " + strings.TrimSuffix(category, "s") + " comp: " + c.Address + ".",
					SourceURL:  c.SourceURL,
					RawExcerpt: claimPrice + "=" + priceString(c.Price),
					Confidence: clampConfidence(c.EffectiveScore),
				})
			}

			var unknowns []model.Unknown
			switch {
			case len(selected) == 0:
				unknowns = append(unknowns, model.Unknown{Field: name, Reason: "No comps matched hard filters (distance/recency/sqft/beds/baths)."})
			case len(selected) < minComps:
				unknowns = append(unknowns, model.Unknown{Field: name, Reason: "Only " + itoa(int64(len(selected))) + " comps matched deterministic filters."})
			}

			if d.Store != nil {
				if rental {
					if err := d.Store.CompRentals.ReplaceForJob(ctx, rt.Job.ID, toCompRentals(selected)); err != nil {
						errs = append(errs, "Persisting comp rentals failed: "+err.Error())
					}
				} else {
					if err := d.Store.CompSales.ReplaceForJob(ctx, rt.Job.ID, toCompSales(selected)); err != nil {
						errs = append(errs, "Persisting comp sales failed: "+err.Error())
					}
				}
			}

			var data interface{}
			if rental {
				data = map[string]interface{}{name: toCompRentals(selected)}
			} else {
				data = map[string]interface{}{name: toCompSales(selected)}
			}

			return worker.Result{Data: data, Unknowns: unknowns, Errors: errs, Evidence: evidence, WebCalls: webCalls}, nil
		},
	}
}

func propertyProfileFromContext(rt *worker.Runtime) (model.PropertyProfile, bool) {
	raw, ok := rt.SharedContext["normalize_geocode"]
	if !ok {
		return model.PropertyProfile{}, false
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return model.PropertyProfile{}, false
	}
	profile, ok := m["property_profile"].(model.PropertyProfile)
	return profile, ok
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func priceString(v *float64) string {
	if v == nil {
		return "none"
	}
	return itoa(int64(*v))
}

func clampConfidence(v float64) float64 {
	if v < 0.5 {
		return 0.5
	}
	if v > 0.98 {
		return 0.98
	}
	return v
}
