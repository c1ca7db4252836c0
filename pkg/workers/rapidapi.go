package workers

import (
	"context"
	"fmt"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

func floatAttr(m map[string]interface{}, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func mapAttr(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]interface{})
	return v
}

func sliceAttr(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]interface{})
	return v
}

// USRealEstate fetches noise score, recently sold homes, and mortgage rates
// from the US Real Estate RapidAPI.
func USRealEstate(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "us_real_estate",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			usre := map[string]interface{}{"noise_score": nil, "noise_categories": map[string]interface{}{}, "sold_homes": []interface{}{}, "mortgage_rates": map[string]interface{}{}}
			data := map[string]interface{}{"us_real_estate": usre}
			if d.GIS == nil {
				return worker.Result{Data: data, Unknowns: []model.Unknown{{Field: "us_real_estate", Reason: "No RapidAPI-backed GIS adapter configured."}}}, nil
			}

			var evidence []model.EvidenceDraft
			webCalls := 0

			lat, lng, hasGeo := geoFromContext(rt)
			if hasGeo {
				resp, err := d.GIS.Get(ctx, "https://us-real-estate.p.rapidapi.com/location/noise-score", map[string]string{
					"lat": fmt.Sprintf("%f", lat), "lng": fmt.Sprintf("%f", lng),
				})
				webCalls++
				if err == nil && resp != nil {
					node := resp
					if inner := mapAttr(resp, "data"); inner != nil {
						node = inner
					}
					if score, ok := node["noise_score"]; ok {
						usre["noise_score"] = score
					}
					if categories := mapAttr(node, "noise_categories"); categories != nil {
						usre["noise_categories"] = categories
					}
					if usre["noise_score"] != nil {
						evidence = append(evidence, model.EvidenceDraft{
							Category: "noise", Claim: fmt.Sprintf("Noise score: %v/100", usre["noise_score"]),
							SourceURL: "https://www.realtor.com/", Confidence: 0.85,
						})
					}
				}
			}

			zip := rt.Property.ZipCode
			if zip != "" {
				resp, err := d.GIS.Get(ctx, "https://us-real-estate.p.rapidapi.com/sold-homes", map[string]string{
					"postal_code": zip, "offset": "0", "limit": "10", "sort": "sold_date",
				})
				webCalls++
				if err == nil && resp != nil {
					results := sliceAttr(mapAttr(resp, "data"), "results")
					if results == nil {
						results = sliceAttr(resp, "results")
					}
					soldHomes := usre["sold_homes"].([]interface{})
					for i, item := range results {
						if i >= 10 {
							break
						}
						m, _ := item.(map[string]interface{})
						soldHomes = append(soldHomes, map[string]interface{}{
							"address": m["address"], "price": firstNonNil(m["last_sold_price"], m["price"]),
							"date": firstNonNil(m["last_sold_date"], m["sold_date"]), "beds": m["beds"], "baths": m["baths"], "sqft": m["sqft"],
						})
					}
					usre["sold_homes"] = soldHomes
					if len(soldHomes) > 0 {
						evidence = append(evidence, model.EvidenceDraft{
							Category: "sold_homes", Claim: fmt.Sprintf("%d recently sold homes in ZIP %s", len(soldHomes), zip),
							SourceURL: "https://www.realtor.com/", Confidence: 0.85,
						})
					}
				}
			}

			resp, err := d.GIS.Get(ctx, "https://us-real-estate.p.rapidapi.com/finance/average-rate", nil)
			webCalls++
			if err == nil && resp != nil {
				node := resp
				if inner := mapAttr(resp, "data"); inner != nil {
					node = inner
				}
				rates := usre["mortgage_rates"].(map[string]interface{})
				for _, key := range []string{"thirty_year_fixed", "fifteen_year_fixed", "five_one_arm", "rate_30", "rate_15", "30_year_fixed", "15_year_fixed"} {
					if v, ok := node[key]; ok {
						rates[key] = v
					}
				}
				usre["mortgage_rates"] = rates
				if len(rates) > 0 {
					evidence = append(evidence, model.EvidenceDraft{Category: "finance", Claim: "Current mortgage rates retrieved", SourceURL: "https://www.realtor.com/mortgage/rates/", Confidence: 0.90})
				}
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: webCalls}, nil
		},
	}
}

func firstNonNil(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// WalkScore fetches walk/transit/bike scores for the geocoded point.
func WalkScore(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "walk_score",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			walk := map[string]interface{}{
				"walk_score": nil, "walk_description": nil, "transit_score": nil,
				"transit_description": nil, "bike_score": nil, "bike_description": nil,
			}
			data := map[string]interface{}{"walk_score": walk}
			if d.GIS == nil {
				return worker.Result{Data: data, Unknowns: []model.Unknown{{Field: "walk_score", Reason: "No RapidAPI-backed GIS adapter configured."}}}, nil
			}
			lat, lng, ok := geoFromContext(rt)
			if !ok {
				return worker.Result{Data: data, Unknowns: []model.Unknown{{Field: "walk_score", Reason: "No geocode available for this lookup."}}}, nil
			}

			resp, err := d.GIS.Get(ctx, "https://walk-score.p.rapidapi.com/score", map[string]string{
				"lat": fmt.Sprintf("%f", lat), "lon": fmt.Sprintf("%f", lng),
				"address": rt.Property.NormalizedAddress, "transit": "1", "bike": "1",
			})
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: 1}, nil
			}

			walk["walk_score"] = resp["walkscore"]
			walk["walk_description"] = resp["description"]
			if transit := mapAttr(resp, "transit"); transit != nil {
				walk["transit_score"] = transit["score"]
				walk["transit_description"] = transit["description"]
			}
			if bike := mapAttr(resp, "bike"); bike != nil {
				walk["bike_score"] = bike["score"]
				walk["bike_description"] = bike["description"]
			}

			var evidence []model.EvidenceDraft
			if walk["walk_score"] != nil || walk["transit_score"] != nil || walk["bike_score"] != nil {
				sourceURL := "https://www.walkscore.com/"
				if link, ok := resp["ws_link"].(string); ok && link != "" {
					sourceURL = link
				}
				evidence = append(evidence, model.EvidenceDraft{
					Category:  "walkability",
					Claim:     fmt.Sprintf("Walkability scores — walk=%v transit=%v bike=%v", walk["walk_score"], walk["transit_score"], walk["bike_score"]),
					SourceURL: sourceURL, Confidence: 0.95,
				})
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: 1}, nil
		},
	}
}

// Redfin fetches the Redfin estimate, property facts, and walk score for
// the property via auto-complete -> get-info -> get-walk-score.
func Redfin(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "redfin",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			redfin := map[string]interface{}{
				"redfin_estimate": nil, "property_url": nil, "property_type": nil, "year_built": nil,
				"lot_size": nil, "hoa_fee": nil, "listing_status": nil, "last_sold_price": nil,
				"last_sold_date": nil, "walk_score": nil, "transit_score": nil, "bike_score": nil,
			}
			data := map[string]interface{}{"redfin": redfin}
			if d.GIS == nil {
				return worker.Result{Data: data, Unknowns: []model.Unknown{{Field: "redfin", Reason: "No RapidAPI-backed GIS adapter configured."}}}, nil
			}
			address := rt.Property.NormalizedAddress
			if address == "" {
				return worker.Result{Data: data, Unknowns: []model.Unknown{{Field: "redfin", Reason: "No address available."}}}, nil
			}

			webCalls := 0
			acResp, err := d.GIS.Get(ctx, "https://redfin-com-data.p.rapidapi.com/auto-complete", map[string]string{"query": address})
			webCalls++
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: webCalls}, nil
			}

			propertyURL := extractRedfinURL(acResp)
			if propertyURL == "" {
				return worker.Result{Data: data, Unknowns: []model.Unknown{{Field: "redfin", Reason: "No property match found via Redfin auto-complete."}}, WebCalls: webCalls}, nil
			}
			redfin["property_url"] = propertyURL

			var evidence []model.EvidenceDraft
			infoResp, err := d.GIS.Get(ctx, "https://redfin-com-data.p.rapidapi.com/properties/get-info", map[string]string{"url": propertyURL})
			webCalls++
			if err == nil && infoResp != nil {
				node := infoResp
				if inner := mapAttr(infoResp, "data"); inner != nil {
					node = inner
				}
				basic := node
				if b := mapAttr(node, "basicInfo"); b != nil {
					basic = b
				}
				redfin["redfin_estimate"] = firstNonNil(basic["price"], node["predictedValue"])
				redfin["property_type"] = firstNonNil(basic["propertyType"], node["propertyType"])
				redfin["year_built"] = firstNonNil(basic["yearBuilt"], node["yearBuilt"])
				redfin["lot_size"] = firstNonNil(basic["lotSize"], node["lotSize"])
				redfin["listing_status"] = firstNonNil(basic["listingStatus"], node["status"])
				redfin["last_sold_price"] = firstNonNil(node["lastSoldPrice"], node["salePrice"])
				redfin["last_sold_date"] = firstNonNil(node["lastSoldDate"], node["saleDate"])

				if redfin["redfin_estimate"] != nil {
					sourceURL := propertyURL
					if len(propertyURL) > 0 && propertyURL[0] == '/' {
						sourceURL = "https://www.redfin.com" + propertyURL
					}
					evidence = append(evidence, model.EvidenceDraft{
						Category: "valuation", Claim: fmt.Sprintf("Redfin estimate: %v", redfin["redfin_estimate"]),
						SourceURL: sourceURL, Confidence: 0.85,
					})
				}
			}

			wsResp, err := d.GIS.Get(ctx, "https://redfin-com-data.p.rapidapi.com/properties/get-walk-score", map[string]string{"url": propertyURL})
			webCalls++
			if err == nil && wsResp != nil {
				node := wsResp
				if inner := mapAttr(wsResp, "data"); inner != nil {
					node = inner
				}
				redfin["walk_score"] = firstNonNil(node["walkScore"], node["walk_score"])
				redfin["transit_score"] = firstNonNil(node["transitScore"], node["transit_score"])
				redfin["bike_score"] = firstNonNil(node["bikeScore"], node["bike_score"])
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: webCalls}, nil
		},
	}
}

func extractRedfinURL(resp map[string]interface{}) string {
	if resp == nil {
		return ""
	}
	results := sliceAttr(resp, "results")
	if inner := mapAttr(resp, "data"); inner != nil && results == nil {
		results = sliceAttr(inner, "results")
	}
	for _, item := range results {
		m, _ := item.(map[string]interface{})
		if url, ok := firstNonNil(m["url"], m["link"]).(string); ok && url != "" {
			return url
		}
	}
	return ""
}

// Rentcast fetches an independent long-term rent estimate with comparable
// rentals from RentCast's AVM.
func Rentcast(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "rentcast",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			rentcast := map[string]interface{}{"rent_estimate": nil, "rent_range_low": nil, "rent_range_high": nil, "comparables": []interface{}{}}
			data := map[string]interface{}{"rentcast": rentcast}
			if d.GIS == nil {
				return worker.Result{Data: data, Unknowns: []model.Unknown{{Field: "rentcast", Reason: "No RentCast-backed GIS adapter configured."}}}, nil
			}
			address := rt.Property.NormalizedAddress
			if address == "" {
				return worker.Result{Data: data, Unknowns: []model.Unknown{{Field: "rentcast", Reason: "No address available."}}}, nil
			}

			resp, err := d.GIS.Get(ctx, "https://api.rentcast.io/v1/avm/rent/long-term", map[string]string{"address": address})
			if err != nil {
				return worker.Result{Data: data, Errors: []string{err.Error()}, WebCalls: 1}, nil
			}

			rentcast["rent_estimate"] = resp["rent"]
			rentcast["rent_range_low"] = resp["rentRangeLow"]
			rentcast["rent_range_high"] = resp["rentRangeHigh"]

			var evidence []model.EvidenceDraft
			comps := sliceAttr(resp, "comparables")
			rows := rentcast["comparables"].([]interface{})
			for i, c := range comps {
				if i >= 10 {
					break
				}
				m, _ := c.(map[string]interface{})
				rows = append(rows, map[string]interface{}{
					"address": m["formattedAddress"], "rent": m["price"], "distance_mi": m["distance"],
					"correlation": m["correlation"], "beds": m["bedrooms"], "baths": m["bathrooms"], "sqft": m["squareFootage"],
				})
			}
			rentcast["comparables"] = rows

			if rentcast["rent_estimate"] != nil {
				evidence = append(evidence, model.EvidenceDraft{
					Category:  "rent_estimate",
					Claim:     fmt.Sprintf("RentCast rent estimate: %v/mo (range %v-%v)", rentcast["rent_estimate"], rentcast["rent_range_low"], rentcast["rent_range_high"]),
					SourceURL: "https://www.rentcast.io/", RawExcerpt: fmt.Sprintf("%d comparable rentals used", len(rows)), Confidence: 0.90,
				})
			}

			return worker.Result{Data: data, Evidence: evidence, WebCalls: 1}, nil
		},
	}
}
