package workers

import (
	"context"
	"strings"
	"time"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

const defaultEnrichmentMaxAgeHours = 168

// NormalizeGeocode builds the normalize_geocode worker: it geocodes the raw
// address via the configured Geocoder, matches the property against the
// internal CRM dataset for parcel facts/owner/tax data, and assembles the
// PropertyProfile snapshot persisted on ResearchProperty.LatestProfile.
func NormalizeGeocode(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "normalize_geocode",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			rp := rt.Property
			var unknowns []model.Unknown
			var errs []string
			var evidence []model.EvidenceDraft
			webCalls := 0

			profile := model.PropertyProfile{
				NormalizedAddress: rp.NormalizedAddress,
				GeoLat:            rp.GeoLat,
				GeoLng:            rp.GeoLng,
				APN:               rp.APN,
				EnrichmentStatus: model.EnrichmentStatus{
					Missing: []string{"crm_property_match", "skip_trace_owner", "zillow_enrichment"},
				},
			}

			evidence = append(evidence, model.EvidenceDraft{
				Category:   "input",
				Claim:      "Input address normalized to '" + rp.NormalizedAddress + "'.",
				SourceURL:  "internal://input",
				RawExcerpt: rp.RawAddress,
				Confidence: 1.0,
			})

			if d.Geocoder != nil {
				suggestions, err := d.Geocoder.Autocomplete(ctx, rp.RawAddress, "us")
				webCalls++
				if err != nil {
					errs = append(errs, "Geocode lookup failed: "+err.Error())
				} else if len(suggestions) == 0 {
					unknowns = append(unknowns, model.Unknown{Field: "geo", Reason: "No geocoding candidates returned."})
				} else {
					details, err := d.Geocoder.Details(ctx, suggestions[0].PlaceID)
					webCalls++
					if err != nil || details == nil {
						unknowns = append(unknowns, model.Unknown{Field: "geo", Reason: "Place details lookup returned no result."})
					} else {
						if rp.City == "" {
							rp.City = details.City
						}
						if rp.State == "" {
							rp.State = details.State
						}
						if rp.ZipCode == "" {
							rp.ZipCode = details.Zip
						}
						lat, lng := details.Lat, details.Lng
						rp.GeoLat, rp.GeoLng = &lat, &lng
						profile.GeoLat, profile.GeoLng = &lat, &lng
						evidence = append(evidence, model.EvidenceDraft{
							Category:   "geocode",
							Claim:      "Address geocoded from geocoder place details.",
							SourceURL:  "internal://geocoder/details",
							RawExcerpt: details.FormattedAddress,
							Confidence: 0.95,
						})
					}
				}
			} else {
				unknowns = append(unknowns, model.Unknown{Field: "geo", Reason: "Geocoder is not configured."})
			}

			var crmProperty *model.CRMProperty
			var skipTrace *model.SkipTrace
			var zillow *model.ZillowEnrichment

			if d.Store != nil {
				crmProperty, _ = d.Store.CRM.FindPropertyByAddress(ctx, rp.RawAddress, rp.City, rp.State)
				if crmProperty != nil {
					profile.ParcelFacts = model.ParcelFacts{
						Sqft: crmProperty.SquareFeet, Lot: crmProperty.LotSize,
						Beds: crmProperty.Bedrooms, Baths: crmProperty.Bathrooms,
						YearBuilt: crmProperty.YearBuilt,
					}
					evidence = append(evidence, model.EvidenceDraft{
						Category:   "property",
						Claim:      "Matched CRM property record for parcel facts.",
						SourceURL:  "internal://properties",
						RawExcerpt: crmProperty.Address + ", " + crmProperty.City + ", " + crmProperty.State,
						Confidence: 0.85,
					})

					skipTrace, _ = d.Store.CRM.LatestSkipTrace(ctx, crmProperty.ID)
					if skipTrace != nil && skipTrace.OwnerName != "" {
						profile.OwnerNames = []string{skipTrace.OwnerName}
						parts := []string{skipTrace.MailingAddress, skipTrace.MailingCity, skipTrace.MailingState, skipTrace.MailingZip}
						profile.MailingAddress = joinNonEmpty(parts, ", ")
						evidence = append(evidence, model.EvidenceDraft{
							Category:   "owner",
							Claim:      "Owner name and mailing address sourced from skip trace data.",
							SourceURL:  "internal://skip_traces",
							RawExcerpt: skipTrace.OwnerName,
							Confidence: 0.75,
						})
					} else {
						unknowns = append(unknowns, model.Unknown{Field: "owner_names", Reason: "No skip trace owner data found."})
					}

					zillow, _ = d.Store.CRM.LatestZillowEnrichment(ctx, crmProperty.ID)
					if zillow != nil {
						profile.AssessedValues = map[string]float64{}
						if zillow.AnnualTaxAmount != nil {
							profile.AssessedValues["annual_tax_amount"] = *zillow.AnnualTaxAmount
						}
						if zillow.Zestimate != nil {
							profile.AssessedValues["zestimate"] = *zillow.Zestimate
							profile.Zestimate = zillow.Zestimate
						}
						if zillow.RentZestimate != nil {
							profile.AssessedValues["rent_zestimate"] = *zillow.RentZestimate
							profile.RentZestimate = zillow.RentZestimate
						}
						profile.TaxStatus = "unknown"
						for i, item := range zillow.PriceHistory {
							if i >= 8 {
								break
							}
							profile.TransactionHistory = append(profile.TransactionHistory, model.TransactionEvent{
								Date: item.Date, Event: item.Event, Amount: item.Price, SourceURL: zillow.ZillowURL,
							})
						}
						evidence = append(evidence, model.EvidenceDraft{
							Category:   "tax",
							Claim:      "Tax and transaction history pulled from Zillow enrichment record.",
							SourceURL:  zillow.ZillowURL,
							Confidence: 0.7,
						})
					} else {
						unknowns = append(unknowns, model.Unknown{Field: "assessed_values", Reason: "No Zillow enrichment data found."})
					}
				} else {
					unknowns = append(unknowns, model.Unknown{Field: "parcel_facts", Reason: "No matching property record in internal CRM dataset."})
				}
			}

			maxAgeHours := ResolveEnrichmentMaxAgeHours(rt.Assumptions)
			profile.EnrichmentStatus = ComputeEnrichmentStatus(crmProperty, skipTrace, zillow, maxAgeHours, d.now())

			if d.Store != nil {
				if err := d.Store.Properties.UpdateProfile(ctx, rp.ID, rp.NormalizedAddress, rp.GeoLat, rp.GeoLng, rp.APN, profile); err != nil {
					errs = append(errs, "Persisting property profile failed: "+err.Error())
				}
			}

			return worker.Result{
				Data:     map[string]interface{}{"property_profile": profile},
				Unknowns: unknowns,
				Errors:   errs,
				Evidence: evidence,
				WebCalls: webCalls,
			}, nil
		},
	}
}

func joinNonEmpty(parts []string, sep string) string {
	filtered := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			filtered = append(filtered, p)
		}
	}
	return strings.Join(filtered, sep)
}

// ResolveEnrichmentMaxAgeHours reads the assumptions-level freshness bound
// used both by this worker and by the supervisor's pre-flight enrichment
// gate: an explicit enriched_max_age_hours wins; otherwise a
// bare require_enriched_data=true implies the worker's own default window.
func ResolveEnrichmentMaxAgeHours(assumptions map[string]interface{}) *int {
	if assumptions == nil {
		return nil
	}
	raw, ok := assumptions["enriched_max_age_hours"]
	if !ok || raw == nil {
		if requireEnriched, _ := assumptions["require_enriched_data"].(bool); requireEnriched {
			v := defaultEnrichmentMaxAgeHours
			return &v
		}
		return nil
	}
	switch v := raw.(type) {
	case int:
		return &v
	case float64:
		iv := int(v)
		return &iv
	default:
		return nil
	}
}

// ComputeEnrichmentStatus derives is_enriched/is_fresh/missing from the CRM
// match trio plus the freshness window. is_fresh is false (not null) when a
// window is set but no timestamp exists to compare against, and is only
// null when max_age_hours itself is null.
func ComputeEnrichmentStatus(crm *model.CRMProperty, skip *model.SkipTrace, zillow *model.ZillowEnrichment, maxAgeHours *int, now time.Time) model.EnrichmentStatus {
	hasCRM := crm != nil
	hasSkip := skip != nil && skip.OwnerName != ""
	hasZillow := zillow != nil

	var missing []string
	if !hasCRM {
		missing = append(missing, "crm_property_match")
	}
	if !hasSkip {
		missing = append(missing, "skip_trace_owner")
	}
	if !hasZillow {
		missing = append(missing, "zillow_enrichment")
	}

	var latest *time.Time
	if skip != nil && !skip.CreatedAt.IsZero() {
		latest = &skip.CreatedAt
	}
	if zillow != nil && zillow.UpdatedAt != nil {
		if latest == nil || zillow.UpdatedAt.After(*latest) {
			latest = zillow.UpdatedAt
		}
	}

	var isFresh *bool
	var ageHours *float64
	if maxAgeHours != nil {
		if latest == nil {
			fresh := false
			isFresh = &fresh
		} else {
			hours := now.Sub(*latest).Hours()
			ageHours = &hours
			fresh := hours <= float64(*maxAgeHours)
			isFresh = &fresh
		}
	}

	return model.EnrichmentStatus{
		IsEnriched:  hasCRM && hasSkip && hasZillow,
		IsFresh:     isFresh,
		AgeHours:    ageHours,
		MaxAgeHours: maxAgeHours,
		Missing:     missing,
	}
}
