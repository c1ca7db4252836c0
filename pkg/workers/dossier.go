package workers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

// DossierWriter assembles the structured data summary from every upstream
// worker's published output, attempts a narrative memo via the configured
// NarrativeLLM, and falls back to a deterministic structured markdown
// rendering when the LLM is unavailable or fails; the structured fallback
// is the authoritative, testable output.
func DossierWriter(d Deps) worker.Worker {
	return worker.Func{
		WorkerName: "dossier_writer",
		Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
			sections := gatherSections(rt)

			var evidenceItems []model.EvidenceItem
			if d.Store != nil {
				items, err := d.Store.Evidence.ListByJob(ctx, rt.Job.ID)
				if err == nil {
					evidenceItems = items
				}
			}

			structured := renderStructuredDossier(rt, sections)
			markdown := structured
			webCalls := 0

			if d.LLM != nil {
				prompt := narrativePrompt(rt, sections)
				narrative, err := d.LLM.Generate(ctx, prompt, "", 0)
				webCalls++
				if err == nil && strings.TrimSpace(narrative) != "" {
					markdown = narrative + "\n\n---\n\n## Raw Data Appendix\n\n" + dataTables(sections, evidenceItems)
				}
			}

			citations := make([]model.Citation, 0, len(evidenceItems))
			for _, item := range evidenceItems {
				citations = append(citations, model.Citation{EvidenceID: item.ID, SourceURL: item.SourceURL})
			}

			dossier := model.Dossier{JobID: rt.Job.ID, Markdown: markdown, Citations: citations}

			var errs []string
			if d.Store != nil {
				if err := d.Store.Dossiers.Upsert(ctx, &dossier); err != nil {
					errs = append(errs, "Persisting dossier failed: "+err.Error())
				}
			}

			evidence := []model.EvidenceDraft{{
				Category:   "dossier",
				Claim:      "Investment memo assembled from all upstream worker outputs.",
				SourceURL:  "internal://agentic_jobs/" + rt.Job.ID + "/dossier",
				RawExcerpt: "strategy=" + string(rt.Job.Strategy),
				Confidence: 1.0,
			}}

			return worker.Result{
				Data:     map[string]interface{}{"dossier": map[string]interface{}{"markdown": markdown}},
				Errors:   errs,
				Evidence: evidence,
				WebCalls: webCalls,
			}, nil
		},
	}
}

// dossierSections is the labelled, source-present-only projection of every
// upstream worker's Data payload that the dossier composes over.
type dossierSections struct {
	Profile    model.PropertyProfile
	HasProfile bool
	Sales      []model.CompSale
	Rentals    []model.CompRental
	Underwrite *model.Underwriting
	Risk       *model.RiskScore
	Extras     map[string]interface{} // worker name -> published Data payload, for every non-core worker
}

func gatherSections(rt *worker.Runtime) dossierSections {
	out := dossierSections{Extras: map[string]interface{}{}}

	if profile, ok := propertyProfileFromContext(rt); ok {
		out.Profile = profile
		out.HasProfile = true
	}
	out.Sales = compSalesFromContext(rt)
	out.Rentals = compRentalsFromContext(rt)

	if raw, ok := rt.SharedContext["underwriting"]; ok {
		if m, ok := raw.(map[string]interface{}); ok {
			if u, ok := m["underwrite"].(model.Underwriting); ok {
				out.Underwrite = &u
			}
			if r, ok := m["risk_score"].(model.RiskScore); ok {
				out.Risk = &r
			}
		}
	}

	for _, name := range []string{
		"public_records", "permits_violations", "subdivision_research",
		"neighborhood_intel", "flood_zone", "epa_environmental", "wildfire_hazard",
		"hud_opportunity", "wetlands", "historic_places", "seismic_hazard",
		"school_district", "us_real_estate", "walk_score", "redfin", "rentcast",
	} {
		if raw, ok := rt.SharedContext[name]; ok {
			out.Extras[name] = raw
		}
	}

	return out
}

// narrativePrompt builds the fixed investor-memo prompt embedding the
// structured summary plus the job's strategy.
func narrativePrompt(rt *worker.Runtime, s dossierSections) string {
	var sb strings.Builder
	sb.WriteString("You are a real-estate investment analyst. Write a concise investor memo ")
	sb.WriteString("for the " + string(rt.Job.Strategy) + " strategy using only the data below. ")
	sb.WriteString("Do not invent facts not present in the summary.\n\n")
	sb.WriteString(renderStructuredDossier(rt, s))
	return sb.String()
}

// renderStructuredDossier is the deterministic markdown fallback: one
// labelled section per available upstream payload, omitting any section
// whose source worker never ran or returned nothing.
// Running this twice against an unchanged shared context yields byte-exact
// markdown.
func renderStructuredDossier(rt *worker.Runtime, s dossierSections) string {
	var sb strings.Builder
	rp := rt.Property

	fmt.Fprintf(&sb, "# Investment Research Memo: %s\n\n", rp.NormalizedAddress)
	fmt.Fprintf(&sb, "**Strategy:** %s\n\n", rt.Job.Strategy)

	if s.HasProfile {
		sb.WriteString("## Property Profile\n\n")
		p := s.Profile
		if p.ParcelFacts.Sqft != nil {
			fmt.Fprintf(&sb, "- Square footage: %d\n", *p.ParcelFacts.Sqft)
		}
		if p.ParcelFacts.Beds != nil {
			fmt.Fprintf(&sb, "- Bedrooms: %d\n", *p.ParcelFacts.Beds)
		}
		if p.ParcelFacts.Baths != nil {
			fmt.Fprintf(&sb, "- Bathrooms: %.1f\n", *p.ParcelFacts.Baths)
		}
		if p.ParcelFacts.YearBuilt != nil {
			fmt.Fprintf(&sb, "- Year built: %d\n", *p.ParcelFacts.YearBuilt)
		}
		if len(p.OwnerNames) > 0 {
			fmt.Fprintf(&sb, "- Owner: %s\n", strings.Join(p.OwnerNames, ", "))
		}
		if p.Zestimate != nil {
			fmt.Fprintf(&sb, "- Zestimate: $%.0f\n", *p.Zestimate)
		}
		sb.WriteString("\n")
	}

	if len(s.Sales) > 0 {
		sb.WriteString("## Comparable Sales\n\n")
		sb.WriteString("| Address | Price | Sqft | Similarity |\n|---|---|---|---|\n")
		for _, c := range s.Sales {
			fmt.Fprintf(&sb, "| %s | $%.0f | %s | %.2f |\n", c.Address, c.SalePrice, sqftStr(c.Sqft), c.SimilarityScore)
		}
		sb.WriteString("\n")
	}

	if len(s.Rentals) > 0 {
		sb.WriteString("## Comparable Rentals\n\n")
		sb.WriteString("| Address | Rent | Sqft | Similarity |\n|---|---|---|---|\n")
		for _, c := range s.Rentals {
			fmt.Fprintf(&sb, "| %s | $%.0f | %s | %.2f |\n", c.Address, c.Rent, sqftStr(c.Sqft), c.SimilarityScore)
		}
		sb.WriteString("\n")
	}

	if s.Underwrite != nil {
		u := s.Underwrite
		sb.WriteString("## Underwriting\n\n")
		fmt.Fprintf(&sb, "- ARV (low/base/high): %s / %s / %s\n", f(u.ARVEstimate.Low), f(u.ARVEstimate.Base), f(u.ARVEstimate.High))
		fmt.Fprintf(&sb, "- Rehab tier: %s, range: %s - %s\n", u.RehabTier, f(u.RehabRange.Low), f(u.RehabRange.High))
		fmt.Fprintf(&sb, "- Offer (low/base/high): %s / %s / %s\n", f(u.OfferPrice.Low), f(u.OfferPrice.Base), f(u.OfferPrice.High))
		fmt.Fprintf(&sb, "- Fees total: $%.2f\n\n", u.Fees.Total)
	}

	if s.Risk != nil {
		r := s.Risk
		sb.WriteString("## Risk Assessment\n\n")
		fmt.Fprintf(&sb, "- Title risk: %.2f\n", r.TitleRisk)
		fmt.Fprintf(&sb, "- Data confidence: %.2f\n", r.DataConfidence)
		if len(r.ComplianceFlags) > 0 {
			fmt.Fprintf(&sb, "- Compliance flags: %s\n", strings.Join(r.ComplianceFlags, ", "))
		}
		sb.WriteString("\n")
	}

	extraKeys := make([]string, 0, len(s.Extras))
	for k := range s.Extras {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		fmt.Fprintf(&sb, "## %s\n\n%v\n\n", titleCase(k), s.Extras[k])
	}

	return sb.String()
}

func dataTables(s dossierSections, evidence []model.EvidenceItem) string {
	var sb strings.Builder
	sb.WriteString("### Evidence\n\n")
	for _, item := range evidence {
		fmt.Fprintf(&sb, "- [%s] %s (%s)\n", item.Category, item.Claim, item.SourceURL)
	}
	return sb.String()
}

func sqftStr(v *int) string {
	if v == nil {
		return "?"
	}
	return itoa(int64(*v))
}

func f(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.0f", *v)
}

func titleCase(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
