package workers

import (
	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/orchestrator"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

// CoreWorkerNames is the fixed 9-worker pipeline ordering.
// Pipeline mode runs exactly this set in this order; orchestrated mode runs
// the same 9 plus whatever ExtraAgentNames are requested, scheduled by
// their declared dependencies rather than list position.
var CoreWorkerNames = []string{
	"normalize_geocode",
	"public_records",
	"permits_violations",
	"comps_sales",
	"comps_rentals",
	"neighborhood_intel",
	"flood_zone",
	"underwriting",
	"dossier_writer",
}

// extensiveWorkerNames is the "extensive" extra_agents bundle: every
// environmental/hazard lookup plus every RapidAPI-backed external listing
// worker, all of which depend only on normalize_geocode.
var extensiveWorkerNames = []string{
	"epa_environmental",
	"wildfire_hazard",
	"hud_opportunity",
	"wetlands",
	"historic_places",
	"seismic_hazard",
	"school_district",
	"us_real_estate",
	"walk_score",
	"redfin",
	"rentcast",
}

func buildWorker(d Deps, name string) worker.Worker {
	switch name {
	case "normalize_geocode":
		return NormalizeGeocode(d)
	case "public_records":
		return PublicRecords(d)
	case "permits_violations":
		return PermitsViolations(d)
	case "comps_sales":
		return CompsSales(d)
	case "comps_rentals":
		return CompsRentals(d)
	case "neighborhood_intel":
		return NeighborhoodIntel(d)
	case "flood_zone":
		return FloodZone(d)
	case "underwriting":
		return Underwriting(d)
	case "dossier_writer":
		return DossierWriter(d)
	case "subdivision_research":
		return SubdivisionResearch(d)
	case "epa_environmental":
		return EPAEnvironmental(d)
	case "wildfire_hazard":
		return WildfireHazard(d)
	case "hud_opportunity":
		return HUDOpportunity(d)
	case "wetlands":
		return Wetlands(d)
	case "historic_places":
		return HistoricPlaces(d)
	case "seismic_hazard":
		return SeismicHazard(d)
	case "school_district":
		return SchoolDistrict(d)
	case "us_real_estate":
		return USRealEstate(d)
	case "walk_score":
		return WalkScore(d)
	case "redfin":
		return Redfin(d)
	case "rentcast":
		return Rentcast(d)
	default:
		return nil
	}
}

func dependenciesOf(name string) []string {
	switch name {
	case "normalize_geocode":
		return nil
	case "underwriting":
		return []string{"normalize_geocode", "comps_sales", "comps_rentals"}
	case "dossier_writer":
		return nil // filled in by BuildGraph once the full scheduled set is known
	default:
		return []string{"normalize_geocode"}
	}
}

// RunAdapter is supplied by the supervisor: it wraps worker.Execute with
// per-step timeout handling, evidence/WorkerRun persistence, and the
// cumulative web-call budget check, producing the orchestrator.RunFunc the
// scheduler actually invokes.
type RunAdapter func(w worker.Worker, job *model.Job, property *model.ResearchProperty, assumptions map[string]interface{}) orchestrator.RunFunc

// BuildGraph assembles the AgentSpec list for one job, honoring execution
// mode and the requested extra_agents bundle:
//
//   - pipeline mode ignores extraAgents entirely: the 9 core specs, run
//     through the scheduler with max_parallel_agents forced to 1 so the
//     declared order becomes the execution order.
//   - orchestrated mode inserts the "extensive" bundle and/or
//     subdivision_research ahead of underwriting, each depending only on
//     normalize_geocode, and extends dossier_writer's dependencies to
//     cover every other scheduled worker.
//
// When maxSteps <= len(CoreWorkerNames), extra agents are suppressed
// entirely (there is no room for them) and the list is truncated to
// the first maxSteps core names in declared order; any dependency that
// named a name falling outside the truncated set is pruned so the
// scheduler never blocks on a worker that will never run.
func BuildGraph(d Deps, mode model.ExecutionMode, extraAgents []string, maxSteps int, adapt RunAdapter, job *model.Job, property *model.ResearchProperty, assumptions map[string]interface{}) []orchestrator.AgentSpec {
	names := orderedNames(mode, extraAgents)

	if maxSteps > 0 && maxSteps <= len(CoreWorkerNames) {
		names = truncateCore(names, maxSteps)
	}

	scheduled := make(map[string]bool, len(names))
	for _, n := range names {
		scheduled[n] = true
	}

	dossierDeps := make([]string, 0, len(names))
	for _, n := range names {
		if n != "dossier_writer" {
			dossierDeps = append(dossierDeps, n)
		}
	}

	specs := make([]orchestrator.AgentSpec, 0, len(names))
	for _, name := range names {
		w := buildWorker(d, name)
		if w == nil {
			continue
		}

		var deps []string
		if name == "dossier_writer" {
			deps = pruneToScheduled(dossierDeps, scheduled)
		} else {
			deps = pruneToScheduled(dependenciesOf(name), scheduled)
		}

		specs = append(specs, orchestrator.AgentSpec{
			Name:         name,
			Dependencies: deps,
			Run:          adapt(w, job, property, assumptions),
		})
	}

	return specs
}

// orderedNames lays out the full declared-order worker name list before any
// max_steps truncation: the 7 geocode-rooted core workers, then any
// requested extras, then underwriting and dossier_writer last.
func orderedNames(mode model.ExecutionMode, extraAgents []string) []string {
	head := CoreWorkerNames[:len(CoreWorkerNames)-2] // everything up to and including flood_zone
	tail := CoreWorkerNames[len(CoreWorkerNames)-2:] // underwriting, dossier_writer

	names := make([]string, 0, len(CoreWorkerNames)+len(extensiveWorkerNames)+1)
	names = append(names, head...)

	if mode == model.ModeOrchestrated {
		for _, want := range extraAgents {
			switch want {
			case "extensive":
				names = append(names, extensiveWorkerNames...)
			case "subdivision_research":
				names = append(names, "subdivision_research")
			}
		}
	}

	names = append(names, tail...)
	return names
}

func truncateCore(names []string, maxSteps int) []string {
	out := make([]string, 0, maxSteps)
	taken := 0
	for _, n := range names {
		if !isCoreName(n) {
			continue // extras suppressed entirely when max_steps leaves no room
		}
		if taken >= maxSteps {
			break
		}
		out = append(out, n)
		taken++
	}
	return out
}

func isCoreName(name string) bool {
	for _, c := range CoreWorkerNames {
		if c == name {
			return true
		}
	}
	return false
}

func pruneToScheduled(deps []string, scheduled map[string]bool) []string {
	out := make([]string, 0, len(deps))
	for _, dep := range deps {
		if scheduled[dep] {
			out = append(out, dep)
		}
	}
	return out
}
