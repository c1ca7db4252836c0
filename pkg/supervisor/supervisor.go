// Package supervisor implements the Pipeline Supervisor: job
// lifecycle management (create/run/fetch), the pre-flight enrichment gate,
// execution-mode dispatch between the fixed pipeline and the full
// dependency graph, and the cumulative web-call budget enforcement that
// aborts a run mid-flight.
package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/propresearch/agentic-research-core/pkg/address"
	"github.com/propresearch/agentic-research-core/pkg/evidence"
	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/notify"
	"github.com/propresearch/agentic-research-core/pkg/orchestrator"
	"github.com/propresearch/agentic-research-core/pkg/output"
	"github.com/propresearch/agentic-research-core/pkg/sharederr"
	"github.com/propresearch/agentic-research-core/pkg/sharedlog"
	"github.com/propresearch/agentic-research-core/pkg/store"
	"github.com/propresearch/agentic-research-core/pkg/worker"
	"github.com/propresearch/agentic-research-core/pkg/workers"
)

// Supervisor coordinates the full job lifecycle over a Store, a worker
// catalog, and the evidence store every worker's drafts pass through.
type Supervisor struct {
	Store         *store.Store
	Workers       workers.Deps
	Evidence      *evidence.Store
	Notifier      notify.Notifier
	DefaultLimits model.Limits
	Logger        *logrus.Logger
	Now           func() time.Time
}

func (s *Supervisor) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Supervisor) logger() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}

// CreateJob validates the input, finds-or-creates the ResearchProperty by
// its stable key, rejects a second concurrent job against the same
// property, and inserts a new pending Job.
func (s *Supervisor) CreateJob(ctx context.Context, in ResearchInput) (*model.Job, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	stableKey := address.BuildStableKey(in.Address, in.City, in.State, in.Zip, in.APN)
	normalized := address.NormalizeAddress(in.Address, in.City, in.State, in.Zip)

	property, err := s.Store.Properties.FindByStableKey(ctx, stableKey)
	if err != nil {
		return nil, sharederr.DatabaseError("find research property", err)
	}
	if property == nil {
		now := s.now()
		property = &model.ResearchProperty{
			ID:                uuid.NewString(),
			StableKey:         stableKey,
			RawAddress:        in.Address,
			NormalizedAddress: normalized,
			City:              in.City,
			State:             address.NormalizeUSState(in.State),
			ZipCode:           in.Zip,
			APN:               in.APN,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.Store.Properties.Insert(ctx, property); err != nil {
			return nil, sharederr.DatabaseError("insert research property", err)
		}
	}

	existing, err := s.Store.Jobs.FindInProgressByProperty(ctx, property.ID)
	if err != nil {
		return nil, sharederr.DatabaseError("check in-progress job", err)
	}
	if existing != nil {
		return nil, sharederr.InputInvalid(fmt.Sprintf("a job is already %s for this property (job_id=%s)", existing.Status, existing.ID))
	}

	strategy := model.Strategy(in.Strategy)
	if strategy == "" {
		strategy = model.StrategyWholesale
	}
	mode := model.ModePipeline
	if in.Mode == string(model.ModeOrchestrated) {
		mode = model.ModeOrchestrated
	}

	limits := s.DefaultLimits
	if in.Limits != nil {
		limits = *in.Limits
	}
	limits.ExecutionMode = mode

	assumptions, err := json.Marshal(in.Assumptions)
	if err != nil {
		return nil, sharederr.InputInvalid("assumptions must be JSON-serializable: " + err.Error())
	}

	job := &model.Job{
		ID:                 uuid.NewString(),
		TraceID:            address.NewTraceID(),
		ResearchPropertyID: property.ID,
		Status:             model.JobPending,
		Strategy:           strategy,
		Assumptions:        assumptions,
		Limits:             limits,
		CreatedAt:          s.now(),
	}
	if err := s.Store.Jobs.Insert(ctx, job); err != nil {
		return nil, sharederr.DatabaseError("insert job", err)
	}

	s.logger().WithFields(sharedlog.JobFields("create", job.ID).ToLogrus()).Info("job created")
	return job, nil
}

// RunSync creates and synchronously runs a job against in, returning the
// completed (or failed) Job record.
func (s *Supervisor) RunSync(ctx context.Context, in ResearchInput) (*model.Job, error) {
	job, err := s.CreateJob(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.RunJob(ctx, job.ID); err != nil {
		return nil, err
	}
	return s.Store.Jobs.FindByID(ctx, job.ID)
}

// RunJob drives one Job from pending to completed/failed: the enrichment
// gate, execution-mode dispatch, and result assembly.
func (s *Supervisor) RunJob(ctx context.Context, jobID string) error {
	job, err := s.Store.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return sharederr.DatabaseError("find job", err)
	}
	if job == nil {
		return sharederr.InputInvalid("no such job: " + jobID)
	}

	property, err := s.Store.Properties.FindByID(ctx, job.ResearchPropertyID)
	if err != nil {
		return sharederr.DatabaseError("find research property", err)
	}
	if property == nil {
		return sharederr.InputInvalid("research property not found for job: " + jobID)
	}

	var assumptions map[string]interface{}
	if len(job.Assumptions) > 0 {
		if err := json.Unmarshal(job.Assumptions, &assumptions); err != nil {
			return sharederr.InputInvalid("malformed job assumptions: " + err.Error())
		}
	}

	if err := s.Store.Jobs.MarkStarted(ctx, job.ID, s.now()); err != nil {
		return sharederr.DatabaseError("mark job started", err)
	}
	job.Status = model.JobInProgress

	if err := s.checkEnrichmentGate(ctx, property, assumptions); err != nil {
		s.fail(ctx, job, err)
		return err
	}

	extraAgents := extraAgentNames(assumptions)
	specs := workers.BuildGraph(s.Workers, job.Limits.ExecutionMode, extraAgents, job.Limits.MaxSteps, s.runAdapter, job, property, assumptions)

	opts := orchestrator.Options{MaxSteps: job.Limits.MaxSteps, MaxParallelAgents: job.Limits.MaxParallelAgents}
	if job.Limits.ExecutionMode == model.ModePipeline {
		opts.MaxParallelAgents = 1
	}

	shared := map[string]interface{}{}
	_, runErr := orchestrator.Run(ctx, specs, shared, opts)
	if runErr != nil {
		s.fail(ctx, job, runErr)
		return runErr
	}

	envelope, err := output.Assemble(ctx, s.Store, job.ID)
	if err != nil {
		s.fail(ctx, job, sharederr.DatabaseError("assemble output", err))
		return err
	}

	results, err := json.Marshal(envelope)
	if err != nil {
		s.fail(ctx, job, sharederr.FailedTo("marshal job results", err))
		return err
	}

	if err := s.Store.Jobs.Complete(ctx, job.ID, results, s.now()); err != nil {
		return sharederr.DatabaseError("complete job", err)
	}

	s.logger().WithFields(sharedlog.JobFields("complete", job.ID).ToLogrus()).Info("job completed")
	s.Notifier.NotifyCompleted(job.ID, property.NormalizedAddress)
	return nil
}

func (s *Supervisor) fail(ctx context.Context, job *model.Job, cause error) {
	msg := cause.Error()
	if err := s.Store.Jobs.Fail(ctx, job.ID, msg, s.now()); err != nil {
		s.logger().WithFields(sharedlog.JobFields("fail", job.ID).Error(err).ToLogrus()).Error("failed to persist job failure")
	}
	s.logger().WithFields(sharedlog.JobFields("fail", job.ID).Error(cause).ToLogrus()).Warn("job failed")
	s.Notifier.NotifyFailed(job.ID, msg)
}

// GetFullOutput returns the assembled output envelope for a completed job,
// recomputing it from the underlying tables rather than relying solely on
// the cached Job.Results column.
func (s *Supervisor) GetFullOutput(ctx context.Context, jobID string) (*output.ResearchOutput, error) {
	return output.Assemble(ctx, s.Store, jobID)
}

// GetLatestResearch assembles the output envelope for the most recently
// created job against a property, for callers that only know the property
// ID (GET /properties/{id}/research).
func (s *Supervisor) GetLatestResearch(ctx context.Context, propertyID string) (*output.ResearchOutput, error) {
	job, err := s.Store.Jobs.FindLatestByProperty(ctx, propertyID)
	if err != nil {
		return nil, sharederr.DatabaseError("find latest job for property", err)
	}
	if job == nil {
		return nil, sharederr.InputInvalid("no research job found for property: " + propertyID)
	}
	return output.Assemble(ctx, s.Store, job.ID)
}

// GetEnrichmentStatus reports the latest internal-CRM enrichment snapshot
// for a property without running any worker, for callers polling ahead of
// job creation (GET /properties/{id}/enrichment).
func (s *Supervisor) GetEnrichmentStatus(ctx context.Context, propertyID string, assumptions map[string]interface{}) (model.EnrichmentStatus, error) {
	property, err := s.Store.Properties.FindByID(ctx, propertyID)
	if err != nil {
		return model.EnrichmentStatus{}, sharederr.DatabaseError("find research property", err)
	}
	if property == nil {
		return model.EnrichmentStatus{}, sharederr.InputInvalid("no such property: " + propertyID)
	}

	maxAgeHours := workers.ResolveEnrichmentMaxAgeHours(assumptions)
	crm, skip, zillow, err := s.loadCRMTrio(ctx, property)
	if err != nil {
		return model.EnrichmentStatus{}, err
	}
	return workers.ComputeEnrichmentStatus(crm, skip, zillow, maxAgeHours, s.now()), nil
}

func (s *Supervisor) loadCRMTrio(ctx context.Context, property *model.ResearchProperty) (*model.CRMProperty, *model.SkipTrace, *model.ZillowEnrichment, error) {
	crm, err := s.Store.CRM.FindPropertyByAddress(ctx, property.RawAddress, property.City, property.State)
	if err != nil {
		return nil, nil, nil, sharederr.DatabaseError("find crm property", err)
	}
	if crm == nil {
		return nil, nil, nil, nil
	}
	skip, err := s.Store.CRM.LatestSkipTrace(ctx, crm.ID)
	if err != nil {
		return nil, nil, nil, sharederr.DatabaseError("find skip trace", err)
	}
	zillow, err := s.Store.CRM.LatestZillowEnrichment(ctx, crm.ID)
	if err != nil {
		return nil, nil, nil, sharederr.DatabaseError("find zillow enrichment", err)
	}
	return crm, skip, zillow, nil
}

// checkEnrichmentGate rejects a run before any worker executes when the
// assumptions demand enrichment the internal CRM dataset cannot supply
// fresh enough. It is a no-op unless require_enriched_data is truthy;
// enriched_max_age_hours alone never gates a run.
func (s *Supervisor) checkEnrichmentGate(ctx context.Context, property *model.ResearchProperty, assumptions map[string]interface{}) error {
	requireEnriched, _ := assumptions["require_enriched_data"].(bool)
	if !requireEnriched {
		return nil
	}
	maxAgeHours := workers.ResolveEnrichmentMaxAgeHours(assumptions)

	crm, skip, zillow, err := s.loadCRMTrio(ctx, property)
	if err != nil {
		return err
	}
	status := workers.ComputeEnrichmentStatus(crm, skip, zillow, maxAgeHours, s.now())

	if requireEnriched && !status.IsEnriched {
		return sharederr.EnrichmentGateFailed("required enrichment data missing: " + strings.Join(status.Missing, ", "))
	}
	if status.IsFresh != nil && !*status.IsFresh {
		ageHours := "unknown"
		if status.AgeHours != nil {
			ageHours = strconv.FormatFloat(*status.AgeHours, 'f', 0, 64)
		}
		maxAge := "unknown"
		if status.MaxAgeHours != nil {
			maxAge = strconv.Itoa(*status.MaxAgeHours)
		}
		return sharederr.EnrichmentGateFailed(fmt.Sprintf(
			"enrichment data is stale: age_hours=%s, max_age_hours=%s", ageHours, maxAge))
	}
	return nil
}

// runAdapter wraps worker.Execute with evidence/WorkerRun persistence and
// the cumulative web-call budget check, producing the orchestrator.RunFunc
// the scheduler invokes for each scheduled worker. The budget is checked
// after each worker completes, so one worker past the limit may finish
// before the abort is raised.
func (s *Supervisor) runAdapter(w worker.Worker, job *model.Job, property *model.ResearchProperty, assumptions map[string]interface{}) orchestrator.RunFunc {
	return func(ctx context.Context, shared map[string]interface{}) (interface{}, model.WorkerRun, error) {
		rt := &worker.Runtime{Job: job, Property: property, SharedContext: shared, Assumptions: assumptions}
		run, result := worker.Execute(ctx, w, rt, job.Limits.TimeoutSecondsPerStep)
		run.JobID = job.ID

		if len(result.Evidence) > 0 {
			if _, err := s.Evidence.PersistDrafts(ctx, job.ID, property.ID, result.Evidence); err != nil {
				s.logger().WithFields(sharedlog.WorkerFields(w.Name(), job.ID).Error(err).ToLogrus()).
					Error("persisting worker evidence failed")
			}
		}

		if dataRaw, err := json.Marshal(result.Data); err == nil {
			run.Data = dataRaw
		}

		if err := s.Store.WorkerRuns.Insert(ctx, &run); err != nil {
			s.logger().WithFields(sharedlog.WorkerFields(w.Name(), job.ID).Error(err).ToLogrus()).
				Error("persisting worker run failed")
		}

		if job.Limits.MaxWebCalls > 0 {
			total, err := s.Store.WorkerRuns.SumWebCalls(ctx, job.ID)
			if err == nil && total > job.Limits.MaxWebCalls {
				return result.Data, run, sharederr.BudgetExceeded(fmt.Sprintf(
					"worker %q pushed cumulative web calls to %d, exceeding max_web_calls=%d", w.Name(), total, job.Limits.MaxWebCalls))
			}
		}

		return result.Data, run, nil
	}
}

// extraAgentNames reads the orchestrated-mode extra_agents assumption,
// tolerating both []string and []interface{} JSON-decoded shapes.
func extraAgentNames(assumptions map[string]interface{}) []string {
	raw, ok := assumptions["extra_agents"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
