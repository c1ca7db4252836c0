// Package httpapi implements the job-lifecycle HTTP surface:
// POST /jobs, GET /jobs/{id}, GET /properties/{id}/research, and
// GET /properties/{id}/enrichment, routed over go-chi/chi.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/propresearch/agentic-research-core/pkg/httpmetrics"
	"github.com/propresearch/agentic-research-core/pkg/sharederr"
	"github.com/propresearch/agentic-research-core/pkg/sharedlog"
	"github.com/propresearch/agentic-research-core/pkg/supervisor"
)

// Server wires the Supervisor into a chi router.
type Server struct {
	Supervisor *supervisor.Supervisor
	Logger     *logrus.Logger
	Metrics    *httpmetrics.Metrics
}

// Router builds the full chi.Mux for the job-lifecycle API.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	if s.Metrics != nil {
		r.Use(httpmetrics.HTTPMetrics(s.Metrics))
	}

	r.Post("/jobs", s.createJob)
	r.Get("/jobs/{id}", s.getJob)
	r.Get("/properties/{id}/research", s.getResearch)
	r.Get("/properties/{id}/enrichment", s.getEnrichment)
	return r
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var in supervisor.ResearchInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	job, err := s.Supervisor.CreateJob(r.Context(), in)
	if err != nil {
		writeSupervisorError(w, err)
		return
	}

	go func() {
		// Runs asynchronously: the caller polls GET /jobs/{id} for
		// completion rather than blocking on the full pipeline.
		if runErr := s.Supervisor.RunJob(context.Background(), job.ID); runErr != nil {
			s.logger().WithFields(sharedlog.JobFields("async-run", job.ID).Error(runErr).ToLogrus()).
				Warn("async job run failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	out, err := s.Supervisor.GetFullOutput(r.Context(), jobID)
	if err != nil {
		writeSupervisorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getResearch(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	out, err := s.Supervisor.GetLatestResearch(r.Context(), propertyID)
	if err != nil {
		writeSupervisorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getEnrichment(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	var assumptions map[string]interface{}
	if raw := r.URL.Query().Get("assumptions"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &assumptions)
	}

	status, err := s.Supervisor.GetEnrichmentStatus(r.Context(), propertyID, assumptions)
	if err != nil {
		writeSupervisorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) logger() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}

func writeSupervisorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sharederr.ErrInputInvalid):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, sharederr.ErrEnrichmentGateFailed):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, sharederr.ErrBudgetExceeded):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
