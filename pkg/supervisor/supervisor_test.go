package supervisor

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/sharederr"
	"github.com/propresearch/agentic-research-core/pkg/store"
	"github.com/propresearch/agentic-research-core/pkg/worker"
)

var crmPropertyColumns = []string{
	"id", "address", "city", "state", "zip_code", "square_feet", "lot_size",
	"bedrooms", "bathrooms", "year_built", "price", "status", "created_at", "updated_at",
}

var skipTraceColumns = []string{
	"id", "property_id", "owner_name", "mailing_address", "mailing_city",
	"mailing_state", "mailing_zip", "created_at",
}

var zillowColumns = []string{
	"id", "property_id", "annual_tax_amount", "zestimate", "rent_zestimate",
	"price_history", "zillow_url", "updated_at",
}

var _ = Describe("Supervisor", func() {
	var (
		mockDB *sql.DB
		mock   sqlmock.Sqlmock
		sup    *Supervisor
		ctx    context.Context
		now    time.Time
	)

	BeforeEach(func() {
		var err error
		mockDB, mock, err = sqlmock.New()
		Expect(err).ToNot(HaveOccurred())

		now = time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
		sup = &Supervisor{
			Store:         store.New(sqlx.NewDb(mockDB, "postgres")),
			DefaultLimits: model.DefaultLimits(),
			Now:           func() time.Time { return now },
		}
		ctx = context.Background()
	})

	AfterEach(func() {
		mockDB.Close()
	})

	Describe("CreateJob input validation", func() {
		It("rejects a missing address without touching the store", func() {
			_, err := sup.CreateJob(ctx, ResearchInput{})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, sharederr.ErrInputInvalid)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Address failed required validation"))
		})

		It("rejects an unknown strategy", func() {
			_, err := sup.CreateJob(ctx, ResearchInput{Address: "123 Main St", Strategy: "landbank"})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, sharederr.ErrInputInvalid)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Strategy failed oneof validation"))
		})
	})

	Describe("enrichment gate", func() {
		property := &model.ResearchProperty{
			ID: "prop-1", RawAddress: "123 Main St", City: "Newark", State: "NJ",
		}

		It("is a no-op when require_enriched_data is falsy", func() {
			err := sup.checkEnrichmentGate(ctx, property, map[string]interface{}{
				"enriched_max_age_hours": float64(24),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(mock.ExpectationsWereMet()).ToNot(HaveOccurred())
		})

		Context("when enrichment is present but stale", func() {
			It("fails naming both the observed age and the window", func() {
				old := now.Add(-200 * time.Hour)
				mock.ExpectQuery(`SELECT \* FROM properties`).
					WithArgs("123 Main St", "Newark", "NJ").
					WillReturnRows(sqlmock.NewRows(crmPropertyColumns).
						AddRow(7, "123 Main St", "Newark", "NJ", "07102", 1500, 5000,
							3, 2.0, 1960, 400000.0, "sold", old, old))
				mock.ExpectQuery(`SELECT \* FROM skip_traces WHERE property_id = \$1`).
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows(skipTraceColumns).
						AddRow(1, 7, "Jane Doe", "PO Box 9", "Newark", "NJ", "07102", old))
				mock.ExpectQuery(`SELECT \* FROM zillow_enrichments WHERE property_id = \$1`).
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows(zillowColumns).
						AddRow(1, 7, 8000.0, 410000.0, 2200.0, nil, "https://zillow.com/x", old))

				err := sup.checkEnrichmentGate(ctx, property, map[string]interface{}{
					"require_enriched_data":  true,
					"enriched_max_age_hours": float64(24),
				})
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, sharederr.ErrEnrichmentGateFailed)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("age_hours=200"))
				Expect(err.Error()).To(ContainSubstring("max_age_hours=24"))
			})
		})

		Context("when no CRM match exists", func() {
			It("fails listing every missing enrichment source", func() {
				mock.ExpectQuery(`SELECT \* FROM properties`).
					WithArgs("123 Main St", "Newark", "NJ").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectQuery(`SELECT \* FROM properties`).
					WithArgs("%123 Main St%", "Newark", "NJ").
					WillReturnError(sql.ErrNoRows)

				err := sup.checkEnrichmentGate(ctx, property, map[string]interface{}{
					"require_enriched_data": true,
				})
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, sharederr.ErrEnrichmentGateFailed)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("required enrichment data missing"))
				Expect(err.Error()).To(ContainSubstring("crm_property_match"))
				Expect(err.Error()).To(ContainSubstring("skip_trace_owner"))
				Expect(err.Error()).To(ContainSubstring("zillow_enrichment"))
			})
		})
	})

	Describe("runAdapter web-call budget", func() {
		var (
			job      *model.Job
			property *model.ResearchProperty
		)

		BeforeEach(func() {
			job = &model.Job{
				ID: "job-1",
				Limits: model.Limits{
					MaxWebCalls: 2, TimeoutSecondsPerStep: 5, MaxSteps: 9, MaxParallelAgents: 1,
				},
			}
			property = &model.ResearchProperty{ID: "prop-1"}
		})

		It("aborts once cumulative web calls exceed max_web_calls, after persisting the run", func() {
			w := worker.Func{WorkerName: "public_records", Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
				return worker.Result{Data: map[string]interface{}{"hits": 3}, WebCalls: 3}, nil
			}}

			mock.ExpectExec(`INSERT INTO worker_runs`).
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectQuery(`SELECT COALESCE\(SUM\(web_calls\), 0\) FROM worker_runs WHERE job_id = \$1`).
				WithArgs("job-1").
				WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

			run := sup.runAdapter(w, job, property, nil)
			data, wr, err := run(ctx, map[string]interface{}{})

			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, sharederr.ErrBudgetExceeded)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("max_web_calls=2"))
			Expect(wr.Status).To(Equal(model.WorkerSuccess))
			Expect(data).ToNot(BeNil())
			Expect(mock.ExpectationsWereMet()).ToNot(HaveOccurred())
		})

		It("continues when the cumulative total stays within budget", func() {
			w := worker.Func{WorkerName: "public_records", Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
				return worker.Result{Data: map[string]interface{}{"hits": 1}, WebCalls: 1}, nil
			}}

			mock.ExpectExec(`INSERT INTO worker_runs`).
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectQuery(`SELECT COALESCE\(SUM\(web_calls\), 0\) FROM worker_runs WHERE job_id = \$1`).
				WithArgs("job-1").
				WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))

			run := sup.runAdapter(w, job, property, nil)
			_, wr, err := run(ctx, map[string]interface{}{})

			Expect(err).ToNot(HaveOccurred())
			Expect(wr.Status).To(Equal(model.WorkerSuccess))
		})

		It("records a failed run for a worker that returns an error, without aborting", func() {
			w := worker.Func{WorkerName: "flood_zone", Fn: func(ctx context.Context, rt *worker.Runtime) (worker.Result, error) {
				return worker.Result{}, errors.New("adapter exploded")
			}}

			mock.ExpectExec(`INSERT INTO worker_runs`).
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectQuery(`SELECT COALESCE\(SUM\(web_calls\), 0\) FROM worker_runs WHERE job_id = \$1`).
				WithArgs("job-1").
				WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

			run := sup.runAdapter(w, job, property, nil)
			_, wr, err := run(ctx, map[string]interface{}{})

			Expect(err).ToNot(HaveOccurred())
			Expect(wr.Status).To(Equal(model.WorkerFailed))
			Expect(wr.Errors).To(ContainElement("adapter exploded"))
		})
	})

	Describe("extraAgentNames", func() {
		It("passes through a []string", func() {
			got := extraAgentNames(map[string]interface{}{"extra_agents": []string{"extensive"}})
			Expect(got).To(Equal([]string{"extensive"}))
		})

		It("tolerates the JSON-decoded []interface{} shape", func() {
			got := extraAgentNames(map[string]interface{}{
				"extra_agents": []interface{}{"subdivision_research", "extensive", 42},
			})
			Expect(got).To(Equal([]string{"subdivision_research", "extensive"}))
		})

		It("returns nil when absent or mistyped", func() {
			Expect(extraAgentNames(map[string]interface{}{})).To(BeNil())
			Expect(extraAgentNames(map[string]interface{}{"extra_agents": "extensive"})).To(BeNil())
		})
	})
})
