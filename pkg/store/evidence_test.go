package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

var _ = Describe("EvidenceRepo", func() {
	var (
		mockDB *sql.DB
		mock   sqlmock.Sqlmock
		repo   *EvidenceRepo
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		mockDB, mock, err = sqlmock.New()
		Expect(err).ToNot(HaveOccurred())

		db := sqlx.NewDb(mockDB, "postgres")
		repo = &EvidenceRepo{db: db}
		ctx = context.Background()
	})

	AfterEach(func() {
		mockDB.Close()
	})

	Describe("FindByHash", func() {
		Context("when a matching record exists", func() {
			It("returns the EvidenceItem", func() {
				rows := sqlmock.NewRows([]string{
					"id", "job_id", "research_property_id", "category", "claim",
					"source_url", "captured_at", "raw_excerpt", "confidence", "hash",
				}).AddRow(1, "job-1", "prop-1", "geocode", "claim text", "internal://geocoder",
					time.Now(), nil, 0.95, "deadbeef")

				mock.ExpectQuery(`SELECT \* FROM evidence_items WHERE hash = \$1`).
					WithArgs("deadbeef").
					WillReturnRows(rows)

				item, err := repo.FindByHash(ctx, "deadbeef")
				Expect(err).ToNot(HaveOccurred())
				Expect(item).ToNot(BeNil())
				Expect(item.Hash).To(Equal("deadbeef"))
				Expect(item.Confidence).To(Equal(0.95))
			})
		})

		Context("when no record matches", func() {
			It("returns nil, nil rather than an error", func() {
				mock.ExpectQuery(`SELECT \* FROM evidence_items WHERE hash = \$1`).
					WithArgs("missing").
					WillReturnError(sql.ErrNoRows)

				item, err := repo.FindByHash(ctx, "missing")
				Expect(err).ToNot(HaveOccurred())
				Expect(item).To(BeNil())
			})
		})
	})

	Describe("Insert", func() {
		It("populates the returned ID", func() {
			mock.ExpectQuery(`INSERT INTO evidence_items`).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

			item := &model.EvidenceItem{
				JobID: "job-1", ResearchPropertyID: "prop-1", Category: "flood",
				Claim: "zone AE", SourceURL: "https://fema.gov/x", Confidence: 0.9,
				Hash: "abc123", CapturedAt: time.Now(),
			}
			err := repo.Insert(ctx, item)
			Expect(err).ToNot(HaveOccurred())
			Expect(item.ID).To(Equal(int64(42)))
		})
	})

	Describe("Update", func() {
		It("rebinds job/property and refreshes mutable fields", func() {
			mock.ExpectExec(`UPDATE evidence_items`).
				WillReturnResult(sqlmock.NewResult(0, 1))

			item := &model.EvidenceItem{
				ID: 5, JobID: "job-2", ResearchPropertyID: "prop-2", Category: "flood",
				Claim: "zone AE", SourceURL: "https://fema.gov/x", Confidence: 0.9,
				Hash: "abc123", CapturedAt: time.Now(),
			}
			err := repo.Update(ctx, item)
			Expect(err).ToNot(HaveOccurred())
			Expect(mock.ExpectationsWereMet()).ToNot(HaveOccurred())
		})
	})

	Describe("ListByJob", func() {
		It("returns only rows currently bound to the job, ordered by id ascending", func() {
			rows := sqlmock.NewRows([]string{
				"id", "job_id", "research_property_id", "category", "claim",
				"source_url", "captured_at", "raw_excerpt", "confidence", "hash",
			}).
				AddRow(3, "job-2", "prop-1", "underwriting", "c3", "internal://x", time.Now(), nil, 1.0, "h3").
				AddRow(4, "job-2", "prop-1", "dossier", "c4", "internal://y", time.Now(), nil, 1.0, "h4")

			mock.ExpectQuery(`SELECT \* FROM evidence_items WHERE job_id = \$1 ORDER BY id ASC`).
				WithArgs("job-2").
				WillReturnRows(rows)

			items, err := repo.ListByJob(ctx, "job-2")
			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].JobID).To(Equal("job-2"))
			Expect(items[0].ID).To(BeNumerically("<", items[1].ID))
		})
	})

	Describe("ListByProperty", func() {
		It("orders results by id ascending", func() {
			rows := sqlmock.NewRows([]string{
				"id", "job_id", "research_property_id", "category", "claim",
				"source_url", "captured_at", "raw_excerpt", "confidence", "hash",
			}).
				AddRow(1, "job-1", "prop-1", "geocode", "c1", "internal://x", time.Now(), nil, 0.9, "h1").
				AddRow(2, "job-1", "prop-1", "flood", "c2", "https://fema.gov/y", time.Now(), nil, 0.8, "h2")

			mock.ExpectQuery(`SELECT \* FROM evidence_items WHERE research_property_id = \$1 ORDER BY id ASC`).
				WithArgs("prop-1").
				WillReturnRows(rows)

			items, err := repo.ListByProperty(ctx, "prop-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal(int64(1)))
			Expect(items[1].ID).To(Equal(int64(2)))
		})
	})
})
