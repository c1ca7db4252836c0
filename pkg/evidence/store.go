// Package evidence implements the Evidence Store: a
// content-addressed append/replace store over EvidenceItem records, keyed by
// the hash built from (category, claim, source_url, raw_excerpt).
package evidence

import (
	"context"
	"time"

	"github.com/propresearch/agentic-research-core/pkg/address"
	"github.com/propresearch/agentic-research-core/pkg/model"
)

// Repository is the persistence contract the Evidence Store needs; the real
// implementation lives in pkg/store and is backed by sqlx over lib/pq.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*model.EvidenceItem, error)
	Insert(ctx context.Context, item *model.EvidenceItem) error
	Update(ctx context.Context, item *model.EvidenceItem) error
}

// Store is the Evidence Store: content-addressed upsert over EvidenceItem
// records.
type Store struct {
	repo Repository
	now  func() time.Time
}

// New builds a Store over the given repository. now defaults to time.Now.
func New(repo Repository, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, now: now}
}

// UpsertDraft computes the draft's content hash and either replaces the
// existing EvidenceItem in place (rebinding job_id/research_property_id and
// refreshing captured_at and mutable fields) or inserts a new one.
func (s *Store) UpsertDraft(ctx context.Context, jobID, propertyID string, draft model.EvidenceDraft) (*model.EvidenceItem, error) {
	hash := address.BuildEvidenceHash(draft.Category, draft.Claim, draft.SourceURL, draft.RawExcerpt)

	existing, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	var rawExcerpt *string
	if draft.RawExcerpt != "" {
		rawExcerpt = &draft.RawExcerpt
	}

	if existing != nil {
		existing.JobID = jobID
		existing.ResearchPropertyID = propertyID
		existing.Category = draft.Category
		existing.Claim = draft.Claim
		existing.SourceURL = draft.SourceURL
		existing.RawExcerpt = rawExcerpt
		existing.Confidence = draft.Confidence
		existing.CapturedAt = s.now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := &model.EvidenceItem{
		JobID:              jobID,
		ResearchPropertyID: propertyID,
		Category:           draft.Category,
		Claim:              draft.Claim,
		SourceURL:          draft.SourceURL,
		RawExcerpt:         rawExcerpt,
		Confidence:         draft.Confidence,
		Hash:               hash,
		CapturedAt:         s.now(),
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// PersistDrafts persists a worker's emitted evidence batch by upserting the
// drafts one at a time, with no enclosing transaction. On an error the
// drafts before it stay persisted and are returned together with the error.
func (s *Store) PersistDrafts(ctx context.Context, jobID, propertyID string, drafts []model.EvidenceDraft) ([]*model.EvidenceItem, error) {
	items := make([]*model.EvidenceItem, 0, len(drafts))
	for _, d := range drafts {
		item, err := s.UpsertDraft(ctx, jobID, propertyID, d)
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}
