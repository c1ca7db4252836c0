package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// fakeRepo is an in-memory Repository double keyed by hash, standing in for
// the sqlx-backed pkg/store implementation.
type fakeRepo struct {
	byHash map[string]*model.EvidenceItem
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byHash: make(map[string]*model.EvidenceItem)}
}

func (r *fakeRepo) FindByHash(ctx context.Context, hash string) (*model.EvidenceItem, error) {
	if item, ok := r.byHash[hash]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) Insert(ctx context.Context, item *model.EvidenceItem) error {
	r.nextID++
	item.ID = r.nextID
	cp := *item
	r.byHash[item.Hash] = &cp
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, item *model.EvidenceItem) error {
	cp := *item
	r.byHash[item.Hash] = &cp
	return nil
}

func TestUpsertDraft_InsertsNewRecord(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := New(repo, func() time.Time { return now })

	draft := model.EvidenceDraft{
		Category:   "geocode",
		Claim:      "parcel is at 123 Main St",
		SourceURL:  "internal://geocoder",
		Confidence: 0.95,
	}

	item, err := store.UpsertDraft(context.Background(), "job-1", "prop-1", draft)
	if err != nil {
		t.Fatalf("UpsertDraft() error = %v", err)
	}
	if item.ID == 0 {
		t.Errorf("expected inserted item to have a non-zero ID")
	}
	if item.CapturedAt != now {
		t.Errorf("CapturedAt = %v, want %v", item.CapturedAt, now)
	}
	if len(repo.byHash) != 1 {
		t.Errorf("expected exactly one stored item, got %d", len(repo.byHash))
	}
}

func TestUpsertDraft_DuplicateHashReplacesInPlace(t *testing.T) {
	repo := newFakeRepo()
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	clock := t1
	store := New(repo, func() time.Time { return clock })

	draft := model.EvidenceDraft{
		Category:   "public_records",
		Claim:      "  Same Claim  ",
		SourceURL:  "https://countyoffice.org/x",
		Confidence: 0.5,
	}

	first, err := store.UpsertDraft(context.Background(), "job-1", "prop-1", draft)
	if err != nil {
		t.Fatalf("first UpsertDraft() error = %v", err)
	}

	clock = t2
	draft.Confidence = 0.9 // mutable field changes, hash inputs don't
	second, err := store.UpsertDraft(context.Background(), "job-2", "prop-2", draft)
	if err != nil {
		t.Fatalf("second UpsertDraft() error = %v", err)
	}

	if len(repo.byHash) != 1 {
		t.Fatalf("expected dedupe to collapse to one record, got %d", len(repo.byHash))
	}
	if second.ID != first.ID {
		t.Errorf("expected replace-in-place to keep the same ID, got %d vs %d", second.ID, first.ID)
	}
	if second.JobID != "job-2" || second.ResearchPropertyID != "prop-2" {
		t.Errorf("expected rebinding to job-2/prop-2, got %s/%s", second.JobID, second.ResearchPropertyID)
	}
	if second.CapturedAt != t2 {
		t.Errorf("CapturedAt = %v, want later timestamp %v", second.CapturedAt, t2)
	}
}

func TestPersistDrafts_CommitsBatchAndDedupes(t *testing.T) {
	repo := newFakeRepo()
	store := New(repo, nil)

	drafts := []model.EvidenceDraft{
		{Category: "flood", Claim: "zone AE", SourceURL: "https://fema.gov/x", Confidence: 0.9},
		{Category: "flood", Claim: "zone AE", SourceURL: "https://fema.gov/x", Confidence: 0.9},
		{Category: "epa", Claim: "no superfund site nearby", SourceURL: "https://epa.gov/y", Confidence: 0.8},
	}

	items, err := store.PersistDrafts(context.Background(), "job-1", "prop-1", drafts)
	if err != nil {
		t.Fatalf("PersistDrafts() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 returned items (one per draft), got %d", len(items))
	}
	if len(repo.byHash) != 2 {
		t.Errorf("expected 2 distinct stored records after dedupe, got %d", len(repo.byHash))
	}
}
