package store

import (
	"strings"
	"sync"
	"time"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/google/btree"
)

// BatchFilter narrows a batch listing. Zero-valued fields match everything.
type BatchFilter struct {
	Search  string // case-insensitive substring of the title
	Status  *domain.BatchStatus
	Program string
	EMI     *bool
}

func (f BatchFilter) matches(b *domain.Batch) bool {
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.Program != "" && b.Program != f.Program {
		return false
	}
	if f.EMI != nil && b.IsEMI != *f.EMI {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// batchKey orders the listing index.
type batchKey struct {
	CreatedAt time.Time
	BatchID   string
}

// batchKeyLess sorts newest first, then by batch_id ascending, so Ascend
// walks the listing in display order.
func batchKeyLess(a, b batchKey) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.BatchID < b.BatchID
}

// BatchStore is a thread-safe in-memory store for batches.
// Primary index: batch_id → batch.
// Secondary indexes: slug → batch_id, and a B-tree ordered by created_at
// descending for listings.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[string]*domain.Batch
	bySlug  map[string]string
	ordered *btree.BTreeG[batchKey]
}

// NewBatchStore creates an empty BatchStore.
func NewBatchStore() *BatchStore {
	const degree = 32
	return &BatchStore{
		batches: make(map[string]*domain.Batch),
		bySlug:  make(map[string]string),
		ordered: btree.NewG[batchKey](degree, batchKeyLess),
	}
}

// Create adds a copy of b to the store. It returns domain.ErrSlugTaken if
// another batch already uses b's slug.
func (s *BatchStore) Create(b *domain.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.bySlug[b.Slug]; taken {
		return domain.ErrSlugTaken
	}

	stored := b.Clone()
	s.batches[stored.BatchID] = stored
	s.bySlug[stored.Slug] = stored.BatchID
	s.ordered.ReplaceOrInsert(batchKey{CreatedAt: stored.CreatedAt, BatchID: stored.BatchID})
	return nil
}

// Modify applies fn to a copy of the stored batch and saves the result,
// all under the write lock, so read-check-write sequences cannot
// interleave with other writers. If fn returns an error nothing is saved
// and the error is returned. CreatedAt and BatchID cannot be changed.
// It returns domain.ErrBatchNotFound or domain.ErrSlugTaken.
func (s *BatchStore) Modify(id string, fn func(b *domain.Batch) error) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}

	b := existing.Clone()
	if err := fn(b); err != nil {
		return nil, err
	}
	b.BatchID = existing.BatchID
	b.CreatedAt = existing.CreatedAt

	if b.Slug != existing.Slug {
		if _, taken := s.bySlug[b.Slug]; taken {
			return nil, domain.ErrSlugTaken
		}
		delete(s.bySlug, existing.Slug)
		s.bySlug[b.Slug] = b.BatchID
	}
	s.batches[id] = b
	return b.Clone(), nil
}

// Get retrieves a copy of a batch by ID. It returns
// domain.ErrBatchNotFound if the batch does not exist.
func (s *BatchStore) Get(id string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	return b.Clone(), nil
}

// GetBySlug retrieves a copy of a batch by slug.
func (s *BatchStore) GetBySlug(slug string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	return s.batches[id].Clone(), nil
}

// Exists returns true if a batch with the given ID exists.
func (s *BatchStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.batches[id]
	return ok
}

// SlugOwner returns the ID of the batch using slug, if any.
func (s *BatchStore) SlugOwner(slug string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	return id, ok
}

// Delete removes a batch and returns the removed copy. It returns
// domain.ErrBatchNotFound if the batch does not exist.
func (s *BatchStore) Delete(id string) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	delete(s.batches, id)
	delete(s.bySlug, b.Slug)
	s.ordered.Delete(batchKey{CreatedAt: b.CreatedAt, BatchID: b.BatchID})
	return b, nil
}

// CloseIfDue atomically transitions an active batch whose enrollment
// deadline is at or before now to closed. It returns the closed copy and
// true, or false if the batch is gone, already closed, or not yet due.
func (s *BatchStore) CloseIfDue(id string, now time.Time) (*domain.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok || !b.Closable(now) {
		return nil, false
	}
	b.Status = domain.BatchStatusClosed
	b.UpdatedAt = now
	return b.Clone(), true
}

// List returns batches newest first. Only batches matching filter are
// included. Pagination is 1-based. Returns the matching batches for the
// requested page and the total count of matching batches (before
// pagination).
func (s *BatchStore) List(filter BatchFilter, page, limit int) ([]*domain.Batch, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := (page - 1) * limit
	end := start + limit
	result := make([]*domain.Batch, 0, limit)
	total := 0

	s.ordered.Ascend(func(k batchKey) bool {
		b := s.batches[k.BatchID]
		if !filter.matches(b) {
			return true
		}
		if total >= start && total < end {
			result = append(result, b.Clone())
		}
		total++
		return true
	})

	return result, total
}

// Len returns the number of stored batches.
func (s *BatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}
