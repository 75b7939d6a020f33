package memory

import (
	"context"
	"sync"

	"github.com/repovault/repovault-go/internal/core/domain"
	"github.com/repovault/repovault-go/internal/storage"
	"github.com/repovault/repovault-go/pkg/cmap"
)

// DefaultPageSize is the page size used by range queries.
const DefaultPageSize = 100

// Store provides in-memory token storage with a repository index.
type Store struct {
	// Primary index: token -> record
	records *cmap.Map[*domain.TokenRecord]

	// Secondary index: repoID -> ordered token set
	repoIndex *RepoIndex

	pageSize     int
	pageObserver func(pages int)

	// Guards cross-index atomicity for Put/Delete.
	mu sync.Mutex
}

// Option configures the Store.
type Option func(*Store)

// WithPageSize sets the range-query page size. Small values are useful
// in tests to force multi-page traversal.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPageObserver registers a callback invoked with the number of
// pages each completed range query traversed.
func WithPageObserver(fn func(pages int)) Option {
	return func(s *Store) {
		s.pageObserver = fn
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		records:   cmap.New[*domain.TokenRecord](),
		repoIndex: NewRepoIndex(),
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put upserts a record keyed by its token value.
func (s *Store) Put(_ context.Context, record *domain.TokenRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records.Set(record.Token, record.Clone())
	s.repoIndex.Add(record.RepoID, record.Token, record.Username)
	return nil
}

// QueryByRepo returns all records for a repository in insertion order,
// filtered to an exact username when one is given.
func (s *Store) QueryByRepo(ctx context.Context, repoID, username string) ([]*domain.TokenRecord, error) {
	entries := s.repoIndex.Snapshot(repoID)

	pages := 0
	fetch := func(_ context.Context, marker *int) ([]*domain.TokenRecord, *int, error) {
		pages++
		start := 0
		if marker != nil {
			start = *marker
		}
		end := start + s.pageSize
		if end > len(entries) {
			end = len(entries)
		}

		var page []*domain.TokenRecord
		for _, e := range entries[start:end] {
			if username != "" && e.username != username {
				continue
			}
			record, ok := s.records.Get(e.token)
			if !ok {
				continue // revoked between snapshot and read
			}
			page = append(page, record.Clone())
		}

		if end >= len(entries) {
			return page, nil, nil
		}
		return page, &end, nil
	}

	records, err := storage.QueryPages(ctx, fetch)
	if err != nil {
		return nil, err
	}
	if s.pageObserver != nil {
		s.pageObserver(pages)
	}
	return records, nil
}

// DeleteByToken removes a record. Absent tokens report success.
func (s *Store) DeleteByToken(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records.Pop(token)
	if !ok {
		return true, nil
	}
	s.repoIndex.Remove(record.RepoID, token)
	return true, nil
}

// Count returns the total number of stored records.
func (s *Store) Count() int {
	return s.records.Count()
}

// Close implements storage.TokenStore. Nothing to release.
func (s *Store) Close() error {
	return nil
}

var _ storage.TokenStore = (*Store)(nil)
