package memory

import (
	"sync"

	"github.com/repovault/repovault-go/pkg/cmap"
)

// indexEntry is one token under a repository, kept in insertion order.
type indexEntry struct {
	token    string
	username string
}

// repoSet is the ordered set of tokens issued for one repository.
type repoSet struct {
	mu      sync.RWMutex
	entries []indexEntry
}

func (s *repoSet) add(token, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.token == token {
			// Upsert: keep the original position.
			s.entries[i].username = username
			return
		}
	}
	s.entries = append(s.entries, indexEntry{token: token, username: username})
}

func (s *repoSet) remove(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.token == token {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the entries in insertion order.
func (s *repoSet) snapshot() []indexEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]indexEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *repoSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// RepoIndex maps a repository ID to its ordered token set, enabling
// range lookup by repoID alone or by (repoID, username).
type RepoIndex struct {
	index *cmap.Map[*repoSet]
}

// NewRepoIndex creates an empty index.
func NewRepoIndex() *RepoIndex {
	return &RepoIndex{index: cmap.New[*repoSet]()}
}

// Add records a token under its repository.
func (i *RepoIndex) Add(repoID, token, username string) {
	set, _ := i.index.GetOrSet(repoID, &repoSet{})
	set.add(token, username)
}

// Remove drops a token from its repository's set.
func (i *RepoIndex) Remove(repoID, token string) {
	set, ok := i.index.Get(repoID)
	if !ok {
		return
	}
	set.remove(token)
	if set.len() == 0 {
		i.index.Delete(repoID)
	}
}

// Snapshot returns the repository's entries in insertion order.
func (i *RepoIndex) Snapshot(repoID string) []indexEntry {
	set, ok := i.index.Get(repoID)
	if !ok {
		return nil
	}
	return set.snapshot()
}

// Count returns the number of tokens under a repository.
func (i *RepoIndex) Count(repoID string) int {
	set, ok := i.index.Get(repoID)
	if !ok {
		return 0
	}
	return set.len()
}
