package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/repovault/repovault-go/internal/core/domain"
)

func record(token, repoID, username string) *domain.TokenRecord {
	return &domain.TokenRecord{
		Token:      token,
		RepoID:     repoID,
		Username:   username,
		Expiration: 1893456000,
	}
}

func TestStore_PutAndQuery(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, record("tok-a", "repo-1", "alice")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, record("tok-b", "repo-1", "bob")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, record("tok-c", "repo-2", "alice")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	t.Run("by repo", func(t *testing.T) {
		got, err := s.QueryByRepo(ctx, "repo-1", "")
		if err != nil {
			t.Fatalf("QueryByRepo failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d records, want 2", len(got))
		}
		// Insertion order within the index.
		if got[0].Token != "tok-a" || got[1].Token != "tok-b" {
			t.Errorf("order = %s, %s; want tok-a, tok-b", got[0].Token, got[1].Token)
		}
	})

	t.Run("by repo and username", func(t *testing.T) {
		got, err := s.QueryByRepo(ctx, "repo-1", "alice")
		if err != nil {
			t.Fatalf("QueryByRepo failed: %v", err)
		}
		if len(got) != 1 || got[0].Username != "alice" {
			t.Fatalf("got %+v, want only alice's record", got)
		}
	})

	t.Run("unknown repo", func(t *testing.T) {
		got, err := s.QueryByRepo(ctx, "repo-404", "")
		if err != nil {
			t.Fatalf("QueryByRepo failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("got %d records, want 0", len(got))
		}
	})

	t.Run("expiration round trips", func(t *testing.T) {
		got, err := s.QueryByRepo(ctx, "repo-2", "alice")
		if err != nil {
			t.Fatalf("QueryByRepo failed: %v", err)
		}
		if got[0].Expiration != 1893456000 {
			t.Errorf("Expiration = %d, want 1893456000", got[0].Expiration)
		}
	})
}

func TestStore_PutUpsert(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, record("tok-a", "repo-1", "alice")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Same token again: overwrite, not error, not duplicate.
	if err := s.Put(ctx, record("tok-a", "repo-1", "alice")); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := s.QueryByRepo(ctx, "repo-1", "")
	if err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d records after duplicate Put, want 1", len(got))
	}
}

func TestStore_PutRejectsInvalid(t *testing.T) {
	s := New()
	if err := s.Put(context.Background(), record("tok-a", "", "alice")); err == nil {
		t.Fatal("Put accepted record without repoID")
	}
	if s.Count() != 0 {
		t.Error("invalid Put mutated the store")
	}
}

func TestStore_QueryAcrossPages(t *testing.T) {
	// Page size 3, 10 matching records: traversal must cross pages
	// without dropping or duplicating records.
	s := New(WithPageSize(3))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		tok := fmt.Sprintf("tok-%02d", i)
		if err := s.Put(ctx, record(tok, "repo-1", "alice")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := s.QueryByRepo(ctx, "repo-1", "")
	if err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("got %d records, want 10", len(got))
	}

	seen := make(map[string]bool)
	for _, r := range got {
		if seen[r.Token] {
			t.Errorf("record %s appeared twice", r.Token)
		}
		seen[r.Token] = true
	}
}

func TestStore_PageObserver(t *testing.T) {
	var observed int
	s := New(WithPageSize(3), WithPageObserver(func(pages int) {
		observed = pages
	}))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		tok := fmt.Sprintf("tok-%02d", i)
		if err := s.Put(ctx, record(tok, "repo-1", "alice")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if _, err := s.QueryByRepo(ctx, "repo-1", ""); err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}
	// 10 records at page size 3: pages 0-2 full, page 3 partial.
	if observed != 4 {
		t.Errorf("observed %d pages, want 4", observed)
	}
}

func TestStore_DeleteByToken(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, record("tok-a", "repo-1", "alice")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err := s.DeleteByToken(ctx, "tok-a")
	if err != nil || !ok {
		t.Fatalf("DeleteByToken = %v, %v; want true, nil", ok, err)
	}

	got, err := s.QueryByRepo(ctx, "repo-1", "alice")
	if err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("revoked token still listed: %+v", got)
	}

	// Idempotent: deleting an absent token still succeeds.
	ok, err = s.DeleteByToken(ctx, "tok-a")
	if err != nil || !ok {
		t.Fatalf("second DeleteByToken = %v, %v; want true, nil", ok, err)
	}
}

func TestStore_QueryCancelled(t *testing.T) {
	s := New(WithPageSize(1))
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		s.Put(context.Background(), record(fmt.Sprintf("tok-%d", i), "repo-1", "alice"))
	}
	cancel()

	if _, err := s.QueryByRepo(ctx, "repo-1", ""); err == nil {
		t.Error("QueryByRepo with cancelled context should fail")
	}
}
