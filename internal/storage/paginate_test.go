package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/repovault/repovault-go/internal/core/domain"
)

// pagedFixture serves n records in pages of pageSize through integer markers.
func pagedFixture(n, pageSize int) FetchPage[int] {
	return func(_ context.Context, marker *int) ([]*domain.TokenRecord, *int, error) {
		start := 0
		if marker != nil {
			start = *marker
		}
		end := start + pageSize
		if end > n {
			end = n
		}

		var records []*domain.TokenRecord
		for i := start; i < end; i++ {
			records = append(records, &domain.TokenRecord{
				Token:    fmt.Sprintf("tok-%03d", i),
				RepoID:   "repo-1",
				Username: "alice",
			})
		}

		if end >= n {
			return records, nil, nil
		}
		return records, &end, nil
	}
}

func TestQueryPages_Complete(t *testing.T) {
	for _, tc := range []struct {
		n, pageSize int
	}{
		{n: 0, pageSize: 10},
		{n: 5, pageSize: 10},
		{n: 10, pageSize: 10},
		{n: 25, pageSize: 10},
		{n: 25, pageSize: 1},
	} {
		t.Run(fmt.Sprintf("n=%d_page=%d", tc.n, tc.pageSize), func(t *testing.T) {
			records, err := QueryPages(context.Background(), pagedFixture(tc.n, tc.pageSize))
			if err != nil {
				t.Fatalf("QueryPages failed: %v", err)
			}
			if len(records) != tc.n {
				t.Fatalf("got %d records, want %d", len(records), tc.n)
			}

			// Exactly once: no duplicates across page boundaries.
			seen := make(map[string]bool, len(records))
			for _, r := range records {
				if seen[r.Token] {
					t.Errorf("record %s returned twice", r.Token)
				}
				seen[r.Token] = true
			}
		})
	}
}

func TestQueryPages_ErrorMidway(t *testing.T) {
	fail := errors.New("backend unavailable")
	fetch := func(_ context.Context, marker *int) ([]*domain.TokenRecord, *int, error) {
		if marker != nil {
			return nil, nil, fail
		}
		next := 1
		return []*domain.TokenRecord{{Token: "tok-0"}}, &next, nil
	}

	_, err := QueryPages(context.Background(), fetch)
	if !errors.Is(err, fail) {
		t.Errorf("QueryPages = %v, want wrapped backend error", err)
	}
}

func TestQueryPages_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pages := 0
	fetch := func(_ context.Context, marker *int) ([]*domain.TokenRecord, *int, error) {
		pages++
		cancel() // caller aborts after the first page
		next := pages
		return []*domain.TokenRecord{{Token: fmt.Sprintf("tok-%d", pages)}}, &next, nil
	}

	_, err := QueryPages(ctx, fetch)
	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("QueryPages = %v, want ErrCancelled", err)
	}
	if pages != 1 {
		t.Errorf("fetched %d pages after cancel, want 1", pages)
	}
}
