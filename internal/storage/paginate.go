package storage

import (
	"context"

	"github.com/repovault/repovault-go/internal/core/domain"
)

// FetchPage returns one page of records starting after the given
// continuation marker. A nil marker requests the first page. The
// returned marker is nil when no further pages remain.
type FetchPage[M any] func(ctx context.Context, marker *M) (records []*domain.TokenRecord, next *M, err error)

// QueryPages drives a paginated range query to completion.
//
// The marker is an explicit optional: absent on the first call, present
// while more pages exist, absent again when the backend is exhausted.
// Pages are fetched sequentially because each marker depends on the
// previous response. Context cancellation between pages surfaces as
// domain.ErrCancelled, never as a partial result.
func QueryPages[M any](ctx context.Context, fetch FetchPage[M]) ([]*domain.TokenRecord, error) {
	var (
		out    []*domain.TokenRecord
		marker *M
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, domain.ErrCancelled.WithCause(err)
		}

		records, next, err := fetch(ctx, marker)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)

		if next == nil {
			return out, nil
		}
		marker = next
	}
}
