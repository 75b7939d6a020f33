// Package storage defines the token store contract and the pagination
// driver shared by its backends.
//
// Three backends implement the contract: dynamo (DynamoDB table with a
// repoIDIndex global secondary index), badgerstore (embedded Badger DB
// with a manual secondary index), and memory (sharded map, for tests
// and single-node development).
package storage

import (
	"context"

	"github.com/repovault/repovault-go/internal/core/domain"
)

// TokenStore is the durable, indexed table of issued tokens.
//
// The token value is the primary key; a secondary index over
// (repoID, username) serves range lookups. All methods are safe for
// concurrent use; write atomicity per key is the backend's guarantee.
type TokenStore interface {
	// Put upserts a record keyed by its token value. A duplicate token
	// overwrites; key collisions from correctly sized random keys are
	// not a practical event.
	Put(ctx context.Context, record *domain.TokenRecord) error

	// QueryByRepo returns all records for a repository, exact-filtered
	// by username when it is non-empty. The result is
	// pagination-complete: the call traverses every backend page
	// before returning and never yields a partial set.
	QueryByRepo(ctx context.Context, repoID, username string) ([]*domain.TokenRecord, error)

	// DeleteByToken removes a record if present. Deleting an absent
	// token reports success: "already gone" and "deleted now" satisfy
	// the caller's intent equally.
	DeleteByToken(ctx context.Context, token string) (bool, error)

	// Close releases backend resources.
	Close() error
}
