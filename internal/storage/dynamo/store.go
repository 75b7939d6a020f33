// Package dynamo provides a DynamoDB-backed token store.
//
// Table layout: `token` string hash key for point writes and deletes,
// plus a `repoIDIndex` global secondary index (repoID hash, username
// range) serving range queries. Query pagination follows the backend's
// LastEvaluatedKey until it is absent.
package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/repovault/repovault-go/internal/core/domain"
	"github.com/repovault/repovault-go/internal/storage"
)

// IndexName is the global secondary index over (repoID, username).
const IndexName = "repoIDIndex"

// Client is the subset of the DynamoDB client the store uses.
// Narrowed so tests can substitute a fake.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dbRecord is the DynamoDB shape of a token record.
type dbRecord struct {
	Token      string `dynamodbav:"token"`
	RepoID     string `dynamodbav:"repoID"`
	Username   string `dynamodbav:"username"`
	Expiration int64  `dynamodbav:"expiration"`
}

// Store implements storage.TokenStore on a DynamoDB table.
type Store struct {
	client       Client
	table        string
	logger       *slog.Logger
	pageObserver func(pages int)
}

// Option configures the Store.
type Option func(*Store)

// WithPageObserver registers a callback invoked with the number of
// pages each completed range query traversed.
func WithPageObserver(fn func(pages int)) Option {
	return func(s *Store) {
		s.pageObserver = fn
	}
}

// New creates a store bound to one table.
func New(client Client, table string, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		client: client,
		table:  table,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put upserts a record keyed by its token value.
func (s *Store) Put(ctx context.Context, record *domain.TokenRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(dbRecord{
		Token:      record.Token,
		RepoID:     record.RepoID,
		Username:   record.Username,
		Expiration: record.Expiration,
	})
	if err != nil {
		return domain.ErrStore.WithCause(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		s.logger.Error("dynamodb put item failed",
			"table", s.table,
			"repo_id", record.RepoID,
			"aws_code", apiErrorCode(err),
			"error", err)
		return domain.ErrStore.WithCause(err)
	}
	return nil
}

// QueryByRepo queries the repoIDIndex to completion, resuming each page
// from the previous response's LastEvaluatedKey.
func (s *Store) QueryByRepo(ctx context.Context, repoID, username string) ([]*domain.TokenRecord, error) {
	keyCond := expression.Key("repoID").Equal(expression.Value(repoID))
	if username != "" {
		keyCond = keyCond.And(expression.Key("username").Equal(expression.Value(username)))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, domain.ErrStore.WithCause(err)
	}

	pages := 0
	fetch := func(ctx context.Context, marker *map[string]types.AttributeValue) ([]*domain.TokenRecord, *map[string]types.AttributeValue, error) {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			IndexName:                 aws.String(IndexName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}
		if marker != nil {
			input.ExclusiveStartKey = *marker
		}

		out, err := s.client.Query(ctx, input)
		if err != nil {
			s.logger.Error("dynamodb query failed",
				"table", s.table,
				"repo_id", repoID,
				"page", pages,
				"aws_code", apiErrorCode(err),
				"error", err)
			return nil, nil, domain.ErrStore.WithCause(err)
		}
		pages++

		records := make([]*domain.TokenRecord, 0, len(out.Items))
		for _, item := range out.Items {
			var r dbRecord
			if err := attributevalue.UnmarshalMap(item, &r); err != nil {
				return nil, nil, domain.ErrStore.WithCause(err)
			}
			records = append(records, &domain.TokenRecord{
				Token:      r.Token,
				RepoID:     r.RepoID,
				Username:   r.Username,
				Expiration: r.Expiration,
			})
		}

		if len(out.LastEvaluatedKey) == 0 {
			return records, nil, nil
		}
		next := out.LastEvaluatedKey
		return records, &next, nil
	}

	records, err := storage.QueryPages(ctx, fetch)
	if err != nil {
		return nil, err
	}
	if s.pageObserver != nil {
		s.pageObserver(pages)
	}
	s.logger.Debug("dynamodb query complete",
		"repo_id", repoID,
		"records", len(records),
		"pages", pages)
	return records, nil
}

// DeleteByToken deletes a record by token. DynamoDB's DeleteItem does
// not distinguish absent keys, which matches the idempotent contract.
func (s *Store) DeleteByToken(ctx context.Context, token string) (bool, error) {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"token": &types.AttributeValueMemberS{Value: token},
		},
	})
	if err != nil {
		s.logger.Error("dynamodb delete item failed",
			"table", s.table,
			"token", domain.MaskToken(token),
			"aws_code", apiErrorCode(err),
			"error", err)
		return false, domain.ErrStore.WithCause(err)
	}
	return true, nil
}

// apiErrorCode extracts the service error code from a modeled AWS API
// error, for log correlation with the table's CloudWatch metrics.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Close implements storage.TokenStore. The SDK client holds no
// resources that need explicit release.
func (s *Store) Close() error {
	return nil
}

var _ storage.TokenStore = (*Store)(nil)
