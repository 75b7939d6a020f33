package dynamo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/repovault/repovault-go/internal/core/domain"
)

// fakeDynamo implements Client over a slice of items, serving queries in
// pages of pageSize with real LastEvaluatedKey semantics.
type fakeDynamo struct {
	items    []map[string]types.AttributeValue
	pageSize int

	queryCalls  int
	failOnQuery int // fail the nth query call (1-based), 0 = never
	putErr      error
	deleteErr   error
}

func (f *fakeDynamo) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	token := params.Item["token"].(*types.AttributeValueMemberS).Value
	for i, item := range f.items {
		if item["token"].(*types.AttributeValueMemberS).Value == token {
			f.items[i] = params.Item
			return &dynamodb.PutItemOutput{}, nil
		}
	}
	f.items = append(f.items, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryCalls++
	if f.failOnQuery > 0 && f.queryCalls == f.failOnQuery {
		return nil, errors.New("ProvisionedThroughputExceededException")
	}

	// Filter by the expression attribute values bound to the key condition.
	var repoID, username string
	for _, v := range params.ExpressionAttributeValues {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if repoID == "" {
			repoID = s.Value
		} else {
			username = s.Value
		}
	}

	var matching []map[string]types.AttributeValue
	for _, item := range f.items {
		if item["repoID"].(*types.AttributeValueMemberS).Value != repoID {
			continue
		}
		if username != "" && item["username"].(*types.AttributeValueMemberS).Value != username {
			continue
		}
		matching = append(matching, item)
	}

	start := 0
	if len(params.ExclusiveStartKey) > 0 {
		startToken := params.ExclusiveStartKey["token"].(*types.AttributeValueMemberS).Value
		for i, item := range matching {
			if item["token"].(*types.AttributeValueMemberS).Value == startToken {
				start = i + 1
				break
			}
		}
	}

	end := start + f.pageSize
	if f.pageSize <= 0 || end > len(matching) {
		end = len(matching)
	}

	out := &dynamodb.QueryOutput{Items: matching[start:end]}
	if end < len(matching) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"token": matching[end-1]["token"],
		}
	}
	return out, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	token := params.Key["token"].(*types.AttributeValueMemberS).Value
	for i, item := range f.items {
		if item["token"].(*types.AttributeValueMemberS).Value == token {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	// Absent keys delete "successfully", like the real service.
	return &dynamodb.DeleteItemOutput{}, nil
}

func item(t *testing.T, token, repoID, username string, exp int64) map[string]types.AttributeValue {
	t.Helper()
	m, err := attributevalue.MarshalMap(dbRecord{
		Token: token, RepoID: repoID, Username: username, Expiration: exp,
	})
	if err != nil {
		t.Fatalf("MarshalMap failed: %v", err)
	}
	return m
}

func TestStore_PutAndQuery(t *testing.T) {
	fake := &fakeDynamo{pageSize: 10}
	s := New(fake, "RepoVaultTokens", nil)
	ctx := context.Background()

	err := s.Put(ctx, &domain.TokenRecord{
		Token: "tok-a", RepoID: "repo-1", Username: "alice", Expiration: 1893456000,
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.QueryByRepo(ctx, "repo-1", "")
	if err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Token != "tok-a" || got[0].Expiration != 1893456000 {
		t.Errorf("record = %+v", got[0])
	}
}

func TestStore_QueryPaginationComplete(t *testing.T) {
	// 17 matching records, pages of 5: four backend pages.
	fake := &fakeDynamo{pageSize: 5}
	for i := 0; i < 17; i++ {
		fake.items = append(fake.items, item(t, fmt.Sprintf("tok-%02d", i), "repo-1", "alice", 100))
	}
	fake.items = append(fake.items, item(t, "tok-other", "repo-2", "alice", 100))

	s := New(fake, "RepoVaultTokens", nil)
	got, err := s.QueryByRepo(context.Background(), "repo-1", "")
	if err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}

	if len(got) != 17 {
		t.Fatalf("got %d records, want 17", len(got))
	}
	if fake.queryCalls != 4 {
		t.Errorf("backend queried %d times, want 4", fake.queryCalls)
	}
	seen := make(map[string]bool)
	for _, r := range got {
		if seen[r.Token] {
			t.Errorf("record %s duplicated across pages", r.Token)
		}
		seen[r.Token] = true
	}
}

func TestStore_QueryUsernameFilter(t *testing.T) {
	fake := &fakeDynamo{pageSize: 10}
	fake.items = append(fake.items,
		item(t, "tok-a", "repo-1", "alice", 100),
		item(t, "tok-b", "repo-1", "bob", 100),
	)

	s := New(fake, "RepoVaultTokens", nil)

	got, err := s.QueryByRepo(context.Background(), "repo-1", "alice")
	if err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}
	if len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("got %+v, want only alice's record", got)
	}

	all, err := s.QueryByRepo(context.Background(), "repo-1", "")
	if err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unfiltered query returned %d records, want 2", len(all))
	}
}

func TestStore_QueryFailureMidPagination(t *testing.T) {
	fake := &fakeDynamo{pageSize: 2, failOnQuery: 2}
	for i := 0; i < 6; i++ {
		fake.items = append(fake.items, item(t, fmt.Sprintf("tok-%d", i), "repo-1", "alice", 100))
	}

	s := New(fake, "RepoVaultTokens", nil)
	_, err := s.QueryByRepo(context.Background(), "repo-1", "")
	if !errors.Is(err, domain.ErrStore) {
		t.Errorf("QueryByRepo = %v, want ErrStore", err)
	}
}

func TestStore_DeleteByToken(t *testing.T) {
	fake := &fakeDynamo{pageSize: 10}
	fake.items = append(fake.items, item(t, "tok-a", "repo-1", "alice", 100))
	s := New(fake, "RepoVaultTokens", nil)
	ctx := context.Background()

	ok, err := s.DeleteByToken(ctx, "tok-a")
	if err != nil || !ok {
		t.Fatalf("DeleteByToken = %v, %v; want true, nil", ok, err)
	}

	// Absent token still reports success.
	ok, err = s.DeleteByToken(ctx, "tok-a")
	if err != nil || !ok {
		t.Fatalf("second DeleteByToken = %v, %v; want true, nil", ok, err)
	}

	got, err := s.QueryByRepo(ctx, "repo-1", "")
	if err != nil {
		t.Fatalf("QueryByRepo failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("deleted token still queryable: %+v", got)
	}
}

func TestStore_BackendErrors(t *testing.T) {
	t.Run("put", func(t *testing.T) {
		fake := &fakeDynamo{putErr: errors.New("ServiceUnavailable")}
		s := New(fake, "RepoVaultTokens", nil)
		err := s.Put(context.Background(), &domain.TokenRecord{
			Token: "tok-a", RepoID: "repo-1", Username: "alice",
		})
		if !errors.Is(err, domain.ErrStore) {
			t.Errorf("Put = %v, want ErrStore", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		fake := &fakeDynamo{deleteErr: errors.New("ServiceUnavailable")}
		s := New(fake, "RepoVaultTokens", nil)
		ok, err := s.DeleteByToken(context.Background(), "tok-a")
		if ok || !errors.Is(err, domain.ErrStore) {
			t.Errorf("DeleteByToken = %v, %v; want false, ErrStore", ok, err)
		}
	})
}
