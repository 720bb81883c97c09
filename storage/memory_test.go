package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Count    int64    `json:"count"`
	Tags     []string `json:"tags"`
}

func TestMemoryStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.InsertOne(ctx, Users, testDoc{Username: "ana", Tags: []string{}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var got testDoc
	require.NoError(t, s.FindOne(ctx, Users, Filter{InternalIDKey: id}, &got))
	assert.Equal(t, "ana", got.Username)

	got = testDoc{}
	require.NoError(t, s.FindOne(ctx, Users, Filter{"username": "ana"}, &got))
	assert.Equal(t, "ana", got.Username)

	err = s.FindOne(ctx, Users, Filter{"username": "bia"}, &got)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.FindOne(ctx, Users, Filter{InternalIDKey: 42}, &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UniqueUsername(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.InsertOne(ctx, Users, testDoc{Username: "ana"})
	require.NoError(t, err)
	_, err = s.InsertOne(ctx, Users, testDoc{Username: "ana"})
	assert.ErrorIs(t, err, ErrDuplicate)

	// Unicidade é por coleção.
	_, err = s.InsertOne(ctx, Vendors, testDoc{Username: "ana"})
	assert.NoError(t, err)

	_, err = s.InsertOne(ctx, Users, testDoc{Username: "bia"})
	require.NoError(t, err)
	err = s.UpdateOne(ctx, Users, Filter{"username": "bia"}, Update{Set: map[string]any{"username": "ana"}}, nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	var bia testDoc
	require.NoError(t, s.FindOne(ctx, Users, Filter{"username": "bia"}, &bia))
}

func TestMemoryStore_UpdateOperators(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.InsertOne(ctx, Users, testDoc{UserID: "U-1", Username: "ana", Count: 5, Tags: []string{"a"}})
	require.NoError(t, err)

	var got testDoc
	err = s.UpdateOne(ctx, Users, Filter{"user_id": "U-1"}, Update{
		Inc:      map[string]int64{"count": -2},
		AddToSet: map[string]any{"tags": "a"},
	}, &got)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Count)
	assert.Equal(t, []string{"a"}, got.Tags)

	err = s.UpdateOne(ctx, Users, Filter{"user_id": "U-1"}, Update{AddToSet: map[string]any{"tags": "b"}}, &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Tags)

	err = s.UpdateOne(ctx, Users, Filter{"user_id": "U-1"}, Update{Pull: map[string]any{"tags": "a"}}, &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Tags)

	err = s.UpdateOne(ctx, Users, Filter{"user_id": "U-9"}, Update{Inc: map[string]int64{"count": 1}}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FailedUpdateLeavesDocumentIntact(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.InsertOne(ctx, Users, testDoc{UserID: "U-1", Username: "ana", Count: 1})
	require.NoError(t, err)

	err = s.UpdateOne(ctx, Users, Filter{"user_id": "U-1"}, Update{
		Set:      map[string]any{"count": 100},
		AddToSet: map[string]any{"username": "x"},
	}, nil)
	require.Error(t, err)

	var got testDoc
	require.NoError(t, s.FindOne(ctx, Users, Filter{"user_id": "U-1"}, &got))
	assert.Equal(t, int64(1), got.Count)
}

func TestMemoryStore_FindManyAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.InsertOne(ctx, Tokens, map[string]any{"name": name, "kind": "x"})
		require.NoError(t, err)
	}

	var all []map[string]any
	require.NoError(t, s.FindMany(ctx, Tokens, Filter{"kind": "x"}, &all))
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0]["name"])

	n, err := s.DeleteOne(ctx, Tokens, Filter{"kind": "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteOne(ctx, Tokens, Filter{"name": "a"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteMany(ctx, Tokens, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var none []map[string]any
	require.NoError(t, s.FindMany(ctx, Tokens, Filter{}, &none))
	assert.Empty(t, none)
}

func TestMemoryStore_UnknownCollection(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.InsertOne(context.Background(), Collection("nope"), testDoc{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
