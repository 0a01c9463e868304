package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlozan/finrecord/internal/identifier"
)

type memoryTestDoc struct {
	ID      identifier.ID `bson:"_id,omitempty"`
	Owner   identifier.ID `bson:"owner,omitempty"`
	Name    string        `bson:"name"`
	Amount  float64       `bson:"amount"`
	Created time.Time     `bson:"created"`
}

func TestMemoryInsertAndFindOne(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.InsertOne(ctx, "docs", memoryTestDoc{Name: "first", Amount: 12.5, Created: time.Now().UTC()})
	require.NoError(t, err)
	require.False(t, id.IsZero())

	var got memoryTestDoc
	require.NoError(t, mem.FindOne(ctx, "docs", Filter{"_id": id}, &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 12.5, got.Amount)

	err = mem.FindOne(ctx, "docs", Filter{"_id": identifier.New()}, &got)
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestMemoryFindManySkipLimit(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	owner := identifier.New()

	for i := 0; i < 5; i++ {
		_, err := mem.InsertOne(ctx, "docs", memoryTestDoc{Owner: owner, Name: "doc", Amount: float64(i)})
		require.NoError(t, err)
	}
	// A document for another owner must not leak into filtered results.
	_, err := mem.InsertOne(ctx, "docs", memoryTestDoc{Owner: identifier.New(), Name: "other"})
	require.NoError(t, err)

	var got []memoryTestDoc
	require.NoError(t, mem.FindMany(ctx, "docs", Filter{"owner": owner}, ListOptions{Skip: 1, Limit: 2}, &got))
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Amount)
	assert.Equal(t, 2.0, got[1].Amount)
}

func TestMemoryUpdateAndDelete(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, err := mem.InsertOne(ctx, "docs", memoryTestDoc{Name: "before", Amount: 1})
	require.NoError(t, err)

	matched, err := mem.UpdateOne(ctx, "docs", Filter{"_id": id}, map[string]any{"name": "after"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	var got memoryTestDoc
	require.NoError(t, mem.FindOne(ctx, "docs", Filter{"_id": id}, &got))
	assert.Equal(t, "after", got.Name)
	assert.Equal(t, 1.0, got.Amount)

	matched, err = mem.UpdateOne(ctx, "docs", Filter{"_id": identifier.New()}, map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Zero(t, matched)

	deleted, err := mem.DeleteOne(ctx, "docs", Filter{"_id": id})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Zero(t, mem.Count("docs"))
}

func TestMemoryWithError(t *testing.T) {
	boom := errors.New("store down")
	mem := NewMemory().WithError(boom)
	ctx := context.Background()

	_, err := mem.InsertOne(ctx, "docs", memoryTestDoc{Name: "x"})
	assert.ErrorIs(t, err, boom)

	var got memoryTestDoc
	assert.ErrorIs(t, mem.FindOne(ctx, "docs", Filter{}, &got), boom)
}
