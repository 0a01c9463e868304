package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlozan/finrecord/internal/domain"
	"github.com/mlozan/finrecord/internal/fieldcrypt"
	"github.com/mlozan/finrecord/internal/identifier"
	"github.com/mlozan/finrecord/internal/store"
)

func newTestCipher(t *testing.T) *fieldcrypt.Cipher {
	t.Helper()
	key, err := fieldcrypt.GenerateKey()
	require.NoError(t, err)
	cipher, err := fieldcrypt.New(key)
	require.NoError(t, err)
	return cipher
}

func TestUsersCreateEncryptsAtRest(t *testing.T) {
	mem := store.NewMemory()
	cipher := newTestCipher(t)
	users := NewUsers(mem, cipher, 100)

	created, err := users.Create(context.Background(), "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", created.FullName)
	assert.Len(t, created.ID, 24)
	assert.False(t, created.CreatedAt.IsZero())

	raw := mem.Raw("users")
	require.Len(t, raw, 1)
	stored, ok := raw[0]["full_name"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "Jane Doe", stored)
	assert.Equal(t, "Jane Doe", cipher.Decrypt(stored))
}

func TestUsersGet(t *testing.T) {
	mem := store.NewMemory()
	users := NewUsers(mem, newTestCipher(t), 100)
	ctx := context.Background()

	created, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)

	got, err := users.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Jane Doe", got.FullName)

	_, err = users.Get(ctx, identifier.Format(identifier.New()))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = users.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, identifier.ErrInvalid)
}

func TestUsersListPagination(t *testing.T) {
	mem := store.NewMemory()
	users := NewUsers(mem, newTestCipher(t), 100)
	ctx := context.Background()

	submitted := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		name := fmt.Sprintf("User %02d", i)
		_, err := users.Create(ctx, name)
		require.NoError(t, err)
		submitted = append(submitted, name)
	}

	page, err := users.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	for i, u := range page {
		assert.Equal(t, submitted[i], u.FullName)
	}

	rest, err := users.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 5)
}

func TestUsersListClampsLimit(t *testing.T) {
	mem := store.NewMemory()
	users := NewUsers(mem, newTestCipher(t), 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := users.Create(ctx, "x")
		require.NoError(t, err)
	}

	page, err := users.List(ctx, 0, 50)
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestUsersUpdate(t *testing.T) {
	mem := store.NewMemory()
	cipher := newTestCipher(t)
	users := NewUsers(mem, cipher, 100)
	ctx := context.Background()

	created, err := users.Create(ctx, "Before")
	require.NoError(t, err)

	updated, err := users.Update(ctx, created.ID, "After")
	require.NoError(t, err)
	assert.Equal(t, "After", updated.FullName)
	assert.Equal(t, created.ID, updated.ID)

	// The replacement is re-encrypted at rest.
	raw := mem.Raw("users")
	require.Len(t, raw, 1)
	assert.NotEqual(t, "After", raw[0]["full_name"])

	_, err = users.Update(ctx, identifier.Format(identifier.New()), "X")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUsersDelete(t *testing.T) {
	mem := store.NewMemory()
	users := NewUsers(mem, newTestCipher(t), 100)
	ctx := context.Background()

	created, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, created.ID))
	assert.Zero(t, mem.Count("users"))

	err = users.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUsersStoreFailure(t *testing.T) {
	boom := errors.New("store down")
	mem := store.NewMemory().WithError(boom)
	users := NewUsers(mem, newTestCipher(t), 100)

	_, err := users.Create(context.Background(), "Jane Doe")
	assert.ErrorIs(t, err, boom)
}
