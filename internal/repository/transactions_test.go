package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlozan/finrecord/internal/domain"
	"github.com/mlozan/finrecord/internal/identifier"
	"github.com/mlozan/finrecord/internal/store"
)

func newTestRepos(t *testing.T) (*store.Memory, *Users, *Transactions) {
	t.Helper()
	mem := store.NewMemory()
	cipher := newTestCipher(t)
	users := NewUsers(mem, cipher, 100)
	txs := NewTransactions(mem, users, cipher, 1000, time.Minute)
	return mem, users, txs
}

func TestTransactionsCreate(t *testing.T) {
	mem, users, txs := newTestRepos(t)
	ctx := context.Background()

	owner, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)

	created, err := txs.Create(ctx, CreateTransactionInput{
		UserID: owner.ID,
		Amount: 42.5,
		Type:   domain.TypeCredit,
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.UserID)
	assert.Equal(t, "Jane Doe", created.FullName)
	assert.Equal(t, 42.5, created.Amount)
	assert.Equal(t, domain.TypeCredit, created.Type)
	assert.WithinDuration(t, time.Now().UTC(), created.Date, 5*time.Second)

	// The name snapshot is encrypted at rest, like the user record's own.
	raw := mem.Raw("transactions")
	require.Len(t, raw, 1)
	assert.NotEqual(t, "Jane Doe", raw[0]["full_name"])
}

func TestTransactionsCreateExplicitDate(t *testing.T) {
	_, users, txs := newTestRepos(t)
	ctx := context.Background()

	owner, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)

	date := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	created, err := txs.Create(ctx, CreateTransactionInput{
		UserID: owner.ID,
		Amount: 10,
		Type:   domain.TypeDebit,
		Date:   &date,
	})
	require.NoError(t, err)
	assert.True(t, created.Date.Equal(date))
}

func TestTransactionsCreateUnknownUserInsertsNothing(t *testing.T) {
	mem, _, txs := newTestRepos(t)
	ctx := context.Background()

	_, err := txs.Create(ctx, CreateTransactionInput{
		UserID: identifier.Format(identifier.New()),
		Amount: 10,
		Type:   domain.TypeDebit,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, mem.Count("transactions"))

	_, err = txs.Create(ctx, CreateTransactionInput{UserID: "bogus", Amount: 1, Type: domain.TypeCredit})
	assert.ErrorIs(t, err, identifier.ErrInvalid)
}

func TestTransactionsSnapshotDoesNotTrackUserUpdates(t *testing.T) {
	_, users, txs := newTestRepos(t)
	ctx := context.Background()

	owner, err := users.Create(ctx, "Original Name")
	require.NoError(t, err)
	created, err := txs.Create(ctx, CreateTransactionInput{UserID: owner.ID, Amount: 1, Type: domain.TypeCredit})
	require.NoError(t, err)

	_, err = users.Update(ctx, owner.ID, "Renamed")
	require.NoError(t, err)

	got, err := txs.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original Name", got.FullName)
}

func TestTransactionsUpdatePartial(t *testing.T) {
	_, users, txs := newTestRepos(t)
	ctx := context.Background()

	owner, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)
	created, err := txs.Create(ctx, CreateTransactionInput{UserID: owner.ID, Amount: 10, Type: domain.TypeCredit})
	require.NoError(t, err)

	amount := 25.0
	updated, err := txs.Update(ctx, created.ID, domain.TransactionUpdate{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Amount)
	assert.Equal(t, domain.TypeCredit, updated.Type, "type must not change when not supplied")

	debit := domain.TypeDebit
	updated, err = txs.Update(ctx, created.ID, domain.TransactionUpdate{Type: &debit})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Amount)
	assert.Equal(t, domain.TypeDebit, updated.Type)
}

func TestTransactionsUpdateEmptyPayload(t *testing.T) {
	_, users, txs := newTestRepos(t)
	ctx := context.Background()

	owner, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)
	created, err := txs.Create(ctx, CreateTransactionInput{UserID: owner.ID, Amount: 10, Type: domain.TypeCredit})
	require.NoError(t, err)

	_, err = txs.Update(ctx, created.ID, domain.TransactionUpdate{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)

	// The record is untouched.
	got, err := txs.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Amount)
	assert.Equal(t, domain.TypeCredit, got.Type)
}

func TestTransactionsUpdateNotFound(t *testing.T) {
	_, _, txs := newTestRepos(t)

	amount := 1.0
	_, err := txs.Update(context.Background(), identifier.Format(identifier.New()), domain.TransactionUpdate{Amount: &amount})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactionsDelete(t *testing.T) {
	mem, users, txs := newTestRepos(t)
	ctx := context.Background()

	owner, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)
	created, err := txs.Create(ctx, CreateTransactionInput{UserID: owner.ID, Amount: 10, Type: domain.TypeCredit})
	require.NoError(t, err)

	require.NoError(t, txs.Delete(ctx, created.ID))
	assert.Zero(t, mem.Count("transactions"))

	assert.ErrorIs(t, txs.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestDeletingUserKeepsTransactions(t *testing.T) {
	_, users, txs := newTestRepos(t)
	ctx := context.Background()

	owner, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)
	created, err := txs.Create(ctx, CreateTransactionInput{UserID: owner.ID, Amount: 10, Type: domain.TypeCredit})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, owner.ID))

	got, err := txs.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Equal(t, "Jane Doe", got.FullName)

	history, err := txs.ListByUser(ctx, owner.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestTransactionsListByUserCapAndCache(t *testing.T) {
	mem := store.NewMemory()
	cipher := newTestCipher(t)
	users := NewUsers(mem, cipher, 100)
	txs := NewTransactions(mem, users, cipher, 3, time.Minute)
	ctx := context.Background()

	owner, err := users.Create(ctx, "Jane Doe")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := txs.Create(ctx, CreateTransactionInput{UserID: owner.ID, Amount: float64(i), Type: domain.TypeDebit})
		require.NoError(t, err)
	}

	capped, err := txs.ListByUser(ctx, owner.ID, 0)
	require.NoError(t, err)
	assert.Len(t, capped, 3, "reads are bounded by the repository cap")

	// Writes drop the cached history, so a later read sees the new state.
	created, err := txs.Create(ctx, CreateTransactionInput{UserID: owner.ID, Amount: 99, Type: domain.TypeCredit})
	require.NoError(t, err)
	require.NoError(t, txs.Delete(ctx, created.ID))

	again, err := txs.ListByUser(ctx, owner.ID, 2)
	require.NoError(t, err)
	assert.Len(t, again, 2)
}
