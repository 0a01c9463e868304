package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mlozan/finrecord/internal/domain"
	"github.com/mlozan/finrecord/internal/fieldcrypt"
	"github.com/mlozan/finrecord/internal/identifier"
	"github.com/mlozan/finrecord/internal/store"
)

const transactionsCollection = "transactions"

// transactionRecord is the typed storage schema for a transaction document.
// FullName is an encrypted point-in-time copy of the owner's name taken at
// creation; it goes stale if the user is later renamed or deleted.
type transactionRecord struct {
	ID       identifier.ID          `bson:"_id,omitempty"`
	UserID   identifier.ID          `bson:"user_id"`
	FullName string                 `bson:"full_name"`
	Date     time.Time              `bson:"transaction_date"`
	Amount   float64                `bson:"transaction_amount"`
	Type     domain.TransactionType `bson:"transaction_type"`
}

// CreateTransactionInput carries the fields of a transaction creation. Date
// defaults to the current UTC time when nil.
type CreateTransactionInput struct {
	UserID string
	Amount float64
	Type   domain.TransactionType
	Date   *time.Time
}

// Transactions persists transaction records. A small TTL cache fronts the
// per-user history read path; it is advisory only and is dropped on every
// write touching that user's transactions.
type Transactions struct {
	store   store.Client
	users   *Users
	cipher  *fieldcrypt.Cipher
	history *gocache.Cache
	maxRead int64
}

// NewTransactions instantiates a Transactions repository. maxRead bounds
// ListByUser result sizes; a zero historyTTL disables the cache.
func NewTransactions(st store.Client, users *Users, cipher *fieldcrypt.Cipher, maxRead int64, historyTTL time.Duration) *Transactions {
	if maxRead <= 0 {
		maxRead = 1000
	}
	var history *gocache.Cache
	if historyTTL > 0 {
		history = gocache.New(historyTTL, 2*historyTTL)
	}
	return &Transactions{
		store:   st,
		users:   users,
		cipher:  cipher,
		history: history,
		maxRead: maxRead,
	}
}

// Create validates that the owning user exists, then persists the
// transaction with an encrypted snapshot of the owner's current name. The
// user lookup and the insert are two independent store operations; there is
// no compensating rollback between them.
func (r *Transactions) Create(ctx context.Context, in CreateTransactionInput) (domain.Transaction, error) {
	ownerID, err := identifier.Parse(in.UserID)
	if err != nil {
		return domain.Transaction{}, err
	}

	owner, err := r.users.Get(ctx, in.UserID)
	if err != nil {
		return domain.Transaction{}, err
	}

	encryptedName, err := r.cipher.Encrypt(owner.FullName)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("encrypt name snapshot: %w", err)
	}

	date := time.Now().UTC()
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}

	rec := transactionRecord{
		UserID:   ownerID,
		FullName: encryptedName,
		Date:     date,
		Amount:   in.Amount,
		Type:     in.Type,
	}
	id, err := r.store.InsertOne(ctx, transactionsCollection, rec)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	rec.ID = id

	r.invalidateHistory(in.UserID)
	return r.toDomain(rec), nil
}

// Get looks up a transaction by its external identifier.
func (r *Transactions) Get(ctx context.Context, externalID string) (domain.Transaction, error) {
	id, err := identifier.Parse(externalID)
	if err != nil {
		return domain.Transaction{}, err
	}

	var rec transactionRecord
	if err := r.store.FindOne(ctx, transactionsCollection, store.Filter{"_id": id}, &rec); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return domain.Transaction{}, fmt.Errorf("transaction %s: %w", externalID, domain.ErrNotFound)
		}
		return domain.Transaction{}, fmt.Errorf("find transaction %s: %w", externalID, err)
	}

	return r.toDomain(rec), nil
}

// ListByUser returns a user's transactions in store-defined order, capped at
// limit (or the repository bound when limit is zero or exceeds it). The user
// itself is not required to exist: transactions survive their user's
// deletion and remain listable.
func (r *Transactions) ListByUser(ctx context.Context, externalUserID string, limit int64) ([]domain.Transaction, error) {
	userID, err := identifier.Parse(externalUserID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > r.maxRead {
		limit = r.maxRead
	}

	cacheKey := fmt.Sprintf("%s:%d", externalUserID, limit)
	if r.history != nil {
		if cached, ok := r.history.Get(cacheKey); ok {
			return cached.([]domain.Transaction), nil
		}
	}

	var recs []transactionRecord
	err = r.store.FindMany(ctx, transactionsCollection, store.Filter{"user_id": userID}, store.ListOptions{Limit: limit}, &recs)
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %s: %w", externalUserID, err)
	}

	txs := make([]domain.Transaction, 0, len(recs))
	for _, rec := range recs {
		txs = append(txs, r.toDomain(rec))
	}

	if r.history != nil {
		r.history.Set(cacheKey, txs, gocache.DefaultExpiration)
	}
	return txs, nil
}

// Update applies a partial update; only supplied fields change.
func (r *Transactions) Update(ctx context.Context, externalID string, upd domain.TransactionUpdate) (domain.Transaction, error) {
	if upd.Empty() {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", externalID, domain.ErrNoFieldsToUpdate)
	}

	id, err := identifier.Parse(externalID)
	if err != nil {
		return domain.Transaction{}, err
	}

	set := make(map[string]any, 2)
	if upd.Amount != nil {
		set["transaction_amount"] = *upd.Amount
	}
	if upd.Type != nil {
		set["transaction_type"] = *upd.Type
	}

	matched, err := r.store.UpdateOne(ctx, transactionsCollection, store.Filter{"_id": id}, set)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("update transaction %s: %w", externalID, err)
	}
	if matched == 0 {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", externalID, domain.ErrNotFound)
	}

	tx, err := r.Get(ctx, externalID)
	if err != nil {
		return domain.Transaction{}, err
	}
	r.invalidateHistory(tx.UserID)
	return tx, nil
}

// Delete removes a transaction.
func (r *Transactions) Delete(ctx context.Context, externalID string) error {
	tx, err := r.Get(ctx, externalID)
	if err != nil {
		return err
	}

	id, _ := identifier.Parse(externalID)
	deleted, err := r.store.DeleteOne(ctx, transactionsCollection, store.Filter{"_id": id})
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", externalID, err)
	}
	if deleted == 0 {
		return fmt.Errorf("transaction %s: %w", externalID, domain.ErrNotFound)
	}

	r.invalidateHistory(tx.UserID)
	return nil
}

func (r *Transactions) invalidateHistory(externalUserID string) {
	if r.history == nil {
		return
	}
	// Keys are limit-qualified; drop every variant for the user.
	for key := range r.history.Items() {
		if len(key) > len(externalUserID) && key[:len(externalUserID)] == externalUserID && key[len(externalUserID)] == ':' {
			r.history.Delete(key)
		}
	}
}

func (r *Transactions) toDomain(rec transactionRecord) domain.Transaction {
	return domain.Transaction{
		ID:       identifier.Format(rec.ID),
		UserID:   identifier.Format(rec.UserID),
		FullName: r.cipher.Decrypt(rec.FullName),
		Date:     rec.Date.UTC(),
		Amount:   rec.Amount,
		Type:     rec.Type,
	}
}
