// Package repository owns the mapping between the wire representation of
// records (plaintext names, string identifiers) and their storage
// representation (encrypted names, binary keys).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mlozan/finrecord/internal/domain"
	"github.com/mlozan/finrecord/internal/fieldcrypt"
	"github.com/mlozan/finrecord/internal/identifier"
	"github.com/mlozan/finrecord/internal/store"
)

const usersCollection = "users"

// userRecord is the typed storage schema for a user document. FullName holds
// the encrypted form.
type userRecord struct {
	ID        identifier.ID `bson:"_id,omitempty"`
	FullName  string        `bson:"full_name"`
	CreatedAt time.Time     `bson:"created_at"`
}

// Users persists user records, encrypting the full name on every write and
// decrypting it on every read.
type Users struct {
	store   store.Client
	cipher  *fieldcrypt.Cipher
	maxList int64
}

// NewUsers instantiates a Users repository. maxList bounds List result sizes.
func NewUsers(st store.Client, cipher *fieldcrypt.Cipher, maxList int64) *Users {
	if maxList <= 0 {
		maxList = 100
	}
	return &Users{store: st, cipher: cipher, maxList: maxList}
}

// Create persists a new user and returns it with the store-generated
// identifier and the plaintext name.
func (r *Users) Create(ctx context.Context, fullName string) (domain.User, error) {
	encrypted, err := r.cipher.Encrypt(fullName)
	if err != nil {
		return domain.User{}, fmt.Errorf("encrypt full name: %w", err)
	}

	rec := userRecord{
		FullName:  encrypted,
		CreatedAt: time.Now().UTC(),
	}
	id, err := r.store.InsertOne(ctx, usersCollection, rec)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	rec.ID = id

	return r.toDomain(rec), nil
}

// Get looks up a user by its external identifier.
func (r *Users) Get(ctx context.Context, externalID string) (domain.User, error) {
	id, err := identifier.Parse(externalID)
	if err != nil {
		return domain.User{}, err
	}

	var rec userRecord
	if err := r.store.FindOne(ctx, usersCollection, store.Filter{"_id": id}, &rec); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return domain.User{}, fmt.Errorf("user %s: %w", externalID, domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("find user %s: %w", externalID, err)
	}

	return r.toDomain(rec), nil
}

// List returns users in store-defined order, paginated by offset and count.
// The snapshot reflects the state at call time; concurrent writes may or may
// not be visible.
func (r *Users) List(ctx context.Context, skip, limit int64) ([]domain.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > r.maxList {
		limit = r.maxList
	}

	var recs []userRecord
	err := r.store.FindMany(ctx, usersCollection, store.Filter{}, store.ListOptions{Skip: skip, Limit: limit}, &recs)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]domain.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, r.toDomain(rec))
	}
	return users, nil
}

// Update replaces the user's full name with a re-encrypted value.
func (r *Users) Update(ctx context.Context, externalID, fullName string) (domain.User, error) {
	id, err := identifier.Parse(externalID)
	if err != nil {
		return domain.User{}, err
	}

	encrypted, err := r.cipher.Encrypt(fullName)
	if err != nil {
		return domain.User{}, fmt.Errorf("encrypt full name: %w", err)
	}

	matched, err := r.store.UpdateOne(ctx, usersCollection, store.Filter{"_id": id}, map[string]any{"full_name": encrypted})
	if err != nil {
		return domain.User{}, fmt.Errorf("update user %s: %w", externalID, err)
	}
	if matched == 0 {
		return domain.User{}, fmt.Errorf("user %s: %w", externalID, domain.ErrNotFound)
	}

	return r.Get(ctx, externalID)
}

// Delete removes a user. Transactions referencing the user are left intact.
func (r *Users) Delete(ctx context.Context, externalID string) error {
	id, err := identifier.Parse(externalID)
	if err != nil {
		return err
	}

	deleted, err := r.store.DeleteOne(ctx, usersCollection, store.Filter{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user %s: %w", externalID, err)
	}
	if deleted == 0 {
		return fmt.Errorf("user %s: %w", externalID, domain.ErrNotFound)
	}
	return nil
}

func (r *Users) toDomain(rec userRecord) domain.User {
	return domain.User{
		ID:        identifier.Format(rec.ID),
		FullName:  r.cipher.Decrypt(rec.FullName),
		CreatedAt: rec.CreatedAt.UTC(),
	}
}
