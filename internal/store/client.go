package store

import (
	"context"
	"errors"
	"time"

	"github.com/mlozan/finrecord/internal/identifier"
)

// Client defines the minimal contract required by the repositories to
// interact with the underlying document store.
type Client interface {
	InsertOne(ctx context.Context, collection string, doc any) (identifier.ID, error)
	// FindOne decodes the first matching document into out, or returns
	// ErrNoDocument.
	FindOne(ctx context.Context, collection string, filter Filter, out any) error
	// FindMany decodes matching documents into out, which must be a pointer
	// to a slice. Results follow store-defined order.
	FindMany(ctx context.Context, collection string, filter Filter, opts ListOptions, out any) error
	// UpdateOne sets the given fields on the first matching document and
	// returns the number of documents matched.
	UpdateOne(ctx context.Context, collection string, filter Filter, set map[string]any) (int64, error)
	// DeleteOne removes the first matching document and returns the number
	// of documents deleted.
	DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Filter matches documents whose fields equal the given values.
type Filter map[string]any

// ListOptions bounds FindMany results.
type ListOptions struct {
	Skip  int64
	Limit int64
}

// Options configures a store client implementation.
type Options struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

var (
	// ErrMissingURI indicates the store URI is not provided.
	ErrMissingURI = errors.New("store URI is required")

	// ErrNoDocument indicates no document matched the filter.
	ErrNoDocument = errors.New("no matching document")
)
