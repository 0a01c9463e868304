package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mlozan/finrecord/internal/identifier"
)

// Memory is a simple in-memory implementation of the Client interface used
// for unit testing repository logic without requiring a running document
// store. Documents pass through the driver's bson codec on the way in and
// out, so type handling matches the real store.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]bson.M
	err         error
	pingErr     error
}

// NewMemory instantiates an empty in-memory client.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]bson.M)}
}

// WithError configures the client to fail all subsequent operations with err.
func (m *Memory) WithError(err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithPingError forces Ping to return the supplied error.
func (m *Memory) WithPingError(err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
	return m
}

// Count returns the number of documents held in a collection.
func (m *Memory) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

// Raw returns a snapshot of the stored documents in insertion order, as the
// store holds them. Tests use it to inspect at-rest representations.
func (m *Memory) Raw(collection string) []bson.M {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bson.M(nil), m.collections[collection]...)
}

func (m *Memory) InsertOne(_ context.Context, collection string, doc any) (identifier.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return identifier.ID{}, m.err
	}

	normalized, err := normalize(doc)
	if err != nil {
		return identifier.ID{}, err
	}

	id := identifier.New()
	normalized["_id"] = id
	m.collections[collection] = append(m.collections[collection], normalized)
	return id, nil
}

func (m *Memory) FindOne(_ context.Context, collection string, filter Filter, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	match, err := normalize(bson.M(filter))
	if err != nil {
		return err
	}

	for _, doc := range m.collections[collection] {
		if matches(doc, match) {
			return decodeInto(doc, out)
		}
	}
	return ErrNoDocument
}

func (m *Memory) FindMany(_ context.Context, collection string, filter Filter, opts ListOptions, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	slicePtr := reflect.ValueOf(out)
	if slicePtr.Kind() != reflect.Pointer || slicePtr.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("out must be a pointer to a slice, got %T", out)
	}

	match, err := normalize(bson.M(filter))
	if err != nil {
		return err
	}

	sliceVal := slicePtr.Elem()
	elemType := sliceVal.Type().Elem()

	var skipped int64
	var taken int64
	for _, doc := range m.collections[collection] {
		if !matches(doc, match) {
			continue
		}
		if skipped < opts.Skip {
			skipped++
			continue
		}
		if opts.Limit > 0 && taken >= opts.Limit {
			break
		}
		elem := reflect.New(elemType)
		if err := decodeInto(doc, elem.Interface()); err != nil {
			return err
		}
		sliceVal = reflect.Append(sliceVal, elem.Elem())
		taken++
	}

	slicePtr.Elem().Set(sliceVal)
	return nil
}

func (m *Memory) UpdateOne(_ context.Context, collection string, filter Filter, set map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	match, err := normalize(bson.M(filter))
	if err != nil {
		return 0, err
	}
	changes, err := normalize(bson.M(set))
	if err != nil {
		return 0, err
	}

	for _, doc := range m.collections[collection] {
		if matches(doc, match) {
			for k, v := range changes {
				doc[k] = v
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (m *Memory) DeleteOne(_ context.Context, collection string, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	match, err := normalize(bson.M(filter))
	if err != nil {
		return 0, err
	}

	docs := m.collections[collection]
	for i, doc := range docs {
		if matches(doc, match) {
			m.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *Memory) Close(context.Context) error {
	return nil
}

// normalize round-trips a value through the bson codec so stored documents,
// filters and updates all use the same representations.
func normalize(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var normalized bson.M
	if err := bson.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return normalized, nil
}

func decodeInto(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
