package store

import (
	"context"
	"encoding/json"
	"sync"

	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
)

// MemoryStore keeps the collection in process memory. It backs the "memory"
// storage backend and the service tests. Records pass through the JSON codec
// on the way in and out so callers never alias store-internal state and the
// round-trip contract holds for every backend alike.
type MemoryStore[T any] struct {
	mu      sync.Mutex
	records map[string]json.RawMessage
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: make(map[string]json.RawMessage)}
}

func (s *MemoryStore[T]) LoadAll(ctx context.Context) map[string]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *MemoryStore[T]) SaveAll(ctx context.Context, records map[string]T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(records)
}

func (s *MemoryStore[T]) Update(ctx context.Context, fn func(records map[string]T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	if err := fn(records); err != nil {
		return err
	}
	return s.saveLocked(records)
}

func (s *MemoryStore[T]) loadLocked() map[string]T {
	records := make(map[string]T, len(s.records))
	for key, doc := range s.records {
		record, err := decodeRecord[T](doc)
		if err != nil {
			continue
		}
		records[key] = record
	}
	return records
}

func (s *MemoryStore[T]) saveLocked(records map[string]T) error {
	replacement := make(map[string]json.RawMessage, len(records))
	for key, record := range records {
		doc, err := json.Marshal(record)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeIO, err, "encoding record "+key)
		}
		replacement[key] = doc
	}
	s.records = replacement
	return nil
}
