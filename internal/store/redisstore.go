package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
	"github.com/lodgekeep/lodgekeep/pkg/logger"
	"github.com/lodgekeep/lodgekeep/pkg/metrics"
)

// hashClient is the slice of the redis client the store needs.
type hashClient interface {
	StoreKey(name string) string
	ReadHash(ctx context.Context, key string) (map[string]string, error)
	ReplaceHash(ctx context.Context, key string, fields map[string]string) error
}

// RedisStore persists a collection as one redis hash per entity kind, field
// per record. The in-process mutex serializes read-modify-write cycles the
// same way the other backends do; cross-process exclusion is out of contract.
type RedisStore[T any] struct {
	mu      sync.Mutex
	client  hashClient
	key     string
	name    string
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

// NewRedisStore builds a redis-backed store over the named hash.
func NewRedisStore[T any](client hashClient, name string, logg *logger.Logger, m *metrics.StoreMetrics) (*RedisStore[T], error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if name == "" {
		return nil, fmt.Errorf("store name required")
	}
	return &RedisStore[T]{client: client, key: client.StoreKey(name), name: name, logg: logg, metrics: m}, nil
}

func (s *RedisStore[T]) LoadAll(ctx context.Context) map[string]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *RedisStore[T]) SaveAll(ctx context.Context, records map[string]T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, records)
}

func (s *RedisStore[T]) Update(ctx context.Context, fn func(records map[string]T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked(ctx)
	if err := fn(records); err != nil {
		return err
	}
	return s.saveLocked(ctx, records)
}

func (s *RedisStore[T]) loadLocked(ctx context.Context) map[string]T {
	records := make(map[string]T)

	fields, err := s.client.ReadHash(ctx, s.key)
	if err != nil {
		s.warnErr(ctx, "reading store hash failed, treating collection as empty", err)
		s.metrics.IncLoadFailure(s.name)
		return records
	}

	for key, doc := range fields {
		record, err := decodeRecord[T]([]byte(doc))
		if err != nil {
			s.warnRecord(ctx, key, err)
			s.metrics.IncRecordSkipped(s.name)
			continue
		}
		records[key] = record
	}
	return records
}

func (s *RedisStore[T]) saveLocked(ctx context.Context, records map[string]T) error {
	start := time.Now()

	fields := make(map[string]string, len(records))
	for key, record := range records {
		doc, err := json.Marshal(record)
		if err != nil {
			s.metrics.IncSaveFailure(s.name)
			return pkgerrors.Wrap(pkgerrors.CodeIO, err, "encoding record "+key)
		}
		fields[key] = string(doc)
	}

	if err := s.client.ReplaceHash(ctx, s.key, fields); err != nil {
		s.metrics.IncSaveFailure(s.name)
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "replacing "+s.name+" store hash")
	}

	s.metrics.ObserveSaveDuration(s.name, time.Since(start))
	return nil
}

func (s *RedisStore[T]) warnErr(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"store": s.name, "key": s.key, "error": err.Error()})
	s.logg.Warn(ctx, msg)
}

func (s *RedisStore[T]) warnRecord(ctx context.Context, key string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"store": s.name, "record": key, "error": err.Error()})
	s.logg.Warn(ctx, "skipping malformed record")
}
