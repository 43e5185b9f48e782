package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
	"github.com/lodgekeep/lodgekeep/pkg/logger"
	"github.com/lodgekeep/lodgekeep/pkg/metrics"
)

// FileStore persists a collection as a single JSON object keyed by record
// identifier, the canonical wire format. Saves rewrite the whole file through
// a temp-file-then-rename so a crash mid-write cannot truncate the previous
// committed state.
type FileStore[T any] struct {
	mu      sync.Mutex
	path    string
	name    string
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

// NewFileStore builds a file-backed store. name labels diagnostics and
// metrics; it is conventionally the plural entity kind ("hotels").
func NewFileStore[T any](path, name string, logg *logger.Logger, m *metrics.StoreMetrics) *FileStore[T] {
	return &FileStore[T]{path: path, name: name, logg: logg, metrics: m}
}

func (s *FileStore[T]) LoadAll(ctx context.Context) map[string]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *FileStore[T]) SaveAll(ctx context.Context, records map[string]T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, records)
}

func (s *FileStore[T]) Update(ctx context.Context, fn func(records map[string]T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked(ctx)
	if err := fn(records); err != nil {
		return err
	}
	return s.saveLocked(ctx, records)
}

func (s *FileStore[T]) loadLocked(ctx context.Context) map[string]T {
	records := make(map[string]T)

	data, err := os.ReadFile(s.path)
	if err != nil {
		// First use: an absent file is an empty collection, not a failure.
		if !errors.Is(err, fs.ErrNotExist) {
			s.warnErr(ctx, "reading store file failed, treating collection as empty", err)
			s.metrics.IncLoadFailure(s.name)
		}
		return records
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.warnErr(ctx, "store file is not valid JSON, treating collection as empty", err)
		s.metrics.IncLoadFailure(s.name)
		return records
	}

	for key, doc := range raw {
		record, err := decodeRecord[T](doc)
		if err != nil {
			s.warnRecord(ctx, key, err)
			s.metrics.IncRecordSkipped(s.name)
			continue
		}
		records[key] = record
	}
	return records
}

func (s *FileStore[T]) saveLocked(ctx context.Context, records map[string]T) error {
	start := time.Now()

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		s.metrics.IncSaveFailure(s.name)
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "encoding "+s.name+" store")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		s.metrics.IncSaveFailure(s.name)
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "creating temp file for "+s.name+" store")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.metrics.IncSaveFailure(s.name)
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "writing "+s.name+" store")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.metrics.IncSaveFailure(s.name)
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "closing "+s.name+" store temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		s.metrics.IncSaveFailure(s.name)
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "replacing "+s.name+" store file")
	}

	s.metrics.ObserveSaveDuration(s.name, time.Since(start))
	return nil
}

func (s *FileStore[T]) warnErr(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"store": s.name, "path": s.path, "error": err.Error()})
	s.logg.Warn(ctx, msg)
}

func (s *FileStore[T]) warnRecord(ctx context.Context, key string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"store": s.name, "record": key, "error": err.Error()})
	s.logg.Warn(ctx, "skipping malformed record")
}
