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
	"gorm.io/gorm"
)

// documentRow is the keyed-JSON-document shape every gorm-backed store uses,
// one table per entity kind.
type documentRow struct {
	RecordID string `gorm:"column:record_id;primaryKey"`
	Document []byte `gorm:"column:document;not null"`
}

// GormStore persists a collection as one keyed JSON-document table. SaveAll
// replaces the whole table inside a transaction, keeping whole-collection
// overwrite semantics on a relational substrate.
type GormStore[T any] struct {
	mu      sync.Mutex
	db      *gorm.DB
	table   string
	name    string
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

// NewGormStore builds a gorm-backed store and migrates its table.
func NewGormStore[T any](db *gorm.DB, table, name string, logg *logger.Logger, m *metrics.StoreMetrics) (*GormStore[T], error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	if table == "" {
		return nil, fmt.Errorf("table name required")
	}
	if err := db.Table(table).AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrating %s: %w", table, err)
	}
	return &GormStore[T]{db: db, table: table, name: name, logg: logg, metrics: m}, nil
}

func (s *GormStore[T]) LoadAll(ctx context.Context) map[string]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *GormStore[T]) SaveAll(ctx context.Context, records map[string]T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, records)
}

func (s *GormStore[T]) Update(ctx context.Context, fn func(records map[string]T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked(ctx)
	if err := fn(records); err != nil {
		return err
	}
	return s.saveLocked(ctx, records)
}

func (s *GormStore[T]) loadLocked(ctx context.Context) map[string]T {
	records := make(map[string]T)

	var rows []documentRow
	if err := s.db.WithContext(ctx).Table(s.table).Find(&rows).Error; err != nil {
		s.warnErr(ctx, "loading store table failed, treating collection as empty", err)
		s.metrics.IncLoadFailure(s.name)
		return records
	}

	for _, row := range rows {
		record, err := decodeRecord[T](row.Document)
		if err != nil {
			s.warnRecord(ctx, row.RecordID, err)
			s.metrics.IncRecordSkipped(s.name)
			continue
		}
		records[row.RecordID] = record
	}
	return records
}

func (s *GormStore[T]) saveLocked(ctx context.Context, records map[string]T) error {
	start := time.Now()

	rows := make([]documentRow, 0, len(records))
	for key, record := range records {
		doc, err := json.Marshal(record)
		if err != nil {
			s.metrics.IncSaveFailure(s.name)
			return pkgerrors.Wrap(pkgerrors.CodeIO, err, "encoding record "+key)
		}
		rows = append(rows, documentRow{RecordID: key, Document: doc})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.table).Where("record_id IS NOT NULL").Delete(&documentRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Table(s.table).Create(&rows).Error
	})
	if err != nil {
		s.metrics.IncSaveFailure(s.name)
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "replacing "+s.name+" store table")
	}

	s.metrics.ObserveSaveDuration(s.name, time.Since(start))
	return nil
}

func (s *GormStore[T]) warnErr(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"store": s.name, "table": s.table, "error": err.Error()})
	s.logg.Warn(ctx, msg)
}

func (s *GormStore[T]) warnRecord(ctx context.Context, key string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"store": s.name, "record": key, "error": err.Error()})
	s.logg.Warn(ctx, "skipping malformed record")
}
