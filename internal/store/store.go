// Package store implements the record-store abstraction: one keyed
// collection per entity kind, persisted as a whole on every mutation.
//
// Loads never fail upward. A missing backing resource, an unparsable
// collection, or an individual record failing validation all degrade to a
// possibly-incomplete map plus a logged diagnostic; only saves return errors.
// Every mutation runs through Update, which makes the load-modify-save cycle
// an explicit critical section under the store's own lock.
package store

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
)

// Store is the capability set a record store exposes per entity kind.
type Store[T any] interface {
	// LoadAll returns the latest committed collection. It never errors:
	// failures degrade to an empty or partial map with a diagnostic.
	LoadAll(ctx context.Context) map[string]T
	// SaveAll overwrites the whole collection.
	SaveAll(ctx context.Context, records map[string]T) error
	// Update runs fn against the freshly loaded collection and persists it
	// iff fn returns nil, all under the store's lock.
	Update(ctx context.Context, fn func(records map[string]T) error) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeRecord unmarshals one record and applies required-field validation.
func decodeRecord[T any](data []byte) (T, error) {
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return record, err
	}
	if err := validate.Struct(record); err != nil {
		return record, err
	}
	return record, nil
}

// Get looks a single record up by identifier.
func Get[T any](ctx context.Context, s Store[T], id string) (T, bool) {
	record, ok := s.LoadAll(ctx)[id]
	return record, ok
}

// Put upserts a single record.
func Put[T any](ctx context.Context, s Store[T], id string, record T) error {
	return s.Update(ctx, func(records map[string]T) error {
		records[id] = record
		return nil
	})
}

// Delete removes a single record, failing with NOT_FOUND when absent.
func Delete[T any](ctx context.Context, s Store[T], id string) error {
	return s.Update(ctx, func(records map[string]T) error {
		if _, ok := records[id]; !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "record %q not found", id)
		}
		delete(records, id)
		return nil
	})
}
