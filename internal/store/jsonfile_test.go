package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lodgekeep/lodgekeep/pkg/db/models"
	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
)

func newCustomerFileStore(t *testing.T) (*FileStore[models.Customer], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.json")
	return NewFileStore[models.Customer](path, "customers", nil, nil), path
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, _ := newCustomerFileStore(t)

	records := s.LoadAll(context.Background())
	if len(records) != 0 {
		t.Fatalf("expected empty collection, got %d records", len(records))
	}
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	s, path := newCustomerFileStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	records := s.LoadAll(context.Background())
	if len(records) != 0 {
		t.Fatalf("expected empty collection from corrupt file, got %d records", len(records))
	}
}

func TestFileStoreSkipsMalformedRecord(t *testing.T) {
	s, path := newCustomerFileStore(t)
	raw := `{
		"C1": {"customer_id":"C1","name":"Ana","email":"ana@example.com","phone":"111"},
		"C2": {"customer_id":"C2","name":"Bo"},
		"C3": {"customer_id":"C3","name":"Cleo","email":"cleo@example.com","phone":"333"}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	records := s.LoadAll(context.Background())
	if len(records) != 2 {
		t.Fatalf("expected 2 valid records, got %d", len(records))
	}
	if _, ok := records["C2"]; ok {
		t.Fatalf("malformed record C2 should have been skipped")
	}
	if records["C1"].Email != "ana@example.com" {
		t.Fatalf("valid record C1 corrupted: %+v", records["C1"])
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	s, path := newCustomerFileStore(t)
	ctx := context.Background()

	want := map[string]models.Customer{
		"C1": {CustomerID: "C1", Name: "Ana", Email: "ana@example.com", Phone: "111"},
		"C2": {CustomerID: "C2", Name: "Bo", Email: "bo@example.com", Phone: "222"},
	}
	if err := s.SaveAll(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	// The on-disk form stays a plain JSON object keyed by identifier.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back file: %v", err)
	}
	var onDisk map[string]map[string]any
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("file is not a JSON object: %v", err)
	}
	if onDisk["C1"]["customer_id"] != "C1" {
		t.Fatalf("unexpected wire form: %v", onDisk["C1"])
	}

	got := s.LoadAll(ctx)
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for id, record := range want {
		if got[id] != record {
			t.Fatalf("record %s mismatch: %+v != %+v", id, got[id], record)
		}
	}
}

func TestFileStoreUpdateCommitsOnlyOnNil(t *testing.T) {
	s, _ := newCustomerFileStore(t)
	ctx := context.Background()

	if err := Put(ctx, s, "C1", models.Customer{CustomerID: "C1", Name: "Ana", Email: "a@x", Phone: "1"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	failure := pkgerrors.New(pkgerrors.CodeStateConflict, "refused")
	err := s.Update(ctx, func(records map[string]models.Customer) error {
		delete(records, "C1")
		return failure
	})
	if err != failure {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	if _, ok := Get(ctx, s, "C1"); !ok {
		t.Fatalf("failed update must not persist its mutation")
	}
}

func TestFileStoreDeleteHelper(t *testing.T) {
	s, _ := newCustomerFileStore(t)
	ctx := context.Background()

	if err := Delete(ctx, s, "GHOST"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND deleting absent record, got %v", err)
	}

	if err := Put(ctx, s, "C1", models.Customer{CustomerID: "C1", Name: "Ana", Email: "a@x", Phone: "1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := Delete(ctx, s, "C1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := Get(ctx, s, "C1"); ok {
		t.Fatalf("record should be gone")
	}
}

func TestFileStoreHotelDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotels.json")
	s := NewFileStore[models.Hotel](path, "hotels", nil, nil)

	raw := `{"H1": {"hotel_id":"H1","name":"Grand","location":"Lisbon","total_rooms":5}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	hotel, ok := Get(context.Background(), s, "H1")
	if !ok {
		t.Fatalf("expected H1 to load")
	}
	if hotel.AvailableRooms != 5 {
		t.Fatalf("expected availability default 5, got %d", hotel.AvailableRooms)
	}
	if hotel.Reservations == nil {
		t.Fatalf("expected reservations default to empty list")
	}
}
