package reservations

import (
	"context"
	"testing"

	"github.com/lodgekeep/lodgekeep/internal/inventory"
	"github.com/lodgekeep/lodgekeep/internal/store"
	"github.com/lodgekeep/lodgekeep/pkg/db/models"
	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
)

type stubDirectory struct {
	known map[string]bool
}

func (d *stubDirectory) Exists(_ context.Context, customerID string) bool {
	return d.known[customerID]
}

type stubInventory struct {
	reserveErr error
	releaseErr error
	reserved   []string
	released   []string
}

func (i *stubInventory) Reserve(_ context.Context, _, reservationID string) error {
	if i.reserveErr != nil {
		return i.reserveErr
	}
	i.reserved = append(i.reserved, reservationID)
	return nil
}

func (i *stubInventory) Release(_ context.Context, _, reservationID string) error {
	if i.releaseErr != nil {
		return i.releaseErr
	}
	i.released = append(i.released, reservationID)
	return nil
}

// failingStore wraps a memory store and fails every write.
type failingStore struct {
	store.Store[models.Reservation]
}

func (f *failingStore) SaveAll(context.Context, map[string]models.Reservation) error {
	return pkgerrors.New(pkgerrors.CodeIO, "disk full")
}

func (f *failingStore) Update(context.Context, func(map[string]models.Reservation) error) error {
	return pkgerrors.New(pkgerrors.CodeIO, "disk full")
}

type fixture struct {
	svc          Service
	reservations store.Store[models.Reservation]
	hotels       store.Store[models.Hotel]
}

// newFixture wires the coordinator to a real inventory manager over memory
// stores, with C1 as the only known customer and H1 seeded per totalRooms.
func newFixture(t *testing.T, totalRooms int) fixture {
	t.Helper()
	hotelStore := store.NewMemoryStore[models.Hotel]()
	hotel := models.NewHotel("H1", "Grand", "Lisbon", totalRooms)
	if err := store.Put(context.Background(), hotelStore, hotel.HotelID, hotel); err != nil {
		t.Fatalf("seed hotel: %v", err)
	}

	inv, err := inventory.NewService(hotelStore, nil)
	if err != nil {
		t.Fatalf("new inventory: %v", err)
	}

	reservationStore := store.NewMemoryStore[models.Reservation]()
	svc, err := NewService(reservationStore, &stubDirectory{known: map[string]bool{"C1": true}}, inv, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{svc: svc, reservations: reservationStore, hotels: hotelStore}
}

func createInput(reservationID string) CreateInput {
	return CreateInput{
		ReservationID: reservationID,
		CustomerID:    "C1",
		HotelID:       "H1",
		CheckIn:       "2026-09-01",
		CheckOut:      "2026-09-05",
	}
}

func availableRooms(t *testing.T, hotels store.Store[models.Hotel]) int {
	t.Helper()
	hotel, ok := store.Get(context.Background(), hotels, "H1")
	if !ok {
		t.Fatal("hotel H1 missing")
	}
	return hotel.AvailableRooms
}

func TestCreateCancelCycleOnLastRoom(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, createInput("R1")); err != nil {
		t.Fatalf("create R1: %v", err)
	}
	if got := availableRooms(t, f.hotels); got != 0 {
		t.Fatalf("expected 0 available after R1, got %d", got)
	}

	_, err := f.svc.Create(ctx, createInput("R2"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeNoAvailability) {
		t.Fatalf("expected NO_AVAILABILITY for R2, got %v", err)
	}
	if _, ok := store.Get(ctx, f.reservations, "R2"); ok {
		t.Fatal("R2 must not be persisted")
	}

	if err := f.svc.Cancel(ctx, "R1"); err != nil {
		t.Fatalf("cancel R1: %v", err)
	}
	if got := availableRooms(t, f.hotels); got != 1 {
		t.Fatalf("expected 1 available after cancel, got %d", got)
	}
	if _, ok := store.Get(ctx, f.reservations, "R1"); ok {
		t.Fatal("R1 record must be removed")
	}

	if _, err := f.svc.Create(ctx, createInput("R2")); err != nil {
		t.Fatalf("create R2 after cancel: %v", err)
	}
}

func TestCreateUnknownCustomerTouchesNothing(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	input := createInput("R1")
	input.CustomerID = "GHOST"
	_, err := f.svc.Create(ctx, input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	if got := availableRooms(t, f.hotels); got != 2 {
		t.Fatalf("availability changed for rejected reservation: %d", got)
	}
	if _, ok := store.Get(ctx, f.reservations, "R1"); ok {
		t.Fatal("rejected reservation must not be persisted")
	}
}

func TestCreateDuplicate(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, createInput("R1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := f.svc.Create(ctx, createInput("R1"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
	if got := availableRooms(t, f.hotels); got != 1 {
		t.Fatalf("duplicate attempt must not take a second room, got %d available", got)
	}
}

func TestCreateMissingFields(t *testing.T) {
	f := newFixture(t, 1)

	input := createInput("R1")
	input.CheckOut = ""
	_, err := f.svc.Create(context.Background(), input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateSkipsInventoryWhenRecordExists(t *testing.T) {
	reservationStore := store.NewMemoryStore[models.Reservation]()
	if err := store.Put(context.Background(), reservationStore, "R1", models.Reservation{
		ReservationID: "R1", CustomerID: "C1", HotelID: "H1",
		CheckIn: "2026-09-01", CheckOut: "2026-09-05",
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	inv := &stubInventory{}
	svc, err := NewService(reservationStore, &stubDirectory{known: map[string]bool{"C1": true}}, inv, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Create(context.Background(), createInput("R1")); !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
	if len(inv.reserved) != 0 {
		t.Fatalf("duplicate check must run before any room is taken, reserved %v", inv.reserved)
	}
}

func TestCreateReportsPersistFailureAfterReserve(t *testing.T) {
	inv := &stubInventory{}
	reservationStore := &failingStore{Store: store.NewMemoryStore[models.Reservation]()}
	svc, err := NewService(reservationStore, &stubDirectory{known: map[string]bool{"C1": true}}, inv, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Create(context.Background(), createInput("R1"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeIO) {
		t.Fatalf("expected IO_FAILURE, got %v", err)
	}
	if len(inv.reserved) != 1 {
		t.Fatalf("room should have been taken before the failed write, reserved %v", inv.reserved)
	}
}

func TestCancelRemovesRecordEvenWhenReleaseFails(t *testing.T) {
	reservationStore := store.NewMemoryStore[models.Reservation]()
	ctx := context.Background()
	if err := store.Put(ctx, reservationStore, "R1", models.Reservation{
		ReservationID: "R1", CustomerID: "C1", HotelID: "H_GONE",
		CheckIn: "2026-09-01", CheckOut: "2026-09-05",
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	inv := &stubInventory{releaseErr: pkgerrors.New(pkgerrors.CodeNotFound, "hotel gone")}
	svc, err := NewService(reservationStore, &stubDirectory{known: map[string]bool{"C1": true}}, inv, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Cancel(ctx, "R1"); err != nil {
		t.Fatalf("cancel must succeed despite release failure: %v", err)
	}
	if _, ok := store.Get(ctx, reservationStore, "R1"); ok {
		t.Fatal("record must be removed")
	}
}

func TestCancelUnknownReservation(t *testing.T) {
	f := newFixture(t, 1)

	err := f.svc.Cancel(context.Background(), "NOPE")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	for _, id := range []string{"R2", "R1", "R3"} {
		if _, err := f.svc.Create(ctx, createInput(id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	got, err := f.svc.Get(ctx, "R2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.HotelID != "H1" || got.CustomerID != "C1" {
		t.Fatalf("unexpected reservation %+v", got)
	}

	all, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reservations, got %d", len(all))
	}
	for i, want := range []string{"R1", "R2", "R3"} {
		if all[i].ReservationID != want {
			t.Fatalf("expected %s at %d, got %s", want, i, all[i].ReservationID)
		}
	}
}

func TestNewIDPrefix(t *testing.T) {
	id := NewID()
	if len(id) <= len("res_") || id[:4] != "res_" {
		t.Fatalf("unexpected id %q", id)
	}
	if id == NewID() {
		t.Fatal("ids must be unique")
	}
}
