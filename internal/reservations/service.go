// Package reservations implements the coordinator that keeps the customer,
// hotel and reservation stores mutually consistent without a shared
// transaction. The ordering contract: a reservation record is written only
// after the hotel inventory decrement has committed, and cancellation removes
// the record even when the inventory release fails.
package reservations

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lodgekeep/lodgekeep/internal/store"
	"github.com/lodgekeep/lodgekeep/pkg/db/models"
	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
	"github.com/lodgekeep/lodgekeep/pkg/logger"
	"github.com/lodgekeep/lodgekeep/pkg/metrics"
)

// customerDirectory is the only capability the coordinator needs from the
// customer side: existence lookup by identifier.
type customerDirectory interface {
	Exists(ctx context.Context, customerID string) bool
}

// roomInventory drives the hotel inventory manager.
type roomInventory interface {
	Reserve(ctx context.Context, hotelID, reservationID string) error
	Release(ctx context.Context, hotelID, reservationID string) error
}

// Service exposes the reservation protocol.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID string) error
	Get(ctx context.Context, reservationID string) (*models.Reservation, error)
	List(ctx context.Context) ([]models.Reservation, error)
}

type service struct {
	reservations store.Store[models.Reservation]
	customers    customerDirectory
	inventory    roomInventory
	logg         *logger.Logger
	metrics      *metrics.ReservationMetrics
}

// NewService builds the reservation coordinator.
func NewService(reservations store.Store[models.Reservation], customers customerDirectory, inventory roomInventory, logg *logger.Logger, m *metrics.ReservationMetrics) (Service, error) {
	if reservations == nil {
		return nil, fmt.Errorf("reservation store required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer directory required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory manager required")
	}
	return &service{
		reservations: reservations,
		customers:    customers,
		inventory:    inventory,
		logg:         logg,
		metrics:      m,
	}, nil
}

// CreateInput captures the fields of a new reservation. Dates are opaque
// strings; no range validation applies.
type CreateInput struct {
	ReservationID string
	CustomerID    string
	HotelID       string
	CheckIn       string
	CheckOut      string
}

// NewID returns a fresh reservation identifier for callers that do not
// supply their own.
func NewID() string {
	return "res_" + uuid.NewString()
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Reservation, error) {
	reservation := models.Reservation{
		ReservationID: input.ReservationID,
		CustomerID:    input.CustomerID,
		HotelID:       input.HotelID,
		CheckIn:       input.CheckIn,
		CheckOut:      input.CheckOut,
	}
	if reservation.ReservationID == "" || reservation.CustomerID == "" || reservation.HotelID == "" ||
		reservation.CheckIn == "" || reservation.CheckOut == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"reservation id, customer id, hotel id, check-in and check-out are required")
	}

	if _, ok := store.Get(ctx, s.reservations, reservation.ReservationID); ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeAlreadyExists, "reservation %q already exists", reservation.ReservationID)
	}
	if !s.customers.Exists(ctx, reservation.CustomerID) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "customer %q not found", reservation.CustomerID)
	}

	// The inventory decrement commits first. Only then is the reservation
	// record written, so a record existing implies its room is held.
	if err := s.inventory.Reserve(ctx, reservation.HotelID, reservation.ReservationID); err != nil {
		return nil, err
	}

	if err := store.Put(ctx, s.reservations, reservation.ReservationID, reservation); err != nil {
		// The room stays held with no record pointing at it: the accepted
		// crash window of the no-shared-transaction design, surfaced for
		// operators instead of rolled back.
		s.warn(ctx, reservation.ReservationID, reservation.HotelID,
			"room held but reservation record not persisted, stores are inconsistent", err)
		return nil, err
	}

	s.metrics.IncCreated()
	return &reservation, nil
}

func (s *service) Cancel(ctx context.Context, reservationID string) error {
	if reservationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation id required")
	}

	reservation, ok := store.Get(ctx, s.reservations, reservationID)
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "reservation %q not found", reservationID)
	}

	// Best-effort release: a vanished hotel or missing occupant entry must
	// not make the reservation permanently undeletable.
	if err := s.inventory.Release(ctx, reservation.HotelID, reservationID); err != nil {
		s.warn(ctx, reservationID, reservation.HotelID,
			"releasing room failed, removing reservation record anyway", err)
	}

	err := s.reservations.Update(ctx, func(records map[string]models.Reservation) error {
		delete(records, reservationID)
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncCanceled()
	return nil
}

func (s *service) Get(ctx context.Context, reservationID string) (*models.Reservation, error) {
	reservation, ok := store.Get(ctx, s.reservations, reservationID)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "reservation %q not found", reservationID)
	}
	return &reservation, nil
}

func (s *service) List(ctx context.Context) ([]models.Reservation, error) {
	records := s.reservations.LoadAll(ctx)
	reservations := make([]models.Reservation, 0, len(records))
	for _, reservation := range records {
		reservations = append(reservations, reservation)
	}
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].ReservationID < reservations[j].ReservationID
	})
	return reservations, nil
}

func (s *service) warn(ctx context.Context, reservationID, hotelID, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithReservationID(ctx, reservationID)
	ctx = s.logg.WithHotelID(ctx, hotelID)
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}
