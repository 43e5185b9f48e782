// Package inventory owns hotel room counts and occupant lists. Its
// operations are the only legal way to mutate availability; every call is a
// full read-modify-write cycle against the hotel store.
package inventory

import (
	"context"
	"fmt"

	"github.com/lodgekeep/lodgekeep/internal/store"
	"github.com/lodgekeep/lodgekeep/pkg/db/models"
	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
	"github.com/lodgekeep/lodgekeep/pkg/metrics"
)

// Service exposes the room-inventory mutations.
type Service interface {
	// Reserve takes one room at the hotel for the reservation.
	Reserve(ctx context.Context, hotelID, reservationID string) error
	// Release returns the reservation's room to the hotel.
	Release(ctx context.Context, hotelID, reservationID string) error
	// SetTotalRooms resizes the hotel, shifting availability by the delta.
	SetTotalRooms(ctx context.Context, hotelID string, totalRooms int) error
}

type service struct {
	hotels  store.Store[models.Hotel]
	metrics *metrics.ReservationMetrics
}

// NewService builds the inventory manager over the hotel store.
func NewService(hotels store.Store[models.Hotel], m *metrics.ReservationMetrics) (Service, error) {
	if hotels == nil {
		return nil, fmt.Errorf("hotel store required")
	}
	return &service{hotels: hotels, metrics: m}, nil
}

func (s *service) Reserve(ctx context.Context, hotelID, reservationID string) error {
	if hotelID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "hotel id required")
	}
	if reservationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation id required")
	}

	err := s.hotels.Update(ctx, func(hotels map[string]models.Hotel) error {
		hotel, ok := hotels[hotelID]
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "hotel %q not found", hotelID)
		}
		if hotel.AvailableRooms <= 0 {
			return pkgerrors.Newf(pkgerrors.CodeNoAvailability, "no available rooms in hotel %q", hotelID)
		}
		hotel.AvailableRooms--
		hotel.Reservations = append(hotel.Reservations, reservationID)
		hotels[hotelID] = hotel
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncRoomReserved()
	return nil
}

func (s *service) Release(ctx context.Context, hotelID, reservationID string) error {
	if hotelID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "hotel id required")
	}
	if reservationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation id required")
	}

	err := s.hotels.Update(ctx, func(hotels map[string]models.Hotel) error {
		hotel, ok := hotels[hotelID]
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "hotel %q not found", hotelID)
		}
		idx := -1
		for i, id := range hotel.Reservations {
			if id == reservationID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return pkgerrors.Newf(pkgerrors.CodeNotOnRecord, "reservation %q not on record for hotel %q", reservationID, hotelID)
		}
		hotel.Reservations = append(hotel.Reservations[:idx], hotel.Reservations[idx+1:]...)
		if hotel.AvailableRooms < hotel.TotalRooms {
			hotel.AvailableRooms++
		}
		hotels[hotelID] = hotel
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncRoomReleased()
	return nil
}

func (s *service) SetTotalRooms(ctx context.Context, hotelID string, totalRooms int) error {
	if hotelID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "hotel id required")
	}
	if totalRooms < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "total rooms must be non-negative")
	}

	return s.hotels.Update(ctx, func(hotels map[string]models.Hotel) error {
		hotel, ok := hotels[hotelID]
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "hotel %q not found", hotelID)
		}
		// Shrinking below current occupancy would force availability
		// negative or break available == total - occupied; reject instead
		// of clamping so the invariant holds unconditionally.
		if occupied := hotel.Occupied(); totalRooms < occupied {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"hotel %q holds %d occupied rooms, cannot shrink total to %d", hotelID, occupied, totalRooms)
		}
		hotel.AvailableRooms += totalRooms - hotel.TotalRooms
		hotel.TotalRooms = totalRooms
		hotels[hotelID] = hotel
		return nil
	})
}
