// Package hotels implements hotel CRUD over the hotel store. Room-count
// changes are delegated to the inventory manager, the sole legal mutator of
// availability.
package hotels

import (
	"context"
	"fmt"
	"sort"

	"github.com/lodgekeep/lodgekeep/internal/store"
	"github.com/lodgekeep/lodgekeep/pkg/db/models"
	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
)

// roomInventory is the slice of the inventory manager this service drives.
type roomInventory interface {
	SetTotalRooms(ctx context.Context, hotelID string, totalRooms int) error
}

// Service exposes hotel operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Hotel, error)
	Get(ctx context.Context, hotelID string) (*models.Hotel, error)
	List(ctx context.Context) ([]models.Hotel, error)
	Update(ctx context.Context, hotelID string, input UpdateInput) (*models.Hotel, error)
	Delete(ctx context.Context, hotelID string) error
}

type service struct {
	hotels    store.Store[models.Hotel]
	inventory roomInventory
}

// NewService builds the hotel service.
func NewService(hotels store.Store[models.Hotel], inventory roomInventory) (Service, error) {
	if hotels == nil {
		return nil, fmt.Errorf("hotel store required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory manager required")
	}
	return &service{hotels: hotels, inventory: inventory}, nil
}

// CreateInput captures the fields of a new hotel.
type CreateInput struct {
	HotelID    string
	Name       string
	Location   string
	TotalRooms int
}

// UpdateInput captures the hotel fields allowed to change. TotalRooms goes
// through the inventory manager so availability shifts by the same delta.
type UpdateInput struct {
	Name       *string
	Location   *string
	TotalRooms *int
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Hotel, error) {
	if input.HotelID == "" || input.Name == "" || input.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hotel id, name and location are required")
	}
	if input.TotalRooms < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total rooms must be non-negative")
	}

	hotel := models.NewHotel(input.HotelID, input.Name, input.Location, input.TotalRooms)
	err := s.hotels.Update(ctx, func(records map[string]models.Hotel) error {
		if _, ok := records[hotel.HotelID]; ok {
			return pkgerrors.Newf(pkgerrors.CodeAlreadyExists, "hotel %q already exists", hotel.HotelID)
		}
		records[hotel.HotelID] = hotel
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &hotel, nil
}

func (s *service) Get(ctx context.Context, hotelID string) (*models.Hotel, error) {
	hotel, ok := store.Get(ctx, s.hotels, hotelID)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "hotel %q not found", hotelID)
	}
	return &hotel, nil
}

func (s *service) List(ctx context.Context) ([]models.Hotel, error) {
	records := s.hotels.LoadAll(ctx)
	hotels := make([]models.Hotel, 0, len(records))
	for _, hotel := range records {
		hotels = append(hotels, hotel)
	}
	sort.Slice(hotels, func(i, j int) bool {
		return hotels[i].HotelID < hotels[j].HotelID
	})
	return hotels, nil
}

func (s *service) Update(ctx context.Context, hotelID string, input UpdateInput) (*models.Hotel, error) {
	if input.Name != nil || input.Location != nil {
		err := s.hotels.Update(ctx, func(records map[string]models.Hotel) error {
			hotel, ok := records[hotelID]
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "hotel %q not found", hotelID)
			}
			if input.Name != nil {
				hotel.Name = *input.Name
			}
			if input.Location != nil {
				hotel.Location = *input.Location
			}
			records[hotelID] = hotel
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if input.TotalRooms != nil {
		if err := s.inventory.SetTotalRooms(ctx, hotelID, *input.TotalRooms); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, hotelID)
}

func (s *service) Delete(ctx context.Context, hotelID string) error {
	return s.hotels.Update(ctx, func(records map[string]models.Hotel) error {
		hotel, ok := records[hotelID]
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "hotel %q not found", hotelID)
		}
		if occupied := hotel.Occupied(); occupied > 0 {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"hotel %q still holds %d active reservation(s)", hotelID, occupied)
		}
		delete(records, hotelID)
		return nil
	})
}
