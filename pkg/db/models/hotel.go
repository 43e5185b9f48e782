package models

import "encoding/json"

// Hotel tracks room inventory and the reservations currently holding rooms.
// Reservations is a denormalized back-reference; the Reservation record stays
// the source of truth for customer and date association.
type Hotel struct {
	HotelID        string   `json:"hotel_id" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Location       string   `json:"location" validate:"required"`
	TotalRooms     int      `json:"total_rooms" validate:"min=0"`
	AvailableRooms int      `json:"available_rooms" validate:"min=0,ltefield=TotalRooms"`
	Reservations   []string `json:"reservations"`
}

// NewHotel builds a hotel with every room available.
func NewHotel(hotelID, name, location string, totalRooms int) Hotel {
	return Hotel{
		HotelID:        hotelID,
		Name:           name,
		Location:       location,
		TotalRooms:     totalRooms,
		AvailableRooms: totalRooms,
		Reservations:   []string{},
	}
}

// UnmarshalJSON applies the wire defaults: available_rooms falls back to
// total_rooms and reservations to an empty list when absent.
func (h *Hotel) UnmarshalJSON(data []byte) error {
	type alias Hotel
	aux := struct {
		AvailableRooms *int `json:"available_rooms"`
		*alias
	}{alias: (*alias)(h)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.AvailableRooms != nil {
		h.AvailableRooms = *aux.AvailableRooms
	} else {
		h.AvailableRooms = h.TotalRooms
	}
	if h.Reservations == nil {
		h.Reservations = []string{}
	}
	return nil
}

// Occupied returns the number of rooms held by reservations.
func (h Hotel) Occupied() int {
	return len(h.Reservations)
}

// HoldsReservation reports whether the reservation occupies a room here.
func (h Hotel) HoldsReservation(reservationID string) bool {
	for _, id := range h.Reservations {
		if id == reservationID {
			return true
		}
	}
	return false
}
