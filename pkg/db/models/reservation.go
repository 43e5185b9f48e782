package models

// Reservation links a customer to a room at a hotel. Check-in and check-out
// are opaque date strings; no range validation is applied.
type Reservation struct {
	ReservationID string `json:"reservation_id" validate:"required"`
	CustomerID    string `json:"customer_id" validate:"required"`
	HotelID       string `json:"hotel_id" validate:"required"`
	CheckIn       string `json:"check_in" validate:"required"`
	CheckOut      string `json:"check_out" validate:"required"`
}
