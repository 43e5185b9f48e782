package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReservationMetrics counts reservation and room-inventory outcomes.
type ReservationMetrics struct {
	created       prometheus.Counter
	canceled      prometheus.Counter
	roomsReserved prometheus.Counter
	roomsReleased prometheus.Counter
}

// NewReservationMetrics registers the reservation metrics on the provided
// registerer.
func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	if reg == nil {
		return &ReservationMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reservations_created",
		Help: "Reservations successfully created.",
	})
	canceled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reservations_canceled",
		Help: "Reservations successfully canceled.",
	})
	roomsReserved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_reserved",
		Help: "Room inventory decrements committed.",
	})
	roomsReleased := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_released",
		Help: "Room inventory increments committed.",
	})
	reg.MustRegister(created, canceled, roomsReserved, roomsReleased)
	return &ReservationMetrics{
		created:       created,
		canceled:      canceled,
		roomsReserved: roomsReserved,
		roomsReleased: roomsReleased,
	}
}

func (m *ReservationMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *ReservationMetrics) IncCanceled() {
	if m == nil || m.canceled == nil {
		return
	}
	m.canceled.Inc()
}

func (m *ReservationMetrics) IncRoomReserved() {
	if m == nil || m.roomsReserved == nil {
		return
	}
	m.roomsReserved.Inc()
}

func (m *ReservationMetrics) IncRoomReleased() {
	if m == nil || m.roomsReleased == nil {
		return
	}
	m.roomsReleased.Inc()
}
