// Package lodgekeep tracks customers, hotels and reservations across three
// independently persisted record stores. Open wires the stores and services
// for the configured backend; callers embed the System in whatever surface
// they expose.
package lodgekeep

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/lodgekeep/lodgekeep/internal/customers"
	"github.com/lodgekeep/lodgekeep/internal/hotels"
	"github.com/lodgekeep/lodgekeep/internal/inventory"
	"github.com/lodgekeep/lodgekeep/internal/reservations"
	"github.com/lodgekeep/lodgekeep/internal/store"
	"github.com/lodgekeep/lodgekeep/pkg/config"
	"github.com/lodgekeep/lodgekeep/pkg/db"
	"github.com/lodgekeep/lodgekeep/pkg/db/models"
	"github.com/lodgekeep/lodgekeep/pkg/logger"
	"github.com/lodgekeep/lodgekeep/pkg/metrics"
	"github.com/lodgekeep/lodgekeep/pkg/redis"
)

// Store names, reused as file basename stems, table names and redis keys.
const (
	storeCustomers    = "customers"
	storeHotels       = "hotels"
	storeReservations = "reservations"
)

// System bundles the wired services over one storage backend.
type System struct {
	Customers    customers.Service
	Hotels       hotels.Service
	Inventory    inventory.Service
	Reservations reservations.Service

	db    *db.Client
	redis *redis.Client
}

type backingStores struct {
	customers    store.Store[models.Customer]
	hotels       store.Store[models.Hotel]
	reservations store.Store[models.Reservation]
}

// Open builds a System for the backend named in cfg.Storage. logg and reg may
// be nil; logging and metrics are then disabled.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer) (*System, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	storeMetrics := metrics.NewStoreMetrics(reg)
	reservationMetrics := metrics.NewReservationMetrics(reg)

	system := &System{}
	stores, err := system.openStores(ctx, cfg, logg, storeMetrics)
	if err != nil {
		return nil, err
	}

	system.Inventory, err = inventory.NewService(stores.hotels, reservationMetrics)
	if err != nil {
		return nil, multierr.Append(err, system.Close())
	}
	system.Customers, err = customers.NewService(stores.customers, stores.reservations)
	if err != nil {
		return nil, multierr.Append(err, system.Close())
	}
	system.Hotels, err = hotels.NewService(stores.hotels, system.Inventory)
	if err != nil {
		return nil, multierr.Append(err, system.Close())
	}
	system.Reservations, err = reservations.NewService(stores.reservations, system.Customers, system.Inventory, logg, reservationMetrics)
	if err != nil {
		return nil, multierr.Append(err, system.Close())
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "backend", strings.ToLower(cfg.Storage.Backend)), "lodgekeep system ready")
	}
	return system, nil
}

func (s *System) openStores(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.StoreMetrics) (backingStores, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case config.BackendFile:
		return backingStores{
			customers:    store.NewFileStore[models.Customer](filepath.Join(cfg.Storage.DataDir, cfg.Storage.CustomersFile), storeCustomers, logg, m),
			hotels:       store.NewFileStore[models.Hotel](filepath.Join(cfg.Storage.DataDir, cfg.Storage.HotelsFile), storeHotels, logg, m),
			reservations: store.NewFileStore[models.Reservation](filepath.Join(cfg.Storage.DataDir, cfg.Storage.ReservationsFile), storeReservations, logg, m),
		}, nil

	case config.BackendGorm:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return backingStores{}, fmt.Errorf("opening database: %w", err)
		}
		s.db = client

		customerStore, err := store.NewGormStore[models.Customer](client.DB(), "customer_records", storeCustomers, logg, m)
		if err != nil {
			return backingStores{}, multierr.Append(err, s.Close())
		}
		hotelStore, err := store.NewGormStore[models.Hotel](client.DB(), "hotel_records", storeHotels, logg, m)
		if err != nil {
			return backingStores{}, multierr.Append(err, s.Close())
		}
		reservationStore, err := store.NewGormStore[models.Reservation](client.DB(), "reservation_records", storeReservations, logg, m)
		if err != nil {
			return backingStores{}, multierr.Append(err, s.Close())
		}
		return backingStores{customers: customerStore, hotels: hotelStore, reservations: reservationStore}, nil

	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return backingStores{}, fmt.Errorf("opening redis: %w", err)
		}
		s.redis = client

		customerStore, err := store.NewRedisStore[models.Customer](client, storeCustomers, logg, m)
		if err != nil {
			return backingStores{}, multierr.Append(err, s.Close())
		}
		hotelStore, err := store.NewRedisStore[models.Hotel](client, storeHotels, logg, m)
		if err != nil {
			return backingStores{}, multierr.Append(err, s.Close())
		}
		reservationStore, err := store.NewRedisStore[models.Reservation](client, storeReservations, logg, m)
		if err != nil {
			return backingStores{}, multierr.Append(err, s.Close())
		}
		return backingStores{customers: customerStore, hotels: hotelStore, reservations: reservationStore}, nil

	case config.BackendMemory:
		return backingStores{
			customers:    store.NewMemoryStore[models.Customer](),
			hotels:       store.NewMemoryStore[models.Hotel](),
			reservations: store.NewMemoryStore[models.Reservation](),
		}, nil

	default:
		return backingStores{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Close releases the backend connections, if any.
func (s *System) Close() error {
	var err error
	if s.db != nil {
		err = multierr.Append(err, s.db.Close())
	}
	if s.redis != nil {
		err = multierr.Append(err, s.redis.Close())
	}
	return err
}
