// Package customers implements customer CRUD over the customer store. The
// reservation coordinator only needs Exists; the rest is the management
// surface.
package customers

import (
	"context"
	"fmt"
	"sort"

	"github.com/lodgekeep/lodgekeep/internal/store"
	"github.com/lodgekeep/lodgekeep/pkg/db/models"
	pkgerrors "github.com/lodgekeep/lodgekeep/pkg/errors"
)

// Service exposes customer operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Customer, error)
	Get(ctx context.Context, customerID string) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
	Update(ctx context.Context, customerID string, input UpdateInput) (*models.Customer, error)
	Delete(ctx context.Context, customerID string) error
	Exists(ctx context.Context, customerID string) bool
}

type service struct {
	customers    store.Store[models.Customer]
	reservations store.Store[models.Reservation]
}

// NewService builds the customer service. The reservation store is read to
// refuse deleting a customer still referenced by active reservations.
func NewService(customers store.Store[models.Customer], reservations store.Store[models.Reservation]) (Service, error) {
	if customers == nil {
		return nil, fmt.Errorf("customer store required")
	}
	if reservations == nil {
		return nil, fmt.Errorf("reservation store required")
	}
	return &service{customers: customers, reservations: reservations}, nil
}

// CreateInput captures the fields of a new customer.
type CreateInput struct {
	CustomerID string
	Name       string
	Email      string
	Phone      string
}

// UpdateInput captures the customer fields allowed to change in place.
type UpdateInput struct {
	Name  *string
	Email *string
	Phone *string
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Customer, error) {
	customer := models.Customer{
		CustomerID: input.CustomerID,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
	}
	if customer.CustomerID == "" || customer.Name == "" || customer.Email == "" || customer.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id, name, email and phone are required")
	}

	err := s.customers.Update(ctx, func(records map[string]models.Customer) error {
		if _, ok := records[customer.CustomerID]; ok {
			return pkgerrors.Newf(pkgerrors.CodeAlreadyExists, "customer %q already exists", customer.CustomerID)
		}
		records[customer.CustomerID] = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *service) Get(ctx context.Context, customerID string) (*models.Customer, error) {
	customer, ok := store.Get(ctx, s.customers, customerID)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "customer %q not found", customerID)
	}
	return &customer, nil
}

func (s *service) List(ctx context.Context) ([]models.Customer, error) {
	records := s.customers.LoadAll(ctx)
	customers := make([]models.Customer, 0, len(records))
	for _, customer := range records {
		customers = append(customers, customer)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CustomerID < customers[j].CustomerID
	})
	return customers, nil
}

func (s *service) Update(ctx context.Context, customerID string, input UpdateInput) (*models.Customer, error) {
	var updated models.Customer
	err := s.customers.Update(ctx, func(records map[string]models.Customer) error {
		customer, ok := records[customerID]
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "customer %q not found", customerID)
		}
		if input.Name != nil {
			customer.Name = *input.Name
		}
		if input.Email != nil {
			customer.Email = *input.Email
		}
		if input.Phone != nil {
			customer.Phone = *input.Phone
		}
		records[customerID] = customer
		updated = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) Delete(ctx context.Context, customerID string) error {
	if referencedBy := s.activeReservations(ctx, customerID); len(referencedBy) > 0 {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"customer %q is referenced by %d active reservation(s)", customerID, len(referencedBy))
	}

	return s.customers.Update(ctx, func(records map[string]models.Customer) error {
		if _, ok := records[customerID]; !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "customer %q not found", customerID)
		}
		delete(records, customerID)
		return nil
	})
}

func (s *service) Exists(ctx context.Context, customerID string) bool {
	_, ok := store.Get(ctx, s.customers, customerID)
	return ok
}

func (s *service) activeReservations(ctx context.Context, customerID string) []string {
	var ids []string
	for id, reservation := range s.reservations.LoadAll(ctx) {
		if reservation.CustomerID == customerID {
			ids = append(ids, id)
		}
	}
	return ids
}
