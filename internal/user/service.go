package user

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/store"
)

// ErrAddressNotFound is returned for unknown or foreign addresses.
var ErrAddressNotFound = errors.New("user: address not found")

// Addresses is the persistence slice the service needs.
type Addresses interface {
	Create(ctx context.Context, a store.Address) (store.Address, error)
	Update(ctx context.Context, a store.Address) (store.Address, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (store.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]store.Address, error)
}

// AddressInput is the payload for creating or updating an address.
type AddressInput struct {
	Label        string  `json:"label"`
	ReceiverName string  `json:"receiverName"`
	Phone        string  `json:"phone"`
	Line1        string  `json:"line1"`
	Line2        *string `json:"line2"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postalCode"`
	Country      string  `json:"country"`
	IsDefault    bool    `json:"isDefault"`
}

func (in AddressInput) validate() error {
	missing := func(field string) error {
		return common.NewAppError("VALIDATION_ERROR", field+" is required", http.StatusBadRequest, nil)
	}
	if strings.TrimSpace(in.ReceiverName) == "" {
		return missing("receiverName")
	}
	if strings.TrimSpace(in.Line1) == "" {
		return missing("line1")
	}
	if strings.TrimSpace(in.City) == "" {
		return missing("city")
	}
	if strings.TrimSpace(in.PostalCode) == "" {
		return missing("postalCode")
	}
	return nil
}

func (in AddressInput) toModel(id, userID uuid.UUID) store.Address {
	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = "IN"
	}
	return store.Address{
		ID:           id,
		UserID:       userID,
		Label:        strings.TrimSpace(in.Label),
		ReceiverName: strings.TrimSpace(in.ReceiverName),
		Phone:        strings.TrimSpace(in.Phone),
		Line1:        strings.TrimSpace(in.Line1),
		Line2:        in.Line2,
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		PostalCode:   strings.TrimSpace(in.PostalCode),
		Country:      country,
		IsDefault:    in.IsDefault,
	}
}

// Service manages a user's saved delivery addresses.
type Service struct {
	Addrs Addresses
}

// Create validates and saves a new address.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in AddressInput) (store.Address, error) {
	if s == nil || s.Addrs == nil {
		return store.Address{}, errors.New("user service not configured")
	}
	if err := in.validate(); err != nil {
		return store.Address{}, err
	}
	return s.Addrs.Create(ctx, in.toModel(uuid.Nil, userID))
}

// Update rewrites one of the user's addresses.
func (s *Service) Update(ctx context.Context, userID, addressID uuid.UUID, in AddressInput) (store.Address, error) {
	if s == nil || s.Addrs == nil {
		return store.Address{}, errors.New("user service not configured")
	}
	if err := in.validate(); err != nil {
		return store.Address{}, err
	}
	updated, err := s.Addrs.Update(ctx, in.toModel(addressID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Address{}, ErrAddressNotFound
	}
	return updated, err
}

// Delete removes one of the user's addresses.
func (s *Service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if s == nil || s.Addrs == nil {
		return errors.New("user service not configured")
	}
	deleted, err := s.Addrs.Delete(ctx, addressID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAddressNotFound
	}
	return nil
}

// List returns the user's addresses, default first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]store.Address, error) {
	if s == nil || s.Addrs == nil {
		return nil, errors.New("user service not configured")
	}
	addresses, err := s.Addrs.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []store.Address{}
	}
	return addresses, nil
}
