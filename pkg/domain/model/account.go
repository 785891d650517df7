package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAddressNotFound       = errors.New("address not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)

type Address struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Label     string
	IsDefault bool
	AddressSnapshot
	CreatedAt time.Time
}

type AddressRepository interface {
	NextID() (uuid.UUID, error)
	Create(address *Address) error
	Update(address *Address) error
	Find(id uuid.UUID) (*Address, error)
	ListByUser(userID uuid.UUID) ([]Address, error)
	Delete(id uuid.UUID) error
}

type PaymentMethod struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      PaymentKind
	Label     string
	Reference string
	CreatedAt time.Time
}

type PaymentMethodRepository interface {
	NextID() (uuid.UUID, error)
	Create(method *PaymentMethod) error
	Find(id uuid.UUID) (*PaymentMethod, error)
	ListByUser(userID uuid.UUID) ([]PaymentMethod, error)
	Delete(id uuid.UUID) error
}
