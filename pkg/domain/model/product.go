package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

type ProductOrder int

const (
	OrderByName ProductOrder = iota
	OrderByPriceAsc
	OrderByPriceDesc
)

type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
}

type ProductFilter struct {
	Category string
	OrderBy  ProductOrder
}

type ProductRepository interface {
	NextID() (uuid.UUID, error)
	Create(product *Product) error
	Find(id uuid.UUID) (*Product, error)
	FindMany(ids []uuid.UUID) ([]Product, error)
	List(filter ProductFilter) ([]Product, error)
}
