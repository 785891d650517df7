package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOptimisticLock = errors.New("order has been modified by another transaction")
)

// OrderStatus is stored as free-form text; the constants are the values this service writes.
type OrderStatus string

const (
	StatusPlaced          OrderStatus = "Placed"
	StatusConfirmed       OrderStatus = "Confirmed"
	StatusProcessing      OrderStatus = "Processing"
	StatusOutForDelivery  OrderStatus = "Out for Delivery"
	StatusDelivered       OrderStatus = "Delivered"
	StatusCancelled       OrderStatus = "Cancelled"
	StatusReturnRequested OrderStatus = "Return Requested"
)

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingPickup   ShippingMethod = "pickup"
)

func (m ShippingMethod) Valid() bool {
	switch m {
	case ShippingStandard, ShippingExpress, ShippingPickup:
		return true
	}
	return false
}

type PaymentKind string

const (
	PaymentCard   PaymentKind = "card"
	PaymentUPI    PaymentKind = "upi"
	PaymentWallet PaymentKind = "wallet"
	PaymentCOD    PaymentKind = "cod"
)

func (k PaymentKind) Valid() bool {
	switch k {
	case PaymentCard, PaymentUPI, PaymentWallet, PaymentCOD:
		return true
	}
	return false
}

type AddressSnapshot struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

type PaymentSelection struct {
	Kind          PaymentKind `json:"kind"`
	SavedMethodID uuid.UUID   `json:"savedMethodId"`
	// Reference is the last four card digits or the UPI handle, depending on Kind.
	Reference string `json:"reference,omitempty"`
}

type PriceSummary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	GSTAmount      decimal.Decimal `json:"gstAmount"`
	HandlingCharge decimal.Decimal `json:"handlingCharge"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PromoCode      string          `json:"promoCode,omitempty"`
	PromoApplied   bool            `json:"promoApplied"`
}

// OrderItem is frozen at placement and never re-priced from the catalog.
type OrderItem struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

type Order struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Items          []OrderItem
	Status         OrderStatus
	Address        AddressSnapshot
	ShippingMethod ShippingMethod
	Payment        PaymentSelection
	Summary        PriceSummary
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderRepository interface {
	NextID() (uuid.UUID, error)
	Create(order *Order) error
	Find(id uuid.UUID) (*Order, error)
	ListByUser(userID uuid.UUID) ([]Order, error)
	Update(order *Order) error
}
