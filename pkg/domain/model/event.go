package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemAddedToCart struct {
	Session   string
	ProductID uuid.UUID
	Name      string
	Quantity  int
}

func (e ItemAddedToCart) Type() string      { return "ItemAddedToCart" }
func (e ItemAddedToCart) SessionID() string { return e.Session }
func (e ItemAddedToCart) Message() string {
	return fmt.Sprintf("Added %d x %s to your cart", e.Quantity, e.Name)
}

type CartItemQuantityChanged struct {
	Session     string
	ProductID   uuid.UUID
	Name        string
	OldQuantity int
	NewQuantity int
}

func (e CartItemQuantityChanged) Type() string      { return "CartItemQuantityChanged" }
func (e CartItemQuantityChanged) SessionID() string { return e.Session }
func (e CartItemQuantityChanged) Message() string {
	return fmt.Sprintf("Updated %s quantity to %d", e.Name, e.NewQuantity)
}

type ItemRemovedFromCart struct {
	Session   string
	ProductID uuid.UUID
	Name      string
}

func (e ItemRemovedFromCart) Type() string      { return "ItemRemovedFromCart" }
func (e ItemRemovedFromCart) SessionID() string { return e.Session }
func (e ItemRemovedFromCart) Message() string {
	return fmt.Sprintf("Removed %s from your cart", e.Name)
}

type CartCleared struct {
	Session string
}

func (e CartCleared) Type() string      { return "CartCleared" }
func (e CartCleared) SessionID() string { return e.Session }
func (e CartCleared) Message() string   { return "Your cart is now empty" }

type OrderPlaced struct {
	OrderID     uuid.UUID
	UserID      uuid.UUID
	Session     string
	TotalAmount decimal.Decimal
}

func (e OrderPlaced) Type() string      { return "OrderPlaced" }
func (e OrderPlaced) SessionID() string { return e.Session }
func (e OrderPlaced) Message() string {
	return fmt.Sprintf("Order placed! Total %s", e.TotalAmount.StringFixed(2))
}

type OrderStatusChanged struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	OldStatus OrderStatus
	NewStatus OrderStatus
}

func (e OrderStatusChanged) Type() string { return "OrderStatusChanged" }

type OrderPaymentMethodChanged struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Kind    PaymentKind
}

func (e OrderPaymentMethodChanged) Type() string { return "OrderPaymentMethodChanged" }

type ReturnRequested struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Reason  string
}

func (e ReturnRequested) Type() string { return "ReturnRequested" }

type OrderCancelled struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Reason  string
}

func (e OrderCancelled) Type() string { return "OrderCancelled" }
