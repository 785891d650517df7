package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
)

type productResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl"`
}

func newProductResponse(p model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
	}
}

type cartResponse struct {
	Items      []model.CartItem `json:"items"`
	Total      decimal.Decimal  `json:"total"`
	TotalItems int              `json:"totalItems"`
}

func newCartResponse(cart *model.Cart) cartResponse {
	return cartResponse{Items: cart.Items, Total: cart.Total(), TotalItems: cart.TotalItems()}
}

type stageResponse struct {
	Stage string `json:"stage"`
	*service.StageView
}

func newStageResponse(view *service.StageView) stageResponse {
	return stageResponse{Stage: view.Stage.String(), StageView: view}
}

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID             uuid.UUID              `json:"id"`
	Status         model.OrderStatus      `json:"status"`
	Items          []orderItemResponse    `json:"items"`
	Address        model.AddressSnapshot  `json:"address"`
	ShippingMethod model.ShippingMethod   `json:"shippingMethod"`
	Payment        model.PaymentSelection `json:"payment"`
	Summary        model.PriceSummary     `json:"summary"`
	Track          service.StatusTrack    `json:"track"`
	ETASeconds     int64                  `json:"etaSeconds"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

func newOrderResponse(order model.Order, now time.Time) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return orderResponse{
		ID:             order.ID,
		Status:         order.Status,
		Items:          items,
		Address:        order.Address,
		ShippingMethod: order.ShippingMethod,
		Payment:        order.Payment,
		Summary:        order.Summary,
		Track:          service.Present(string(order.Status)),
		ETASeconds:     int64(service.DeliveryETA(order, now).Seconds()),
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

type addressResponse struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	IsDefault bool      `json:"isDefault"`
	model.AddressSnapshot
}

func newAddressResponse(a model.Address) addressResponse {
	return addressResponse{ID: a.ID, Label: a.Label, IsDefault: a.IsDefault, AddressSnapshot: a.AddressSnapshot}
}

type paymentMethodResponse struct {
	ID        uuid.UUID         `json:"id"`
	Kind      model.PaymentKind `json:"kind"`
	Label     string            `json:"label"`
	Reference string            `json:"reference"`
}

func newPaymentMethodResponse(m model.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{ID: m.ID, Kind: m.Kind, Label: m.Label, Reference: m.Reference}
}
