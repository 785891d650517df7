package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"storefront/pkg/common/domain"
	"storefront/pkg/domain/model"
)

var (
	ErrOrderCannotBeModified = errors.New("order cannot be modified in its current state")
	ErrOrderIsEmpty          = errors.New("cannot place an empty order")
	ErrUserRequired          = errors.New("user id is required")
	ErrInvalidStatus         = errors.New("status is not a later step of the delivery sequence")
)

type PlaceOrderRequest struct {
	UserID    uuid.UUID
	SessionID string
	Items     []model.CartItem
	Shipping  model.ShippingDetails
	Payment   model.PaymentSelection
	Summary   model.PriceSummary
}

type ReorderResult struct {
	Added   []uuid.UUID `json:"added"`
	Skipped []uuid.UUID `json:"skipped"`
}

type OrderService interface {
	PlaceOrder(req PlaceOrderRequest) (*model.Order, error)
	GetOrder(userID, orderID uuid.UUID) (*model.Order, error)
	ListOrders(userID uuid.UUID) ([]model.Order, error)

	AdvanceStatus(orderID uuid.UUID, status model.OrderStatus) error
	CancelOrder(userID, orderID uuid.UUID, reason string) error
	ChangePaymentMethod(userID, orderID uuid.UUID, payment model.PaymentSelection) error
	RequestReturn(userID, orderID uuid.UUID, reason string) error

	Reorder(userID, orderID uuid.UUID, sessionID string) (*ReorderResult, error)
}

func NewOrderService(
	repo model.OrderRepository,
	products model.ProductRepository,
	carts CartService,
	accounts AccountService,
	dispatcher domain.EventDispatcher,
) OrderService {
	return &orderService{repo: repo, products: products, carts: carts, accounts: accounts, dispatcher: dispatcher}
}

type orderService struct {
	repo       model.OrderRepository
	products   model.ProductRepository
	carts      CartService
	accounts   AccountService
	dispatcher domain.EventDispatcher
}

func (s *orderService) PlaceOrder(req PlaceOrderRequest) (*model.Order, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrUserRequired
	}
	if len(req.Items) == 0 {
		return nil, ErrOrderIsEmpty
	}

	orderID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:             orderID,
		UserID:         req.UserID,
		Items:          items,
		Status:         model.StatusPlaced,
		Address:        req.Shipping.Address,
		ShippingMethod: req.Shipping.Method,
		Payment:        req.Payment,
		Summary:        req.Summary,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(order); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.OrderPlaced{
		OrderID:     orderID,
		UserID:      req.UserID,
		Session:     req.SessionID,
		TotalAmount: req.Summary.TotalAmount,
	})
	return order, nil
}

func (s *orderService) GetOrder(userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.repo.Find(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(userID uuid.UUID) ([]model.Order, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	return s.repo.ListByUser(userID)
}

func (s *orderService) AdvanceStatus(orderID uuid.UUID, status model.OrderStatus) error {
	target := -1
	for i, step := range DeliverySteps {
		if step == status {
			target = i
		}
	}
	if target < 0 {
		return ErrInvalidStatus
	}

	order, err := s.repo.Find(orderID)
	if err != nil {
		return err
	}
	current, _, halted := ResolveStatus(string(order.Status))
	if halted || order.Status == model.StatusReturnRequested {
		return ErrOrderCannotBeModified
	}
	if target <= current {
		return ErrInvalidStatus
	}

	return s.changeStatus(order, status)
}

func (s *orderService) CancelOrder(userID, orderID uuid.UUID, reason string) error {
	order, err := s.GetOrder(userID, orderID)
	if err != nil {
		return err
	}

	current, _, halted := ResolveStatus(string(order.Status))
	if halted || current >= stepOutForDelivery {
		return ErrOrderCannotBeModified
	}

	if err := s.changeStatus(order, model.StatusCancelled); err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.OrderCancelled{OrderID: orderID, UserID: userID, Reason: reason})
	return nil
}

func (s *orderService) ChangePaymentMethod(userID, orderID uuid.UUID, payment model.PaymentSelection) error {
	payment, err := s.accounts.ResolvePayment(userID, payment)
	if err != nil {
		return err
	}
	if fields := validatePayment(payment); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	order, err := s.GetOrder(userID, orderID)
	if err != nil {
		return err
	}

	current, _, halted := ResolveStatus(string(order.Status))
	if halted || current >= stepDelivered {
		return ErrOrderCannotBeModified
	}

	order.Payment = payment
	if err := s.updateOrder(order); err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.OrderPaymentMethodChanged{OrderID: orderID, UserID: userID, Kind: payment.Kind})
	return nil
}

func (s *orderService) RequestReturn(userID, orderID uuid.UUID, reason string) error {
	order, err := s.GetOrder(userID, orderID)
	if err != nil {
		return err
	}
	if order.Status == model.StatusReturnRequested {
		return ErrOrderCannotBeModified
	}

	current, _, halted := ResolveStatus(string(order.Status))
	if halted || current != stepDelivered {
		return ErrOrderCannotBeModified
	}

	if err := s.changeStatus(order, model.StatusReturnRequested); err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.ReturnRequested{OrderID: orderID, UserID: userID, Reason: reason})
	return nil
}

// Reorder adds every item of a past order that still exists in the catalog, at today's
// price. Items whose product is gone are skipped without an error.
func (s *orderService) Reorder(userID, orderID uuid.UUID, sessionID string) (*ReorderResult, error) {
	order, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindMany(ids)
	if err != nil {
		return nil, err
	}

	live := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		live[p.ID] = p
	}

	result := &ReorderResult{Added: []uuid.UUID{}, Skipped: []uuid.UUID{}}
	for _, item := range order.Items {
		product, ok := live[item.ProductID]
		if !ok {
			result.Skipped = append(result.Skipped, item.ProductID)
			continue
		}
		if err := s.carts.AddToCart(sessionID, product, item.Quantity); err != nil {
			return nil, err
		}
		result.Added = append(result.Added, item.ProductID)
	}
	return result, nil
}

func (s *orderService) changeStatus(order *model.Order, status model.OrderStatus) error {
	old := order.Status
	order.Status = status
	if err := s.updateOrder(order); err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.OrderStatusChanged{
		OrderID:   order.ID,
		UserID:    order.UserID,
		OldStatus: old,
		NewStatus: status,
	})
	return nil
}

func (s *orderService) updateOrder(order *model.Order) error {
	order.Version++
	order.UpdatedAt = time.Now().UTC()
	return s.repo.Update(order)
}
