package service

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"storefront/pkg/common/domain"
	"storefront/pkg/domain/model"
)

var (
	ErrInvalidProduct   = errors.New("product has no id")
	ErrCartItemNotFound = errors.New("product is not in the cart")
)

type CartService interface {
	AddToCart(sessionID string, product model.Product, quantity int) error
	UpdateQuantity(sessionID string, productID uuid.UUID, quantity int) error
	RemoveFromCart(sessionID string, productID uuid.UUID) error
	ClearCart(sessionID string) error

	GetCart(sessionID string) (*model.Cart, error)
	GetCartTotal(sessionID string) (decimal.Decimal, error)
	GetTotalItems(sessionID string) (int, error)
}

func CartKey(sessionID string) string {
	return "cart:" + sessionID
}

func NewCartService(storage model.SessionStorage, dispatcher domain.EventDispatcher) CartService {
	return &cartService{storage: storage, dispatcher: dispatcher}
}

type cartService struct {
	storage    model.SessionStorage
	dispatcher domain.EventDispatcher
}

func (s *cartService) AddToCart(sessionID string, product model.Product, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	if product.ID == uuid.Nil {
		return ErrInvalidProduct
	}

	cart, err := s.GetCart(sessionID)
	if err != nil {
		return err
	}

	if i := cart.IndexOf(product.ID); i >= 0 {
		cart.Items[i].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, model.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Category:  product.Category,
			ImageURL:  product.ImageURL,
			Stock:     product.Stock,
			Quantity:  quantity,
		})
	}

	if err := s.save(cart); err != nil {
		return err
	}

	s.dispatch(model.ItemAddedToCart{Session: sessionID, ProductID: product.ID, Name: product.Name, Quantity: quantity})
	return nil
}

func (s *cartService) UpdateQuantity(sessionID string, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(sessionID, productID)
	}

	cart, err := s.GetCart(sessionID)
	if err != nil {
		return err
	}

	i := cart.IndexOf(productID)
	if i < 0 {
		return ErrCartItemNotFound
	}

	old := cart.Items[i].Quantity
	cart.Items[i].Quantity = quantity
	if err := s.save(cart); err != nil {
		return err
	}

	s.dispatch(model.CartItemQuantityChanged{
		Session:     sessionID,
		ProductID:   productID,
		Name:        cart.Items[i].Name,
		OldQuantity: old,
		NewQuantity: quantity,
	})
	return nil
}

func (s *cartService) RemoveFromCart(sessionID string, productID uuid.UUID) error {
	cart, err := s.GetCart(sessionID)
	if err != nil {
		return err
	}

	i := cart.IndexOf(productID)
	if i < 0 {
		return nil
	}

	removed := cart.Items[i]
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	if err := s.save(cart); err != nil {
		return err
	}

	s.dispatch(model.ItemRemovedFromCart{Session: sessionID, ProductID: productID, Name: removed.Name})
	return nil
}

func (s *cartService) ClearCart(sessionID string) error {
	if sessionID == "" {
		return model.ErrSessionRequired
	}
	if err := s.storage.Delete(CartKey(sessionID)); err != nil {
		return err
	}

	s.dispatch(model.CartCleared{Session: sessionID})
	return nil
}

func (s *cartService) GetCart(sessionID string) (*model.Cart, error) {
	if sessionID == "" {
		return nil, model.ErrSessionRequired
	}

	data, found, err := s.storage.Load(CartKey(sessionID))
	if err != nil {
		return nil, err
	}

	cart := &model.Cart{SessionID: sessionID, Items: []model.CartItem{}}
	if !found || len(data) == 0 {
		return cart, nil
	}
	cart.Items = decodeCartItems(sessionID, data)
	return cart, nil
}

func (s *cartService) GetCartTotal(sessionID string) (decimal.Decimal, error) {
	cart, err := s.GetCart(sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total(), nil
}

func (s *cartService) GetTotalItems(sessionID string) (int, error) {
	cart, err := s.GetCart(sessionID)
	if err != nil {
		return 0, err
	}
	return cart.TotalItems(), nil
}

func (s *cartService) save(cart *model.Cart) error {
	data, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}
	return s.storage.Save(CartKey(cart.SessionID), data)
}

func (s *cartService) dispatch(event domain.Event) {
	if err := s.dispatcher.Dispatch(event); err != nil {
		log.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
	}
}

// storedCartItem mirrors model.CartItem with pointers so missing fields can be told apart
// from zero values.
type storedCartItem struct {
	ProductID *uuid.UUID       `json:"id"`
	Name      *string          `json:"name"`
	Price     *decimal.Decimal `json:"price"`
	Category  string           `json:"category"`
	ImageURL  string           `json:"imageUrl"`
	Stock     int              `json:"stock"`
	Quantity  *int             `json:"quantity"`
}

func (i storedCartItem) valid() bool {
	return i.ProductID != nil && *i.ProductID != uuid.Nil &&
		i.Name != nil && strings.TrimSpace(*i.Name) != "" &&
		i.Price != nil && !i.Price.IsNegative() &&
		i.Quantity != nil && *i.Quantity >= 1
}

// decodeCartItems drops entries that fail shape validation instead of failing the load.
// A blob that is not a list at all yields an empty cart.
func decodeCartItems(sessionID string, data []byte) []model.CartItem {
	items := []model.CartItem{}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.WithError(err).WithField("session", sessionID).Warn("discarding unreadable cart snapshot")
		return items
	}

	dropped := 0
	for _, entry := range raw {
		var stored storedCartItem
		if err := json.Unmarshal(entry, &stored); err != nil || !stored.valid() {
			dropped++
			continue
		}

		item := model.CartItem{
			ProductID: *stored.ProductID,
			Name:      *stored.Name,
			Price:     *stored.Price,
			Category:  stored.Category,
			ImageURL:  stored.ImageURL,
			Stock:     stored.Stock,
			Quantity:  *stored.Quantity,
		}
		if j := indexOf(items, item.ProductID); j >= 0 {
			items[j].Quantity += item.Quantity
			continue
		}
		items = append(items, item)
	}

	if dropped > 0 {
		log.WithFields(log.Fields{"session": sessionID, "dropped": dropped}).Warn("dropped malformed cart entries")
	}
	return items
}

func indexOf(items []model.CartItem, productID uuid.UUID) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
