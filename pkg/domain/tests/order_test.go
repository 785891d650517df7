package tests

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
)

type orderFixture struct {
	orders     service.OrderService
	repo       *mockOrderRepository
	products   *mockProductRepository
	carts      service.CartService
	accounts   service.AccountService
	dispatcher *mockEventDispatcher
}

func setupOrders(t *testing.T, catalog ...model.Product) *orderFixture {
	repo := newMockOrderRepository()
	products := newMockProductRepository(catalog...)
	dispatcher := &mockEventDispatcher{}
	carts := service.NewCartService(newMockSessionStorage(), dispatcher)
	accounts := service.NewAccountService(newMockAddressRepository(), newMockPaymentMethodRepository())
	return &orderFixture{
		orders:     service.NewOrderService(repo, products, carts, accounts, dispatcher),
		repo:       repo,
		products:   products,
		carts:      carts,
		accounts:   accounts,
		dispatcher: dispatcher,
	}
}

func (f *orderFixture) place(t *testing.T, userID uuid.UUID, items ...model.CartItem) *model.Order {
	t.Helper()
	if len(items) == 0 {
		items = []model.CartItem{{ProductID: uuid.New(), Name: "Milk", Price: money("56"), Quantity: 1}}
	}
	order, err := f.orders.PlaceOrder(service.PlaceOrderRequest{
		UserID:    userID,
		SessionID: session,
		Items:     items,
		Shipping:  validShipping(),
		Payment:   model.PaymentSelection{Kind: model.PaymentCOD},
		Summary:   service.Calculate(service.DefaultRates(), money("56"), model.ShippingStandard, ""),
	})
	require.NoError(t, err)
	return order
}

func TestPlaceOrderDirectly(t *testing.T) {
	f := setupOrders(t)
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		order := f.place(t, userID)

		assert.Equal(t, model.StatusPlaced, order.Status)
		assert.Equal(t, 1, order.Version)
		assert.Equal(t, "Milk", order.Items[0].Name)
		assert.Equal(t, order.CreatedAt, order.UpdatedAt)
		require.NotNil(t, f.repo.Get(order.ID))

		require.Len(t, f.dispatcher.events, 1)
		placed, ok := f.dispatcher.events[0].(model.OrderPlaced)
		require.True(t, ok)
		assert.Equal(t, session, placed.SessionID())
		assert.Equal(t, "Order placed! Total 101.08", placed.Message())
	})

	t.Run("Fail on empty order", func(t *testing.T) {
		_, err := f.orders.PlaceOrder(service.PlaceOrderRequest{UserID: userID})
		assert.ErrorIs(t, err, service.ErrOrderIsEmpty)
	})

	t.Run("Fail without user", func(t *testing.T) {
		_, err := f.orders.PlaceOrder(service.PlaceOrderRequest{Items: []model.CartItem{{ProductID: uuid.New(), Quantity: 1}}})
		assert.ErrorIs(t, err, service.ErrUserRequired)
	})
}

func TestGetAndListOrders(t *testing.T) {
	f := setupOrders(t)
	userID := uuid.New()
	first := f.place(t, userID)
	time.Sleep(time.Millisecond)
	second := f.place(t, userID)
	f.place(t, uuid.New())

	orders, err := f.orders.ListOrders(userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	_, err = f.orders.GetOrder(uuid.New(), first.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound, "other users' orders are invisible")

	_, err = f.orders.ListOrders(uuid.Nil)
	assert.ErrorIs(t, err, service.ErrUserRequired)
}

func TestAdvanceStatus(t *testing.T) {
	f := setupOrders(t)
	order := f.place(t, uuid.New())

	t.Run("Success", func(t *testing.T) {
		f.dispatcher.Reset()
		require.NoError(t, f.orders.AdvanceStatus(order.ID, model.StatusProcessing))

		stored := f.repo.Get(order.ID)
		assert.Equal(t, model.StatusProcessing, stored.Status)
		assert.Equal(t, 2, stored.Version)

		require.Len(t, f.dispatcher.events, 1)
		changed, ok := f.dispatcher.events[0].(model.OrderStatusChanged)
		require.True(t, ok)
		assert.Equal(t, model.StatusPlaced, changed.OldStatus)
		assert.Equal(t, model.StatusProcessing, changed.NewStatus)
	})

	t.Run("Fail on going backwards", func(t *testing.T) {
		err := f.orders.AdvanceStatus(order.ID, model.StatusConfirmed)
		assert.ErrorIs(t, err, service.ErrInvalidStatus)
	})

	t.Run("Fail on unknown status", func(t *testing.T) {
		err := f.orders.AdvanceStatus(order.ID, "Lost")
		assert.ErrorIs(t, err, service.ErrInvalidStatus)
	})

	t.Run("Fail on unknown order", func(t *testing.T) {
		err := f.orders.AdvanceStatus(uuid.New(), model.StatusDelivered)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestCancelOrder(t *testing.T) {
	f := setupOrders(t)
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		order := f.place(t, userID)
		require.NoError(t, f.orders.AdvanceStatus(order.ID, model.StatusConfirmed))
		f.dispatcher.Reset()

		require.NoError(t, f.orders.CancelOrder(userID, order.ID, "ordered by mistake"))
		assert.Equal(t, model.StatusCancelled, f.repo.Get(order.ID).Status)
		assert.Equal(t, []string{"OrderStatusChanged", "OrderCancelled"}, f.dispatcher.Types())

		err := f.orders.CancelOrder(userID, order.ID, "again")
		assert.ErrorIs(t, err, service.ErrOrderCannotBeModified)

		err = f.orders.AdvanceStatus(order.ID, model.StatusDelivered)
		assert.ErrorIs(t, err, service.ErrOrderCannotBeModified)
	})

	t.Run("Fail once out for delivery", func(t *testing.T) {
		order := f.place(t, userID)
		require.NoError(t, f.orders.AdvanceStatus(order.ID, model.StatusOutForDelivery))

		err := f.orders.CancelOrder(userID, order.ID, "too slow")
		assert.ErrorIs(t, err, service.ErrOrderCannotBeModified)
	})

	t.Run("Fail for another user", func(t *testing.T) {
		order := f.place(t, userID)
		err := f.orders.CancelOrder(uuid.New(), order.ID, "")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestChangePaymentMethod(t *testing.T) {
	f := setupOrders(t)
	userID := uuid.New()
	order := f.place(t, userID)

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, f.orders.ChangePaymentMethod(userID, order.ID, model.PaymentSelection{Kind: model.PaymentCard, Reference: "1111"}))
		stored := f.repo.Get(order.ID)
		assert.Equal(t, model.PaymentCard, stored.Payment.Kind)
		assert.Equal(t, 2, stored.Version)
	})

	t.Run("Saved method replaces kind and reference", func(t *testing.T) {
		saved, err := f.accounts.AddPaymentMethod(userID, model.PaymentUPI, "GPay", "asha@okbank")
		require.NoError(t, err)

		require.NoError(t, f.orders.ChangePaymentMethod(userID, order.ID, model.PaymentSelection{Kind: model.PaymentCard, SavedMethodID: saved.ID}))
		stored := f.repo.Get(order.ID)
		assert.Equal(t, model.PaymentUPI, stored.Payment.Kind)
		assert.Equal(t, "asha@okbank", stored.Payment.Reference)
		assert.Equal(t, saved.ID, stored.Payment.SavedMethodID)
	})

	t.Run("Fail on unknown saved method", func(t *testing.T) {
		before := f.repo.Get(order.ID).Version
		err := f.orders.ChangePaymentMethod(userID, order.ID, model.PaymentSelection{Kind: model.PaymentCard, SavedMethodID: uuid.New()})
		assert.ErrorIs(t, err, model.ErrPaymentMethodNotFound)
		assert.Equal(t, before, f.repo.Get(order.ID).Version)
	})

	t.Run("Fail on another user's saved method", func(t *testing.T) {
		foreign, err := f.accounts.AddPaymentMethod(uuid.New(), model.PaymentCard, "Visa", "9999")
		require.NoError(t, err)

		err = f.orders.ChangePaymentMethod(userID, order.ID, model.PaymentSelection{Kind: model.PaymentCard, SavedMethodID: foreign.ID})
		assert.ErrorIs(t, err, model.ErrPaymentMethodNotFound)
		assert.NotEqual(t, foreign.ID, f.repo.Get(order.ID).Payment.SavedMethodID)
	})

	t.Run("Fail on invalid payment", func(t *testing.T) {
		err := f.orders.ChangePaymentMethod(userID, order.ID, model.PaymentSelection{Kind: model.PaymentUPI})
		var validation *service.ValidationError
		assert.True(t, errors.As(err, &validation))
	})

	t.Run("Fail once delivered", func(t *testing.T) {
		require.NoError(t, f.orders.AdvanceStatus(order.ID, model.StatusDelivered))
		err := f.orders.ChangePaymentMethod(userID, order.ID, model.PaymentSelection{Kind: model.PaymentCOD})
		assert.ErrorIs(t, err, service.ErrOrderCannotBeModified)
	})
}

func TestRequestReturn(t *testing.T) {
	f := setupOrders(t)
	userID := uuid.New()
	order := f.place(t, userID)

	err := f.orders.RequestReturn(userID, order.ID, "damaged")
	assert.ErrorIs(t, err, service.ErrOrderCannotBeModified, "nothing to return before delivery")

	require.NoError(t, f.orders.AdvanceStatus(order.ID, model.StatusDelivered))
	f.dispatcher.Reset()
	require.NoError(t, f.orders.RequestReturn(userID, order.ID, "damaged"))
	assert.Equal(t, model.StatusReturnRequested, f.repo.Get(order.ID).Status)
	assert.Equal(t, []string{"OrderStatusChanged", "ReturnRequested"}, f.dispatcher.Types())

	err = f.orders.RequestReturn(userID, order.ID, "again")
	assert.ErrorIs(t, err, service.ErrOrderCannotBeModified)
}

func TestReorder(t *testing.T) {
	milk := product("Milk", "60.00")
	gone := uuid.New()
	f := setupOrders(t, milk)
	userID := uuid.New()

	order := f.place(t, userID,
		model.CartItem{ProductID: milk.ID, Name: "Milk", Price: money("56.00"), Quantity: 2},
		model.CartItem{ProductID: gone, Name: "Discontinued", Price: money("10.00"), Quantity: 1},
	)

	result, err := f.orders.Reorder(userID, order.ID, session)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{milk.ID}, result.Added)
	assert.Equal(t, []uuid.UUID{gone}, result.Skipped)

	cart, err := f.carts.GetCart(session)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].Price.Equal(decimal.RequireFromString("60")), "reordered items use today's price")

	_, err = f.orders.Reorder(uuid.New(), order.ID, session)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestOptimisticLockInRepository(t *testing.T) {
	repo := newMockOrderRepository()
	order := &model.Order{ID: uuid.New(), Version: 1}
	require.NoError(t, repo.Create(order))

	order.Version++
	require.NoError(t, repo.Update(order))
	assert.Equal(t, 2, repo.Get(order.ID).Version)

	err := repo.Update(order)
	require.Error(t, err, "Update with same version should fail")
	assert.ErrorIs(t, err, model.ErrOptimisticLock)
}
