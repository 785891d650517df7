package feed

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/domain/model"
)

func TestFeedDeliversStatusChanges(t *testing.T) {
	f := New(4)
	userID := uuid.New()
	updates, unsubscribe := f.Subscribe(userID)
	defer unsubscribe()

	orderID := uuid.New()
	require.NoError(t, f.Dispatch(model.OrderStatusChanged{
		OrderID:   orderID,
		UserID:    userID,
		OldStatus: model.StatusProcessing,
		NewStatus: model.StatusOutForDelivery,
	}))

	update := <-updates
	assert.Equal(t, orderID, update.OrderID)
	assert.Equal(t, model.StatusOutForDelivery, update.Status)
	assert.Equal(t, 3, update.Track.Index)
}

func TestFeedIgnoresOtherUsersAndEvents(t *testing.T) {
	f := New(4)
	updates, unsubscribe := f.Subscribe(uuid.New())
	defer unsubscribe()

	require.NoError(t, f.Dispatch(model.OrderStatusChanged{UserID: uuid.New(), NewStatus: model.StatusConfirmed}))
	require.NoError(t, f.Dispatch(model.CartCleared{Session: "s1"}))

	assert.Empty(t, updates)
}

func TestFeedDropsWhenSubscriberIsFull(t *testing.T) {
	f := New(1)
	userID := uuid.New()
	updates, unsubscribe := f.Subscribe(userID)
	defer unsubscribe()

	f.Publish(userID, Update{Status: model.StatusConfirmed})
	f.Publish(userID, Update{Status: model.StatusProcessing})

	require.Len(t, updates, 1)
	assert.Equal(t, model.StatusConfirmed, (<-updates).Status)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	f := New(1)
	userID := uuid.New()
	updates, unsubscribe := f.Subscribe(userID)
	assert.Equal(t, 1, f.Subscribers(userID))

	unsubscribe()
	unsubscribe()

	_, open := <-updates
	assert.False(t, open)
	assert.Equal(t, 0, f.Subscribers(userID))

	f.Publish(userID, Update{Status: model.StatusDelivered})
}
