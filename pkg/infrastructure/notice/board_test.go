package notice

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/domain/model"
)

func TestBoardQueuesNoticesPerSession(t *testing.T) {
	board := NewBoard(10)

	require.NoError(t, board.Dispatch(model.ItemAddedToCart{Session: "s1", ProductID: uuid.New(), Name: "Tomatoes 1kg", Quantity: 2}))
	require.NoError(t, board.Dispatch(model.CartCleared{Session: "s2"}))
	require.NoError(t, board.Dispatch(model.OrderStatusChanged{UserID: uuid.New()}))

	notices := board.Drain("s1")
	require.Len(t, notices, 1)
	assert.Equal(t, "ItemAddedToCart", notices[0].Type)
	assert.Equal(t, "Added 2 x Tomatoes 1kg to your cart", notices[0].Message)

	assert.Empty(t, board.Drain("s1"), "drained notices are gone")
	assert.Len(t, board.Drain("s2"), 1)
}

func TestBoardKeepsNewest(t *testing.T) {
	board := NewBoard(2)
	for _, name := range []string{"Milk", "Bread", "Eggs"} {
		require.NoError(t, board.Dispatch(model.ItemRemovedFromCart{Session: "s1", Name: name}))
	}

	notices := board.Drain("s1")
	require.Len(t, notices, 2)
	assert.Equal(t, "Removed Bread from your cart", notices[0].Message)
	assert.Equal(t, "Removed Eggs from your cart", notices[1].Message)
}

func TestBoardSkipsEventsWithoutSession(t *testing.T) {
	board := NewBoard(2)
	require.NoError(t, board.Dispatch(model.CartCleared{}))
	assert.Empty(t, board.Drain(""))
}
