package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photomart/internal/model"
)

func TestBuildPendingOrder_TotalIsSumOfLines(t *testing.T) {
	cart := []model.CartItem{
		{PhotoID: "p1", Price: 15.00, Quantity: 1},
		{PhotoID: "p2", Price: 5.00, Quantity: 3},
	}
	catalog := map[string]int64{"p1": 1500, "p2": 500}

	order, items, err := buildPendingOrder(cart, "A@B.com", catalog)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, int64(1500+3*500), order.TotalAmountCents)
	assert.Equal(t, "a@b.com", order.CustomerEmail)

	require.Len(t, items, 2)
	assert.Equal(t, int64(1500), items[0].PriceAtPurchaseCents)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, int64(500), items[1].PriceAtPurchaseCents)
	assert.Equal(t, 3, items[1].Quantity)
}

func TestBuildPendingOrder_SingleLineOrder(t *testing.T) {
	cart := []model.CartItem{{PhotoID: "p1", Price: 15.00, Quantity: 1}}

	order, _, err := buildPendingOrder(cart, "a@b.com", map[string]int64{"p1": 1500})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 15.00, order.TotalAmount())
}

func TestBuildPendingOrder_DefaultsMissingQuantityToOne(t *testing.T) {
	cart := []model.CartItem{{PhotoID: "p1", Price: 15.00}}

	order, items, err := buildPendingOrder(cart, "a@b.com", map[string]int64{"p1": 1500})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, int64(1500), order.TotalAmountCents)
}

func TestBuildPendingOrder_RejectsStaleCartPrice(t *testing.T) {
	// Catalog moved to 20.00 after the client loaded the gallery.
	cart := []model.CartItem{{PhotoID: "p1", Price: 15.00, Quantity: 1}}

	_, _, err := buildPendingOrder(cart, "a@b.com", map[string]int64{"p1": 2000})
	assert.ErrorIs(t, err, ErrPriceMismatch)
}

func TestBuildPendingOrder_UnknownPhoto(t *testing.T) {
	cart := []model.CartItem{{PhotoID: "ghost", Price: 15.00, Quantity: 1}}

	_, _, err := buildPendingOrder(cart, "a@b.com", map[string]int64{})
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestBuildPendingOrder_EmptyCart(t *testing.T) {
	_, _, err := buildPendingOrder(nil, "a@b.com", map[string]int64{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestBuildPendingOrder_MissingEmail(t *testing.T) {
	cart := []model.CartItem{{PhotoID: "p1", Price: 15.00, Quantity: 1}}

	_, _, err := buildPendingOrder(cart, "   ", map[string]int64{"p1": 1500})
	assert.ErrorIs(t, err, ErrMissingEmail)
}
