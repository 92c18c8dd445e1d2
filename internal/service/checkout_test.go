package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photomart/internal/model"
	"photomart/internal/processor"
)

type fakeOrderCreator struct {
	order *model.Order
	items []model.OrderItem
	err   error
}

func (f *fakeOrderCreator) Create(context.Context, []model.CartItem, string) (*model.Order, []model.OrderItem, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.order, f.items, nil
}

type fakePreferenceCreator struct {
	got *processor.PreferenceRequest
	err error
}

func (f *fakePreferenceCreator) CreatePreference(_ context.Context, pref *processor.PreferenceRequest) (*processor.Preference, error) {
	f.got = pref
	if f.err != nil {
		return nil, f.err
	}
	return &processor.Preference{ID: "pref-1", InitPoint: "https://checkout.example/pref-1"}, nil
}

func twoLineOrder() *fakeOrderCreator {
	return &fakeOrderCreator{
		order: &model.Order{
			ID:               "order-1",
			CustomerEmail:    "a@b.com",
			TotalAmountCents: 3000,
			Status:           model.OrderStatusPending,
		},
		items: []model.OrderItem{
			{OrderID: "order-1", PhotoID: "p1", PriceAtPurchaseCents: 1500, Quantity: 1},
			{OrderID: "order-1", PhotoID: "p2", PriceAtPurchaseCents: 500, Quantity: 3},
		},
	}
}

func TestCheckoutCreate_ItemizesPreferencePerOrderLine(t *testing.T) {
	pc := &fakePreferenceCreator{}
	svc := NewCheckoutService(twoLineOrder(), pc, "https://api.example", "https://shop.example")

	created, err := svc.Create(context.Background(), nil, "a@b.com")
	require.NoError(t, err)

	require.NotNil(t, pc.got)
	require.Len(t, pc.got.Items, 2)
	assert.Equal(t, 15.00, pc.got.Items[0].UnitPrice)
	assert.Equal(t, 1, pc.got.Items[0].Quantity)
	assert.Equal(t, 5.00, pc.got.Items[1].UnitPrice)
	assert.Equal(t, 3, pc.got.Items[1].Quantity)
	for _, item := range pc.got.Items {
		assert.Equal(t, "ARS", item.CurrencyID)
	}

	assert.Equal(t, "order-1", pc.got.ExternalReference)
	assert.Equal(t, "https://api.example/payment-webhook", pc.got.NotificationURL)
	assert.Equal(t, "https://shop.example/success.html?orderId=order-1&customerEmail=a%40b.com", pc.got.BackURLs.Success)

	assert.Equal(t, "order-1", created.OrderID)
	assert.Equal(t, "pref-1", created.PreferenceID)
	assert.Equal(t, "https://checkout.example/pref-1", created.InitPoint)
}

func TestCheckoutCreate_OrderErrorPassesThrough(t *testing.T) {
	pc := &fakePreferenceCreator{}
	svc := NewCheckoutService(&fakeOrderCreator{err: ErrPriceMismatch}, pc, "https://api.example", "https://shop.example")

	_, err := svc.Create(context.Background(), nil, "a@b.com")
	assert.ErrorIs(t, err, ErrPriceMismatch)
	assert.Nil(t, pc.got)
}

func TestCheckoutCreate_PreferenceFailureLeavesOrderPending(t *testing.T) {
	pc := &fakePreferenceCreator{err: errors.New("processor unavailable")}
	svc := NewCheckoutService(twoLineOrder(), pc, "https://api.example", "https://shop.example")

	_, err := svc.Create(context.Background(), nil, "a@b.com")
	assert.Error(t, err)
}
