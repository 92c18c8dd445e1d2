package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"photomart/internal/model"
	"photomart/internal/processor"
)

// PreferenceCreator is the slice of the processor client checkout needs.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, pref *processor.PreferenceRequest) (*processor.Preference, error)
}

// OrderCreator is implemented by *OrderService.
type OrderCreator interface {
	Create(ctx context.Context, cart []model.CartItem, customerEmail string) (*model.Order, []model.OrderItem, error)
}

// CheckoutService turns a cart into a pending order plus a processor
// checkout session the client gets redirected to.
type CheckoutService struct {
	orders      OrderCreator
	processor   PreferenceCreator
	publicURL   string
	frontendURL string
}

func NewCheckoutService(orders OrderCreator, processor PreferenceCreator, publicURL, frontendURL string) *CheckoutService {
	return &CheckoutService{
		orders:      orders,
		processor:   processor,
		publicURL:   publicURL,
		frontendURL: frontendURL,
	}
}

type Checkout struct {
	OrderID      string `json:"orderId"`
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

// Create persists the pending order first, then the processor preference
// carrying the order id as external reference. Each order line becomes its
// own preference item so the payer sees an itemized checkout. A preference
// failure leaves the pending order behind; it never settles without a
// payment and the expiry sweep reaps it.
func (s *CheckoutService) Create(ctx context.Context, cart []model.CartItem, customerEmail string) (*Checkout, error) {
	order, items, err := s.orders.Create(ctx, cart, customerEmail)
	if err != nil {
		return nil, err
	}

	backURL := fmt.Sprintf("%s/success.html?orderId=%s&customerEmail=%s",
		s.frontendURL, order.ID, url.QueryEscape(order.CustomerEmail))

	prefItems := make([]processor.PreferenceItem, 0, len(items))
	for _, item := range items {
		prefItems = append(prefItems, processor.PreferenceItem{
			Title:      "School photo",
			UnitPrice:  model.Amount(item.PriceAtPurchaseCents),
			Quantity:   item.Quantity,
			CurrencyID: "ARS",
		})
	}

	pref := &processor.PreferenceRequest{
		Items:             prefItems,
		ExternalReference: order.ID,
		BackURLs: processor.BackURLs{
			Success: backURL,
			Failure: backURL,
			Pending: backURL,
		},
		AutoReturn:      "approved",
		NotificationURL: s.publicURL + "/payment-webhook",
	}

	created, err := s.processor.CreatePreference(ctx, pref)
	if err != nil {
		slog.Error("preference creation failed, pending order left for expiry sweep",
			"order_id", order.ID, "error", err)
		return nil, fmt.Errorf("create preference: %w", err)
	}

	return &Checkout{
		OrderID:      order.ID,
		PreferenceID: created.ID,
		InitPoint:    created.InitPoint,
	}, nil
}
