package model

import (
	"time"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusPastDue   = "past_due"
	OrderStatusCancelled = "cancelled"
	OrderStatusRejected  = "rejected"
	OrderStatusExpired   = "expired"
)

type Order struct {
	ID                string     `json:"id"`
	PhotographerID    string     `json:"photographer_id"`
	CustomerEmail     string     `json:"customer_email"`
	TotalAmountCents  int64      `json:"-"`
	Status            string     `json:"status"`
	PaymentReference  string     `json:"payment_reference,omitempty"`
	DownloadExpiresAt *time.Time `json:"download_expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (o Order) TotalAmount() float64 {
	return Amount(o.TotalAmountCents)
}

type OrderItem struct {
	ID                   string `json:"id"`
	OrderID              string `json:"order_id"`
	PhotoID              string `json:"photo_id"`
	PriceAtPurchaseCents int64  `json:"-"`
	Quantity             int    `json:"quantity"`
}

// CartItem is one line of a client checkout request. The embedded price is a
// display hint only; the authoritative price is re-read from the catalog at
// order creation.
type CartItem struct {
	PhotoID  string  `json:"photoId"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
