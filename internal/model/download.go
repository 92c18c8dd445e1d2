package model

import "time"

// DownloadRecord tracks original-file retrievals for one paid order.
type DownloadRecord struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	Counter       int       `json:"counter"`
	CreatedAt     time.Time `json:"created_at"`
}
