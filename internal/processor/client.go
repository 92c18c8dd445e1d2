// Package processor is the HTTP client for the external payment processor.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"photomart/internal/model"
)

// ErrNotFound means the processor does not know the resource yet. Right
// after a notification the looked-up resource can lag behind it, so callers
// treat this as retryable-but-not-fatal.
var ErrNotFound = errors.New("resource not found at processor")

const (
	PaymentApproved = "approved"
	OrderPaid       = "paid"
)

type Payment struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Order  struct {
		ID int64 `json:"id"`
	} `json:"order"`
}

type MerchantOrder struct {
	ID                int64   `json:"id"`
	OrderStatus       string  `json:"order_status"`
	PaidAmount        float64 `json:"paid_amount"`
	TotalAmount       float64 `json:"total_amount"`
	ExternalReference string  `json:"external_reference"`
	Payments          []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	} `json:"payments"`
}

// FullyPaid reports whether the merchant order is settled on the
// processor's side.
func (m *MerchantOrder) FullyPaid() bool {
	return m.OrderStatus == OrderPaid ||
		model.Cents(m.PaidAmount) >= model.Cents(m.TotalAmount)
}

// ApprovedPaymentID returns the id of the first approved payment attempt,
// falling back to the first attempt of any status.
func (m *MerchantOrder) ApprovedPaymentID() int64 {
	for _, p := range m.Payments {
		if p.Status == PaymentApproved {
			return p.ID
		}
	}
	if len(m.Payments) > 0 {
		return m.Payments[0].ID
	}
	return 0
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
	NotificationURL   string           `json:"notification_url"`
}

type PreferenceItem struct {
	Title      string  `json:"title"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

type Client struct {
	baseURL    string
	token      string
	client     *http.Client
	retries    int
	retryDelay time.Duration
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		client:     &http.Client{Timeout: 10 * time.Second},
		retries:    3,
		retryDelay: 3 * time.Second,
	}
}

// GetPayment fetches one payment attempt. A 404 maps to ErrNotFound without
// retrying: the processor's own redelivery covers that case.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var payment Payment
	err := c.getJSON(ctx, fmt.Sprintf("%s/v1/payments/%s", c.baseURL, id), &payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetMerchantOrder fetches the processor's aggregate order. The payments
// array can trail the notification, so an order without payments is
// re-fetched a few times with a fixed delay before being returned as-is.
func (c *Client) GetMerchantOrder(ctx context.Context, id string) (*MerchantOrder, error) {
	url := fmt.Sprintf("%s/merchant_orders/%s", c.baseURL, id)

	var order MerchantOrder
	for attempt := 0; ; attempt++ {
		err := c.getJSON(ctx, url, &order)
		if err == nil && len(order.Payments) > 0 {
			return &order, nil
		}
		if attempt >= c.retries-1 {
			if err != nil {
				return nil, err
			}
			return &order, nil
		}
		if err := sleep(ctx, c.retryDelay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) CreatePreference(ctx context.Context, pref *PreferenceRequest) (*Preference, error) {
	body, err := json.Marshal(pref)
	if err != nil {
		return nil, fmt.Errorf("marshal preference: %w", err)
	}

	url := c.baseURL + "/checkout/preferences"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(data))
	}

	var created Preference
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &created, nil
}

// getJSON issues an authenticated GET with bounded fixed-delay retries on
// network errors and 5xx responses.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.retryDelay); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("do request: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err = json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound
		case resp.StatusCode >= 500:
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(data))
		default:
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(data))
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
