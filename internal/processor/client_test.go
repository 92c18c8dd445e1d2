package processor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(baseURL, "test-token")
	c.retryDelay = time.Millisecond
	return c
}

func TestGetPayment_Approved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/777", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id": 777, "status": "approved", "order": {"id": 555}}`))
	}))
	defer srv.Close()

	payment, err := newTestClient(srv.URL).GetPayment(context.Background(), "777")
	require.NoError(t, err)
	assert.Equal(t, PaymentApproved, payment.Status)
	assert.Equal(t, int64(555), payment.Order.ID)
}

func TestGetPayment_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetPayment(context.Background(), "777")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetPayment_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id": 777, "status": "approved"}`))
	}))
	defer srv.Close()

	payment, err := newTestClient(srv.URL).GetPayment(context.Background(), "777")
	require.NoError(t, err)
	assert.Equal(t, int64(777), payment.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetMerchantOrder_RetriesUntilPaymentsAppear(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.Write([]byte(`{"id": 555, "payments": []}`))
			return
		}
		w.Write([]byte(`{
			"id": 555,
			"order_status": "paid",
			"paid_amount": 15.0,
			"total_amount": 15.0,
			"external_reference": "order-1",
			"payments": [{"id": 777, "status": "approved"}]
		}`))
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL).GetMerchantOrder(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "order-1", order.ExternalReference)
	assert.True(t, order.FullyPaid())
	assert.Equal(t, int64(777), order.ApprovedPaymentID())
}

func TestGetMerchantOrder_ReturnsEmptyAfterRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 555, "payments": []}`))
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL).GetMerchantOrder(context.Background(), "555")
	require.NoError(t, err)
	assert.Empty(t, order.Payments)
	assert.Equal(t, int64(0), order.ApprovedPaymentID())
}

func TestCreatePreference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "pref-1", "init_point": "https://checkout.example/pref-1"}`))
	}))
	defer srv.Close()

	pref, err := newTestClient(srv.URL).CreatePreference(context.Background(), &PreferenceRequest{
		ExternalReference: "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://checkout.example/pref-1", pref.InitPoint)
}

func TestMerchantOrder_FullyPaid(t *testing.T) {
	tests := []struct {
		name  string
		order MerchantOrder
		want  bool
	}{
		{"paid status", MerchantOrder{OrderStatus: "paid", PaidAmount: 0, TotalAmount: 10}, true},
		{"amounts cover total", MerchantOrder{OrderStatus: "payment_required", PaidAmount: 15, TotalAmount: 15}, true},
		{"partial payment", MerchantOrder{OrderStatus: "payment_in_process", PaidAmount: 5, TotalAmount: 15}, false},
		{"sub-cent rounding", MerchantOrder{OrderStatus: "x", PaidAmount: 14.999, TotalAmount: 15}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.order.FullyPaid())
		})
	}
}
