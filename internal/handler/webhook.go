package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"photomart/internal/idempotency"
	"photomart/internal/service"
	"photomart/internal/webhook"
)

const (
	TopicPayment       = "payment"
	TopicMerchantOrder = "merchant_order"

	// idempotencyTTL bounds the replay window; the signature timestamp
	// tolerance covers anything older.
	idempotencyTTL = 5 * time.Minute
)

// Settler is the slice of the reconciler the webhook endpoint dispatches
// to.
type Settler interface {
	HandlePayment(ctx context.Context, paymentID string) (service.Outcome, error)
	HandleMerchantOrder(ctx context.Context, merchantOrderID string) (service.Outcome, error)
}

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PaymentWebhookHandler receives processor notifications. Verification
// failures and business no-ops acknowledge with 200 so the processor does
// not retry permanently-broken deliveries; only infrastructure faults
// return 5xx to invite redelivery.
func PaymentWebhookHandler(verifier *webhook.Verifier, guard idempotency.Store, settler Settler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body webhookBody
		if data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64*1024)); err == nil && len(data) > 0 {
			// Body shape varies by processor version; a malformed body is
			// fine as long as the query carries the resource id.
			_ = json.Unmarshal(data, &body)
		}

		query := r.URL.Query()
		resourceID := query.Get("data.id")
		if resourceID == "" {
			resourceID = query.Get("id")
		}
		if resourceID == "" {
			resourceID = body.Data.ID
		}

		topic := query.Get("type")
		if topic == "" {
			topic = query.Get("topic")
		}
		if topic == "" {
			topic = body.Type
		}

		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = "no-request-id"
		}

		if err := verifier.Verify(r.Header.Get("x-signature"), requestID, resourceID); err != nil {
			slog.Warn("webhook rejected", "topic", topic, "resource_id", resourceID, "reason", err)
			switch {
			case errors.Is(err, webhook.ErrMissingSignature):
				writeStatus(w, http.StatusOK, "missing_signature_ignored")
			case errors.Is(err, webhook.ErrMalformedSignature):
				writeStatus(w, http.StatusOK, "invalid_signature_format_ignored")
			case errors.Is(err, webhook.ErrStaleTimestamp):
				writeStatus(w, http.StatusOK, "stale_signature_ignored")
			default:
				writeStatus(w, http.StatusOK, "invalid_signature_ignored")
			}
			return
		}

		event := webhook.Event{Topic: topic, ResourceID: resourceID, RequestID: requestID}
		key := event.IdempotencyKey()

		seen, err := guard.Seen(r.Context(), key)
		if err != nil {
			slog.Error("idempotency check failed", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if seen {
			writeStatus(w, http.StatusOK, "already_processed")
			return
		}
		if err := guard.Mark(r.Context(), key, idempotencyTTL); err != nil {
			slog.Error("idempotency mark failed", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		var outcome service.Outcome
		switch topic {
		case TopicPayment:
			outcome, err = settler.HandlePayment(r.Context(), resourceID)
		case TopicMerchantOrder:
			outcome, err = settler.HandleMerchantOrder(r.Context(), resourceID)
		default:
			slog.Info("webhook topic ignored", "topic", topic, "resource_id", resourceID)
			writeStatus(w, http.StatusOK, "ignored_topic")
			return
		}
		if err != nil {
			slog.Error("webhook processing failed", "topic", topic, "resource_id", resourceID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeStatus(w, http.StatusOK, string(outcome))
	}
}
