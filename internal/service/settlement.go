package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"photomart/internal/model"
	"photomart/internal/processor"
)

// DownloadWindow is how long original downloads stay available after an
// order settles.
const DownloadWindow = 7 * 24 * time.Hour

// Outcome classifies how a verified notification ended. Every outcome is a
// terminal acknowledgment; only real infrastructure errors propagate as
// errors so the processor redelivers.
type Outcome string

const (
	OutcomeSettled        Outcome = "processed"
	OutcomeAlreadySettled Outcome = "already_processed"
	OutcomeNotReady       Outcome = "payment_not_ready_yet"
	OutcomeNotApproved    Outcome = "not_approved"
	OutcomeNoMerchantRef  Outcome = "no_merchant_order"
	OutcomeNotFullyPaid   Outcome = "not_fully_paid"
	OutcomeUnknownOrder   Outcome = "unknown_order"
	OutcomeNoItems        Outcome = "order_without_items"
)

// ProcessorAPI is the slice of the processor client the reconciler needs.
type ProcessorAPI interface {
	GetPayment(ctx context.Context, id string) (*processor.Payment, error)
	GetMerchantOrder(ctx context.Context, id string) (*processor.MerchantOrder, error)
}

// SettlementStore is the slice of order persistence the reconciler needs.
// *OrderService implements it.
type SettlementStore interface {
	OrderForSettlement(ctx context.Context, orderID string) (*model.Order, error)
	CountOrderItems(ctx context.Context, orderID string) (int, error)
	MarkOrderPaid(ctx context.Context, orderID, paymentReference string, downloadExpiresAt time.Time) (bool, error)
	UpsertDownloadRecord(ctx context.Context, orderID, customerEmail string) error
}

// Reconciler takes a verified, deduplicated notification, fetches ground
// truth from the processor and transitions the local order exactly once.
type Reconciler struct {
	api   ProcessorAPI
	store SettlementStore

	// paymentLookupDelay absorbs the processor's eventual-consistency lag
	// between emitting a payment notification and exposing the payment.
	paymentLookupDelay time.Duration
	now                func() time.Time
}

func NewReconciler(api ProcessorAPI, store SettlementStore) *Reconciler {
	return &Reconciler{
		api:                api,
		store:              store,
		paymentLookupDelay: 3 * time.Second,
		now:                time.Now,
	}
}

// HandlePayment processes a "payment" topic notification: look the payment
// up, and if it was approved settle the merchant order behind it.
func (r *Reconciler) HandlePayment(ctx context.Context, paymentID string) (Outcome, error) {
	if r.paymentLookupDelay > 0 {
		timer := time.NewTimer(r.paymentLookupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	payment, err := r.api.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, processor.ErrNotFound) {
			slog.Info("payment not visible at processor yet", "payment_id", paymentID)
			return OutcomeNotReady, nil
		}
		return "", fmt.Errorf("get payment %s: %w", paymentID, err)
	}

	if payment.Status != processor.PaymentApproved {
		slog.Info("payment not approved, ignoring", "payment_id", paymentID, "status", payment.Status)
		return OutcomeNotApproved, nil
	}

	if payment.Order.ID == 0 {
		slog.Warn("approved payment without merchant order", "payment_id", paymentID)
		return OutcomeNoMerchantRef, nil
	}

	return r.HandleMerchantOrder(ctx, strconv.FormatInt(payment.Order.ID, 10))
}

// HandleMerchantOrder processes a "merchant_order" topic notification.
func (r *Reconciler) HandleMerchantOrder(ctx context.Context, merchantOrderID string) (Outcome, error) {
	merchantOrder, err := r.api.GetMerchantOrder(ctx, merchantOrderID)
	if err != nil {
		if errors.Is(err, processor.ErrNotFound) {
			slog.Info("merchant order not visible at processor yet", "merchant_order_id", merchantOrderID)
			return OutcomeNotReady, nil
		}
		return "", fmt.Errorf("get merchant order %s: %w", merchantOrderID, err)
	}

	return r.settle(ctx, merchantOrder)
}

// settle transitions the local order referenced by the merchant order to
// paid. Convergent under duplicate and out-of-order deliveries: the guards
// here plus the conditional update in MarkOrderPaid make re-settlement a
// no-op.
func (r *Reconciler) settle(ctx context.Context, merchantOrder *processor.MerchantOrder) (Outcome, error) {
	if !merchantOrder.FullyPaid() {
		slog.Info("merchant order not fully paid, ignoring",
			"merchant_order_id", merchantOrder.ID,
			"paid_amount", merchantOrder.PaidAmount,
			"total_amount", merchantOrder.TotalAmount)
		return OutcomeNotFullyPaid, nil
	}

	orderID := merchantOrder.ExternalReference
	if orderID == "" {
		slog.Error("merchant order without external reference", "merchant_order_id", merchantOrder.ID)
		return OutcomeUnknownOrder, nil
	}

	order, err := r.store.OrderForSettlement(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			// Data-integrity anomaly: the processor references an order we
			// never created. Not retryable, needs manual reconciliation.
			slog.Error("no local order for external reference",
				"order_id", orderID, "merchant_order_id", merchantOrder.ID)
			return OutcomeUnknownOrder, nil
		}
		return "", fmt.Errorf("get order %s: %w", orderID, err)
	}

	// Fast path: the notification-level guard can be bypassed by a second
	// instance or a late redelivery; never re-run side effects for an order
	// that already settled.
	if order.Status == model.OrderStatusPaid && order.PaymentReference != "" {
		return OutcomeAlreadySettled, nil
	}

	// A late notification cannot revive an order the expiry sweep or the
	// photographer already closed; only pending orders settle. Paid orders
	// fall through so the conditional update stays the authoritative guard.
	if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusPaid {
		slog.Warn("ignoring notification for closed order",
			"order_id", orderID, "status", order.Status)
		return OutcomeAlreadySettled, nil
	}

	itemCount, err := r.store.CountOrderItems(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("count items for order %s: %w", orderID, err)
	}
	if itemCount == 0 {
		slog.Error("refusing to settle order without items", "order_id", orderID)
		return OutcomeNoItems, nil
	}

	paymentReference := strconv.FormatInt(merchantOrder.ApprovedPaymentID(), 10)
	expiresAt := r.now().Add(DownloadWindow)

	updated, err := r.store.MarkOrderPaid(ctx, orderID, paymentReference, expiresAt)
	if err != nil {
		return "", fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	if !updated {
		// Lost the race against a concurrent settlement. Fine: exactly one
		// delivery won.
		return OutcomeAlreadySettled, nil
	}

	if err := r.store.UpsertDownloadRecord(ctx, orderID, order.CustomerEmail); err != nil {
		return "", fmt.Errorf("create download record for order %s: %w", orderID, err)
	}

	slog.Info("order settled",
		"order_id", orderID,
		"payment_reference", paymentReference,
		"download_expires_at", expiresAt)
	return OutcomeSettled, nil
}
