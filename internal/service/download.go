package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photomart/internal/model"
	"photomart/internal/storage"
)

var (
	ErrNotAuthorized = errors.New("not authorized to download this photo")
	ErrNotInOrder    = errors.New("photo is not part of this order")
	ErrLimitReached  = errors.New("download limit reached")
)

// DownloadStore is the slice of persistence the gate needs. *OrderService
// implements it.
type DownloadStore interface {
	PaidOrderForCustomer(ctx context.Context, orderID, customerEmail string) (*model.Order, error)
	OrderContainsPhoto(ctx context.Context, orderID, photoID string) (bool, error)
	PhotoOriginalPath(ctx context.Context, photoID string) (string, error)
	UpsertDownloadRecord(ctx context.Context, orderID, customerEmail string) error
	IncrementDownloadCounter(ctx context.Context, orderID string, max int) (bool, error)
}

// DownloadGate authorizes original-file downloads against paid-order
// membership and a per-order retrieval quota, then hands out signed URLs.
type DownloadGate struct {
	store           DownloadStore
	objects         storage.ObjectStore
	originalsBucket string
	maxDownloads    int
	urlTTL          time.Duration
}

func NewDownloadGate(store DownloadStore, objects storage.ObjectStore, originalsBucket string, maxDownloads int) *DownloadGate {
	return &DownloadGate{
		store:           store,
		objects:         objects,
		originalsBucket: originalsBucket,
		maxDownloads:    maxDownloads,
		urlTTL:          DownloadWindow,
	}
}

// Authorize runs the checks in order: paid order owned by the customer,
// photo membership in the order, original file present, quota. The counter
// counts authorization attempts and is bumped atomically before the URL is
// issued, so concurrent requests cannot over-issue.
func (g *DownloadGate) Authorize(ctx context.Context, photoID, orderID, customerEmail string) (string, error) {
	order, err := g.store.PaidOrderForCustomer(ctx, orderID, customerEmail)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return "", ErrNotAuthorized
		}
		return "", fmt.Errorf("check order: %w", err)
	}

	inOrder, err := g.store.OrderContainsPhoto(ctx, orderID, photoID)
	if err != nil {
		return "", fmt.Errorf("check order item: %w", err)
	}
	if !inOrder {
		return "", ErrNotInOrder
	}

	path, err := g.store.PhotoOriginalPath(ctx, photoID)
	if err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			return "", ErrPhotoNotFound
		}
		return "", fmt.Errorf("resolve photo: %w", err)
	}

	// The record normally exists since settlement; create it lazily for
	// orders settled before quota tracking was introduced.
	if err := g.store.UpsertDownloadRecord(ctx, orderID, order.CustomerEmail); err != nil {
		return "", fmt.Errorf("ensure download record: %w", err)
	}

	allowed, err := g.store.IncrementDownloadCounter(ctx, orderID, g.maxDownloads)
	if err != nil {
		return "", fmt.Errorf("increment counter: %w", err)
	}
	if !allowed {
		return "", ErrLimitReached
	}

	url, err := g.objects.SignedURL(ctx, g.originalsBucket, path, g.urlTTL)
	if err != nil {
		return "", fmt.Errorf("sign url: %w", err)
	}
	return url, nil
}
