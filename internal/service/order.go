package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photomart/internal/model"
	"photomart/internal/storage"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrMissingEmail  = errors.New("customer email is required")
	ErrPhotoNotFound = errors.New("photo not found")
	ErrPriceMismatch = errors.New("cart price does not match catalog price")
	ErrOrderNotFound = errors.New("order not found")
)

type OrderService struct {
	db                *sql.DB
	store             storage.ObjectStore
	watermarkedBucket string
}

func NewOrderService(db *sql.DB, store storage.ObjectStore, watermarkedBucket string) *OrderService {
	return &OrderService{db: db, store: store, watermarkedBucket: watermarkedBucket}
}

// buildPendingOrder assembles the pending order and its line items from a
// cart priced against a catalog snapshot. Line prices always come from the
// catalog; a client price that disagrees with it fails with ErrPriceMismatch
// so stale carts surface instead of silently repricing. Missing quantities
// default to one.
func buildPendingOrder(cart []model.CartItem, customerEmail string, catalogCents map[string]int64) (*model.Order, []model.OrderItem, error) {
	if len(cart) == 0 {
		return nil, nil, ErrEmptyCart
	}
	customerEmail = strings.ToLower(strings.TrimSpace(customerEmail))
	if customerEmail == "" {
		return nil, nil, ErrMissingEmail
	}

	items := make([]model.OrderItem, 0, len(cart))
	var totalCents int64
	for _, line := range cart {
		priceCents, ok := catalogCents[line.PhotoID]
		if !ok {
			return nil, nil, ErrPhotoNotFound
		}
		if model.Cents(line.Price) != priceCents {
			return nil, nil, ErrPriceMismatch
		}
		quantity := line.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		items = append(items, model.OrderItem{
			PhotoID:              line.PhotoID,
			PriceAtPurchaseCents: priceCents,
			Quantity:             quantity,
		})
		totalCents += priceCents * int64(quantity)
	}

	order := &model.Order{
		CustomerEmail:    customerEmail,
		TotalAmountCents: totalCents,
		Status:           model.OrderStatusPending,
	}
	return order, items, nil
}

// Create persists a pending order and its line items in one transaction.
// The owning photographer comes from the first item's photo→album relation.
func (s *OrderService) Create(ctx context.Context, cart []model.CartItem, customerEmail string) (*model.Order, []model.OrderItem, error) {
	if len(cart) == 0 {
		return nil, nil, ErrEmptyCart
	}
	if strings.TrimSpace(customerEmail) == "" {
		return nil, nil, ErrMissingEmail
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var photographerID string
	err = tx.QueryRowContext(ctx, `
		SELECT a.photographer_id
		FROM photos p
		JOIN albums a ON a.id = p.album_id
		WHERE p.id = $1
	`, cart[0].PhotoID).Scan(&photographerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrPhotoNotFound
		}
		return nil, nil, fmt.Errorf("resolve photographer: %w", err)
	}

	catalogCents := make(map[string]int64, len(cart))
	for _, item := range cart {
		if _, ok := catalogCents[item.PhotoID]; ok {
			continue
		}
		var priceCents int64
		err = tx.QueryRowContext(ctx, `SELECT price_cents FROM photos WHERE id = $1`, item.PhotoID).Scan(&priceCents)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, ErrPhotoNotFound
			}
			return nil, nil, fmt.Errorf("get photo price: %w", err)
		}
		catalogCents[item.PhotoID] = priceCents
	}

	order, items, err := buildPendingOrder(cart, customerEmail, catalogCents)
	if err != nil {
		return nil, nil, err
	}
	order.PhotographerID = photographerID

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (photographer_id, customer_email, total_amount_cents, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, order.PhotographerID, order.CustomerEmail, order.TotalAmountCents, order.Status).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, photo_id, price_at_purchase_cents, quantity)
			VALUES ($1, $2, $3, $4)
		`, order.ID, items[i].PhotoID, items[i].PriceAtPurchaseCents, items[i].Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}

	return order, items, nil
}

// Details returns the order owned by the given customer and, only once it
// is paid, the gallery view of its photos.
func (s *OrderService) Details(ctx context.Context, orderID, customerEmail string) (*model.Order, []model.GalleryPhoto, error) {
	var order model.Order
	var paymentRef sql.NullString
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, photographer_id, customer_email, total_amount_cents, status, payment_reference, download_expires_at, created_at
		FROM orders
		WHERE id = $1 AND customer_email = $2
	`, orderID, strings.ToLower(customerEmail)).Scan(
		&order.ID, &order.PhotographerID, &order.CustomerEmail, &order.TotalAmountCents,
		&order.Status, &paymentRef, &expiresAt, &order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, fmt.Errorf("get order: %w", err)
	}
	if paymentRef.Valid {
		order.PaymentReference = paymentRef.String
	}
	if expiresAt.Valid {
		order.DownloadExpiresAt = &expiresAt.Time
	}

	if order.Status != model.OrderStatusPaid {
		return &order, nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.student_code, p.price_cents, p.watermarked_file_path
		FROM order_items oi
		JOIN photos p ON p.id = oi.photo_id
		WHERE oi.order_id = $1
	`, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("query order photos: %w", err)
	}
	defer rows.Close()

	var photos []model.GalleryPhoto
	for rows.Next() {
		var (
			photo model.GalleryPhoto
			cents int64
			path  string
		)
		if err := rows.Scan(&photo.ID, &photo.StudentCode, &cents, &path); err != nil {
			return nil, nil, fmt.Errorf("scan order photo: %w", err)
		}
		photo.Price = model.Amount(cents)
		photo.WatermarkedURL = s.store.PublicURL(s.watermarkedBucket, path)
		photos = append(photos, photo)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return &order, photos, nil
}

func (s *OrderService) ListByPhotographer(ctx context.Context, photographerID string) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, photographer_id, customer_email, total_amount_cents, status, payment_reference, download_expires_at, created_at
		FROM orders
		WHERE photographer_id = $1
		ORDER BY created_at DESC
	`, photographerID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var paymentRef sql.NullString
		var expiresAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.PhotographerID, &o.CustomerEmail, &o.TotalAmountCents,
			&o.Status, &paymentRef, &expiresAt, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if paymentRef.Valid {
			o.PaymentReference = paymentRef.String
		}
		if expiresAt.Valid {
			o.DownloadExpiresAt = &expiresAt.Time
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

func (s *OrderService) Delete(ctx context.Context, photographerID, orderID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1 AND photographer_id = $2`, orderID, photographerID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *OrderService) DeleteAllByPhotographer(ctx context.Context, photographerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM orders WHERE photographer_id = $1`, photographerID)
	if err != nil {
		return 0, fmt.Errorf("delete orders: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ExpireStalePending reaps pending orders that never settled, including
// orphans whose checkout preference was never created.
func (s *OrderService) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1
		WHERE status = $2 AND created_at < NOW() - $3::interval
	`, model.OrderStatusExpired, model.OrderStatusPending,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("expire pending orders: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// OrderForSettlement loads the fields the reconciler needs to decide
// whether an order can still transition to paid.
func (s *OrderService) OrderForSettlement(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	var paymentRef sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_email, status, payment_reference FROM orders WHERE id = $1
	`, orderID).Scan(&order.ID, &order.CustomerEmail, &order.Status, &paymentRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if paymentRef.Valid {
		order.PaymentReference = paymentRef.String
	}
	return &order, nil
}

func (s *OrderService) CountOrderItems(ctx context.Context, orderID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items WHERE order_id = $1`, orderID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count order items: %w", err)
	}
	return n, nil
}

// MarkOrderPaid performs the settlement write as a single conditional
// update so two concurrent deliveries cannot both transition the order.
// Only pending orders transition: an order the expiry sweep or the
// photographer already closed stays closed. Returns false when the order
// already left the pending state.
func (s *OrderService) MarkOrderPaid(ctx context.Context, orderID, paymentReference string, downloadExpiresAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, payment_reference = $3, download_expires_at = $4
		WHERE id = $1 AND status = $5
	`, orderID, model.OrderStatusPaid, paymentReference, downloadExpiresAt, model.OrderStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// UpsertDownloadRecord creates the download entitlement with a zero
// counter; concurrent settlement attempts converge on the unique order id.
func (s *OrderService) UpsertDownloadRecord(ctx context.Context, orderID, customerEmail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloads (order_id, customer_email, counter)
		VALUES ($1, $2, 0)
		ON CONFLICT (order_id) DO NOTHING
	`, orderID, strings.ToLower(customerEmail))
	if err != nil {
		return fmt.Errorf("upsert download record: %w", err)
	}
	return nil
}

// PaidOrderForCustomer resolves an order only if it belongs to the customer
// and is paid.
func (s *OrderService) PaidOrderForCustomer(ctx context.Context, orderID, customerEmail string) (*model.Order, error) {
	var order model.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_email, status FROM orders
		WHERE id = $1 AND customer_email = $2 AND status = $3
	`, orderID, strings.ToLower(customerEmail), model.OrderStatusPaid).Scan(
		&order.ID, &order.CustomerEmail, &order.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get paid order: %w", err)
	}
	return &order, nil
}

func (s *OrderService) OrderContainsPhoto(ctx context.Context, orderID, photoID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM order_items WHERE order_id = $1 AND photo_id = $2)
	`, orderID, photoID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order item: %w", err)
	}
	return exists, nil
}

func (s *OrderService) PhotoOriginalPath(ctx context.Context, photoID string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT original_file_path FROM photos WHERE id = $1`, photoID).Scan(&path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrPhotoNotFound
		}
		return "", fmt.Errorf("get photo path: %w", err)
	}
	return path, nil
}

// IncrementDownloadCounter bumps the counter only while it is below max.
// Returns false when the limit is already reached.
func (s *OrderService) IncrementDownloadCounter(ctx context.Context, orderID string, max int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE downloads SET counter = counter + 1
		WHERE order_id = $1 AND counter < $2
	`, orderID, max)
	if err != nil {
		return false, fmt.Errorf("increment download counter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
