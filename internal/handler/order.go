package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photomart/internal/model"
	"photomart/internal/mw"
	"photomart/internal/service"
)

type orderDetailsResponse struct {
	Order  orderView            `json:"order"`
	Photos []model.GalleryPhoto `json:"photos"`
}

type orderView struct {
	ID                string  `json:"id"`
	CustomerEmail     string  `json:"customer_email"`
	Status            string  `json:"status"`
	TotalAmount       float64 `json:"total_amount"`
	DownloadExpiresAt *string `json:"download_expires_at,omitempty"`
}

// OrderDetailsHandler is polled by the post-checkout page: it reports the
// order status, and once paid, the purchased photos.
func OrderDetailsHandler(orders *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		customerEmail := chi.URLParam(r, "customerEmail")

		if _, err := uuid.Parse(orderID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}
		if customerEmail == "" {
			writeError(w, http.StatusBadRequest, "missing customer email")
			return
		}

		order, photos, err := orders.Details(r.Context(), orderID, customerEmail)
		if err != nil {
			if errors.Is(err, service.ErrOrderNotFound) {
				writeError(w, http.StatusNotFound, "order not found or email does not match")
				return
			}
			slog.Error("order details failed", "order_id", orderID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		view := orderView{
			ID:            order.ID,
			CustomerEmail: order.CustomerEmail,
			Status:        order.Status,
			TotalAmount:   order.TotalAmount(),
		}
		if order.DownloadExpiresAt != nil {
			s := order.DownloadExpiresAt.UTC().Format(time.RFC3339)
			view.DownloadExpiresAt = &s
		}
		if photos == nil {
			photos = []model.GalleryPhoto{}
		}

		writeJSON(w, http.StatusOK, orderDetailsResponse{Order: view, Photos: photos})
	}
}

// ListOrdersHandler returns the authenticated photographer's orders.
func ListOrdersHandler(orders *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		list, err := orders.ListByPhotographer(r.Context(), photographer.ID)
		if err != nil {
			slog.Error("list orders failed", "photographer_id", photographer.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"orders": list})
	}
}

func DeleteOrderHandler(orders *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		orderID := chi.URLParam(r, "orderID")
		if _, err := uuid.Parse(orderID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		if err := orders.Delete(r.Context(), photographer.ID, orderID); err != nil {
			if errors.Is(err, service.ErrOrderNotFound) {
				writeError(w, http.StatusNotFound, "order not found")
				return
			}
			slog.Error("delete order failed", "order_id", orderID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeStatus(w, http.StatusOK, "deleted")
	}
}

func DeleteAllOrdersHandler(orders *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		n, err := orders.DeleteAllByPhotographer(r.Context(), photographer.ID)
		if err != nil {
			slog.Error("delete all orders failed", "photographer_id", photographer.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
	}
}
