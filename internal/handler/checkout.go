package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"photomart/internal/model"
	"photomart/internal/service"
)

// CheckoutCreator is implemented by *service.CheckoutService.
type CheckoutCreator interface {
	Create(ctx context.Context, cart []model.CartItem, customerEmail string) (*service.Checkout, error)
}

type checkoutRequest struct {
	Cart          []model.CartItem `json:"cart"`
	CustomerEmail string           `json:"customerEmail"`
}

func CreateCheckoutHandler(checkout CheckoutCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := checkout.Create(r.Context(), req.Cart, req.CustomerEmail)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrMissingEmail):
				writeError(w, http.StatusBadRequest, "cart is empty or email is missing")
			case errors.Is(err, service.ErrPhotoNotFound):
				writeError(w, http.StatusNotFound, "photo not found")
			case errors.Is(err, service.ErrPriceMismatch):
				writeError(w, http.StatusConflict, "cart prices are out of date, refresh and retry")
			default:
				slog.Error("checkout creation failed", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to create checkout")
			}
			return
		}

		writeJSON(w, http.StatusOK, created)
	}
}
