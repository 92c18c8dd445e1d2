package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photomart/internal/service"
)

// DownloadAuthorizer is implemented by *service.DownloadGate.
type DownloadAuthorizer interface {
	Authorize(ctx context.Context, photoID, orderID, customerEmail string) (string, error)
}

// DownloadPhotoHandler redirects an entitled customer to a signed URL for
// the original file. Refusals are explicit plain-text reasons, never a
// generic 500.
func DownloadPhotoHandler(gate DownloadAuthorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photoID := chi.URLParam(r, "photoID")
		orderID := chi.URLParam(r, "orderID")
		customerEmail := chi.URLParam(r, "customerEmail")

		if _, err := uuid.Parse(photoID); err != nil {
			http.Error(w, "invalid photo id", http.StatusBadRequest)
			return
		}
		if _, err := uuid.Parse(orderID); err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}
		if customerEmail == "" {
			http.Error(w, "missing customer email", http.StatusBadRequest)
			return
		}

		url, err := gate.Authorize(r.Context(), photoID, orderID, customerEmail)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotAuthorized):
				http.Error(w, "not authorized to download this photo", http.StatusForbidden)
			case errors.Is(err, service.ErrNotInOrder):
				http.Error(w, "photo is not part of this order", http.StatusForbidden)
			case errors.Is(err, service.ErrLimitReached):
				http.Error(w, "download limit reached, contact support", http.StatusForbidden)
			case errors.Is(err, service.ErrPhotoNotFound):
				http.Error(w, "original photo not found", http.StatusNotFound)
			default:
				slog.Error("download authorization failed",
					"photo_id", photoID, "order_id", orderID, "error", err)
				http.Error(w, "failed to generate download", http.StatusInternalServerError)
			}
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
