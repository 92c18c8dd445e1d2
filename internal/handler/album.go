package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photomart/internal/model"
	"photomart/internal/mw"
	"photomart/internal/service"
)

type albumRequest struct {
	Name          string   `json:"name"`
	EventDate     string   `json:"event_date"`
	Description   string   `json:"description"`
	PricePerPhoto *float64 `json:"price_per_photo"`
}

type albumView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	EventDate     string  `json:"event_date,omitempty"`
	Description   string  `json:"description,omitempty"`
	PricePerPhoto float64 `json:"price_per_photo"`
}

func viewAlbum(a *model.Album) albumView {
	return albumView{
		ID:            a.ID,
		Name:          a.Name,
		EventDate:     a.EventDate,
		Description:   a.Description,
		PricePerPhoto: a.PricePerPhoto(),
	}
}

func CreateAlbumHandler(albums *service.AlbumService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req albumRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			writeError(w, http.StatusBadRequest, "album name is required")
			return
		}

		var priceCents int64
		if req.PricePerPhoto != nil {
			priceCents = model.Cents(*req.PricePerPhoto)
		}

		album, err := albums.Create(r.Context(), photographer.ID, req.Name, req.EventDate, req.Description, priceCents)
		if err != nil {
			slog.Error("create album failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create album")
			return
		}

		writeJSON(w, http.StatusCreated, viewAlbum(album))
	}
}

func ListAlbumsHandler(albums *service.AlbumService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		list, err := albums.ListByPhotographer(r.Context(), photographer.ID)
		if err != nil {
			slog.Error("list albums failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list albums")
			return
		}

		views := make([]albumView, 0, len(list))
		for i := range list {
			views = append(views, viewAlbum(&list[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{"albums": views})
	}
}

// UpdateAlbumHandler edits album metadata; changing the price re-prices
// every photo in the album (order snapshots keep their purchase price).
func UpdateAlbumHandler(albums *service.AlbumService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		albumID := chi.URLParam(r, "albumID")
		if _, err := uuid.Parse(albumID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid album id")
			return
		}

		var req albumRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var priceCents *int64
		if req.PricePerPhoto != nil {
			cents := model.Cents(*req.PricePerPhoto)
			priceCents = &cents
		}

		album, err := albums.Update(r.Context(), photographer.ID, albumID, req.Name, req.EventDate, req.Description, priceCents)
		if err != nil {
			if errors.Is(err, service.ErrAlbumNotFound) {
				writeError(w, http.StatusNotFound, "album not found")
				return
			}
			slog.Error("update album failed", "album_id", albumID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update album")
			return
		}

		writeJSON(w, http.StatusOK, viewAlbum(album))
	}
}

func DeleteAlbumHandler(albums *service.AlbumService, photos *service.PhotoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		albumID := chi.URLParam(r, "albumID")
		if _, err := uuid.Parse(albumID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid album id")
			return
		}

		removed, err := albums.Delete(r.Context(), photographer.ID, albumID)
		if err != nil {
			if errors.Is(err, service.ErrAlbumNotFound) {
				writeError(w, http.StatusNotFound, "album not found")
				return
			}
			slog.Error("delete album failed", "album_id", albumID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete album")
			return
		}

		photos.CleanupObjects(r.Context(), removed)
		writeStatus(w, http.StatusOK, "deleted")
	}
}

// AlbumGalleryHandler is the public gallery for one album.
func AlbumGalleryHandler(photos *service.PhotoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albumID := chi.URLParam(r, "albumID")
		if _, err := uuid.Parse(albumID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid album id")
			return
		}

		gallery, err := photos.Gallery(r.Context(), albumID)
		if err != nil {
			slog.Error("gallery failed", "album_id", albumID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load gallery")
			return
		}
		if gallery == nil {
			gallery = []model.GalleryPhoto{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"photos": gallery})
	}
}
