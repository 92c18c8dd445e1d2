package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photomart/internal/model"
	"photomart/internal/mw"
	"photomart/internal/service"
)

const maxUploadBytes = 50 << 20 // whole multipart request

// UploadPhotosHandler ingests a multipart batch of images into an album:
// each file is watermarked, both variants are stored and the photo row is
// created at the album's default price. Per-file failures are reported
// without aborting the batch.
func UploadPhotosHandler(albums *service.AlbumService, photos *service.PhotoService) http.HandlerFunc {
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

		album, err := albums.Get(r.Context(), albumID)
		if err != nil {
			if errors.Is(err, service.ErrAlbumNotFound) {
				writeError(w, http.StatusNotFound, "album not found")
				return
			}
			slog.Error("get album failed", "album_id", albumID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if album.PhotographerID != photographer.ID {
			writeError(w, http.StatusForbidden, "album belongs to another photographer")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}

		files := r.MultipartForm.File["photos"]
		if len(files) == 0 {
			writeError(w, http.StatusBadRequest, "no photos in request")
			return
		}
		studentCode := r.FormValue("student_code")

		var uploaded []model.Photo
		var failed []string
		for _, header := range files {
			file, err := header.Open()
			if err != nil {
				failed = append(failed, header.Filename)
				continue
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				failed = append(failed, header.Filename)
				continue
			}

			contentType := header.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "image/jpeg"
			}

			photo, err := photos.Upload(r.Context(), album, header.Filename, contentType, data, studentCode)
			if err != nil {
				slog.Error("photo upload failed", "album_id", albumID, "file", header.Filename, "error", err)
				failed = append(failed, header.Filename)
				continue
			}
			uploaded = append(uploaded, *photo)
		}

		if uploaded == nil {
			writeError(w, http.StatusInternalServerError, "all uploads failed")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"uploaded": uploaded,
			"failed":   failed,
		})
	}
}

func DeletePhotoHandler(photos *service.PhotoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographer, ok := mw.Photographer(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		photoID := chi.URLParam(r, "photoID")
		if _, err := uuid.Parse(photoID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid photo id")
			return
		}

		if err := photos.Delete(r.Context(), photographer.ID, photoID); err != nil {
			if errors.Is(err, service.ErrPhotoNotFound) {
				writeError(w, http.StatusNotFound, "photo not found")
				return
			}
			slog.Error("delete photo failed", "photo_id", photoID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete photo")
			return
		}

		writeStatus(w, http.StatusOK, "deleted")
	}
}
