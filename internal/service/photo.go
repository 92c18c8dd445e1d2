package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"photomart/internal/model"
	"photomart/internal/storage"
)

// Watermarker applies the watermark overlay; the image transform service
// implements it.
type Watermarker interface {
	Watermark(ctx context.Context, original io.Reader, contentType string) ([]byte, error)
}

type PhotoService struct {
	db                *sql.DB
	objects           storage.ObjectStore
	watermarker       Watermarker
	originalsBucket   string
	watermarkedBucket string
}

func NewPhotoService(db *sql.DB, objects storage.ObjectStore, watermarker Watermarker, originalsBucket, watermarkedBucket string) *PhotoService {
	return &PhotoService{
		db:                db,
		objects:           objects,
		watermarker:       watermarker,
		originalsBucket:   originalsBucket,
		watermarkedBucket: watermarkedBucket,
	}
}

// Upload watermarks one image, stores the original privately and the
// derivative publicly, and records the photo priced at the album default.
func (s *PhotoService) Upload(ctx context.Context, album *model.Album, filename, contentType string, original []byte, studentCode string) (*model.Photo, error) {
	watermarked, err := s.watermarker.Watermark(ctx, bytes.NewReader(original), contentType)
	if err != nil {
		return nil, fmt.Errorf("watermark image: %w", err)
	}

	ext := path.Ext(filename)
	key := fmt.Sprintf("%s/%s%s", album.ID, uuid.NewString(), ext)

	if err := s.objects.Put(ctx, s.originalsBucket, key, bytes.NewReader(original), contentType); err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}
	if err := s.objects.Put(ctx, s.watermarkedBucket, key, bytes.NewReader(watermarked), contentType); err != nil {
		return nil, fmt.Errorf("store watermarked: %w", err)
	}

	photo := &model.Photo{
		AlbumID:             album.ID,
		OriginalFilePath:    key,
		WatermarkedFilePath: key,
		PriceCents:          album.PricePerPhotoCents,
		StudentCode:         studentCode,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO photos (album_id, original_file_path, watermarked_file_path, price_cents, student_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, album.ID, key, key, album.PricePerPhotoCents, studentCode).Scan(&photo.ID, &photo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}

	return photo, nil
}

// Gallery lists an album's photos as their public watermarked projections.
func (s *PhotoService) Gallery(ctx context.Context, albumID string) ([]model.GalleryPhoto, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_code, price_cents, watermarked_file_path
		FROM photos
		WHERE album_id = $1
		ORDER BY created_at ASC
	`, albumID)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var photos []model.GalleryPhoto
	for rows.Next() {
		var (
			photo model.GalleryPhoto
			cents int64
			key   string
		)
		if err := rows.Scan(&photo.ID, &photo.StudentCode, &cents, &key); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photo.Price = model.Amount(cents)
		photo.WatermarkedURL = s.objects.PublicURL(s.watermarkedBucket, key)
		photos = append(photos, photo)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return photos, nil
}

// Delete removes a photo owned by the photographer and best-effort deletes
// its stored objects.
func (s *PhotoService) Delete(ctx context.Context, photographerID, photoID string) error {
	var p model.Photo
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM photos ph
		USING albums a
		WHERE ph.id = $1 AND ph.album_id = a.id AND a.photographer_id = $2
		RETURNING ph.original_file_path, ph.watermarked_file_path
	`, photoID, photographerID).Scan(&p.OriginalFilePath, &p.WatermarkedFilePath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("delete photo: %w", err)
	}

	s.deleteObjects(ctx, p)
	return nil
}

// CleanupObjects removes stored objects for photos that were deleted via an
// album cascade.
func (s *PhotoService) CleanupObjects(ctx context.Context, photos []model.Photo) {
	for _, p := range photos {
		s.deleteObjects(ctx, p)
	}
}

func (s *PhotoService) deleteObjects(ctx context.Context, p model.Photo) {
	if err := s.objects.Delete(ctx, s.originalsBucket, p.OriginalFilePath); err != nil {
		slog.Warn("failed to delete original object", "key", p.OriginalFilePath, "error", err)
	}
	if err := s.objects.Delete(ctx, s.watermarkedBucket, p.WatermarkedFilePath); err != nil {
		slog.Warn("failed to delete watermarked object", "key", p.WatermarkedFilePath, "error", err)
	}
}
