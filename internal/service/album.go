package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"photomart/internal/model"
)

var ErrAlbumNotFound = errors.New("album not found")

type AlbumService struct {
	db *sql.DB
}

func NewAlbumService(db *sql.DB) *AlbumService {
	return &AlbumService{db: db}
}

func (s *AlbumService) Create(ctx context.Context, photographerID, name, eventDate, description string, pricePerPhotoCents int64) (*model.Album, error) {
	album := &model.Album{
		PhotographerID:     photographerID,
		Name:               name,
		EventDate:          eventDate,
		Description:        description,
		PricePerPhotoCents: pricePerPhotoCents,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO albums (photographer_id, name, event_date, description, price_per_photo_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, photographerID, name, eventDate, description, pricePerPhotoCents).Scan(&album.ID, &album.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert album: %w", err)
	}
	return album, nil
}

func (s *AlbumService) ListByPhotographer(ctx context.Context, photographerID string) ([]model.Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, photographer_id, name, event_date, description, price_per_photo_cents, created_at
		FROM albums
		WHERE photographer_id = $1
		ORDER BY created_at DESC
	`, photographerID)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	var albums []model.Album
	for rows.Next() {
		var a model.Album
		if err := rows.Scan(&a.ID, &a.PhotographerID, &a.Name, &a.EventDate,
			&a.Description, &a.PricePerPhotoCents, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return albums, nil
}

func (s *AlbumService) Get(ctx context.Context, albumID string) (*model.Album, error) {
	var a model.Album
	err := s.db.QueryRowContext(ctx, `
		SELECT id, photographer_id, name, event_date, description, price_per_photo_cents, created_at
		FROM albums WHERE id = $1
	`, albumID).Scan(&a.ID, &a.PhotographerID, &a.Name, &a.EventDate,
		&a.Description, &a.PricePerPhotoCents, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlbumNotFound
		}
		return nil, fmt.Errorf("get album: %w", err)
	}
	return &a, nil
}

// Update edits album metadata. A price change is propagated to every photo
// in the album; order item snapshots are untouched.
func (s *AlbumService) Update(ctx context.Context, photographerID, albumID, name, eventDate, description string, pricePerPhotoCents *int64) (*model.Album, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var a model.Album
	err = tx.QueryRowContext(ctx, `
		UPDATE albums
		SET name = $3, event_date = $4, description = $5,
		    price_per_photo_cents = COALESCE($6::bigint, price_per_photo_cents)
		WHERE id = $1 AND photographer_id = $2
		RETURNING id, photographer_id, name, event_date, description, price_per_photo_cents, created_at
	`, albumID, photographerID, name, eventDate, description, pricePerPhotoCents).Scan(
		&a.ID, &a.PhotographerID, &a.Name, &a.EventDate,
		&a.Description, &a.PricePerPhotoCents, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlbumNotFound
		}
		return nil, fmt.Errorf("update album: %w", err)
	}

	if pricePerPhotoCents != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE photos SET price_cents = $1 WHERE album_id = $2`, *pricePerPhotoCents, albumID)
		if err != nil {
			return nil, fmt.Errorf("update photo prices: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &a, nil
}

// Delete removes the album; photos cascade in the database and the stored
// objects are returned so the caller can clean the buckets best-effort.
func (s *AlbumService) Delete(ctx context.Context, photographerID, albumID string) ([]model.Photo, error) {
	photos, err := s.photosIn(ctx, albumID)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM albums WHERE id = $1 AND photographer_id = $2`, albumID, photographerID)
	if err != nil {
		return nil, fmt.Errorf("delete album: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrAlbumNotFound
	}
	return photos, nil
}

func (s *AlbumService) photosIn(ctx context.Context, albumID string) ([]model.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, album_id, original_file_path, watermarked_file_path, price_cents, student_code, created_at
		FROM photos WHERE album_id = $1
	`, albumID)
	if err != nil {
		return nil, fmt.Errorf("query album photos: %w", err)
	}
	defer rows.Close()

	var photos []model.Photo
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.AlbumID, &p.OriginalFilePath, &p.WatermarkedFilePath,
			&p.PriceCents, &p.StudentCode, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return photos, nil
}
