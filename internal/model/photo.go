package model

import "time"

type Photo struct {
	ID                  string    `json:"id"`
	AlbumID             string    `json:"album_id"`
	OriginalFilePath    string    `json:"-"`
	WatermarkedFilePath string    `json:"-"`
	PriceCents          int64     `json:"-"`
	StudentCode         string    `json:"student_code,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

func (p Photo) Price() float64 {
	return Amount(p.PriceCents)
}

// GalleryPhoto is the public projection of a Photo: the watermarked
// derivative's URL instead of bucket keys.
type GalleryPhoto struct {
	ID             string  `json:"id"`
	StudentCode    string  `json:"student_code,omitempty"`
	Price          float64 `json:"price"`
	WatermarkedURL string  `json:"watermarked_url"`
}
