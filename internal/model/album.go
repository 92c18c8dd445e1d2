package model

import "time"

type Album struct {
	ID                 string    `json:"id"`
	PhotographerID     string    `json:"photographer_id"`
	Name               string    `json:"name"`
	EventDate          string    `json:"event_date,omitempty"`
	Description        string    `json:"description,omitempty"`
	PricePerPhotoCents int64     `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

func (a Album) PricePerPhoto() float64 {
	return Amount(a.PricePerPhotoCents)
}
