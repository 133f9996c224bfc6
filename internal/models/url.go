// Package models contains domain models and entities.
package models

import "time"

// URL is a persisted mapping from a short code to its destination.
type URL struct {
	ID        int64     `json:"id"`
	LongURL   string    `json:"long_url"`
	ShortCode string    `json:"short_code"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

// URLCreate represents the data needed to create a new mapping.
type URLCreate struct {
	LongURL   string
	ShortCode string
	CreatedAt time.Time
}
