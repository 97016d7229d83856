package models

import "time"

// SearchRecord is a query that reached the backend, kept so it can be offered again.
type SearchRecord struct {
	Kind       string    `json:"kind"`
	Query      string    `json:"query"`
	Results    int       `json:"results"`
	SearchedAt time.Time `json:"searched_at"`
}
