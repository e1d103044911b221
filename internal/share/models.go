package share

import "time"

// Link is a public, unguessable handle onto a trip's itinerary. Anyone
// holding the token gets a read-only view; no account needed.
type Link struct {
	Token     string    `json:"token"`
	TripID    string    `json:"trip_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
