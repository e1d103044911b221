package itinerary

import "time"

// Stop is one city on a trip's itinerary. StartDay is derived from the
// current order and each stop's Days count; the persisted order is the
// source of truth on reload.
type Stop struct {
	ID         string    `json:"id"`
	TripID     string    `json:"trip_id"`
	Name       string    `json:"name"`
	OrderIndex int       `json:"order_index"`
	StartDay   int       `json:"start_day"`
	Days       int       `json:"days"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// RouteDistance is the computed great-circle total over the stops whose
// cities resolved. TotalKm is null when nothing resolved, which is distinct
// from a legitimate zero for a single resolved stop.
type RouteDistance struct {
	TotalKm  *float64 `json:"total_km"`
	Resolved int      `json:"resolved"`
	Skipped  []string `json:"skipped,omitempty"`
}
