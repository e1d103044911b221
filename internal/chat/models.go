package chat

import "time"

// Message is one persisted chat line. The id is server-assigned and is the
// canonical identity of a message; client timestamps are kept for display
// ordering only.
type Message struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
