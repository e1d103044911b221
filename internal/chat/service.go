package chat

import (
	"context"
	"errors"

	"backend-tripline/internal/db"

	"github.com/google/uuid"
)

var ErrEmptyText = errors.New("chat: empty message text")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Append persists a chat message. The author's identity and display name
// come from the authenticated session, never from the client payload.
func (s *Service) Append(ctx context.Context, tripID, userID, text string) (Message, error) {
	if text == "" {
		return Message{}, ErrEmptyText
	}

	msg := Message{
		ID:     uuid.NewString(),
		TripID: tripID,
		UserID: userID,
		Text:   text,
	}

	if err := s.db.QueryRow(ctx, `SELECT username FROM users WHERE id=$1`, userID).Scan(&msg.UserName); err != nil {
		return Message{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO chat_messages (id, trip_id, user_id, user_name, text)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, msg.ID, msg.TripID, msg.UserID, msg.UserName, msg.Text)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// History returns the full persisted transcript for a trip, oldest first.
// Ties on created_at fall back to id so the order is stable.
func (s *Service) History(ctx context.Context, tripID string) ([]Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, user_id, user_name, text, created_at
		FROM chat_messages WHERE trip_id=$1
		ORDER BY created_at, id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TripID, &m.UserID, &m.UserName, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}
