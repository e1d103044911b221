package share

import (
	"context"
	"errors"

	"backend-tripline/internal/db"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("share: link not found")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, tripID, userID string) (Link, error) {
	link := Link{
		Token:     uuid.NewString(),
		TripID:    tripID,
		CreatedBy: userID,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO share_links (token, trip_id, created_by)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, link.Token, link.TripID, link.CreatedBy)
	if err := row.Scan(&link.CreatedAt); err != nil {
		return Link{}, err
	}
	return link, nil
}

func (s *Service) Resolve(ctx context.Context, token string) (Link, error) {
	var link Link
	row := s.db.QueryRow(ctx, `
		SELECT token, trip_id, created_by, created_at
		FROM share_links WHERE token=$1
	`, token)
	if err := row.Scan(&link.Token, &link.TripID, &link.CreatedBy, &link.CreatedAt); err != nil {
		return Link{}, ErrNotFound
	}
	return link, nil
}

func (s *Service) Revoke(ctx context.Context, token, userID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM share_links WHERE token=$1 AND created_by=$2
	`, token, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
