package trip

import (
	"context"
	"time"

	"backend-tripline/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreateTrip(ctx context.Context, input Trip) (Trip, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, name, destination, start_date, end_date, description, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.Name, input.Destination, timePtr(input.StartDate), timePtr(input.EndDate), input.Description, input.CreatedBy)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trip{}, err
	}

	// The creator is always a collaborator of their own trip.
	if _, err := s.AddMember(ctx, input.ID, input.CreatedBy, "owner"); err != nil {
		return Trip{}, err
	}
	return input, nil
}

func (s *Service) UpdateTrip(ctx context.Context, id string, patch Trip) (Trip, error) {
	trip, err := s.GetTrip(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if patch.Name != "" {
		trip.Name = patch.Name
	}
	if patch.Destination != "" {
		trip.Destination = patch.Destination
	}
	if !patch.StartDate.IsZero() {
		trip.StartDate = patch.StartDate
	}
	if !patch.EndDate.IsZero() {
		trip.EndDate = patch.EndDate
	}
	if patch.Description != "" {
		trip.Description = patch.Description
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET name=$2, destination=$3, start_date=$4, end_date=$5, description=$6
		WHERE id=$1
	`, trip.ID, trip.Name, trip.Destination, timePtr(trip.StartDate), timePtr(trip.EndDate), trip.Description)
	if err != nil {
		return Trip{}, err
	}
	return trip, nil
}

func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, destination, start_date, end_date, description, created_by, created_at
		FROM trips WHERE id=$1
	`, id)
	var trip Trip
	if err := row.Scan(&trip.ID, &trip.Name, &trip.Destination, &trip.StartDate, &trip.EndDate, &trip.Description, &trip.CreatedBy, &trip.CreatedAt); err != nil {
		return Trip{}, err
	}
	return trip, nil
}

func (s *Service) DeleteTrip(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	return err
}

func (s *Service) AddMember(ctx context.Context, tripID, userID, role string) (Member, error) {
	if role == "" {
		role = "collaborator"
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES ($1,$2,$3)
		ON CONFLICT (trip_id, user_id) DO UPDATE SET role=EXCLUDED.role
		RETURNING joined_at
	`, tripID, userID, role)
	member := Member{TripID: tripID, UserID: userID, Role: role}
	if err := row.Scan(&member.JoinedAt); err != nil {
		return Member{}, err
	}
	return member, nil
}

func (s *Service) Members(ctx context.Context, tripID string) ([]Member, error) {
	rows, err := s.db.Query(ctx, `
		SELECT trip_id, user_id, role, joined_at
		FROM trip_members WHERE trip_id=$1
		ORDER BY joined_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.TripID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// IsMember is the authorization check shared by the REST routes and the
// realtime room join.
func (s *Service) IsMember(ctx context.Context, tripID, userID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trip_members WHERE trip_id=$1 AND user_id=$2
		)
	`, tripID, userID).Scan(&ok)
	return ok, err
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
