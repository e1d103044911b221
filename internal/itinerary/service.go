package itinerary

import (
	"context"
	"errors"
	"log"
	"time"

	"backend-tripline/internal/db"

	"github.com/google/uuid"
)

var ErrBadIndex = errors.New("itinerary: index out of range")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Stops(ctx context.Context, tripID string) ([]Stop, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, name, order_index, start_day, days, created_at
		FROM city_stops WHERE trip_id=$1
		ORDER BY order_index
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []Stop
	for rows.Next() {
		var st Stop
		if err := rows.Scan(&st.ID, &st.TripID, &st.Name, &st.OrderIndex, &st.StartDay, &st.Days, &st.CreatedAt); err != nil {
			return nil, err
		}
		stops = append(stops, st)
	}
	return stops, nil
}

// AddStop appends a stop to the end of the itinerary and derives its start
// day from the stops already in place.
func (s *Service) AddStop(ctx context.Context, input Stop) (Stop, error) {
	if input.Days <= 0 {
		input.Days = 1
	}

	stops, err := s.Stops(ctx, input.TripID)
	if err != nil {
		return Stop{}, err
	}

	input.ID = uuid.NewString()
	stops = append(stops, input)
	RecomputeStartDays(stops)
	appended := stops[len(stops)-1]

	row := s.db.QueryRow(ctx, `
		INSERT INTO city_stops (id, trip_id, name, order_index, start_day, days)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, appended.ID, appended.TripID, appended.Name, appended.OrderIndex, appended.StartDay, appended.Days)
	if err := row.Scan(&appended.CreatedAt); err != nil {
		return Stop{}, err
	}
	return appended, nil
}

// DeleteStop removes a stop and reindexes the remaining order.
func (s *Service) DeleteStop(ctx context.Context, tripID, stopID string) ([]Stop, error) {
	if _, err := s.db.Exec(ctx, `DELETE FROM city_stops WHERE id=$1 AND trip_id=$2`, stopID, tripID); err != nil {
		return nil, err
	}

	stops, err := s.Stops(ctx, tripID)
	if err != nil {
		return nil, err
	}
	RecomputeStartDays(stops)
	if err := s.persistOrder(ctx, stops); err != nil {
		return nil, err
	}
	return stops, nil
}

// Reorder applies a move to the current order, recomputes day offsets, and
// returns the new order right away. Persistence happens asynchronously and
// is best-effort: a failed write is logged, never rolled back, so the caller
// keeps its optimistic view. Concurrent reorders are last-write-wins.
func (s *Service) Reorder(ctx context.Context, tripID string, from, to int) ([]Stop, error) {
	stops, err := s.Stops(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if from < 0 || from >= len(stops) || to < 0 || to >= len(stops) {
		return nil, ErrBadIndex
	}

	stops = MoveStop(stops, from, to)
	RecomputeStartDays(stops)

	persistAsyncFn(s, tripID, stops)
	return stops, nil
}

var persistAsyncFn = func(s *Service, tripID string, stops []Stop) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.persistOrder(ctx, stops); err != nil {
			log.Printf("persisting stop order for trip %s failed: %v", tripID, err)
		}
	}()
}

func (s *Service) persistOrder(ctx context.Context, stops []Stop) error {
	for _, st := range stops {
		_, err := s.db.Exec(ctx, `
			UPDATE city_stops SET order_index=$2, start_day=$3 WHERE id=$1
		`, st.ID, st.OrderIndex, st.StartDay)
		if err != nil {
			return err
		}
	}
	return nil
}
