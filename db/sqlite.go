package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"bikebuyers/ml"
	"bikebuyers/monitoring"
)

// Store is an append-only log of served predictions.
type Store struct {
	database *sql.DB
}

// OpenStore opens (or creates) the SQLite prediction log at path.
func OpenStore(path string) (*Store, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        event_id TEXT NOT NULL,
        gender TEXT NOT NULL,
        age INTEGER NOT NULL,
        marital_status TEXT NOT NULL,
        children INTEGER NOT NULL,
        income INTEGER NOT NULL,
        education_level TEXT NOT NULL,
        occupation_name TEXT NOT NULL,
        region_name TEXT NOT NULL,
        commute_distance TEXT NOT NULL,
        home_owner TEXT NOT NULL,
        cars INTEGER NOT NULL,
        prediction INTEGER NOT NULL,
        probability REAL NOT NULL,
        latency_ms REAL DEFAULT 0,
        created_at DATETIME NOT NULL,
        UNIQUE(event_id)
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `

	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	return s.database.Close()
}

func (s *Store) Name() string { return "sqlite" }

// ObservePrediction appends event to the log.
func (s *Store) ObservePrediction(ctx context.Context, event monitoring.PredictionEvent) error {
	if s == nil || s.database == nil {
		return errors.New("database not initialized")
	}
	r := event.Record
	_, err := s.database.ExecContext(ctx, `
        INSERT OR IGNORE INTO predictions (
            event_id, gender, age, marital_status, children, income,
            education_level, occupation_name, region_name, commute_distance,
            home_owner, cars, prediction, probability, latency_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, r.Gender, r.Age, r.MaritalStatus, r.Children, r.Income,
		r.EducationLevel, r.OccupationName, r.RegionName, r.CommuteDistance,
		r.HomeOwner, r.Cars, event.Result.Prediction, event.Result.Probability,
		event.LatencyMs, event.Timestamp.UTC())
	return err
}

// RecentPredictions returns up to limit events, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]monitoring.PredictionEvent, error) {
	if s == nil || s.database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.database.QueryContext(ctx, `
        SELECT event_id, gender, age, marital_status, children, income,
               education_level, occupation_name, region_name, commute_distance,
               home_owner, cars, prediction, probability, latency_ms, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]monitoring.PredictionEvent, 0)
	for rows.Next() {
		var e monitoring.PredictionEvent
		var r ml.CustomerRecord
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &r.Gender, &r.Age, &r.MaritalStatus, &r.Children, &r.Income,
			&r.EducationLevel, &r.OccupationName, &r.RegionName, &r.CommuteDistance,
			&r.HomeOwner, &r.Cars, &e.Result.Prediction, &e.Result.Probability,
			&e.LatencyMs, &createdAt); err != nil {
			return nil, err
		}
		e.Record = r
		e.Timestamp = createdAt
		events = append(events, e)
	}
	return events, rows.Err()
}
