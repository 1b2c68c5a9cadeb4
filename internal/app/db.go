package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs the scheduler with a pgx pool. Double-booking is
// prevented at the database: meetings carry an exclusion constraint on
// (user_id, time range), so of two racing inserts for overlapping intervals
// exactly one commits and the other maps to ErrSlotTaken.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: pool}
}

// EnsureSchema creates the tables and constraints this store relies on.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS availability_rules (
			user_id TEXT PRIMARY KEY,
			days INT[] NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			time_zone TEXT NOT NULL DEFAULT 'UTC',
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			guest_name TEXT NOT NULL,
			guest_email TEXT NOT NULL,
			guest_notes TEXT NOT NULL DEFAULT '',
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			google_event_id TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT meetings_no_overlap EXCLUDE USING gist (
				user_id WITH =,
				tstzrange(start_time, end_time) WITH &&
			)
		)`,
		`CREATE TABLE IF NOT EXISTS google_tokens (
			user_id TEXT PRIMARY KEY,
			token JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, q := range queries {
		if _, err := s.DB.Exec(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetRule(ctx context.Context, userID string) (*AvailabilityRule, error) {
	q := `SELECT user_id, days, start_time, end_time, time_zone, updated_at
	      FROM availability_rules WHERE user_id=$1`
	var r AvailabilityRule
	err := s.DB.QueryRow(ctx, q, userID).Scan(
		&r.UserID, &r.Days, &r.StartTime, &r.EndTime, &r.TimeZone, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) SetRule(ctx context.Context, rule AvailabilityRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	q := `INSERT INTO availability_rules (user_id, days, start_time, end_time, time_zone, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6)
	      ON CONFLICT (user_id) DO UPDATE
	      SET days=$2, start_time=$3, end_time=$4, time_zone=$5, updated_at=$6`
	_, err := s.DB.Exec(ctx, q,
		rule.UserID, rule.Days, rule.StartTime, rule.EndTime, rule.TimeZone, time.Now().UTC())
	return err
}

func (s *PostgresStore) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) ListMeetings(ctx context.Context, userID string, from, to time.Time) ([]Meeting, error) {
	q := `SELECT id, user_id, guest_name, guest_email, guest_notes, start_time, end_time, google_event_id, created_at
	      FROM meetings
	      WHERE user_id=$1 AND start_time < $3 AND end_time > $2
	      ORDER BY start_time`
	rows, err := s.DB.Query(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.ID, &m.UserID, &m.GuestName, &m.GuestEmail, &m.GuestNotes,
			&m.StartTime, &m.EndTime, &m.GoogleEventID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateMeeting(ctx context.Context, m *Meeting) error {
	q := `INSERT INTO meetings
	      (id, user_id, guest_name, guest_email, guest_notes, start_time, end_time, google_event_id, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := s.DB.Exec(ctx, q,
		m.ID, m.UserID, m.GuestName, m.GuestEmail, m.GuestNotes,
		m.StartTime, m.EndTime, m.GoogleEventID, m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23P01 exclusion_violation, 23505 unique_violation
		if errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505") {
			return fmt.Errorf("%w: [%s, %s)", ErrSlotTaken,
				m.StartTime.Format(time.RFC3339), m.EndTime.Format(time.RFC3339))
		}
		return err
	}
	return nil
}

func (s *PostgresStore) SetGoogleEventID(ctx context.Context, meetingID, eventID string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE meetings SET google_event_id=$2 WHERE id=$1`, meetingID, eventID)
	return err
}

func (s *PostgresStore) SaveGoogleToken(ctx context.Context, userID string, token []byte) error {
	q := `INSERT INTO google_tokens (user_id, token, updated_at)
	      VALUES ($1,$2,$3)
	      ON CONFLICT (user_id) DO UPDATE SET token=$2, updated_at=$3`
	_, err := s.DB.Exec(ctx, q, userID, token, time.Now().UTC())
	return err
}

func (s *PostgresStore) GoogleToken(ctx context.Context, userID string) ([]byte, error) {
	var token []byte
	err := s.DB.QueryRow(ctx, `SELECT token FROM google_tokens WHERE user_id=$1`, userID).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return token, err
}
