package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one pipeline run.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Frames    int64      `json:"frames"`
	Density   *float64   `json:"density,omitempty"`
}

// SessionRepository records pipeline runs.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start creates a new open session.
func (r *SessionRepository) Start(at time.Time) (*Session, error) {
	sess := &Session{ID: uuid.NewString(), StartedAt: at}
	_, err := r.db.Exec(`INSERT INTO sessions (id, started_at) VALUES (?, ?)`, sess.ID, sess.StartedAt)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// End closes a session with its frame count and final density.
func (r *SessionRepository) End(id string, at time.Time, frames int64, density float64) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, density = ? WHERE id = ?`,
		at, frames, density, id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, started_at, ended_at, frames, density FROM sessions WHERE id = ?`, id,
	))
}

// LastEnded returns the most recently started session that has ended.
func (r *SessionRepository) LastEnded() (*Session, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, started_at, ended_at, frames, density FROM sessions
		 WHERE ended_at IS NOT NULL ORDER BY started_at DESC LIMIT 1`,
	))
}

func (r *SessionRepository) scanOne(row *sql.Row) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	var density sql.NullFloat64

	if err := row.Scan(&sess.ID, &sess.StartedAt, &ended, &sess.Frames, &density); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ended.Valid {
		sess.EndedAt = &ended.Time
	}
	if density.Valid {
		sess.Density = &density.Float64
	}
	return sess, nil
}
