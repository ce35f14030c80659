package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Activation is a persisted dwell selection.
type Activation struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id,omitempty"`
	ElementID   string    `json:"element_id"`
	Label       string    `json:"label"`
	ActivatedAt time.Time `json:"activated_at"`
}

// ActivationRepository stores dwell selections.
type ActivationRepository struct {
	db *sql.DB
}

// Activations returns the activation repository for this store.
func (s *Store) Activations() *ActivationRepository {
	return &ActivationRepository{db: s.db}
}

// Create inserts a. An empty ID is filled with a new UUID.
func (r *ActivationRepository) Create(a *Activation) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.ActivatedAt.IsZero() {
		a.ActivatedAt = time.Now()
	}

	var session any
	if a.SessionID != "" {
		session = a.SessionID
	}

	_, err := r.db.Exec(
		`INSERT INTO activations (id, session_id, element_id, label, activated_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, session, a.ElementID, a.Label, a.ActivatedAt,
	)
	return err
}

// GetByID retrieves one activation.
func (r *ActivationRepository) GetByID(id string) (*Activation, error) {
	a := &Activation{}
	var session sql.NullString

	err := r.db.QueryRow(
		`SELECT id, session_id, element_id, label, activated_at FROM activations WHERE id = ?`, id,
	).Scan(&a.ID, &session, &a.ElementID, &a.Label, &a.ActivatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.SessionID = session.String
	return a, nil
}

// List returns up to limit activations, newest first. A non-positive limit
// returns all of them.
func (r *ActivationRepository) List(limit int) ([]*Activation, error) {
	query := `SELECT id, session_id, element_id, label, activated_at FROM activations ORDER BY activated_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Activation
	for rows.Next() {
		a := &Activation{}
		var session sql.NullString
		if err := rows.Scan(&a.ID, &session, &a.ElementID, &a.Label, &a.ActivatedAt); err != nil {
			return nil, err
		}
		a.SessionID = session.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByElement returns how often each element has been activated.
func (r *ActivationRepository) CountByElement() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT element_id, COUNT(*) FROM activations GROUP BY element_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
