package session

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record is the persisted view of a session.
type Record struct {
	ID               string
	Locator          string
	Dir              string
	Status           Status
	AssetPath        string // located video file, empty until found
	OutputPath       string // final canonical file, empty until completed
	Error            string // failure description, empty unless failed
	CreatedAt        time.Time
	LastTransitionAt time.Time
}

// Filter specifies criteria for listing sessions.
type Filter struct {
	Status *Status
	Active bool // If true, exclude terminal statuses
	Limit  int  // 0 means no limit
}

// TransitionEvent describes a status change of a session.
type TransitionEvent struct {
	SessionID string
	From      Status
	To        Status
	At        time.Time
}

// TransitionHandler is called after a status change has been persisted.
type TransitionHandler func(TransitionEvent)

// Store persists session records.
type Store struct {
	db       *sql.DB
	handlers []TransitionHandler
}

// NewStore creates a session store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OnTransition registers a handler to be called on state transitions.
func (s *Store) OnTransition(h TransitionHandler) {
	s.handlers = append(s.handlers, h)
}

const selectColumns = `id, locator, dir, status, asset_path, output_path, error, created_at, last_transition_at`

// Add records a new session in pending status.
func (s *Store) Add(sess *Session) (*Record, error) {
	created := sess.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, locator, dir, status, created_at, last_transition_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Locator, sess.Dir, StatusPending, created, created,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &Record{
		ID:               sess.ID,
		Locator:          sess.Locator,
		Dir:              sess.Dir,
		Status:           StatusPending,
		CreatedAt:        created,
		LastTransitionAt: created,
	}, nil
}

// Get retrieves a session by ID.
// Returns ErrNotFound if the session does not exist.
func (s *Store) Get(id string) (*Record, error) {
	r, err := scanRecord(s.db.QueryRow(`SELECT `+selectColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return r, nil
}

// SetAsset stores the located video path.
func (s *Store) SetAsset(r *Record, path string) error {
	if err := s.exec(r.ID, `UPDATE sessions SET asset_path = ? WHERE id = ?`, path, r.ID); err != nil {
		return err
	}
	r.AssetPath = path
	return nil
}

// Complete stores the final output path and moves the session to completed.
func (s *Store) Complete(r *Record, outputPath string) error {
	if err := s.exec(r.ID, `UPDATE sessions SET output_path = ? WHERE id = ?`, outputPath, r.ID); err != nil {
		return err
	}
	r.OutputPath = outputPath
	return s.Transition(r, StatusCompleted)
}

// Fail stores the failure cause and moves the session to failed.
func (s *Store) Fail(r *Record, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := s.exec(r.ID, `UPDATE sessions SET error = ? WHERE id = ?`, msg, r.ID); err != nil {
		return err
	}
	r.Error = msg
	return s.Transition(r, StatusFailed)
}

// Transition changes a session's status with validation and handler notification.
func (s *Store) Transition(r *Record, to Status) error {
	if !r.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}

	from := r.Status
	now := time.Now()

	if err := s.exec(r.ID, `UPDATE sessions SET status = ?, last_transition_at = ? WHERE id = ?`, to, now, r.ID); err != nil {
		return err
	}

	r.Status = to
	r.LastTransitionAt = now

	event := TransitionEvent{
		SessionID: r.ID,
		From:      from,
		To:        to,
		At:        now,
	}
	for _, h := range s.handlers {
		h(event)
	}

	return nil
}

// List returns sessions matching the filter, newest first.
func (s *Store) List(f Filter) ([]*Record, error) {
	var conditions []string
	var args []any

	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.Active {
		conditions = append(conditions, "status NOT IN (?, ?)")
		args = append(args, StatusCompleted, StatusFailed)
	}

	query := "SELECT " + selectColumns + " FROM sessions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return results, nil
}

// Delete removes a session record. The working directory is left untouched.
// This operation is idempotent.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *Store) exec(id, query string, args ...any) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update session %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	r := &Record{}
	err := row.Scan(&r.ID, &r.Locator, &r.Dir, &r.Status, &r.AssetPath, &r.OutputPath, &r.Error, &r.CreatedAt, &r.LastTransitionAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}
