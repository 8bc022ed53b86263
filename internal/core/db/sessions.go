package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

const sessionColumns = `id, name, owner_id, profile_id, message_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (models.Session, error) {
	var s models.Session
	var created, updated int64
	err := row.Scan(&s.ID, &s.Name, &s.OwnerID, &s.ProfileID, &s.MessageCount, &created, &updated)
	if err != nil {
		return s, err
	}
	s.CreatedAt = fromMillis(created)
	s.UpdatedAt = fromMillis(updated)
	return s, nil
}

// CreateSession inserts a new session record
func (db *DB) CreateSession(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return storeErr("create", s.ID, err)
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Name, s.OwnerID, s.ProfileID, s.MessageCount, toMillis(s.CreatedAt), toMillis(s.UpdatedAt))
	return storeErr("create", s.ID, err)
}

// GetSession returns one session by id
func (db *DB) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeErr("read", id, ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("read", id, err)
	}
	return &s, nil
}

// ListSessions returns all sessions for an owner, most recently active first
func (db *DB) ListSessions(ctx context.Context, ownerID string) ([]models.Session, error) {
	return db.querySessions(ctx, "list", ownerID, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE owner_id = ?
		ORDER BY updated_at DESC, created_at DESC
	`, ownerID)
}

// ListSessionsByProfile returns the sessions of a single profile, most
// recently active first
func (db *DB) ListSessionsByProfile(ctx context.Context, profileID string) ([]models.Session, error) {
	return db.querySessions(ctx, "list", profileID, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE profile_id = ?
		ORDER BY updated_at DESC, created_at DESC
	`, profileID)
}

// ListAllSessions returns every session regardless of owner
func (db *DB) ListAllSessions(ctx context.Context) ([]models.Session, error) {
	return db.querySessions(ctx, "list", "*", `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY updated_at DESC
	`)
}

func (db *DB) querySessions(ctx context.Context, op, key, query string, args ...interface{}) ([]models.Session, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, key, err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, storeErr(op, key, err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, key, err)
	}
	return sessions, nil
}

// RenameSession sets a new display name and returns the updated record
func (db *DB) RenameSession(ctx context.Context, id, name string) (*models.Session, error) {
	res, err := db.conn.ExecContext(ctx, `UPDATE sessions SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, storeErr("rename", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, storeErr("rename", id, err)
	} else if n == 0 {
		return nil, storeErr("rename", id, ErrNotFound)
	}
	return db.GetSession(ctx, id)
}

// DeleteSession removes the session metadata. The transcript document is left
// for the reconciler to prune.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete", id, err)
	}
	if n == 0 {
		return storeErr("delete", id, ErrNotFound)
	}
	return nil
}

// TouchSession records activity on a session: the new message count and the
// last-activity time used for list ordering
func (db *DB) TouchSession(ctx context.Context, id string, messageCount int, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE sessions SET message_count = ?, updated_at = ? WHERE id = ?
	`, messageCount, toMillis(at), id)
	if err != nil {
		return storeErr("touch", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("touch", id, err)
	} else if n == 0 {
		return storeErr("touch", id, ErrNotFound)
	}
	return nil
}
