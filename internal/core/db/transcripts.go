package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

// ErrUndefinedField is returned when a merge write carries a nil value. The
// document store refuses them; callers strip absent fields first.
var ErrUndefinedField = errors.New("undefined field value")

// ReadTranscript returns the transcript document for a session, or nil when
// none has been written yet
func (db *DB) ReadTranscript(ctx context.Context, sessionID string) (*models.TranscriptRecord, error) {
	var value string
	var updated int64
	err := db.conn.QueryRowContext(ctx, `SELECT value, updated_at FROM transcripts WHERE key = ?`, sessionID).Scan(&value, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("read", sessionID, err)
	}

	var rec models.TranscriptRecord
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return nil, storeErr("read", sessionID, fmt.Errorf("decode document: %w", err))
	}
	rec.SessionID = sessionID
	rec.UpdatedAt = fromMillis(updated)
	return &rec, nil
}

// WriteTranscriptMerge merges fields into the session's document. Only the
// supplied top-level fields are replaced; others keep their stored value. A
// document is created when none exists.
func (db *DB) WriteTranscriptMerge(ctx context.Context, sessionID string, fields map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if v == nil {
			return storeErr("write", sessionID, fmt.Errorf("%w: %s", ErrUndefinedField, k))
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return storeErr("write", sessionID, fmt.Errorf("encode %s: %w", k, err))
		}
		encoded[k] = raw
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("write", sessionID, fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	doc := map[string]json.RawMessage{}
	var existing string
	err = tx.QueryRowContext(ctx, `SELECT value FROM transcripts WHERE key = ?`, sessionID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return storeErr("write", sessionID, err)
	default:
		if err := json.Unmarshal([]byte(existing), &doc); err != nil {
			return storeErr("write", sessionID, fmt.Errorf("decode existing document: %w", err))
		}
	}

	for k, v := range encoded {
		doc[k] = v
	}

	value, err := marshalDocument(doc)
	if err != nil {
		return storeErr("write", sessionID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transcripts (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, sessionID, value, time.Now().UnixMilli())
	if err != nil {
		return storeErr("write", sessionID, err)
	}

	return storeErr("write", sessionID, tx.Commit())
}

// DeleteTranscript removes a transcript document. Missing documents are not
// an error.
func (db *DB) DeleteTranscript(ctx context.Context, sessionID string) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM transcripts WHERE key = ?`, sessionID)
	return storeErr("delete", sessionID, err)
}

// ListOrphanTranscripts returns document keys with no matching session row
func (db *DB) ListOrphanTranscripts(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.key FROM transcripts t
		LEFT JOIN sessions s ON s.id = t.key
		WHERE s.id IS NULL
		ORDER BY t.updated_at ASC
	`)
	if err != nil {
		return nil, storeErr("list", "transcripts", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, storeErr("list", "transcripts", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func marshalDocument(doc any) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
