package db

import (
	"context"
	"fmt"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

// IsImported reports whether a file with this content hash was already imported
func (db *DB) IsImported(ctx context.Context, fileHash string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM import_log WHERE file_hash = ? AND status = 'success')`, fileHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check import log: %w", err)
	}
	return exists, nil
}

// ImportSession writes an imported session's metadata row, its transcript
// document and the import log entry in one transaction
func (db *DB) ImportSession(ctx context.Context, s *models.Session, rec models.TranscriptRecord, filePath, fileHash string) error {
	if err := s.Validate(); err != nil {
		return storeErr("import", s.ID, err)
	}

	doc := map[string]any{"transcript": rec.Transcript}
	if rec.Lead != nil {
		doc["lead"] = rec.Lead
	}
	if rec.Transcript == nil {
		doc["transcript"] = []models.Message{}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Name, s.OwnerID, s.ProfileID, s.MessageCount, toMillis(s.CreatedAt), toMillis(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	value, err := marshalDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	now := time.Now().UnixMilli()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transcripts (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.ID, value, now)
	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_log (file_path, file_hash, session_id, imported_at, messages_imported, status)
		VALUES (?, ?, ?, ?, ?, 'success')
	`, filePath, fileHash, s.ID, now, len(rec.Transcript))
	if err != nil {
		return fmt.Errorf("failed to log import: %w", err)
	}

	return tx.Commit()
}

// LogFailedImport records a file that could not be imported
func (db *DB) LogFailedImport(ctx context.Context, filePath, fileHash string, importErr error) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO import_log (file_path, file_hash, imported_at, status, error_message)
		VALUES (?, ?, ?, 'failed', ?)
	`, filePath, fileHash, time.Now().UnixMilli(), importErr.Error())
	return err
}
