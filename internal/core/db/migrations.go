package db

import (
	"fmt"
	"time"
)

type migration struct {
	version int
	name    string
	apply   func(db *DB) error
}

var migrations = []migration{
	{1, "sessions.name column", (*DB).migration001SessionName},
	{2, "transcripts updated_at index", (*DB).migration002TranscriptIndex},
}

// runMigrations applies database migrations for existing databases
func (db *DB) runMigrations() error {
	for _, m := range migrations {
		var applied int
		err := db.conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, m.version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %03d: %w", m.version, err)
		}
		if applied > 0 {
			continue
		}

		if err := m.apply(db); err != nil {
			return fmt.Errorf("migration %03d (%s): %w", m.version, m.name, err)
		}

		_, err = db.conn.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			m.version, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("record migration %03d: %w", m.version, err)
		}
	}
	return nil
}

// migration001SessionName adds the name column to databases created before
// sessions could be renamed
func (db *DB) migration001SessionName() error {
	var hasName bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('sessions')
		WHERE name='name'
	`).Scan(&hasName)
	if err != nil {
		return err
	}
	if hasName {
		return nil
	}

	_, err = db.conn.Exec(`ALTER TABLE sessions ADD COLUMN name TEXT NOT NULL DEFAULT ''`)
	if err != nil {
		return fmt.Errorf("add name column: %w", err)
	}
	return nil
}

// migration002TranscriptIndex lets the reconciler scan recently written
// documents first
func (db *DB) migration002TranscriptIndex() error {
	_, err := db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_transcripts_updated_at ON transcripts(updated_at)`)
	return err
}
