package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Stats represents database statistics
type Stats struct {
	TotalProfiles          int
	TotalSessions          int
	TotalMessages          int // Sum of session message counts
	TotalTranscripts       int
	OrphanTranscripts      int
	OldestSession          time.Time
	NewestActivity         time.Time
	MostActiveProfile      string
	MostActiveProfileCount int
}

// GetStats returns statistics for one owner's data plus store-wide transcript counts
func (db *DB) GetStats(ctx context.Context, ownerID string) (*Stats, error) {
	stats := &Stats{}

	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE owner_id = ?`, ownerID).Scan(&stats.TotalProfiles)
	if err != nil {
		return nil, err
	}

	var minCreated, maxUpdated sql.NullInt64
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(message_count), 0), MIN(created_at), MAX(updated_at)
		FROM sessions WHERE owner_id = ?
	`, ownerID).Scan(&stats.TotalSessions, &stats.TotalMessages, &minCreated, &maxUpdated)
	if err != nil {
		return nil, err
	}
	if minCreated.Valid {
		stats.OldestSession = fromMillis(minCreated.Int64)
	}
	if maxUpdated.Valid {
		stats.NewestActivity = fromMillis(maxUpdated.Int64)
	}

	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcripts`).Scan(&stats.TotalTranscripts)
	if err != nil {
		return nil, err
	}

	orphans, err := db.ListOrphanTranscripts(ctx)
	if err != nil {
		return nil, err
	}
	stats.OrphanTranscripts = len(orphans)

	if stats.TotalSessions > 0 {
		// Most active profile
		var name sql.NullString
		err = db.conn.QueryRowContext(ctx, `
			SELECT p.name, COUNT(*) as count
			FROM sessions s
			JOIN profiles p ON p.id = s.profile_id
			WHERE s.owner_id = ?
			GROUP BY s.profile_id
			ORDER BY count DESC
			LIMIT 1
		`, ownerID).Scan(&name, &stats.MostActiveProfileCount)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		stats.MostActiveProfile = name.String
	}

	return stats, nil
}
