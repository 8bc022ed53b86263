package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func seedProfile(t *testing.T, database *DB, id, owner string) {
	t.Helper()
	err := database.CreateProfile(context.Background(), &models.Profile{ID: id, OwnerID: owner, Name: "Profile " + id})
	if err != nil {
		t.Fatalf("CreateProfile(%s) error = %v", id, err)
	}
}

func seedSession(t *testing.T, database *DB, id, owner, profile string, updated time.Time) {
	t.Helper()
	s := &models.Session{
		ID:        id,
		Name:      "Session " + id,
		OwnerID:   owner,
		ProfileID: profile,
		CreatedAt: updated,
		UpdatedAt: updated,
	}
	if err := database.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("CreateSession(%s) error = %v", id, err)
	}
}

func TestNew(t *testing.T) {
	database := newTestDB(t)

	// Verify schema initialized
	var count int
	err := database.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}

	// profiles, sessions, transcripts, import_log, schema_migrations (+ sqlite_sequence)
	if count < 5 {
		t.Errorf("Expected at least 5 tables, got %d", count)
	}
}

func TestNew_WALMode(t *testing.T) {
	database := newTestDB(t)

	var journalMode string
	if err := database.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected WAL mode, got %s", journalMode)
	}
}

func TestNew_ForeignKeys(t *testing.T) {
	database := newTestDB(t)

	var fkEnabled int
	if err := database.conn.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("Failed to query foreign keys: %v", err)
	}
	if fkEnabled != 1 {
		t.Errorf("Expected foreign keys enabled (1), got %d", fkEnabled)
	}
}

func TestMigrationsRecordedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		database, err := New(path)
		if err != nil {
			t.Fatalf("New() pass %d error = %v", i, err)
		}
		var applied int
		if err := database.conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if applied != len(migrations) {
			t.Errorf("pass %d: %d migrations recorded, want %d", i, applied, len(migrations))
		}
		_ = database.Close()
	}
}

func TestIndexes(t *testing.T) {
	database := newTestDB(t)

	var indexCount int
	err := database.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND tbl_name='sessions' AND name LIKE 'idx_%'
	`).Scan(&indexCount)
	if err != nil {
		t.Fatalf("Failed to count session indexes: %v", err)
	}

	// owner_id, profile_id, updated_at
	if indexCount < 3 {
		t.Errorf("Expected at least 3 indexes on sessions, got %d", indexCount)
	}
}

func TestStats(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	seedProfile(t, database, "p1", "u1")
	seedProfile(t, database, "p2", "u1")
	seedSession(t, database, "s1", "u1", "p1", now.Add(-48*time.Hour))
	seedSession(t, database, "s2", "u1", "p1", now)
	seedSession(t, database, "s3", "u1", "p2", now.Add(-time.Hour))

	if err := database.TouchSession(ctx, "s2", 4, now); err != nil {
		t.Fatal(err)
	}
	if err := database.WriteTranscriptMerge(ctx, "ghost", map[string]any{"transcript": []int{}}); err != nil {
		t.Fatal(err)
	}

	stats, err := database.GetStats(ctx, "u1")
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalProfiles != 2 || stats.TotalSessions != 3 {
		t.Errorf("profiles/sessions = %d/%d, want 2/3", stats.TotalProfiles, stats.TotalSessions)
	}
	if stats.TotalMessages != 4 {
		t.Errorf("TotalMessages = %d, want 4", stats.TotalMessages)
	}
	if stats.TotalTranscripts != 1 || stats.OrphanTranscripts != 1 {
		t.Errorf("transcripts/orphans = %d/%d, want 1/1", stats.TotalTranscripts, stats.OrphanTranscripts)
	}
	if stats.MostActiveProfile != "Profile p1" || stats.MostActiveProfileCount != 2 {
		t.Errorf("most active = %q (%d)", stats.MostActiveProfile, stats.MostActiveProfileCount)
	}
	if stats.OldestSession.UnixMilli() != now.Add(-48*time.Hour).UnixMilli() {
		t.Errorf("OldestSession = %v", stats.OldestSession)
	}
}
