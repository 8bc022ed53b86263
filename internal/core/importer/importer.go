package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/db"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
	"github.com/NaviAgent/aisuckhoe-webchat/pkg/transcripts"
)

// Importer turns JSONL transcript exports into sessions
type Importer struct {
	db        *db.DB
	ownerID   string
	profileID string
	logger    *zap.Logger
}

// Result counts the outcome of a directory import
type Result struct {
	Imported int
	Skipped  int
	Failed   int
}

// New creates an importer that files sessions under ownerID. Files that do
// not name a profile of that owner go to profileID.
func New(database *db.DB, ownerID, profileID string) *Importer {
	return &Importer{
		db:        database,
		ownerID:   ownerID,
		profileID: profileID,
		logger:    logging.Named("importer"),
	}
}

// ImportFile parses and imports one file. Empty files and files whose content
// was already imported are skipped and reported as not imported.
func (i *Importer) ImportFile(ctx context.Context, path string) (*transcripts.ParsedTranscript, bool, error) {
	// Still being created
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		return nil, false, nil
	}

	hash, err := computeFileHash(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash file: %w", err)
	}

	done, err := i.db.IsImported(ctx, hash)
	if err != nil {
		return nil, false, err
	}
	if done {
		return nil, false, nil
	}

	parsed, err := transcripts.ParseFile(path)
	if err != nil {
		i.logFailure(ctx, path, hash, err)
		return nil, false, err
	}
	for _, w := range parsed.Warnings {
		i.logger.Warn("skipped line", zap.String("file", path), zap.String("reason", w))
	}

	if err := i.importParsed(ctx, parsed, hash); err != nil {
		i.logFailure(ctx, path, hash, err)
		return parsed, false, err
	}
	return parsed, true, nil
}

func (i *Importer) importParsed(ctx context.Context, parsed *transcripts.ParsedTranscript, hash string) error {
	profileID, err := i.resolveProfile(ctx, parsed.ProfileID)
	if err != nil {
		return err
	}

	sessionID := parsed.SessionID
	if sessionID == "" {
		// Stable across re-imports of the same content
		sessionID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(hash)).String()
	}

	createdAt := parsed.CreatedAt
	if createdAt.IsZero() {
		createdAt = parsed.FirstTimestamp()
	}
	if createdAt.IsZero() {
		createdAt = parsed.FileMtime
	}
	updatedAt := parsed.LastTimestamp()
	if updatedAt.IsZero() || updatedAt.Before(createdAt) {
		updatedAt = createdAt
	}

	name := parsed.Name
	if name == "" {
		name = defaultName(parsed, createdAt)
	}

	msgs := make([]models.Message, len(parsed.Messages))
	for j, m := range parsed.Messages {
		msgs[j] = models.Message(m.Raw)
	}

	s := &models.Session{
		ID:           sessionID,
		Name:         name,
		OwnerID:      i.ownerID,
		ProfileID:    profileID,
		MessageCount: len(msgs),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	rec := models.TranscriptRecord{SessionID: sessionID, Lead: parsed.Lead, Transcript: msgs}

	if err := i.db.ImportSession(ctx, s, rec, parsed.FilePath, hash); err != nil {
		return fmt.Errorf("failed to import session: %w", err)
	}
	return nil
}

// resolveProfile keeps the file's profile when the owner has it
func (i *Importer) resolveProfile(ctx context.Context, fromFile string) (string, error) {
	if fromFile != "" {
		p, err := i.db.GetProfile(ctx, fromFile)
		switch {
		case err == nil && p.OwnerID == i.ownerID:
			return p.ID, nil
		case err != nil && !errors.Is(err, db.ErrNotFound):
			return "", err
		}
	}
	if i.profileID == "" {
		return "", fmt.Errorf("no profile to import into")
	}
	return i.profileID, nil
}

func (i *Importer) logFailure(ctx context.Context, path, hash string, importErr error) {
	if err := i.db.LogFailedImport(ctx, path, hash, importErr); err != nil {
		i.logger.Warn("failed to record failed import", zap.String("file", path), zap.Error(err))
	}
}

// ImportDirectory imports every .jsonl file under dirPath. Files that fail
// are logged and counted; the walk goes on.
func (i *Importer) ImportDirectory(ctx context.Context, dirPath string, progress ProgressCallback) (Result, error) {
	var res Result

	files, err := FindFiles(dirPath)
	if err != nil {
		return res, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		parsed, imported, err := i.ImportFile(ctx, file)
		switch {
		case err != nil:
			res.Failed++
			i.logger.Warn("import failed", zap.String("file", file), zap.Error(err))
		case !imported:
			res.Skipped++
		default:
			res.Imported++
		}

		if progress != nil {
			name, first := filepath.Base(file), ""
			if parsed != nil {
				name, first = parsed.Name, firstText(parsed)
			}
			progress.Update(name, first)
		}
	}

	return res, nil
}

// FindFiles lists the .jsonl files under dirPath
func FindFiles(dirPath string) ([]string, error) {
	var files []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	return files, nil
}

func firstText(parsed *transcripts.ParsedTranscript) string {
	for _, m := range parsed.Messages {
		if m.Text != "" {
			return truncate(m.Text, 100)
		}
	}
	return ""
}

func defaultName(parsed *transcripts.ParsedTranscript, createdAt time.Time) string {
	if t := firstText(parsed); t != "" {
		return truncate(t, 60)
	}
	return "Imported " + createdAt.Format("Jan 2, 2006")
}

// truncate shortens s to at most n runes, ending in "..." when cut
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func computeFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
