package transcripts

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

// Write encodes a session and its transcript in the export format. Message
// timestamps are taken from a numeric "timestamp" field (unix ms) when the
// message has one.
func Write(w io.Writer, s models.Session, rec *models.TranscriptRecord) error {
	enc := json.NewEncoder(w)

	header := rawLine{
		Type:      TypeSession,
		SessionID: s.ID,
		Name:      s.Name,
		ProfileID: s.ProfileID,
	}
	if !s.CreatedAt.IsZero() {
		header.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339)
	}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("failed to write session line: %w", err)
	}

	if rec == nil {
		return nil
	}
	if len(rec.Lead) > 0 {
		if err := enc.Encode(rawLine{Type: TypeLead, Lead: rec.Lead}); err != nil {
			return fmt.Errorf("failed to write lead line: %w", err)
		}
	}

	for i, m := range rec.Transcript {
		line := rawLine{Type: TypeMessage, Message: json.RawMessage(m)}
		var stamp struct {
			Timestamp int64 `json:"timestamp"`
		}
		if err := json.Unmarshal(m, &stamp); err == nil && stamp.Timestamp > 0 {
			line.Timestamp = time.UnixMilli(stamp.Timestamp).UTC().Format(time.RFC3339)
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to write message %d: %w", i, err)
		}
	}
	return nil
}
