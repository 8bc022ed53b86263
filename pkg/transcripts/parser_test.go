package transcripts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

const sample = `{"type":"session","session_id":"8d3c1c2e-6f0a-4d55-9d7e-2a9f4b1c0e11","name":"Fever at night","profile_id":"p1","created_at":"2025-06-15T09:30:00Z"}
{"type":"lead","lead":{"name":"Lan","age":82}}
{"type":"message","timestamp":"2025-06-15T09:30:05Z","message":{"role":"user","content":"She has a fever every night"}}

{"type":"message","timestamp":"2025-06-15T09:30:09Z","message":{"role":"assistant","content":[{"type":"text","text":"How high?"},{"type":"image","url":"x"}]}}
{"type":"bookmark"}
{"type":"message","timestamp":"yesterday","message":{"role":"user","content":"bad stamp"}}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	parsed, err := ParseFile(writeFile(t, "export.jsonl", sample))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if parsed.SessionID != "8d3c1c2e-6f0a-4d55-9d7e-2a9f4b1c0e11" {
		t.Errorf("SessionID = %q", parsed.SessionID)
	}
	if parsed.Name != "Fever at night" || parsed.ProfileID != "p1" {
		t.Errorf("header = %q / %q", parsed.Name, parsed.ProfileID)
	}
	if !parsed.CreatedAt.Equal(time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", parsed.CreatedAt)
	}
	if parsed.Lead["name"] != "Lan" {
		t.Errorf("Lead = %v", parsed.Lead)
	}

	if len(parsed.Messages) != 2 {
		t.Fatalf("Message count = %d, want 2", len(parsed.Messages))
	}
	if parsed.Messages[0].Role != "user" || parsed.Messages[0].Text != "She has a fever every night" {
		t.Errorf("first message = %+v", parsed.Messages[0])
	}
	if parsed.Messages[1].Text != "How high?" {
		t.Errorf("block text = %q", parsed.Messages[1].Text)
	}
	if parsed.Messages[1].Sequence != 1 {
		t.Errorf("Sequence = %d, want 1", parsed.Messages[1].Sequence)
	}

	if len(parsed.Warnings) != 2 {
		t.Errorf("Warnings = %v, want unknown type and bad timestamp", parsed.Warnings)
	}

	if got := parsed.LastTimestamp(); !got.Equal(time.Date(2025, 6, 15, 9, 30, 9, 0, time.UTC)) {
		t.Errorf("LastTimestamp() = %v", got)
	}
}

func TestParseFile_IDFromFilename(t *testing.T) {
	path := writeFile(t, "0b7a6f5e-1111-4222-8333-944455556666.jsonl",
		`{"type":"message","message":{"role":"user","content":"hi"}}`+"\n")

	parsed, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if parsed.SessionID != "0b7a6f5e-1111-4222-8333-944455556666" {
		t.Errorf("SessionID = %q", parsed.SessionID)
	}

	other, err := ParseFile(writeFile(t, "notes.jsonl", ""))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if other.SessionID != "" {
		t.Errorf("SessionID = %q, want empty", other.SessionID)
	}
}

func TestParseFile_InvalidJSON(t *testing.T) {
	_, err := ParseFile(writeFile(t, "broken.jsonl", "{not json}\n"))
	if err == nil {
		t.Error("ParseFile() should fail on malformed lines")
	}
}

func TestParseFile_InvalidPath(t *testing.T) {
	_, err := ParseFile("nonexistent.jsonl")
	if err == nil {
		t.Error("ParseFile() should return error for invalid path")
	}
}

func TestWriteThenParse(t *testing.T) {
	s := models.Session{
		ID:        "0b7a6f5e-1111-4222-8333-944455556666",
		Name:      "Sleep",
		ProfileID: "p1",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	rec := &models.TranscriptRecord{
		Lead: models.Lead{"name": "Minh"},
		Transcript: []models.Message{
			models.Message(`{"role":"user","content":"cannot sleep","timestamp":1735787045000}`),
			models.Message(`{"role":"assistant","content":"since when?"}`),
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, s, rec); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	parsed, err := ParseFile(writeFile(t, "roundtrip.jsonl", buf.String()))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if parsed.SessionID != s.ID || parsed.Name != "Sleep" || !parsed.CreatedAt.Equal(s.CreatedAt) {
		t.Errorf("header = %+v", parsed)
	}
	if len(parsed.Messages) != 2 || parsed.Messages[1].Text != "since when?" {
		t.Errorf("messages = %+v", parsed.Messages)
	}
	if !parsed.Messages[0].Timestamp.Equal(time.UnixMilli(1735787045000)) {
		t.Errorf("timestamp = %v", parsed.Messages[0].Timestamp)
	}
	if parsed.Lead["name"] != "Minh" {
		t.Errorf("lead = %v", parsed.Lead)
	}
	if len(parsed.Warnings) != 0 {
		t.Errorf("warnings = %v", parsed.Warnings)
	}
}
