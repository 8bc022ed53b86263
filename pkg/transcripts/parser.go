// Package transcripts reads and writes the JSONL transcript export format.
//
// One JSON object per line. A "session" line carries metadata, a "lead" line
// the captured lead fields, and each "message" line one opaque transcript
// entry, in order:
//
//	{"type":"session","session_id":"…","name":"…","profile_id":"…","created_at":"2025-06-15T09:30:00Z"}
//	{"type":"lead","lead":{"name":"Lan"}}
//	{"type":"message","timestamp":"2025-06-15T09:30:05Z","message":{"role":"user","content":"hi"}}
package transcripts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Line types
const (
	TypeSession = "session"
	TypeLead    = "lead"
	TypeMessage = "message"
)

// ParsedTranscript is a fully parsed export file
type ParsedTranscript struct {
	SessionID string // Empty when neither the file nor its name carries one
	Name      string
	ProfileID string
	CreatedAt time.Time
	Lead      map[string]any
	Messages  []ParsedMessage
	Warnings  []string // Lines skipped while parsing
	FilePath  string
	FileSize  int64
	FileMtime time.Time
}

// ParsedMessage is one transcript entry
type ParsedMessage struct {
	Raw       json.RawMessage
	Role      string
	Text      string
	Timestamp time.Time
	Sequence  int
}

// rawLine is one JSONL line
type rawLine struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	ProfileID string          `json:"profile_id,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	Lead      map[string]any  `json:"lead,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
}

// FirstTimestamp returns the timestamp of the first timed message
func (p *ParsedTranscript) FirstTimestamp() time.Time {
	for _, m := range p.Messages {
		if !m.Timestamp.IsZero() {
			return m.Timestamp
		}
	}
	return time.Time{}
}

// LastTimestamp returns the timestamp of the last timed message
func (p *ParsedTranscript) LastTimestamp() time.Time {
	for i := len(p.Messages) - 1; i >= 0; i-- {
		if !p.Messages[i].Timestamp.IsZero() {
			return p.Messages[i].Timestamp
		}
	}
	return time.Time{}
}

// ParseFile parses a JSONL transcript export
func ParseFile(path string) (parsed *ParsedTranscript, err error) {
	file, ferr := os.Open(path)
	if ferr != nil {
		return nil, fmt.Errorf("failed to open file: %w", ferr)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	parsed = &ParsedTranscript{
		SessionID: idFromFilename(path),
		FilePath:  path,
		FileSize:  info.Size(),
		FileMtime: info.ModTime(),
		Messages:  make([]ParsedMessage, 0),
	}

	// Long lines happen with pasted documents (10MB max)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var raw rawLine
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse JSON: %w", lineNum, err)
		}

		switch raw.Type {
		case TypeSession:
			if raw.SessionID != "" {
				parsed.SessionID = raw.SessionID
			}
			parsed.Name = raw.Name
			parsed.ProfileID = raw.ProfileID
			if t, err := parseTime(raw.CreatedAt); err == nil {
				parsed.CreatedAt = t
			} else {
				parsed.warn(lineNum, err)
			}

		case TypeLead:
			parsed.Lead = raw.Lead

		case TypeMessage:
			msg, err := parseMessage(&raw, len(parsed.Messages))
			if err != nil {
				parsed.warn(lineNum, err)
				continue
			}
			parsed.Messages = append(parsed.Messages, *msg)

		default:
			parsed.warn(lineNum, fmt.Errorf("unknown line type %q", raw.Type))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return parsed, nil
}

func (p *ParsedTranscript) warn(line int, err error) {
	p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: %v", line, err))
}

func parseMessage(raw *rawLine, sequence int) (*ParsedMessage, error) {
	if len(raw.Message) == 0 || string(raw.Message) == "null" {
		return nil, fmt.Errorf("message line without message")
	}

	ts, err := parseTime(raw.Timestamp)
	if err != nil {
		return nil, err
	}

	msg := &ParsedMessage{
		Raw:       raw.Message,
		Timestamp: ts,
		Sequence:  sequence,
	}

	// Text extraction is best effort; the message itself stays opaque
	var body struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw.Message, &body); err == nil {
		msg.Role = body.Role
		msg.Text = extractText(body.Content)
	}
	return msg, nil
}

// extractText accepts a plain string or an array of {type, text} blocks
func extractText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	}
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	return t, nil
}

// idFromFilename returns the file's base name when it is a UUID
func idFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if id, err := uuid.Parse(base); err == nil {
		return id.String()
	}
	return ""
}
