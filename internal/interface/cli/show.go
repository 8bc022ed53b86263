package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/widget"
	"github.com/NaviAgent/aisuckhoe-webchat/pkg/transcripts"
)

var (
	showFormat string
	showOutput string
	showCopy   bool
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session transcript",
	Long: `Print a session's metadata, lead and transcript.

Formats:
  text   markdown, one section per message (default)
  json   a single JSON document
  yaml   the same document as YAML
  jsonl  the import format, readable by 'webchat import'

Examples:
  webchat show <id>
  webchat show <id> --format yaml
  webchat show <id> --format jsonl -o backup.jsonl
  webchat show <id> --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "Output format: text, json, yaml, jsonl")
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "", "Write to file instead of stdout")
	showCmd.Flags().BoolVarP(&showCopy, "copy", "c", false, "Copy the output to the clipboard")
}

type exportSession struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	ProfileID    string    `json:"profile_id" yaml:"profile_id"`
	MessageCount int       `json:"message_count" yaml:"message_count"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

type exportEntry struct {
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Files     []string  `json:"files,omitempty" yaml:"files,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

type exportDoc struct {
	Session  exportSession  `json:"session" yaml:"session"`
	Lead     map[string]any `json:"lead,omitempty" yaml:"lead,omitempty"`
	Messages []exportEntry  `json:"messages" yaml:"messages"`
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sessionID := args[0]

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	s, err := database.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	rec, err := database.ReadTranscript(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	if rec == nil {
		rec = &models.TranscriptRecord{SessionID: sessionID}
	}

	var buf bytes.Buffer
	switch showFormat {
	case "text", "md", "markdown":
		renderMarkdown(&buf, *s, rec)
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(buildExport(*s, rec)); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case "yaml", "yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(buildExport(*s, rec)); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_ = enc.Close()
	case "jsonl":
		if err := transcripts.Write(&buf, *s, rec); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want text, json, yaml or jsonl)", showFormat)
	}

	if showCopy {
		if err := clipboard.WriteAll(buf.String()); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Copied %d bytes to clipboard\n", buf.Len())
	}

	if showOutput != "" {
		if err := os.WriteFile(showOutput, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Printf("Exported session to: %s\n", showOutput)
		return nil
	}
	if !showCopy {
		_, _ = os.Stdout.Write(buf.Bytes())
	}
	return nil
}

func buildExport(s models.Session, rec *models.TranscriptRecord) exportDoc {
	doc := exportDoc{
		Session: exportSession{
			ID:           s.ID,
			Name:         s.Name,
			ProfileID:    s.ProfileID,
			MessageCount: rec.MessageCount(),
			CreatedAt:    s.CreatedAt,
			UpdatedAt:    s.UpdatedAt,
		},
		Lead:     rec.Lead,
		Messages: []exportEntry{},
	}
	for _, e := range widget.DecodeEntries(rec.Transcript) {
		doc.Messages = append(doc.Messages, exportEntry{
			Role:      e.Role,
			Content:   e.Content,
			Files:     e.Files,
			Timestamp: entryTime(e),
		})
	}
	return doc
}

func renderMarkdown(b *bytes.Buffer, s models.Session, rec *models.TranscriptRecord) {
	fmt.Fprintf(b, "# %s\n\n", s.Name)
	fmt.Fprintf(b, "**Session ID:** `%s`  \n", s.ID)
	fmt.Fprintf(b, "**Profile:** `%s`  \n", s.ProfileID)
	fmt.Fprintf(b, "**Created:** %s  \n", s.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(b, "**Updated:** %s  \n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(b, "**Messages:** %d\n\n", rec.MessageCount())

	if len(rec.Lead) > 0 {
		b.WriteString("## Lead\n\n")
		keys := make([]string, 0, len(rec.Lead))
		for k := range rec.Lead {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, "- **%s:** %v\n", k, rec.Lead[k])
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")

	for _, e := range widget.DecodeEntries(rec.Transcript) {
		b.WriteString("**")
		b.WriteString(strings.ToUpper(e.Role))
		b.WriteString("**")
		if t := entryTime(e); !t.IsZero() {
			fmt.Fprintf(b, " _%s_", t.Format("15:04:05"))
		}
		b.WriteString("\n\n")
		b.WriteString(e.Content)
		b.WriteString("\n\n")
		for _, f := range e.Files {
			fmt.Fprintf(b, "📎 %s\n", f)
		}
		if len(e.Files) > 0 {
			b.WriteString("\n")
		}
	}
}

func entryTime(e widget.Entry) time.Time {
	if e.Timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp)
}
