package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/config"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/db"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/history"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/importer"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/widget"
)

// ListSessionsArgs defines arguments for the list_sessions tool
type ListSessionsArgs struct {
	Query     string `json:"query,omitempty" jsonschema:"description=Name filter; supports after:<date> and before:<date>"`
	ProfileID string `json:"profile_id,omitempty" jsonschema:"description=Only sessions of this profile"`
	Limit     int    `json:"limit,omitempty" jsonschema:"description=Max sessions to return (default: 50)"`
}

// GetTranscriptArgs defines arguments for the get_transcript tool
type GetTranscriptArgs struct {
	SessionID   string `json:"session_id" jsonschema:"description=Session UUID to retrieve,required"`
	MaxMessages int    `json:"max_messages,omitempty" jsonschema:"description=Only the last N messages (default: all)"`
}

// RenameSessionArgs defines arguments for the rename_session tool
type RenameSessionArgs struct {
	SessionID string `json:"session_id" jsonschema:"required"`
	Name      string `json:"name" jsonschema:"required"`
}

// DeleteSessionArgs defines arguments for the delete_session tool
type DeleteSessionArgs struct {
	SessionID string `json:"session_id" jsonschema:"required"`
}

// SessionSummary represents a session in the list view
type SessionSummary struct {
	SessionID    string `json:"session_id"`
	Name         string `json:"name"`
	ProfileID    string `json:"profile_id"`
	Bucket       string `json:"bucket"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	MessageCount int    `json:"message_count"`
}

// MessageDetail represents a single transcript message
type MessageDetail struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Files     []string `json:"files,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Sequence  int      `json:"sequence"`
}

// TranscriptDetail is a session with its lead and messages
type TranscriptDetail struct {
	SessionSummary
	Lead     map[string]any  `json:"lead,omitempty"`
	Messages []MessageDetail `json:"messages"`
}

type tools struct {
	database *db.DB
	cfg      *config.Config
	now      func() time.Time
}

// StartServer starts the MCP server
func StartServer(dbPath string, cfg *config.Config) error {
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			logging.Named("mcp").Warn("error closing database", zap.Error(closeErr))
		}
	}()

	s := server.NewMCPServer(
		"webchat",
		"1.0.0",
	)
	registerTools(s, &tools{database: database, cfg: cfg, now: time.Now})

	return server.ServeStdio(s)
}

func registerTools(s *server.MCPServer, t *tools) {
	listTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List chat sessions grouped by age (Today, Yesterday, Last 7 days, ...), most recently active first"),
		mcp.WithString("query",
			mcp.Description("Case-insensitive name filter. Tokens after:<date> and before:<date> filter on creation date (e.g. 'after:2025-01-01', 'after:last-week')")),
		mcp.WithString("profile_id",
			mcp.Description("Only sessions of this profile")),
		mcp.WithNumber("limit",
			mcp.Description("Max sessions to return (default: 50)")),
	)
	s.AddTool(listTool, t.listSessions)

	transcriptTool := mcp.NewTool("get_transcript",
		mcp.WithDescription("Retrieve a session's metadata, lead fields and transcript messages"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session UUID to retrieve")),
		mcp.WithNumber("max_messages",
			mcp.Description("Only return the last N messages")),
	)
	s.AddTool(transcriptTool, t.getTranscript)

	renameTool := mcp.NewTool("rename_session",
		mcp.WithDescription("Rename a chat session"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session UUID")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("New display name (leading and trailing spaces are trimmed)")),
	)
	s.AddTool(renameTool, t.renameSession)

	deleteTool := mcp.NewTool("delete_session",
		mcp.WithDescription("Delete a chat session's metadata. Its transcript is pruned by the next reconcile pass."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session UUID")),
	)
	s.AddTool(deleteTool, t.deleteSession)
}

// syncInbox imports new inbox files before answering. Only runs when a
// default profile is configured; imports need a profile to land in.
func (t *tools) syncInbox(ctx context.Context) error {
	if t.cfg.DefaultProfile == "" || t.cfg.InboxDir == "" {
		return nil
	}
	if _, err := os.Stat(t.cfg.InboxDir); err != nil {
		return nil
	}
	imp := importer.New(t.database, t.cfg.OwnerID, t.cfg.DefaultProfile)
	if _, err := imp.ImportDirectory(ctx, t.cfg.InboxDir, nil); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	return nil
}

func decodeArgs(request mcp.CallToolRequest, dst any) error {
	argsBytes, _ := json.Marshal(request.Params.Arguments)
	return json.Unmarshal(argsBytes, dst)
}

func (t *tools) listSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.syncInbox(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}

	var args ListSessionsArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = 50
	}

	var sessions []models.Session
	var err error
	if args.ProfileID != "" {
		sessions, err = t.database.ListSessionsByProfile(ctx, args.ProfileID)
	} else {
		sessions, err = t.database.ListSessions(ctx, t.cfg.OwnerID)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	ctrl := history.New(t.database)
	ctrl.SetSessions(sessions)
	ctrl.SetQuery(args.Query)

	results := []SessionSummary{}
	for _, g := range ctrl.Groups(t.now()) {
		for _, s := range g.Items {
			if len(results) == limit {
				break
			}
			summary := summarize(s)
			summary.Bucket = string(g.Bucket)
			results = append(results, summary)
		}
	}

	resultJSON, err := json.Marshal(map[string]interface{}{
		"sessions": results,
		"count":    len(results),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (t *tools) getTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args GetTranscriptArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	s, err := t.database.GetSession(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %v", err)), nil
	}
	rec, err := t.database.ReadTranscript(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read transcript: %v", err)), nil
	}
	if rec == nil {
		rec = &models.TranscriptRecord{SessionID: s.ID}
	}

	detail := TranscriptDetail{
		SessionSummary: summarize(*s),
		Lead:           rec.Lead,
		Messages:       []MessageDetail{},
	}
	detail.MessageCount = rec.MessageCount()

	entries := widget.DecodeEntries(rec.Transcript)
	start := 0
	if args.MaxMessages > 0 && len(entries) > args.MaxMessages {
		start = len(entries) - args.MaxMessages
	}
	for i := start; i < len(entries); i++ {
		e := entries[i]
		m := MessageDetail{
			Role:     e.Role,
			Content:  e.Content,
			Files:    e.Files,
			Sequence: i,
		}
		if e.Timestamp > 0 {
			m.Timestamp = time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339)
		}
		detail.Messages = append(detail.Messages, m)
	}

	resultJSON, err := json.Marshal(detail)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (t *tools) renameSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args RenameSessionArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	name := strings.TrimSpace(args.Name)
	if name == "" {
		return mcp.NewToolResultError("name cannot be empty"), nil
	}

	s, err := t.database.RenameSession(ctx, args.SessionID, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rename failed: %v", err)), nil
	}

	resultJSON, err := json.Marshal(summarize(*s))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (t *tools) deleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args DeleteSessionArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	if err := t.database.DeleteSession(ctx, args.SessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(`{"deleted":%q}`, args.SessionID)), nil
}

func summarize(s models.Session) SessionSummary {
	return SessionSummary{
		SessionID:    s.ID,
		Name:         s.Name,
		ProfileID:    s.ProfileID,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.UTC().Format(time.RFC3339),
		MessageCount: s.MessageCount,
	}
}
