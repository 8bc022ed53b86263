package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/config"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/db"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func setupTools(t *testing.T) *tools {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	ctx := context.Background()
	require.NoError(t, database.CreateProfile(ctx, &models.Profile{ID: "p1", OwnerID: "local", Name: "Me"}))
	for _, s := range []models.Session{
		{ID: "s-today", Name: "Blood pressure", CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour)},
		{ID: "s-old", Name: "Vaccines", CreatedAt: now.AddDate(0, -2, 0), UpdatedAt: now.AddDate(0, -2, 0)},
	} {
		s.OwnerID, s.ProfileID = "local", "p1"
		require.NoError(t, database.CreateSession(ctx, &s))
	}
	require.NoError(t, database.WriteTranscriptMerge(ctx, "s-today", map[string]any{
		"transcript": []models.Message{
			models.Message(`{"id":"1","role":"user","content":"is 140/90 high?","timestamp":1749988800000}`),
			models.Message(`{"id":"2","role":"assistant","content":"It is elevated."}`),
		},
		"lead": map[string]any{"age": 61},
	}))

	cfg := config.Default()
	cfg.InboxDir = ""
	return &tools{database: database, cfg: cfg, now: func() time.Time { return now }}
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestListSessionsGroupsByBucket(t *testing.T) {
	tl := setupTools(t)

	out, isErr := call(t, tl.listSessions, map[string]any{})
	require.False(t, isErr, out)

	var got struct {
		Sessions []SessionSummary `json:"sessions"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 2, got.Count)
	assert.Equal(t, "s-today", got.Sessions[0].SessionID)
	assert.Equal(t, "Today", got.Sessions[0].Bucket)
	assert.Equal(t, "Last 6 months", got.Sessions[1].Bucket)

	out, _ = call(t, tl.listSessions, map[string]any{"query": "vacc"})
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "s-old", got.Sessions[0].SessionID)
}

func TestGetTranscript(t *testing.T) {
	tl := setupTools(t)

	out, isErr := call(t, tl.getTranscript, map[string]any{"session_id": "s-today", "max_messages": 1})
	require.False(t, isErr, out)

	var got TranscriptDetail
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.MessageCount)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "assistant", got.Messages[0].Role)
	assert.Equal(t, 1, got.Messages[0].Sequence)
	assert.EqualValues(t, 61, got.Lead["age"])

	_, isErr = call(t, tl.getTranscript, map[string]any{"session_id": "missing"})
	assert.True(t, isErr)
}

func TestRenameAndDeleteSession(t *testing.T) {
	tl := setupTools(t)
	ctx := context.Background()

	_, isErr := call(t, tl.renameSession, map[string]any{"session_id": "s-old", "name": "   "})
	assert.True(t, isErr)

	out, isErr := call(t, tl.renameSession, map[string]any{"session_id": "s-old", "name": "  Flu shot  "})
	require.False(t, isErr, out)
	s, err := tl.database.GetSession(ctx, "s-old")
	require.NoError(t, err)
	assert.Equal(t, "Flu shot", s.Name)

	_, isErr = call(t, tl.deleteSession, map[string]any{"session_id": "s-old"})
	require.False(t, isErr)
	_, err = tl.database.GetSession(ctx, "s-old")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, isErr = call(t, tl.deleteSession, map[string]any{"session_id": "s-old"})
	assert.True(t, isErr)
}
