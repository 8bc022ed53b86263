package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

func testRecord() (models.Session, *models.TranscriptRecord) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	s := models.Session{
		ID:        "s1",
		Name:      "Sore throat",
		OwnerID:   "local",
		ProfileID: "p1",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
	rec := &models.TranscriptRecord{
		SessionID: "s1",
		Lead:      models.Lead{"age": 34, "city": "Hanoi"},
		Transcript: []models.Message{
			json.RawMessage(`{"id":"m1","role":"user","content":"My throat hurts","timestamp":1740821400000}`),
			json.RawMessage(`{"id":"m2","role":"assistant","content":"How long has it hurt?","files":["scan.png"],"timestamp":1740821460000}`),
			json.RawMessage(`"not an entry"`),
		},
	}
	return s, rec
}

func TestBuildExport(t *testing.T) {
	s, rec := testRecord()
	doc := buildExport(s, rec)

	assert.Equal(t, "s1", doc.Session.ID)
	assert.Equal(t, 3, doc.Session.MessageCount)
	require.Len(t, doc.Messages, 3)

	assert.Equal(t, "user", doc.Messages[0].Role)
	assert.Equal(t, time.UnixMilli(1740821400000), doc.Messages[0].Timestamp)
	assert.Equal(t, []string{"scan.png"}, doc.Messages[1].Files)

	// Undecodable messages are kept as raw system text
	assert.Equal(t, "system", doc.Messages[2].Role)
	assert.True(t, doc.Messages[2].Timestamp.IsZero())
}

func TestBuildExportEmptyTranscript(t *testing.T) {
	s, _ := testRecord()
	doc := buildExport(s, &models.TranscriptRecord{SessionID: "s1"})

	assert.NotNil(t, doc.Messages)
	assert.Empty(t, doc.Messages)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"messages":[]`)
	assert.NotContains(t, string(out), `"lead"`)
}

func TestRenderMarkdown(t *testing.T) {
	s, rec := testRecord()
	var b bytes.Buffer
	renderMarkdown(&b, s, rec)
	out := b.String()

	assert.True(t, strings.HasPrefix(out, "# Sore throat\n"))
	assert.Contains(t, out, "**Messages:** 3")
	assert.Contains(t, out, "- **age:** 34\n- **city:** Hanoi")
	assert.Contains(t, out, "**USER**")
	assert.Contains(t, out, "How long has it hurt?")
	assert.Contains(t, out, "📎 scan.png")
}

func TestTruncateName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "Flu shot", 20, "Flu shot"},
		{"collapses whitespace", "Flu   \n shot", 20, "Flu shot"},
		{"cuts at word boundary", "Questions about my blood pressure readings", 25, "Questions about my blood..."},
		{"multibyte", "Khám sức khỏe định kỳ", 8, "Khám..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateName(tt.input, tt.maxLen))
		})
	}
}
