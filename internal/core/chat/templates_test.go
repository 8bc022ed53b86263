package chat

import (
	"testing"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/config"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

func TestRenderDraft(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		profile models.Profile
		want    string
	}{
		{
			name:    "with description",
			profile: models.Profile{Name: "Grandma", Description: "82, diabetic"},
			want:    "Hi, I'm chatting on behalf of Grandma. Some context: 82, diabetic.",
		},
		{
			name:    "without description",
			profile: models.Profile{Name: "Dad"},
			want:    "Hi, I'm chatting on behalf of Dad.",
		},
		{
			name:    "no html escaping",
			profile: models.Profile{Name: "Tom & Jerry"},
			want:    "Hi, I'm chatting on behalf of Tom & Jerry.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderDraft(config.DefaultDraftTemplate, tt.profile, now)
			if err != nil {
				t.Fatalf("RenderDraft() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderDraft() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSessionName(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	p := models.Profile{Name: "Grandma"}

	if got := RenderSessionName(config.DefaultSessionName, p, now); got != "Grandma · Jun 15, 2025" {
		t.Errorf("default template = %q", got)
	}
	if got := RenderSessionName("{{time}} chat", p, now); got != "09:30 chat" {
		t.Errorf("custom template = %q", got)
	}
	if got := RenderSessionName("{{#broken}}", p, now); got != "Grandma · Jun 15, 2025" {
		t.Errorf("broken template should fall back, got %q", got)
	}
}
