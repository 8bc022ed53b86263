package chat

import (
	"fmt"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/dustin/go-humanize"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

func templateData(p models.Profile, now time.Time) map[string]interface{} {
	since := "just now"
	if !p.CreatedAt.IsZero() {
		since = humanize.RelTime(p.CreatedAt, now, "ago", "from now")
	}
	return map[string]interface{}{
		"profile_name":        p.Name,
		"profile_description": p.Description,
		"profile_since":       since,
		"date":                now.Format("Jan 2, 2006"),
		"time":                now.Format("15:04"),
	}
}

// RenderSessionName fills the new-session name template. A broken template
// falls back to "<profile> · <date>".
func RenderSessionName(tmpl string, p models.Profile, now time.Time) string {
	name, err := mustache.Render(tmpl, templateData(p, now))
	if err != nil || name == "" {
		return fmt.Sprintf("%s · %s", p.Name, now.Format("Jan 2, 2006"))
	}
	return name
}

// RenderDraft fills the opening-draft template for a profile
func RenderDraft(tmpl string, p models.Profile, now time.Time) (string, error) {
	draft, err := mustache.Render(tmpl, templateData(p, now))
	if err != nil {
		return "", fmt.Errorf("failed to render draft template: %w", err)
	}
	return draft, nil
}
