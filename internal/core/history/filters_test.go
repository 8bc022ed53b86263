package history

import (
	"testing"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantText  string
		wantAfter time.Time
		hasAfter  bool
		hasBefore bool
	}{
		{"plain text", "vitamin d", "vitamin d", time.Time{}, false, false},
		{"iso after", "after:2025-06-01 sleep", "sleep", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true, false},
		{"before only", "before:2025/01/31", "", time.Time{}, false, true},
		{"unparseable date stays text", "after:xyz", "after:xyz", time.Time{}, false, false},
		{"empty value stays text", "before:", "before:", time.Time{}, false, false},
		{"inner spacing kept", "flu  shot", "flu  shot", time.Time{}, false, false},
		{"date token in the middle", "flu after:2025-06-01 shot", "flu shot", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true, false},
		{"date token at the end", "flu  shot after:2025-06-01", "flu  shot", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseQuery(tt.query, now)
			if f.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", f.Text, tt.wantText)
			}
			if f.HasAfter != tt.hasAfter || f.HasBefore != tt.hasBefore {
				t.Errorf("HasAfter=%v HasBefore=%v, want %v %v", f.HasAfter, f.HasBefore, tt.hasAfter, tt.hasBefore)
			}
			if tt.hasAfter && !f.AfterDate.Equal(tt.wantAfter) {
				t.Errorf("AfterDate = %v, want %v", f.AfterDate, tt.wantAfter)
			}
		})
	}
}

func TestParseQueryNaturalLanguage(t *testing.T) {
	f := ParseQuery("after:yesterday", now)
	if !f.HasAfter {
		t.Fatal("expected after:yesterday to parse")
	}
	if !f.AfterDate.Before(now) || f.AfterDate.Before(now.AddDate(0, 0, -2)) {
		t.Errorf("AfterDate = %v, want within the last two days of %v", f.AfterDate, now)
	}
}

func TestFilterMatch(t *testing.T) {
	s := models.Session{Name: "Blood Pressure Log", CreatedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"pressure", true},
		{"PRESSURE log", true},
		{"sugar", false},
		{"after:2025-03-01", true},
		{"after:2025-03-11", false},
		{"before:2025-03-11", true},
		{"before:2025-03-10", false},
		{"after:2025-01-01 before:2025-12-31 blood", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := ParseQuery(tt.query, now).Match(s); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFilterMatchDoubleSpacedName(t *testing.T) {
	s := models.Session{ID: "s1", Name: "Flu  shot", CreatedAt: now}
	if !ParseQuery("flu  shot", now).Match(s) {
		t.Error("query typed with the same spacing should match")
	}
	if ParseQuery("flu shot", now).Match(s) {
		t.Error("single-spaced query should not match a double-spaced name")
	}
}
