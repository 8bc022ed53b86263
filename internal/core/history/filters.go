package history

import (
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

// Filter is a parsed search query
type Filter struct {
	Text       string    // Case-insensitive substring of the session name
	AfterDate  time.Time // Only sessions created at or after this time
	BeforeDate time.Time // Only sessions created before this time
	HasAfter   bool
	HasBefore  bool
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
}

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseQuery splits a query into date filters and name text.
// Supports:
//   - after:<date>, before:<date> with ISO dates or English phrases joined by
//     dashes (after:last-week, before:2024-11-01)
//   - anything else is matched against the session name
func ParseQuery(query string, now time.Time) Filter {
	var f Filter
	w := newDateParser()

	// Date tokens are cut out with the space after them; the rest of the
	// query keeps its spacing.
	var text strings.Builder
	rest := strings.TrimSpace(query)
	for rest != "" {
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			end = len(rest)
		}
		token := rest[:end]
		next := strings.TrimLeftFunc(rest[end:], unicode.IsSpace)
		sep := rest[end : len(rest)-len(next)]
		rest = next

		if f.applyDate(w, token, now) {
			continue
		}
		text.WriteString(token)
		text.WriteString(sep)
	}

	f.Text = strings.TrimSpace(text.String())
	return f
}

// applyDate sets the date bound an after:/before: token names and reports
// whether the token was one
func (f *Filter) applyDate(w *when.Parser, token string, now time.Time) bool {
	switch {
	case strings.HasPrefix(token, "after:"):
		if t, ok := parseDate(w, strings.TrimPrefix(token, "after:"), now); ok {
			f.AfterDate, f.HasAfter = t, true
			return true
		}
	case strings.HasPrefix(token, "before:"):
		if t, ok := parseDate(w, strings.TrimPrefix(token, "before:"), now); ok {
			f.BeforeDate, f.HasBefore = t, true
			return true
		}
	}
	return false
}

// Match reports whether a session passes the filter
func (f Filter) Match(s models.Session) bool {
	if f.HasAfter && s.CreatedAt.Before(f.AfterDate) {
		return false
	}
	if f.HasBefore && !s.CreatedAt.Before(f.BeforeDate) {
		return false
	}
	if f.Text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Text))
}

// IsZero reports whether the filter lets everything through
func (f Filter) IsZero() bool {
	return f.Text == "" && !f.HasAfter && !f.HasBefore
}

func parseDate(w *when.Parser, s string, now time.Time) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}

	r, err := w.Parse(strings.ReplaceAll(s, "-", " "), now)
	if err == nil && r != nil {
		return r.Time, true
	}
	return time.Time{}, false
}
