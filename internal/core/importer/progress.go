package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback receives one update per processed file
type ProgressCallback interface {
	Update(sessionName string, firstMsg string)
	Finish()
}

// ProgressReporter draws a progress bar for directory imports
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	startTime time.Time
}

// NewProgressReporter creates a reporter for total files
func NewProgressReporter(w io.Writer, total int) *ProgressReporter {
	return &ProgressReporter{
		writer:    w,
		total:     total,
		startTime: time.Now(),
	}
}

// Update advances the bar and shows the current session
func (p *ProgressReporter) Update(sessionName string, firstMsg string) {
	p.current++
	if p.total <= 0 {
		return
	}

	pct := float64(p.current) / float64(p.total) * 100

	barWidth := 40
	filled := barWidth * p.current / p.total
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	displayText := sessionName
	if displayText == "" {
		displayText = firstMsg
	}
	displayText = truncate(displayText, 60)

	eta := time.Duration(0)
	if elapsed := time.Since(p.startTime); p.current > 0 && elapsed > 0 {
		perFile := elapsed / time.Duration(p.current)
		eta = perFile * time.Duration(p.total-p.current)
	}

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) ETA: %s | %s",
		bar, pct, p.current, p.total, eta.Round(time.Second), displayText)
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nProcessed %d files in %s\n", p.current, elapsed.Round(time.Millisecond))
}
