package components

import (
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/taskbox/internal/tasks"
	"github.com/mergestat/timediff"
)

// FormatRelativeTime formats a time as a relative time string like "in 3 days".
// Returns an empty string for a missing time.
func FormatRelativeTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return timediff.TimeDiff(*t)
}

// FormatDate formats a time for display like "Jan 2, 2006 15:04".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Jan 2, 2006 15:04")
}

// FormatCount formats a count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// Pluralize returns singular for a count of one and plural otherwise.
func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// StatusClass returns the css modifier for a status.
func StatusClass(s tasks.Status) string {
	return "status-" + strings.ReplaceAll(string(s), "_", "-")
}

// FuncMap returns the helpers available in page templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"relativeTime": FormatRelativeTime,
		"formatDate":   FormatDate,
		"formatCount":  FormatCount,
		"pluralize":    Pluralize,
		"statusLabel":  tasks.StatusLabel,
		"statusClass":  StatusClass,
	}
}
