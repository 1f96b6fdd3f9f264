package components

import (
	"testing"
	"time"

	"github.com/jon4hz/taskbox/internal/tasks"
	"github.com/stretchr/testify/assert"
)

func TestFormatRelativeTime(t *testing.T) {
	assert.Empty(t, FormatRelativeTime(nil))

	past := time.Now().Add(-3*24*time.Hour - time.Hour)
	assert.Equal(t, "3 days ago", FormatRelativeTime(&past))
}

func TestFormatDate(t *testing.T) {
	assert.Empty(t, FormatDate(nil))

	d := time.Date(2024, 3, 9, 8, 5, 0, 0, time.UTC)
	assert.Equal(t, "Mar 9, 2024 08:05", FormatDate(&d))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "7", FormatCount(7))
	assert.Equal(t, "12,345", FormatCount(12345))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "task", Pluralize(1, "task", "tasks"))
	assert.Equal(t, "tasks", Pluralize(0, "task", "tasks"))
	assert.Equal(t, "tasks", Pluralize(2, "task", "tasks"))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "status-in-process", StatusClass(tasks.StatusInProcess))
	assert.Equal(t, "status-upcoming", StatusClass(tasks.StatusUpcoming))
}

func TestFuncMap(t *testing.T) {
	fm := FuncMap()
	for _, name := range []string{"relativeTime", "formatDate", "formatCount", "pluralize", "statusLabel", "statusClass"} {
		assert.Contains(t, fm, name)
	}
}
