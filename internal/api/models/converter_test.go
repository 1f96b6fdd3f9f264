package models

import (
	"testing"
	"time"

	"github.com/jon4hz/taskbox/internal/gravatar"
	"github.com/jon4hz/taskbox/internal/tasks"
	"github.com/jon4hz/taskbox/internal/users"
	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestToUser(t *testing.T) {
	u := &users.User{ID: 3, Username: "jane.doe", Email: "test@example.com"}

	plain := ToUser(u, users.Preferences{DarkMode: true}, nil)
	assert.Equal(t, uint(3), plain.ID)
	assert.True(t, plain.DarkMode)
	assert.Equal(t, "JD", plain.Initials)
	assert.Empty(t, plain.GravatarURL)

	withAvatar := ToUser(u, users.Preferences{}, &gravatar.Options{Size: 40})
	assert.Contains(t, withAvatar.GravatarURL, "https://www.gravatar.com/avatar/")
	assert.Contains(t, withAvatar.GravatarURL, "s=40")
}

func TestToTask_Overdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		task tasks.Task
		want bool
	}{
		{"no due date", tasks.Task{Status: tasks.StatusUpcoming}, false},
		{"future", tasks.Task{Status: tasks.StatusUpcoming, DueDate: &future}, false},
		{"past upcoming", tasks.Task{Status: tasks.StatusUpcoming, DueDate: &past}, true},
		{"past in process", tasks.Task{Status: tasks.StatusInProcess, DueDate: &past}, true},
		{"past completed", tasks.Task{Status: tasks.StatusCompleted, DueDate: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToTask(tt.task, fixedClock(now)).Overdue)
		})
	}
}

func TestToBoard(t *testing.T) {
	b := &tasks.Board{
		Upcoming:  []tasks.Task{{ID: 1}, {ID: 2}},
		Completed: []tasks.Task{{ID: 3}},
	}
	board := ToBoard(b, fixedClock(time.Now()))
	assert.Len(t, board.Upcoming, 2)
	assert.Empty(t, board.InProcess)
	assert.Equal(t, uint(3), board.Completed[0].ID)
	assert.Equal(t, 3, board.Total())
}

func TestToTaskForm(t *testing.T) {
	due := time.Date(2030, 1, 2, 15, 4, 0, 0, time.UTC)
	form := ToTaskForm(&tasks.Task{Content: "x", Category: "y", DueDate: &due, Status: tasks.StatusInProcess})
	assert.Equal(t, "2030-01-02T15:04", form.DueDate)
	assert.Equal(t, tasks.StatusInProcess, form.Status)

	assert.Empty(t, ToTaskForm(&tasks.Task{}).DueDate)
}

func TestStatusOptions(t *testing.T) {
	opts := StatusOptions(tasks.StatusCompleted)
	assert.Len(t, opts, 3)
	assert.Equal(t, tasks.StatusUpcoming, opts[0].Value)
	assert.False(t, opts[0].Selected)
	assert.Equal(t, "In Process", opts[1].Label)
	assert.True(t, opts[2].Selected)
}
