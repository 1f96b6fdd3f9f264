package models

import (
	"time"

	"github.com/jon4hz/taskbox/internal/tasks"
)

// User represents the logged in user as shown in the UI.
type User struct {
	ID          uint
	Username    string
	Email       string
	DarkMode    bool
	GravatarURL string // URL to the user's Gravatar image, empty if not available
	Initials    string // placeholder shown when there is no avatar
}

// Task is a task prepared for display.
type Task struct {
	tasks.Task
	Overdue bool // due date passed and the task is not completed
}

// Board is the home page task overview.
type Board struct {
	Upcoming  []Task
	InProcess []Task
	Completed []Task
}

// Total returns the number of tasks on the board.
func (b Board) Total() int {
	return len(b.Upcoming) + len(b.InProcess) + len(b.Completed)
}

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Category string // "success" or "error"
	Message  string
}

// TaskForm holds the raw values of the new/edit task form so they can be redisplayed.
type TaskForm struct {
	Content  string
	Category string
	DueDate  string // datetime-local value, 2006-01-02T15:04
	Status   tasks.Status
}

// StatusOption is one entry of the status select box.
type StatusOption struct {
	Value    tasks.Status
	Label    string
	Selected bool
}

// Clock is used to decide whether a task is overdue.
type Clock func() time.Time
