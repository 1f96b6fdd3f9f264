package models

import (
	"github.com/jon4hz/taskbox/internal/gravatar"
	"github.com/jon4hz/taskbox/internal/tasks"
	"github.com/jon4hz/taskbox/internal/users"
	"github.com/samber/lo"
)

// DueDateLayout is the format of the datetime-local form field.
const DueDateLayout = "2006-01-02T15:04"

// ToUser converts a stored account into the UI model.
// avatar may be nil when Gravatar is disabled.
func ToUser(u *users.User, prefs users.Preferences, avatar *gravatar.Options) *User {
	user := &User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		DarkMode: prefs.DarkMode,
		Initials: gravatar.Initials(u.Username),
	}
	if avatar != nil {
		user.GravatarURL = gravatar.URL(u.Email, *avatar)
	}
	return user
}

// ToTask converts a task for display.
func ToTask(t tasks.Task, now Clock) Task {
	overdue := t.DueDate != nil &&
		t.Status != tasks.StatusCompleted &&
		t.DueDate.Before(now())
	return Task{
		Task:    t,
		Overdue: overdue,
	}
}

// ToTasks converts a slice of tasks for display.
func ToTasks(ts []tasks.Task, now Clock) []Task {
	return lo.Map(ts, func(t tasks.Task, _ int) Task {
		return ToTask(t, now)
	})
}

// ToBoard converts a bucketed task board for display.
func ToBoard(b *tasks.Board, now Clock) Board {
	return Board{
		Upcoming:  ToTasks(b.Upcoming, now),
		InProcess: ToTasks(b.InProcess, now),
		Completed: ToTasks(b.Completed, now),
	}
}

// ToTaskForm prefills the edit form from a stored task.
func ToTaskForm(t *tasks.Task) TaskForm {
	form := TaskForm{
		Content:  t.Content,
		Category: t.Category,
		Status:   t.Status,
	}
	if t.DueDate != nil {
		form.DueDate = t.DueDate.Format(DueDateLayout)
	}
	return form
}

// StatusOptions lists all statuses with the given one selected.
func StatusOptions(selected tasks.Status) []StatusOption {
	return lo.Map(tasks.Statuses(), func(s tasks.Status, _ int) StatusOption {
		return StatusOption{
			Value:    s,
			Label:    tasks.StatusLabel(s),
			Selected: s == selected,
		}
	})
}
