package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jon4hz/taskbox/internal/database"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

var (
	// ErrEmptyContent is returned when a task's content is blank.
	ErrEmptyContent = errors.New("task content cannot be empty")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid task status")
	// ErrNotFound is returned when a task does not exist or belongs to another user.
	ErrNotFound = errors.New("task not found")
)

// Status is the lifecycle tag of a task.
type Status = database.TaskStatus

const (
	StatusUpcoming  = database.TaskStatusUpcoming
	StatusInProcess = database.TaskStatusInProcess
	StatusCompleted = database.TaskStatusCompleted
)

// Task is a to-do item with its dates already parsed.
// Absent or unreadable dates are nil.
type Task struct {
	ID          uint
	UserID      uint
	Content     string
	Category    string
	CreatedDate *time.Time
	DueDate     *time.Time
	Status      Status
}

// Board holds a user's tasks bucketed by status.
// Every bucket is ordered by due date with undated tasks last.
type Board struct {
	Upcoming  []Task
	InProcess []Task
	Completed []Task
}

// Store manages tasks. Every operation is scoped by the calling user's id.
type Store struct {
	db  database.TaskDB
	now func() time.Time
}

// New creates a task store on top of db.
func New(db database.TaskDB) *Store {
	return &Store{
		db:  db,
		now: time.Now,
	}
}

// Create adds a new upcoming task for userID.
func (s *Store) Create(ctx context.Context, userID uint, content, category string, dueDate *time.Time) (*Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	t := &database.Task{
		UserID:      userID,
		Content:     content,
		Category:    strings.TrimSpace(category),
		CreatedDate: database.NewNullTime(s.now()),
		DueDate:     database.NullTimeFromPtr(dueDate),
		Status:      StatusUpcoming,
	}
	if err := s.db.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	task := fromModel(*t)
	return &task, nil
}

// ListByUser returns all tasks of userID, newest first.
func (s *Store) ListByUser(ctx context.Context, userID uint) ([]Task, error) {
	rows, err := s.db.GetTasksByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return lo.Map(rows, func(t database.Task, _ int) Task {
		return fromModel(t)
	}), nil
}

// Board returns the tasks of userID grouped by status.
func (s *Store) Board(ctx context.Context, userID uint) (*Board, error) {
	all, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byStatus := func(status Status) []Task {
		bucket := lo.Filter(all, func(t Task, _ int) bool {
			return t.Status == status
		})
		SortByDueDate(bucket)
		return bucket
	}

	return &Board{
		Upcoming:  byStatus(StatusUpcoming),
		InProcess: byStatus(StatusInProcess),
		Completed: byStatus(StatusCompleted),
	}, nil
}

// GetByID returns the task if it exists and belongs to userID.
func (s *Store) GetByID(ctx context.Context, taskID, userID uint) (*Task, error) {
	t, err := s.db.GetTaskByID(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	task := fromModel(*t)
	return &task, nil
}

// Update overwrites content, category, due date and status of a task owned by userID.
// Input is validated before anything is written.
func (s *Store) Update(ctx context.Context, taskID, userID uint, content, category string, dueDate *time.Time, status Status) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}

	ok, err := s.db.UpdateTask(ctx, &database.Task{
		ID:       taskID,
		UserID:   userID,
		Content:  content,
		Category: strings.TrimSpace(category),
		DueDate:  database.NullTimeFromPtr(dueDate),
		Status:   status,
	})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task owned by userID.
// It reports false without an error when nothing matched.
func (s *Store) Delete(ctx context.Context, taskID, userID uint) (bool, error) {
	ok, err := s.db.DeleteTask(ctx, taskID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return ok, nil
}

// DeleteAllForUser removes every task of userID and returns how many were removed.
func (s *Store) DeleteAllForUser(ctx context.Context, userID uint) (int64, error) {
	n, err := s.db.DeleteTasksByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	return n, nil
}

// SearchExact returns the tasks of userID whose content equals query, ignoring case.
// Substrings do not match.
func (s *Store) SearchExact(ctx context.Context, userID uint, query string) ([]Task, error) {
	fold := cases.Fold()
	query = fold.String(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	rows, err := s.db.GetTasksByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}

	// SQL LOWER() only folds ASCII in SQLite, so the comparison happens here.
	matches := lo.Filter(rows, func(t database.Task, _ int) bool {
		return fold.String(t.Content) == query
	})
	return lo.Map(matches, func(t database.Task, _ int) Task {
		return fromModel(t)
	}), nil
}

// SortByDueDate sorts tasks ascending by due date in place.
// Tasks without a due date go last, equal keys keep their order.
func SortByDueDate(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

// Statuses returns every status in board order.
func Statuses() []Status {
	return append([]Status(nil), database.TaskStatuses...)
}

// StatusLabel returns the human readable name of a status.
func StatusLabel(s Status) string {
	switch s {
	case StatusUpcoming:
		return "Upcoming"
	case StatusInProcess:
		return "In Process"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// ParseStatus converts a form value into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.TrimSpace(s))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func fromModel(t database.Task) Task {
	return Task{
		ID:          t.ID,
		UserID:      t.UserID,
		Content:     t.Content,
		Category:    t.Category,
		CreatedDate: t.CreatedDate.Ptr(),
		DueDate:     t.DueDate.Ptr(),
		Status:      t.Status,
	}
}
