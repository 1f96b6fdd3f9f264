package database

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// TaskStatus is the lifecycle tag of a task.
type TaskStatus string

const (
	TaskStatusUpcoming  TaskStatus = "upcoming"
	TaskStatusInProcess TaskStatus = "in_process"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskStatuses lists every valid status in board order.
var TaskStatuses = []TaskStatus{
	TaskStatusUpcoming,
	TaskStatusInProcess,
	TaskStatusCompleted,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusUpcoming, TaskStatusInProcess, TaskStatusCompleted:
		return true
	}
	return false
}

// Task represents a single to-do item owned by one user.
type Task struct {
	ID          uint       `gorm:"primarykey"`
	UserID      uint       `gorm:"index;not null"`
	Content     string     `gorm:"not null"`
	Category    string     `gorm:"not null;default:''"`
	CreatedDate NullTime   `gorm:"type:text;index"`
	DueDate     NullTime   `gorm:"type:text"`
	Status      TaskStatus `gorm:"not null;default:upcoming;index"`
}

func (c *Client) CreateTask(ctx context.Context, task *Task) error {
	if err := c.db.WithContext(ctx).Create(task).Error; err != nil {
		log.Error("failed to create task", "error", err)
		return err
	}
	return nil
}

// GetTasksByUserID returns all tasks of the user, newest first.
func (c *Client) GetTasksByUserID(ctx context.Context, userID uint) ([]Task, error) {
	var tasks []Task
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_date DESC").
		Order("id DESC").
		Find(&tasks).Error; err != nil {
		log.Error("failed to get tasks by user ID", "error", err)
		return nil, err
	}
	return tasks, nil
}

// GetTaskByID returns the task only if it belongs to userID.
func (c *Client) GetTaskByID(ctx context.Context, id, userID uint) (*Task, error) {
	var task Task
	if err := c.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get task by ID", "error", err)
		}
		return nil, err
	}
	return &task, nil
}

// UpdateTask overwrites the mutable fields of the task matching both task.ID and task.UserID.
// It reports whether a row matched.
func (c *Client) UpdateTask(ctx context.Context, task *Task) (bool, error) {
	result := c.db.WithContext(ctx).Model(&Task{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Updates(map[string]any{
			"content":  task.Content,
			"category": task.Category,
			"due_date": task.DueDate,
			"status":   task.Status,
		})
	if result.Error != nil {
		log.Error("failed to update task", "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteTask removes the task matching both id and userID.
// It reports whether a row was deleted.
func (c *Client) DeleteTask(ctx context.Context, id, userID uint) (bool, error) {
	result := c.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Task{})
	if result.Error != nil {
		log.Error("failed to delete task", "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (c *Client) DeleteTasksByUserID(ctx context.Context, userID uint) (int64, error) {
	result := c.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Task{})
	if result.Error != nil {
		log.Error("failed to delete tasks by user ID", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountTasksByStatus returns the number of tasks per status across all users.
func (c *Client) CountTasksByStatus(ctx context.Context) (map[TaskStatus]int64, error) {
	var rows []struct {
		Status TaskStatus
		Count  int64
	}
	if err := c.db.WithContext(ctx).Model(&Task{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		log.Error("failed to count tasks by status", "error", err)
		return nil, err
	}

	counts := make(map[TaskStatus]int64, len(TaskStatuses))
	for _, s := range TaskStatuses {
		counts[s] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
