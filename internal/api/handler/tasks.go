package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/taskbox/internal/api/auth"
	"github.com/jon4hz/taskbox/internal/api/models"
	"github.com/jon4hz/taskbox/internal/tasks"
	"github.com/jon4hz/taskbox/web/templates/pages"
)

const (
	msgTaskNotFound = "Task not found or you don't have permission."
	msgInvalidDate  = "Invalid date format. Please use the date picker."
	msgEmptyContent = "Task content cannot be empty."
)

// Index sends the visitor to the task board.
func (h *Handler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, "/home")
}

// Home shows the task board.
func (h *Handler) Home(c *gin.Context) {
	user := auth.CurrentUser(c)

	board, err := h.tasks.Board(c.Request.Context(), user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	h.render(c, http.StatusOK, pages.Home(pages.HomePage{
		Layout: h.layout(c, "Home"),
		Board:  models.ToBoard(board, h.now),
	}))
}

func (h *Handler) renderTaskForm(c *gin.Context, status int, taskID uint, form models.TaskForm) {
	title := "New task"
	if taskID != 0 {
		title = "Edit task"
	}
	h.render(c, status, pages.TaskForm(pages.TaskFormPage{
		Layout:   h.layout(c, title),
		TaskID:   taskID,
		Form:     form,
		Statuses: models.StatusOptions(form.Status),
	}))
}

// NewTaskForm shows the empty task form.
func (h *Handler) NewTaskForm(c *gin.Context) {
	h.renderTaskForm(c, http.StatusOK, 0, models.TaskForm{Status: tasks.StatusUpcoming})
}

// CreateTask handles the new task form.
func (h *Handler) CreateTask(c *gin.Context) {
	user := auth.CurrentUser(c)
	form := models.TaskForm{
		Content:  c.PostForm("content"),
		Category: c.PostForm("category"),
		DueDate:  c.PostForm("due_date"),
		Status:   tasks.StatusUpcoming,
	}

	if strings.TrimSpace(form.Content) == "" {
		addFlash(c, flashError, msgEmptyContent)
		h.renderTaskForm(c, http.StatusBadRequest, 0, form)
		return
	}

	due, err := parseDueDate(form.DueDate)
	if err != nil {
		addFlash(c, flashError, msgInvalidDate)
		h.renderTaskForm(c, http.StatusBadRequest, 0, form)
		return
	}

	if _, err := h.tasks.Create(c.Request.Context(), user.ID, form.Content, form.Category, due); err != nil {
		if errors.Is(err, tasks.ErrEmptyContent) {
			addFlash(c, flashError, msgEmptyContent)
			h.renderTaskForm(c, http.StatusBadRequest, 0, form)
			return
		}
		h.serverError(c, err)
		return
	}

	addFlash(c, flashSuccess, "New task created.")
	h.redirect(c, "/home")
}

// lookupTask loads the task from the id path parameter.
// It answers the request itself and returns nil when the task is not accessible.
func (h *Handler) lookupTask(c *gin.Context, userID uint) *tasks.Task {
	taskID, err := parseUintParam(c.Param("id"))
	if err != nil {
		addFlash(c, flashError, msgTaskNotFound)
		h.redirect(c, "/home")
		return nil
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID, userID)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			addFlash(c, flashError, msgTaskNotFound)
			h.redirect(c, "/home")
			return nil
		}
		h.serverError(c, err)
		return nil
	}
	return task
}

// EditTaskForm shows the form for an existing task.
func (h *Handler) EditTaskForm(c *gin.Context) {
	user := auth.CurrentUser(c)
	task := h.lookupTask(c, user.ID)
	if task == nil {
		return
	}
	h.renderTaskForm(c, http.StatusOK, task.ID, models.ToTaskForm(task))
}

// UpdateTask handles the edit task form.
func (h *Handler) UpdateTask(c *gin.Context) {
	user := auth.CurrentUser(c)
	task := h.lookupTask(c, user.ID)
	if task == nil {
		return
	}

	form := models.TaskForm{
		Content:  c.PostForm("content"),
		Category: c.PostForm("category"),
		DueDate:  c.PostForm("due_date"),
		Status:   tasks.Status(c.PostForm("status")),
	}

	due, err := parseDueDate(form.DueDate)
	if err != nil {
		addFlash(c, flashError, msgInvalidDate)
		h.renderTaskForm(c, http.StatusBadRequest, task.ID, form)
		return
	}

	err = h.tasks.Update(c.Request.Context(), task.ID, user.ID, form.Content, form.Category, due, form.Status)
	switch {
	case err == nil:
		addFlash(c, flashSuccess, "Task updated.")
		h.redirect(c, "/home")
	case errors.Is(err, tasks.ErrEmptyContent):
		addFlash(c, flashError, msgEmptyContent)
		h.renderTaskForm(c, http.StatusBadRequest, task.ID, form)
	case errors.Is(err, tasks.ErrInvalidStatus):
		addFlash(c, flashError, "Invalid status.")
		form.Status = task.Status
		h.renderTaskForm(c, http.StatusBadRequest, task.ID, form)
	case errors.Is(err, tasks.ErrNotFound):
		addFlash(c, flashError, msgTaskNotFound)
		h.redirect(c, "/home")
	default:
		h.serverError(c, err)
	}
}

// DeleteTask removes a task and goes back to the board.
func (h *Handler) DeleteTask(c *gin.Context) {
	user := auth.CurrentUser(c)

	taskID, err := parseUintParam(c.Param("id"))
	if err != nil {
		addFlash(c, flashError, msgTaskNotFound)
		h.redirect(c, "/home")
		return
	}

	deleted, err := h.tasks.Delete(c.Request.Context(), taskID, user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	if deleted {
		addFlash(c, flashSuccess, "Task deleted.")
	} else {
		addFlash(c, flashError, msgTaskNotFound)
	}
	h.redirect(c, "/home")
}

// Search shows the tasks whose content matches the query exactly.
func (h *Handler) Search(c *gin.Context) {
	user := auth.CurrentUser(c)

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	if query == "" {
		c.Redirect(http.StatusFound, "/home")
		return
	}

	results, err := h.tasks.SearchExact(c.Request.Context(), user.ID, query)
	if err != nil {
		h.serverError(c, err)
		return
	}

	addFlash(c, flashSuccess, fmt.Sprintf("Found %d results for '%s'", len(results), query))
	h.render(c, http.StatusOK, pages.Search(pages.SearchPage{
		Layout:  h.layout(c, "Search"),
		Query:   query,
		Results: models.ToTasks(results, h.now),
	}))
}
