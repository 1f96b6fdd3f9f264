package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/taskbox/internal/api/auth"
	"github.com/jon4hz/taskbox/internal/api/models"
	"github.com/jon4hz/taskbox/internal/cache"
	"github.com/jon4hz/taskbox/internal/config"
	"github.com/jon4hz/taskbox/internal/database"
	"github.com/jon4hz/taskbox/internal/tasks"
	"github.com/jon4hz/taskbox/internal/users"
	"github.com/jon4hz/taskbox/web/templates/pages"
)

// Flash categories.
const (
	flashSuccess = "success"
	flashError   = "error"
)

type Handler struct {
	config *config.Config
	db     database.DB
	users  *users.Store
	tasks  *tasks.Store
	cache  *cache.AppCache
	now    func() time.Time
}

func New(cfg *config.Config, db database.DB, userStore *users.Store, taskStore *tasks.Store, appCache *cache.AppCache) *Handler {
	return &Handler{
		config: cfg,
		db:     db,
		users:  userStore,
		tasks:  taskStore,
		cache:  appCache,
		now:    time.Now,
	}
}

func addFlash(c *gin.Context, category, message string) {
	sessions.Default(c).AddFlash(message, category)
}

// popFlashes drains the pending flashes, errors first.
func popFlashes(session sessions.Session) []models.Flash {
	var flashes []models.Flash
	for _, category := range []string{flashError, flashSuccess} {
		for _, f := range session.Flashes(category) {
			if msg, ok := f.(string); ok {
				flashes = append(flashes, models.Flash{Category: category, Message: msg})
			}
		}
	}
	return flashes
}

// layout collects the shared page data and persists the session,
// so it must be called before anything is written to the response.
func (h *Handler) layout(c *gin.Context, title string) pages.Layout {
	session := sessions.Default(c)
	l := pages.Layout{
		Title:   title,
		Flashes: popFlashes(session),
	}
	if u, ok := c.Get(auth.ContextUserKey); ok {
		l.User, _ = u.(*models.User)
	}
	if err := session.Save(); err != nil {
		log.Error("Failed to save session", "error", err)
	}
	return l
}

func (h *Handler) render(c *gin.Context, status int, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		log.Error("Failed to render page", "path", c.FullPath(), "error", err)
	}
}

func (h *Handler) redirect(c *gin.Context, location string) {
	if err := sessions.Default(c).Save(); err != nil {
		log.Error("Failed to save session", "error", err)
	}
	c.Redirect(http.StatusFound, location)
}

func (h *Handler) serverError(c *gin.Context, err error) {
	log.Error("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	h.errorPage(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

func (h *Handler) errorPage(c *gin.Context, status int, message string) {
	h.render(c, status, pages.Error(pages.ErrorPage{
		Layout:  h.layout(c, http.StatusText(status)),
		Status:  status,
		Message: message,
	}))
}

// NotFound renders the 404 page for unknown routes.
func (h *Handler) NotFound(c *gin.Context) {
	h.errorPage(c, http.StatusNotFound, "The page you are looking for does not exist.")
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.ToUint(id)
}

// dueDateLayouts are accepted for the datetime-local field.
// Some browsers include seconds.
var dueDateLayouts = []string{
	models.DueDateLayout,
	"2006-01-02T15:04:05",
}

// parseDueDate parses the optional due date form field.
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var err error
	for _, layout := range dueDateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, err
}
