package pages

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/a-h/templ"
	"github.com/jon4hz/taskbox/internal/api/models"
	"github.com/jon4hz/taskbox/web/templates/components"
)

//go:embed html/*.html
var htmlFS embed.FS

// Layout carries what every page needs for the shared chrome.
type Layout struct {
	Title   string
	User    *models.User // nil when nobody is logged in
	Flashes []models.Flash
}

// DarkMode reports whether the page is rendered in dark mode.
func (l Layout) DarkMode() bool {
	return l.User != nil && l.User.DarkMode
}

type AuthPage struct {
	Layout
	Action        string // "login" or "signup"
	Username      string
	LocalEnabled  bool
	SignupEnabled bool
	OIDCEnabled   bool
	OIDCName      string
}

type HomePage struct {
	Layout
	Board models.Board
}

// Column is one status bucket of the board.
type Column struct {
	Name  string
	Tasks []models.Task
}

// Columns returns the board buckets in display order.
func (p HomePage) Columns() []Column {
	return []Column{
		{Name: "Upcoming", Tasks: p.Board.Upcoming},
		{Name: "In Process", Tasks: p.Board.InProcess},
		{Name: "Completed", Tasks: p.Board.Completed},
	}
}

type TaskFormPage struct {
	Layout
	TaskID   uint // zero for a new task
	Form     models.TaskForm
	Statuses []models.StatusOption
}

// IsEdit reports whether the form edits an existing task.
func (p TaskFormPage) IsEdit() bool {
	return p.TaskID != 0
}

type SettingsPage struct {
	Layout
}

type SearchPage struct {
	Layout
	Query   string
	Results []models.Task
}

type ErrorPage struct {
	Layout
	Status  int
	Message string
}

var templates = mustParse("auth", "home", "task_form", "settings", "search", "error")

// mustParse parses every page together with the shared layout.
func mustParse(names ...string) map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.New("layout.html").
			Funcs(components.FuncMap()).
			ParseFS(htmlFS, "html/layout.html", fmt.Sprintf("html/%s.html", name))
		if err != nil {
			panic(fmt.Sprintf("failed to parse %s template: %v", name, err))
		}
		parsed[name] = t
	}
	return parsed
}

func page(name string, data any) templ.Component {
	return templ.FromGoHTML(templates[name], data)
}

// Auth renders the combined login and signup page.
func Auth(p AuthPage) templ.Component {
	return page("auth", p)
}

// Home renders the task board.
func Home(p HomePage) templ.Component {
	return page("home", p)
}

// TaskForm renders the new and edit task form.
func TaskForm(p TaskFormPage) templ.Component {
	return page("task_form", p)
}

// Settings renders the account settings page.
func Settings(p SettingsPage) templ.Component {
	return page("settings", p)
}

// Search renders the search results.
func Search(p SearchPage) templ.Component {
	return page("search", p)
}

// Error renders a generic error page.
func Error(p ErrorPage) templ.Component {
	return page("error", p)
}
