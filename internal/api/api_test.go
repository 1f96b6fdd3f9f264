package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/taskbox/internal/cache"
	"github.com/jon4hz/taskbox/internal/config"
	"github.com/jon4hz/taskbox/internal/database"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type APITestSuite struct {
	suite.Suite
	db     *database.Client
	srv    *httptest.Server
	client *http.Client
}

func testConfig(dbPath string) *config.Config {
	return &config.Config{
		Listen:        "127.0.0.1:0",
		SessionKey:    "test-secret",
		SessionMaxAge: 3600,
		Gzip:          true,
		Database:      &config.DatabaseConfig{Driver: config.DatabaseDriverSQLite, Path: dbPath},
		Auth: &config.AuthConfig{
			Local: &config.LocalAuthConfig{Enabled: true, AllowSignup: true, BcryptCost: bcrypt.MinCost},
		},
		Cache: &config.CacheConfig{Type: config.CacheTypeMemory, TTL: time.Minute},
	}
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(filepath.Join(s.T().TempDir(), "taskbox.db"))
	db, err := database.New(cfg.Database)
	s.Require().NoError(err)
	s.db = db

	appCache, err := cache.NewAppCache(cfg.Cache)
	s.Require().NoError(err)

	server, err := New(context.Background(), cfg, db, appCache)
	s.Require().NoError(err)

	s.srv = httptest.NewServer(server.Handler())
	s.client = s.newClient()
}

func (s *APITestSuite) TearDownTest() {
	s.srv.Close()
	s.NoError(s.db.Close())
}

func (s *APITestSuite) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &http.Client{Jar: jar}
}

// do performs a request and returns the final response after redirects.
func (s *APITestSuite) do(client *http.Client, method, path string, form url.Values) (*http.Response, string) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, s.srv.URL+path, body)
	s.Require().NoError(err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, string(data)
}

func (s *APITestSuite) get(path string) (*http.Response, string) {
	return s.do(s.client, http.MethodGet, path, nil)
}

func (s *APITestSuite) post(path string, form url.Values) (*http.Response, string) {
	return s.do(s.client, http.MethodPost, path, form)
}

func (s *APITestSuite) signupAndLogin(client *http.Client, username string) {
	_, body := s.do(client, http.MethodPost, "/auth", url.Values{"action": {"signup"}, "username": {username}, "password": {"pw"}})
	s.Require().Contains(body, "Signup successful! Please log in.")

	resp, body := s.do(client, http.MethodPost, "/auth", url.Values{"action": {"login"}, "username": {username}, "password": {"pw"}})
	s.Require().Equal("/home", resp.Request.URL.Path)
	s.Require().Contains(body, "Logged in successfully.")
}

var editLink = regexp.MustCompile(`/edit_task/(\d+)`)

func (s *APITestSuite) firstTaskID(body string) string {
	m := editLink.FindStringSubmatch(body)
	s.Require().Len(m, 2, "no task link in page")
	return m[1]
}

func (s *APITestSuite) TestProtectedRoutesRequireLogin() {
	for _, path := range []string{"/", "/home", "/new_task", "/settings", "/search?query=x", "/edit_task/1"} {
		resp, body := s.get(path)
		s.Equal(http.StatusOK, resp.StatusCode, path)
		s.Equal("/auth", resp.Request.URL.Path, path)
		s.Equal("login", resp.Request.URL.Query().Get("action"), path)
		s.Contains(body, "You must be logged in to view this page.", path)
	}
}

func (s *APITestSuite) TestSignupLoginLogout() {
	s.signupAndLogin(s.client, "alice")

	resp, body := s.get("/")
	s.Equal("/home", resp.Request.URL.Path)
	s.Contains(body, "Upcoming")

	// logged in users skip the login form
	resp, _ = s.get("/auth?action=login")
	s.Equal("/home", resp.Request.URL.Path)

	resp, body = s.get("/logout")
	s.Equal("/auth", resp.Request.URL.Path)
	s.Contains(body, "You have been logged out.")

	resp, _ = s.get("/home")
	s.Equal("/auth", resp.Request.URL.Path)
}

func (s *APITestSuite) TestAuthFailures() {
	resp, body := s.post("/auth", url.Values{"action": {"login"}, "username": {""}, "password": {""}})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(body, "Username and password are required.")

	resp, body = s.post("/auth", url.Values{"action": {"login"}, "username": {"ghost"}, "password": {"pw"}})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Contains(body, "Invalid username or password.")

	s.signupAndLogin(s.newClient(), "alice")
	resp, body = s.post("/auth", url.Values{"action": {"signup"}, "username": {"alice"}, "password": {"other"}})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Contains(body, "Username already exists.")
}

func (s *APITestSuite) TestTaskLifecycle() {
	s.signupAndLogin(s.client, "alice")

	resp, body := s.post("/new_task", url.Values{"content": {"   "}, "category": {"x"}})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(body, "Task content cannot be empty.")

	resp, body = s.post("/new_task", url.Values{"content": {"Buy milk"}, "due_date": {"tomorrow"}})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(body, "Invalid date format. Please use the date picker.")
	s.Contains(body, "Buy milk")

	resp, body = s.post("/new_task", url.Values{"content": {"Buy milk"}, "category": {"Personal"}, "due_date": {"2030-01-02T15:04"}})
	s.Equal("/home", resp.Request.URL.Path)
	s.Contains(body, "New task created.")
	s.Contains(body, "Buy milk")
	s.Contains(body, "Personal")
	id := s.firstTaskID(body)

	_, body = s.get("/edit_task/" + id)
	s.Contains(body, `value="2030-01-02T15:04"`)

	resp, body = s.post("/edit_task/"+id, url.Values{"content": {"Buy milk"}, "status": {"done"}})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(body, "Invalid status.")

	resp, body = s.post("/edit_task/"+id, url.Values{"content": {"  "}, "status": {"completed"}})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(body, "Task content cannot be empty.")

	resp, body = s.post("/edit_task/"+id, url.Values{"content": {"Buy oat milk"}, "status": {"in_process"}})
	s.Equal("/home", resp.Request.URL.Path)
	s.Contains(body, "Task updated.")
	s.Contains(body, "Buy oat milk")

	_, body = s.get("/search?query=BUY+OAT+MILK")
	s.Contains(body, "Found 1 results for &#39;buy oat milk&#39;")

	_, body = s.get("/search?query=oat")
	s.Contains(body, "Found 0 results for &#39;oat&#39;")

	resp, _ = s.get("/search?query=+")
	s.Equal("/home", resp.Request.URL.Path)

	resp, body = s.post("/delete_task/"+id, url.Values{})
	s.Equal("/home", resp.Request.URL.Path)
	s.Contains(body, "Task deleted.")

	_, body = s.post("/delete_task/"+id, url.Values{})
	s.Contains(body, "Task not found or you don&#39;t have permission.")
}

func (s *APITestSuite) TestSearchFoldsNonASCII() {
	s.signupAndLogin(s.client, "alice")
	_, _ = s.post("/new_task", url.Values{"content": {"ÉCOLE"}})

	_, body := s.get("/search?query=" + url.QueryEscape("école"))
	s.Contains(body, "Found 1 results for &#39;école&#39;")
	s.Contains(body, "ÉCOLE")
}

func (s *APITestSuite) TestTasksAreIsolatedBetweenUsers() {
	s.signupAndLogin(s.client, "alice")
	_, body := s.post("/new_task", url.Values{"content": {"alice secret"}})
	id := s.firstTaskID(body)

	bob := s.newClient()
	s.signupAndLogin(bob, "bob")

	resp, body := s.do(bob, http.MethodGet, "/edit_task/"+id, nil)
	s.Equal("/home", resp.Request.URL.Path)
	s.Contains(body, "Task not found or you don&#39;t have permission.")
	s.NotContains(body, "alice secret")

	_, body = s.do(bob, http.MethodPost, "/edit_task/"+id, url.Values{"content": {"pwned"}, "status": {"completed"}})
	s.Contains(body, "Task not found or you don&#39;t have permission.")

	_, body = s.do(bob, http.MethodPost, "/delete_task/"+id, url.Values{})
	s.Contains(body, "Task not found or you don&#39;t have permission.")

	_, body = s.get("/home")
	s.Contains(body, "alice secret")
	s.NotContains(body, "pwned")
}

func (s *APITestSuite) TestSettingsDarkModeAndDeleteAccount() {
	s.signupAndLogin(s.client, "alice")
	_, _ = s.post("/new_task", url.Values{"content": {"one"}})

	_, body := s.get("/settings")
	s.NotContains(body, `<body class="dark">`)

	resp, body := s.post("/settings", url.Values{"action": {"toggle_dark_mode"}})
	s.Equal("/settings", resp.Request.URL.Path)
	s.Contains(body, "Settings updated.")
	s.Contains(body, `<body class="dark">`)

	_, body = s.post("/settings", url.Values{"action": {"toggle_dark_mode"}})
	s.NotContains(body, `<body class="dark">`)

	resp, body = s.post("/settings", url.Values{"action": {"delete_account"}})
	s.Equal("/auth", resp.Request.URL.Path)
	s.Contains(body, "Account deleted. We&#39;re sad to see you go.")

	count, err := s.db.CountUsers(context.Background())
	s.Require().NoError(err)
	s.Zero(count)
	stats, err := s.db.CountTasksByStatus(context.Background())
	s.Require().NoError(err)
	s.Zero(stats[database.TaskStatusUpcoming])

	resp, _ = s.get("/home")
	s.Equal("/auth", resp.Request.URL.Path)
}

func (s *APITestSuite) TestStaleSessionForDeletedUser() {
	s.signupAndLogin(s.client, "alice")

	user, err := s.db.GetUserByUsername(context.Background(), "alice")
	s.Require().NoError(err)
	s.Require().NoError(s.db.DeleteUser(context.Background(), user.ID))

	resp, body := s.get("/home")
	s.Equal("/auth", resp.Request.URL.Path)
	s.Contains(body, "You must be logged in to view this page.")
}

func (s *APITestSuite) TestHealthzAndStatic() {
	resp, body := s.get("/healthz")
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]any
	s.Require().NoError(json.Unmarshal([]byte(body), &health))
	s.Equal("ok", health["status"])
	s.Equal("ok", health["database"])
	s.Contains(health, "cache")

	resp, body = s.get("/static/style.css")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(body, "body.dark")

	resp, _ = s.get("/does-not-exist")
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
