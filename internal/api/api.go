package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/taskbox/internal/api/auth"
	"github.com/jon4hz/taskbox/internal/api/handler"
	"github.com/jon4hz/taskbox/internal/cache"
	"github.com/jon4hz/taskbox/internal/config"
	"github.com/jon4hz/taskbox/internal/database"
	"github.com/jon4hz/taskbox/internal/static"
	"github.com/jon4hz/taskbox/internal/tasks"
	"github.com/jon4hz/taskbox/internal/users"
)

const sessionName = "taskbox_session"

type Server struct {
	cfg          *config.Config
	ginEngine    *gin.Engine
	db           database.DB
	cache        *cache.AppCache
	users        *users.Store
	tasks        *tasks.Store
	oidcProvider *auth.OIDCProvider
}

// New wires the stores, the session handling and all routes.
func New(ctx context.Context, cfg *config.Config, db database.DB, appCache *cache.AppCache) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	userStore := users.New(db,
		users.WithCache(appCache),
		users.WithBcryptCost(cfg.GetBcryptCost()),
	)

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		db:        db,
		cache:     appCache,
		users:     userStore,
		tasks:     tasks.New(db),
	}

	if cfg.OIDCEnabled() {
		var err error
		s.oidcProvider, err = auth.NewOIDCProvider(ctx, cfg.Auth.OIDC, userStore)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
		}
	}

	s.ginEngine.Use(gin.Recovery(), requestLogger())
	if cfg.Gzip {
		s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	s.setupSession()
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionName, store))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.cfg, s.db, s.users, s.tasks, s.cache)

	s.ginEngine.StaticFS("/static", static.FileSystem())
	s.ginEngine.GET("/healthz", h.Healthz)
	s.ginEngine.NoRoute(h.NotFound)

	s.ginEngine.GET("/auth", h.AuthPage)
	s.ginEngine.POST("/auth", h.AuthSubmit)
	s.ginEngine.GET("/logout", h.Logout)

	if s.oidcProvider != nil {
		s.ginEngine.GET("/oauth/login", s.oidcProvider.Login)
		s.ginEngine.GET("/oauth/callback", s.oidcProvider.Callback)
	}

	protected := s.ginEngine.Group("/")
	protected.Use(auth.RequireAuth(s.users, s.cfg.GravatarOptions()))

	protected.GET("/", h.Index)
	protected.GET("/home", h.Home)
	protected.GET("/new_task", h.NewTaskForm)
	protected.POST("/new_task", h.CreateTask)
	protected.GET("/edit_task/:id", h.EditTaskForm)
	protected.POST("/edit_task/:id", h.UpdateTask)
	protected.POST("/delete_task/:id", h.DeleteTask)
	protected.GET("/settings", h.Settings)
	protected.POST("/settings", h.UpdateSettings)
	protected.GET("/search", h.Search)
}

// Handler returns the http handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// HTTPServer returns an http.Server listening on the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
