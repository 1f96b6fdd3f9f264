package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/taskbox/internal/api/auth"
	"github.com/jon4hz/taskbox/internal/users"
	"github.com/jon4hz/taskbox/web/templates/pages"
)

const (
	actionLogin  = "login"
	actionSignup = "signup"
)

func (h *Handler) authAction(action string) string {
	if action == actionSignup && h.config.SignupEnabled() {
		return actionSignup
	}
	return actionLogin
}

func (h *Handler) renderAuth(c *gin.Context, status int, action, username string) {
	title := "Log in"
	if action == actionSignup {
		title = "Sign up"
	}

	var oidcName string
	if h.config.OIDCEnabled() {
		oidcName = h.config.Auth.OIDC.Name
	}

	h.render(c, status, pages.Auth(pages.AuthPage{
		Layout:        h.layout(c, title),
		Action:        action,
		Username:      username,
		LocalEnabled:  h.config.LocalAuthEnabled(),
		SignupEnabled: h.config.SignupEnabled(),
		OIDCEnabled:   h.config.OIDCEnabled(),
		OIDCName:      oidcName,
	}))
}

// AuthPage shows the login or signup form.
func (h *Handler) AuthPage(c *gin.Context) {
	if _, ok := auth.SessionUserID(sessions.Default(c)); ok {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	h.renderAuth(c, http.StatusOK, h.authAction(c.Query("action")), "")
}

// AuthSubmit handles the login and signup form.
func (h *Handler) AuthSubmit(c *gin.Context) {
	if !h.config.LocalAuthEnabled() {
		h.NotFound(c)
		return
	}

	action := c.PostForm("action")
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if action != actionLogin && action != actionSignup {
		h.redirect(c, "/auth?action=login")
		return
	}
	if action == actionSignup && !h.config.SignupEnabled() {
		addFlash(c, flashError, "Signup is disabled.")
		h.redirect(c, "/auth?action=login")
		return
	}

	if username == "" || password == "" {
		addFlash(c, flashError, "Username and password are required.")
		h.renderAuth(c, http.StatusBadRequest, action, username)
		return
	}

	if action == actionSignup {
		h.signup(c, username, password)
		return
	}
	h.login(c, username, password)
}

func (h *Handler) signup(c *gin.Context, username, password string) {
	_, err := h.users.Create(c.Request.Context(), username, password)
	switch {
	case err == nil:
		addFlash(c, flashSuccess, "Signup successful! Please log in.")
		h.redirect(c, "/auth?action=login")
	case errors.Is(err, users.ErrDuplicateUsername):
		addFlash(c, flashError, "Username already exists.")
		h.renderAuth(c, http.StatusConflict, actionSignup, username)
	case errors.Is(err, users.ErrMissingCredentials):
		addFlash(c, flashError, "Username and password are required.")
		h.renderAuth(c, http.StatusBadRequest, actionSignup, username)
	default:
		h.serverError(c, err)
	}
}

func (h *Handler) login(c *gin.Context, username, password string) {
	userID, err := h.users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			addFlash(c, flashError, "Invalid username or password.")
			h.renderAuth(c, http.StatusUnauthorized, actionLogin, username)
			return
		}
		h.serverError(c, err)
		return
	}

	session := sessions.Default(c)
	auth.Login(session, userID)
	addFlash(c, flashSuccess, "Logged in successfully.")
	log.Info("User logged in", "username", username, "user_id", userID)
	h.redirect(c, "/home")
}

// Logout clears the session.
func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	auth.Logout(session)
	addFlash(c, flashSuccess, "You have been logged out.")
	h.redirect(c, "/auth?action=login")
}
