package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/taskbox/internal/api/models"
	"github.com/jon4hz/taskbox/internal/gravatar"
	"github.com/jon4hz/taskbox/internal/users"
)

// LoginRequiredMessage is flashed when an anonymous visitor opens a protected page.
const LoginRequiredMessage = "You must be logged in to view this page."

// UserResolver loads the account behind a session.
type UserResolver interface {
	GetByID(ctx context.Context, userID uint) (*users.User, error)
	GetPreferences(ctx context.Context, userID uint) users.Preferences
}

// RequireAuth resolves the acting user from the session cookie.
// Anonymous visitors and cookies of deleted accounts are sent to the login page.
func RequireAuth(resolver UserResolver, avatar *gravatar.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := SessionUserID(session)
		if !ok {
			denyAccess(c, session)
			return
		}

		ctx := c.Request.Context()
		user, err := resolver.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				log.Debug("Session refers to a deleted user", "user_id", userID)
				Logout(session)
				denyAccess(c, session)
				return
			}
			log.Error("Failed to resolve session user", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		prefs := resolver.GetPreferences(ctx, userID)
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextUserKey, models.ToUser(user, prefs, avatar))
		c.Next()
	}
}

func denyAccess(c *gin.Context, session sessions.Session) {
	session.AddFlash(LoginRequiredMessage, "error")
	if err := session.Save(); err != nil {
		log.Error("Failed to save session", "error", err)
	}
	c.Redirect(http.StatusFound, "/auth?action=login")
	c.Abort()
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(ContextUserKey).(*models.User)
}
