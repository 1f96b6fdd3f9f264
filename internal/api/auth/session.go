package auth

import (
	"github.com/ccoveille/go-safecast"
	"github.com/gin-contrib/sessions"
)

// Session keys.
const (
	SessionUserIDKey     = "user_id"
	sessionOAuthStateKey = "oauth_state"
	sessionPKCEKey       = "oauth_pkce_verifier"
)

// Context keys set by RequireAuth.
const (
	ContextUserIDKey = "user_id"
	ContextUserKey   = "user"
)

// SessionUserID returns the user id stored in the session.
func SessionUserID(session sessions.Session) (uint, bool) {
	switch v := session.Get(SessionUserIDKey).(type) {
	case uint:
		return v, v != 0
	case int:
		// cookies written by older builds stored a plain int
		id, err := safecast.ToUint(v)
		return id, err == nil && id != 0
	default:
		return 0, false
	}
}

// Login stores the user id in the session.
// The caller still has to save the session.
func Login(session sessions.Session, userID uint) {
	session.Set(SessionUserIDKey, userID)
}

// Logout removes everything from the session except pending flashes.
// The caller still has to save the session.
func Logout(session sessions.Session) {
	session.Delete(SessionUserIDKey)
	session.Delete(sessionOAuthStateKey)
	session.Delete(sessionPKCEKey)
}
