package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/taskbox/internal/api/auth"
	"github.com/jon4hz/taskbox/web/templates/pages"
)

// Settings shows the account settings.
func (h *Handler) Settings(c *gin.Context) {
	h.render(c, http.StatusOK, pages.Settings(pages.SettingsPage{
		Layout: h.layout(c, "Settings"),
	}))
}

// UpdateSettings toggles dark mode or deletes the account.
func (h *Handler) UpdateSettings(c *gin.Context) {
	user := auth.CurrentUser(c)
	ctx := c.Request.Context()

	switch c.PostForm("action") {
	case "toggle_dark_mode":
		if _, err := h.users.ToggleDarkMode(ctx, user.ID); err != nil {
			h.serverError(c, err)
			return
		}
		addFlash(c, flashSuccess, "Settings updated.")
		h.redirect(c, "/settings")

	case "delete_account":
		if err := h.users.DeleteAccount(ctx, user.ID); err != nil {
			h.serverError(c, err)
			return
		}
		auth.Logout(sessions.Default(c))
		addFlash(c, flashSuccess, "Account deleted. We're sad to see you go.")
		h.redirect(c, "/auth?action=login")

	default:
		h.redirect(c, "/settings")
	}
}
