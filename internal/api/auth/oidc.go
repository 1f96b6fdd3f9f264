package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jon4hz/taskbox/internal/config"
	"github.com/jon4hz/taskbox/internal/users"
	"golang.org/x/oauth2"
)

// SSOLinker maps an external identity to a local account id.
type SSOLinker interface {
	LoginWithSSO(ctx context.Context, subject, username, email string) (uint, error)
}

// OIDCProvider implements single sign-on with an OpenID Connect identity provider.
type OIDCProvider struct {
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
	cfg      *config.OIDCConfig
	users    SSOLinker
}

// NewOIDCProvider discovers the issuer and prepares the oauth2 client.
func NewOIDCProvider(ctx context.Context, cfg *config.OIDCConfig, users SSOLinker) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC issuer: %w", err)
	}

	return &OIDCProvider{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		cfg:   cfg,
		users: users,
	}, nil
}

// Login redirects to the identity provider.
func (p *OIDCProvider) Login(c *gin.Context) {
	session := sessions.Default(c)

	state := uuid.New().String()
	session.Set(sessionOAuthStateKey, state)

	var opts []oauth2.AuthCodeOption
	if p.cfg.UsePKCE {
		verifier := oauth2.GenerateVerifier()
		session.Set(sessionPKCEKey, verifier)
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}

	if err := session.Save(); err != nil {
		log.Error("Failed to save session", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Redirect(http.StatusFound, p.config.AuthCodeURL(state, opts...))
}

// Callback completes the code flow and logs the user in.
func (p *OIDCProvider) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	expected, _ := session.Get(sessionOAuthStateKey).(string)
	session.Delete(sessionOAuthStateKey)
	if expected == "" || c.Query("state") != expected {
		p.fail(c, session, errors.New("state mismatch"))
		return
	}

	code := c.Query("code")
	if code == "" {
		p.fail(c, session, errors.New("missing code"))
		return
	}

	var opts []oauth2.AuthCodeOption
	if verifier, ok := session.Get(sessionPKCEKey).(string); ok && verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	session.Delete(sessionPKCEKey)

	oauth2Token, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		p.fail(c, session, fmt.Errorf("code exchange failed: %w", err))
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		p.fail(c, session, errors.New("no id_token in token response"))
		return
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		p.fail(c, session, fmt.Errorf("failed to verify id token: %w", err))
		return
	}

	var claims struct {
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
		Sub               string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		p.fail(c, session, fmt.Errorf("failed to parse claims: %w", err))
		return
	}

	p.login(c, session, claims.Sub, claims.PreferredUsername, claims.Email)
}

// login links the verified identity to a local account and starts the session.
func (p *OIDCProvider) login(c *gin.Context, session sessions.Session, subject, username, email string) {
	userID, err := p.users.LoginWithSSO(c.Request.Context(), subject, username, email)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			if strings.TrimSpace(username) == "" {
				username = subject
			}
			log.Warn("OIDC login collides with an existing account", "subject", subject, "username", username)
			session.AddFlash(fmt.Sprintf("An account named '%s' already exists. Log in with your password.", username), "error")
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", "error", err)
			}
			c.Redirect(http.StatusFound, "/auth?action=login")
			return
		}
		p.fail(c, session, err)
		return
	}

	Login(session, userID)
	session.AddFlash("Logged in successfully.", "success")
	if err := session.Save(); err != nil {
		log.Error("Failed to save session", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	log.Info("User logged in via OIDC", "subject", subject, "user_id", userID)
	c.Redirect(http.StatusFound, "/home")
}

func (p *OIDCProvider) fail(c *gin.Context, session sessions.Session, err error) {
	log.Warn("OIDC login failed", "error", err)
	session.AddFlash(fmt.Sprintf("%s login failed.", p.cfg.Name), "error")
	if err := session.Save(); err != nil {
		log.Error("Failed to save session", "error", err)
	}
	c.Redirect(http.StatusFound, "/auth?action=login")
}
