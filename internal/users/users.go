package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/taskbox/internal/cache"
	"github.com/jon4hz/taskbox/internal/database"
	"github.com/jon4hz/taskbox/internal/tasks"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateUsername is returned when signing up with a taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrUserNotFound is returned when no user has the given id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when a single sign-on identity claims the username
	// of an account it is not linked to.
	ErrUsernameTaken = errors.New("username is taken by another account")
)

// Preferences are the per-user settings.
type Preferences = database.Preferences

// DefaultPreferences returns the preferences of a freshly created account.
func DefaultPreferences() Preferences {
	return Preferences{DarkMode: false}
}

// User is the public view of an account. It never carries the password hash.
type User struct {
	ID          uint
	Username    string
	Email       string
	Preferences Preferences
}

// Store manages accounts and their preferences.
type Store struct {
	db         database.DB
	prefsCache *cache.PrefixedCache[Preferences]
	bcryptCost int
}

// Option configures a Store.
type Option func(*Store)

// WithCache caches preferences lookups in c.
func WithCache(c *cache.AppCache) Option {
	return func(s *Store) {
		if c != nil {
			s.prefsCache = c.Preferences
		}
	}
}

// WithBcryptCost sets the work factor for new password hashes.
func WithBcryptCost(cost int) Option {
	return func(s *Store) {
		if cost != 0 {
			s.bcryptCost = cost
		}
	}
}

// New creates a user store on top of db.
func New(db database.DB, opts ...Option) *Store {
	s := &Store{
		db:         db,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create signs up a new account with default preferences.
func (s *Store) Create(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		Username:     username,
		PasswordHash: string(hash),
		Preferences:  DefaultPreferences(),
	}

	err = s.db.Transaction(ctx, func(tx database.DB) error {
		if _, err := tx.GetUserByUsername(ctx, username); err == nil {
			return ErrDuplicateUsername
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("Created user", "username", username, "id", user.ID)
	return toUser(user), nil
}

// Authenticate returns the id of the user if the password matches.
// Unknown usernames and wrong passwords are indistinguishable.
func (s *Store) Authenticate(ctx context.Context, username, password string) (uint, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, ErrInvalidCredentials
	}

	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}

	// accounts provisioned by single sign-on have no password
	if user.PasswordHash == "" {
		return 0, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return user.ID, nil
}

// GetByID returns the account with the given id.
func (s *Store) GetByID(ctx context.Context, userID uint) (*User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUser(user), nil
}

// GetPreferences returns the preferences of userID.
// It never fails: missing users and lookup errors yield the defaults.
func (s *Store) GetPreferences(ctx context.Context, userID uint) Preferences {
	if s.prefsCache != nil {
		if prefs, err := s.prefsCache.Get(ctx, userID); err == nil {
			return prefs
		}
	}

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("failed to load preferences, using defaults", "user_id", userID, "error", err)
		}
		return DefaultPreferences()
	}

	s.cachePreferences(ctx, userID, user.Preferences)
	return user.Preferences
}

// SetPreferences overwrites all preferences of userID.
func (s *Store) SetPreferences(ctx context.Context, userID uint, prefs Preferences) error {
	if err := s.db.UpdateUserPreferences(ctx, userID, prefs); err != nil {
		s.forgetPreferences(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	s.cachePreferences(ctx, userID, prefs)
	return nil
}

// ToggleDarkMode flips the dark mode flag atomically and returns the new preferences.
func (s *Store) ToggleDarkMode(ctx context.Context, userID uint) (Preferences, error) {
	prefs, err := s.db.ToggleUserDarkMode(ctx, userID)
	if err != nil {
		s.forgetPreferences(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Preferences{}, ErrUserNotFound
		}
		return Preferences{}, fmt.Errorf("failed to toggle dark mode: %w", err)
	}
	s.cachePreferences(ctx, userID, prefs)
	return prefs, nil
}

// Delete removes the user row only. Tasks must be deleted first.
func (s *Store) Delete(ctx context.Context, userID uint) error {
	return s.deleteUser(ctx, s.db, userID)
}

// DeleteAccount removes all tasks of the user and then the user, in one transaction.
func (s *Store) DeleteAccount(ctx context.Context, userID uint) error {
	err := s.db.Transaction(ctx, func(tx database.DB) error {
		n, err := tasks.New(tx).DeleteAllForUser(ctx, userID)
		if err != nil {
			return err
		}
		log.Debug("Deleted tasks of user", "user_id", userID, "count", n)
		return s.deleteUser(ctx, tx, userID)
	})
	if err != nil {
		return err
	}

	log.Info("Deleted account", "user_id", userID)
	return nil
}

func (s *Store) deleteUser(ctx context.Context, db database.UserDB, userID uint) error {
	defer s.forgetPreferences(ctx, userID)

	if err := db.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// LoginWithSSO returns the id of the account linked to the identity provider subject,
// creating a password-less account on first login. The username defaults to the subject.
// It fails with ErrUsernameTaken when the username belongs to an account that was not
// provisioned for this subject, such as a local password account.
func (s *Store) LoginWithSSO(ctx context.Context, subject, username, email string) (uint, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return 0, ErrMissingCredentials
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = subject
	}

	user, err := s.db.GetOrCreateSSOUser(ctx, subject, username, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to get or create user: %w", err)
	}
	return user.ID, nil
}

func (s *Store) cachePreferences(ctx context.Context, userID uint, prefs Preferences) {
	if s.prefsCache == nil {
		return
	}
	if err := s.prefsCache.Set(ctx, userID, prefs); err != nil {
		log.Warn("failed to cache preferences", "user_id", userID, "error", err)
	}
}

func (s *Store) forgetPreferences(ctx context.Context, userID uint) {
	if s.prefsCache == nil {
		return
	}
	// a missing key is not an error worth reporting
	_ = s.prefsCache.Delete(ctx, userID)
}

func isDuplicate(err error) bool {
	if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func toUser(u *database.User) *User {
	return &User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Preferences: u.Preferences,
	}
}
