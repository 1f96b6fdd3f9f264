package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Preferences are the per-user settings.
// They are persisted as typed columns with the pref_ prefix.
type Preferences struct {
	DarkMode bool `gorm:"not null;default:false" json:"dark_mode"`
}

// ErrUsernameTaken is returned when a single sign-on login would reuse the
// username of an account it is not linked to.
var ErrUsernameTaken = errors.New("username belongs to another account")

// User represents an account in the database.
// Users are hard deleted so a username becomes available again after account deletion.
type User struct {
	ID           uint `gorm:"primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Username     string      `gorm:"uniqueIndex;not null"`
	PasswordHash string      `gorm:"not null;default:''"`
	Email        string      `gorm:"not null;default:''"`
	// OIDCSubject is the sub claim of the identity provider account linked to this user.
	OIDCSubject  *string     `gorm:"column:oidc_subject;uniqueIndex"`
	Preferences  Preferences `gorm:"embedded;embeddedPrefix:pref_"`
	Tasks        []Task      `gorm:"constraint:OnDelete:CASCADE;"`
}

func (c *Client) CreateUser(ctx context.Context, user *User) error {
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Error("failed to create user", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// GetOrCreateSSOUser returns the account linked to the OIDC subject and creates a
// password-less one on first login. An account with the same username is adopted only
// if it has neither a password nor a linked subject, otherwise ErrUsernameTaken is returned.
// The stored email is refreshed when a non-empty one is passed.
func (c *Client) GetOrCreateSSOUser(ctx context.Context, subject, username, email string) (*User, error) {
	var user User
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("oidc_subject = ?", subject).First(&user).Error
		if err == nil {
			if email != "" && user.Email != email {
				user.Email = email
				return tx.Model(&user).Update("email", email).Error
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("username = ?", username).First(&user).Error
		switch {
		case err == nil:
			if user.PasswordHash != "" || user.OIDCSubject != nil {
				return ErrUsernameTaken
			}
			updates := map[string]any{"oidc_subject": subject}
			if email != "" {
				updates["email"] = email
				user.Email = email
			}
			user.OIDCSubject = &subject
			return tx.Model(&user).Updates(updates).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = User{Username: username, Email: email, OIDCSubject: &subject}
			if err := tx.Create(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrUsernameTaken
				}
				return err
			}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		if !errors.Is(err, ErrUsernameTaken) {
			log.Error("failed to get or create SSO user", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUserPreferences overwrites all preference columns of the user.
func (c *Client) UpdateUserPreferences(ctx context.Context, id uint, prefs Preferences) error {
	result := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(map[string]any{
		"pref_dark_mode": prefs.DarkMode,
	})
	if result.Error != nil {
		log.Error("failed to update user preferences", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ToggleUserDarkMode flips the dark mode flag with a single UPDATE statement
// and returns the preferences as stored afterwards.
func (c *Client) ToggleUserDarkMode(ctx context.Context, id uint) (Preferences, error) {
	var prefs Preferences
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&User{}).Where("id = ?", id).Update("pref_dark_mode", gorm.Expr("NOT pref_dark_mode"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var user User
		if err := tx.Select("pref_dark_mode").First(&user, id).Error; err != nil {
			return err
		}
		prefs = user.Preferences
		return nil
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to toggle dark mode", "error", err)
		}
		return Preferences{}, err
	}
	return prefs, nil
}

// DeleteUser permanently removes the user row.
func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&User{}, id)
	if result.Error != nil {
		log.Error("failed to delete user", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *Client) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	return count, nil
}
