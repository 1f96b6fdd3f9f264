package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/taskbox/internal/cache"
	"github.com/jon4hz/taskbox/internal/config"
	"github.com/jon4hz/taskbox/internal/database"
	"github.com/jon4hz/taskbox/internal/users"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var userCmdFlags struct {
	Password string
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user account",
	Long: `Create a user account with a password.

The password is read from --password or the TASKBOX_PASSWORD environment variable.`,
	Example: `TASKBOX_PASSWORD=secret taskbox user create alice`,
	Args:    cobra.ExactArgs(1),
	RunE:    createUser,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user account and all of its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteUser,
}

func init() {
	userCreateCmd.Flags().StringVar(&userCmdFlags.Password, "password", "", "Password for the new account")

	userCmd.AddCommand(userCreateCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func openUserStore() (*users.Store, *database.Client, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	appCache, err := cache.NewAppCache(cfg.Cache)
	if err != nil {
		db.Close() //nolint:errcheck,gosec
		return nil, nil, fmt.Errorf("failed to create cache: %w", err)
	}

	// with a redis cache this drops the preferences a running server cached for the user
	return users.New(db,
		users.WithCache(appCache),
		users.WithBcryptCost(cfg.GetBcryptCost()),
	), db, nil
}

func createUser(cmd *cobra.Command, args []string) error {
	password := userCmdFlags.Password
	if password == "" {
		password = os.Getenv("TASKBOX_PASSWORD")
	}
	if password == "" {
		return errors.New("no password given, use --password or TASKBOX_PASSWORD")
	}

	store, db, err := openUserStore()
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	user, err := store.Create(cmd.Context(), args[0], password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("User created", "username", user.Username, "id", user.ID)
	return nil
}

func deleteUser(cmd *cobra.Command, args []string) error {
	store, db, err := openUserStore()
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	user, err := db.GetUserByUsername(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %q does not exist", args[0])
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err := store.DeleteAccount(cmd.Context(), user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("User deleted", "username", user.Username, "id", user.ID)
	return nil
}
