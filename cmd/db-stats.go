package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/taskbox/internal/config"
	"github.com/jon4hz/taskbox/internal/database"
	"github.com/jon4hz/taskbox/internal/tasks"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display the number of users and the number of tasks per status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		users, err := db.CountUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		counts, err := db.CountTasksByStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count tasks: %w", err)
		}

		var total int64
		for _, n := range counts {
			total += n
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Users: %s\n", humanize.Comma(users))
		fmt.Printf("Tasks: %s\n", humanize.Comma(total))
		for _, status := range tasks.Statuses() {
			fmt.Printf("  %s: %s\n", tasks.StatusLabel(status), humanize.Comma(counts[status]))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
