package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var generateSessionKeyCmd = &cobra.Command{
	Use:   "generate-session-key",
	Short: "Generate a random session key",
	Long: `Generate a random key for signing session cookies.

Add the generated key to your configuration file as session_key.`,
	RunE: generateSessionKey,
}

func init() {
	rootCmd.AddCommand(generateSessionKeyCmd)
}

func generateSessionKey(cmd *cobra.Command, args []string) error {
	key := make([]byte, 64)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate session key: %w", err)
	}

	fmt.Println("Add this to your configuration file:")
	fmt.Println()
	fmt.Printf("session_key: \"%s\"\n", hex.EncodeToString(key))
	fmt.Println()
	fmt.Println("Note: Keep the key secret. Changing it logs out every user.")
	return nil
}
