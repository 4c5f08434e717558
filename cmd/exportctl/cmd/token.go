package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rrens/nlsql/internal/security"
)

var (
	tokenSubject string
	tokenIssuer  string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an export-scoped JWT",
	Long: `Token signs a JWT carrying the export scope with the secret in JWT_SECRET.
The issuer must match auth.issuer on the server.

Example:
  JWT_SECRET=... exportctl token --subject reporting --ttl 24h`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "exportctl", "Token subject")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "nlsql", "Token issuer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	manager := security.NewJWTManager(secret, tokenIssuer, tokenTTL)
	signed, err := manager.GenerateToken(tokenSubject, []string{security.ScopeExport})
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
