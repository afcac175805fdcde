package cli

import (
	"fmt"
	"time"

	"brainbuzz/internal/config"
	"brainbuzz/internal/domain"
	transport "brainbuzz/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewTokenCmd mints a signed bearer token, handy for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret not configured")
			}
			auth := transport.NewAuthenticator(cfg.Auth.JWTSecret)
			ttl := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
			token, err := auth.IssueToken(userID, domain.Role(role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the token subject")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "student or instructor")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
