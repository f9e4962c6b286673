package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"railfleet-sim/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with RAILSIM_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("RAILSIM_JWT_SECRET")
			if secret == "" {
				return errors.New("RAILSIM_JWT_SECRET is required")
			}
			subject, _ := cmd.Flags().GetString("subject")
			roleName, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			role, ok := auth.NormalizeRole(roleName)
			if !ok {
				return fmt.Errorf("%w: %q", auth.ErrInvalidRole, roleName)
			}
			token, err := auth.IssueJWT([]byte(secret), subject, role, ttl, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("subject", "railsim-cli", "Token subject")
	cmd.Flags().String("role", string(auth.RoleViewer), "Role: viewer, operator or admin")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
