package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repliq-app/repliq/internal/models"
)

func newInitAdminCmd() *cobra.Command {
	var emails []string

	cmd := &cobra.Command{
		Use:   "init-admin",
		Short: "Bootstrap the administrator allowlist",
		Long: `Seeds the allowlist config document with the first administrator
emails. This is a one-time bootstrap: if the allowlist already exists the
command leaves it untouched and reports so.`,
		Example: `  repliq init-admin --email admin@repliq.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(emails) == 0 {
				return fmt.Errorf("at least one --email is required")
			}
			for _, e := range emails {
				if !strings.Contains(e, "@") {
					return fmt.Errorf("invalid email: %q", e)
				}
			}

			ctx := cmd.Context()
			st, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			created, err := st.InitAllowlist(ctx, models.Allowlist{Emails: emails})
			if err != nil {
				return err
			}
			if !created {
				slog.Info("Allowlist already exists, leaving it untouched")
				return nil
			}
			slog.Info("Allowlist initialized", "admins", len(emails))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&emails, "email", nil, "Administrator email (repeatable)")

	return cmd
}
