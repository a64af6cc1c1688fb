package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/repliq-app/repliq/internal/export"
)

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export resolved request history to Parquet",
		Long: `Dumps every resolved (approved or rejected) request to a Parquet
file for offline analysis. Receipt images and raw OCR text are excluded.`,
		Example: `  repliq export --out history.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			resolved, err := st.ListResolvedRequests(ctx)
			if err != nil {
				return err
			}
			rows, err := export.WriteHistory(out, resolved)
			if err != nil {
				return err
			}
			slog.Info("Export complete", "path", out, "rows", rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "history.parquet", "Output Parquet file")

	return cmd
}
