package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repliq",
		Short: "Receipt-to-ebook request service",
		Long: `Repliq lets readers photograph a bookstore receipt to request ebook
access. OCR extracts a probable title, an administrator matches the request
to a catalog entry and approves or rejects it, and approved readers get the
ebook in their personal library.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newInitAdminCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
