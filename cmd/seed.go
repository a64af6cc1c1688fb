package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/repliq-app/repliq/internal/models"
)

type seedBook struct {
	Title      string `yaml:"title"`
	Author     string `yaml:"author"`
	Year       int    `yaml:"year"`
	Summary    string `yaml:"summary"`
	EbookURL   string `yaml:"ebook_url"`
	CoverImage string `yaml:"cover_image"`
}

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalog entries from a YAML file",
		Example: `  repliq seed --file books.yaml

  # books.yaml
  - title: Le Petit Prince
    author: Antoine de Saint-Exupéry
    year: 1943
    ebook_url: https://example.com/petit-prince.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			var books []seedBook
			if err := yaml.Unmarshal(data, &books); err != nil {
				return fmt.Errorf("failed to parse seed file: %w", err)
			}

			ctx := cmd.Context()
			st, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, b := range books {
				if b.Title == "" || b.Author == "" {
					return fmt.Errorf("seed entry missing title or author: %+v", b)
				}
				cover := b.CoverImage
				if cover == "" {
					cover = models.PlaceholderCover
				}
				book := &models.Book{
					ID:         uuid.NewString(),
					Title:      b.Title,
					Author:     b.Author,
					Year:       b.Year,
					Summary:    b.Summary,
					EbookURL:   b.EbookURL,
					CoverImage: cover,
					CreatedAt:  time.Now().UTC(),
				}
				if err := st.CreateBook(ctx, book); err != nil {
					return fmt.Errorf("failed to create book %q: %w", b.Title, err)
				}
				slog.Info("Book added", "title", book.Title, "author", book.Author)
			}

			slog.Info("Seed complete", "books", len(books))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "books.yaml", "YAML file of catalog entries")

	return cmd
}
