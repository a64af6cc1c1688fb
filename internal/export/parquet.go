// Package export writes resolved request history to Parquet for offline
// analysis of approval volumes and heuristic hit rates.
package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/repliq-app/repliq/internal/models"
)

// HistoryRecord is one resolved request, flattened. The receipt image and
// raw OCR text are deliberately left out of exports.
type HistoryRecord struct {
	RequestID     string `parquet:"request_id"`
	UserEmail     string `parquet:"user_email"`
	Status        string `parquet:"status"`
	DetectedTitle string `parquet:"detected_title,optional"`
	BookID        string `parquet:"book_id,optional"`
	BookTitle     string `parquet:"book_title,optional"`
	BookAuthor    string `parquet:"book_author,optional"`
	BookYear      int32  `parquet:"book_year,optional"`
	AdminEmail    string `parquet:"admin_email,optional"`
	CreatedAtMs   int64  `parquet:"created_at_ms"`
	ResolvedAtMs  int64  `parquet:"resolved_at_ms,optional"`
}

// FromRequest flattens a request into an export row.
func FromRequest(req models.Request) HistoryRecord {
	rec := HistoryRecord{
		RequestID:     req.ID,
		UserEmail:     req.UserEmail,
		Status:        string(req.Status),
		DetectedTitle: req.DetectedTitle,
		AdminEmail:    req.AdminEmail,
		CreatedAtMs:   req.CreatedAt.UnixMilli(),
	}
	if req.MatchedBook != nil {
		rec.BookID = req.MatchedBook.BookID
		rec.BookTitle = req.MatchedBook.Title
		rec.BookAuthor = req.MatchedBook.Author
		rec.BookYear = int32(req.MatchedBook.Year)
	}
	if req.UpdatedAt != nil {
		rec.ResolvedAtMs = req.UpdatedAt.UnixMilli()
	}
	return rec
}

// WriteHistory writes the requests to a Parquet file at path and returns
// the number of rows written.
func WriteHistory(path string, reqs []models.Request) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[HistoryRecord](file)
	records := make([]HistoryRecord, 0, len(reqs))
	for _, req := range reqs {
		records = append(records, FromRequest(req))
	}
	if len(records) > 0 {
		if _, err := writer.Write(records); err != nil {
			return 0, fmt.Errorf("failed to write export rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize export: %w", err)
	}
	return len(records), nil
}
