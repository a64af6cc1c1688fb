// Package matching resolves requests against the catalog, automatically
// from the detected receipt title or manually by admin choice.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/repliq-app/repliq/internal/models"
	"github.com/repliq-app/repliq/internal/store"
)

// maxSentinel is the upper bound suffix for the prefix range scan: any
// title starting with the detected prefix sorts below prefix+maxSentinel.
const maxSentinel = "\uf8ff"

// Matcher finds catalog entries for requests.
type Matcher struct {
	store store.Store
}

func New(st store.Store) *Matcher {
	return &Matcher{store: st}
}

// TitleMatchesPrefix reports whether the upper-cased book title falls in
// the range [upper(detected), upper(detected)+maxSentinel], i.e. the book
// title starts with the detected title modulo case.
func TitleMatchesPrefix(bookTitle, detected string) bool {
	lower := strings.ToUpper(detected)
	upper := lower + maxSentinel
	t := strings.ToUpper(bookTitle)
	return t >= lower && t <= upper
}

// MatchRequest attempts an automatic match for a single request. It is a
// no-op for requests without a detected title or with an existing match,
// which makes re-running it safe. It reports whether a match was written.
func (m *Matcher) MatchRequest(ctx context.Context, req *models.Request) (bool, error) {
	if req.DetectedTitle == "" || req.MatchedBook != nil {
		return false, nil
	}

	books, err := m.store.ListBooks(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to scan catalog: %w", err)
	}
	for _, book := range books {
		if !TitleMatchesPrefix(book.Title, req.DetectedTitle) {
			continue
		}
		match := models.MatchedBook{
			BookID: book.ID,
			Title:  book.Title,
			Author: book.Author,
			Year:   book.Year,
		}
		err := m.store.SetMatchedBook(ctx, req.ID, match)
		if errors.Is(err, store.ErrNotPending) {
			// Resolved while we were scanning; nothing to do.
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to record match: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// Sweep runs the automatic matcher over every titled-but-unmatched pending
// request and returns the number of matches written. The sweep is
// idempotent and safe to re-run on the next tick.
func (m *Matcher) Sweep(ctx context.Context) (int, error) {
	pending, err := m.store.ListRequestsByStatus(ctx, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending requests: %w", err)
	}

	matched := 0
	for i := range pending {
		req := &pending[i]
		ok, err := m.MatchRequest(ctx, req)
		if err != nil {
			slog.Error("Automatic match failed", "request_id", req.ID, "err", err)
			continue
		}
		if ok {
			slog.Info("Automatic match found", "request_id", req.ID, "detected_title", req.DetectedTitle)
			matched++
		}
	}
	return matched, nil
}

// Search returns catalog entries whose title or author contains term,
// case-insensitively. An empty term returns the whole catalog.
func (m *Matcher) Search(ctx context.Context, term string) ([]models.Book, error) {
	books, err := m.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	if term == "" {
		return books, nil
	}
	needle := strings.ToLower(term)
	var out []models.Book
	for _, book := range books {
		if strings.Contains(strings.ToLower(book.Title), needle) ||
			strings.Contains(strings.ToLower(book.Author), needle) {
			out = append(out, book)
		}
	}
	return out, nil
}
