// Package requests implements the request lifecycle: submission of a
// photographed receipt, the pending→approved/rejected transition and its
// library side effects.
package requests

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/repliq-app/repliq/internal/auth"
	"github.com/repliq-app/repliq/internal/models"
	"github.com/repliq-app/repliq/internal/ocr"
	"github.com/repliq-app/repliq/internal/receipt"
	"github.com/repliq-app/repliq/internal/store"
)

// ErrNoMatchedBook is returned when an approval is attempted before a
// catalog entry has been matched to the request.
var ErrNoMatchedBook = errors.New("requests: cannot approve without a matched book")

// Service owns all request writes. Reads (projections) go straight to the
// store from the handlers.
type Service struct {
	store store.Store
	ocr   ocr.Engine
}

func NewService(st store.Store, engine ocr.Engine) *Service {
	return &Service{store: st, ocr: engine}
}

// Submit runs OCR over the receipt image, applies the title heuristic and
// creates a pending request for the submitting user. An OCR failure aborts
// the submission without persisting anything; a missed title does not.
func (s *Service) Submit(ctx context.Context, ident auth.Identity, image []byte, contentType string) (*models.Request, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty receipt image")
	}

	text, err := s.ocr.ExtractText(ctx, image, ocr.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to extract receipt text: %w", err)
	}

	detected := receipt.DetectTitle(text)
	if contentType == "" {
		contentType = "image/jpeg"
	}

	req := &models.Request{
		ID:            uuid.NewString(),
		UserID:        ident.UID,
		UserEmail:     ident.Email,
		TicketImage:   "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image),
		ExtractedText: text,
		DetectedTitle: detected,
		Status:        models.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	slog.Info("Request submitted", "request_id", req.ID, "user", ident.Email, "detected_title", detected)
	return req, nil
}

// Approve transitions a pending request to approved and grants the
// submitter a library entry snapshotting the full matched book. The
// transition is claimed first with a conditional update, so at most one
// admin wins; the grant is idempotent per request and, should its write
// fail after the claim, ReconcileGrants repairs it on the next sweep.
func (s *Service) Approve(ctx context.Context, admin auth.Identity, requestID string) (*models.Request, error) {
	if !admin.IsAdmin() {
		return nil, auth.ErrForbidden
	}

	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, store.ErrNotPending
	}
	if req.MatchedBook == nil {
		return nil, ErrNoMatchedBook
	}

	updated, err := s.store.TransitionRequest(ctx, requestID, models.StatusApproved, admin.Email, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.grant(ctx, updated); err != nil {
		// The approval itself is durable; the missing grant is repaired by
		// the reconciliation sweep.
		slog.Error("Library grant deferred", "request_id", requestID, "err", err)
	} else {
		slog.Info("Request approved", "request_id", requestID, "admin", admin.Email, "user", updated.UserEmail)
	}
	return updated, nil
}

// Reject transitions a pending request to rejected. No library effect.
func (s *Service) Reject(ctx context.Context, admin auth.Identity, requestID string) (*models.Request, error) {
	if !admin.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	updated, err := s.store.TransitionRequest(ctx, requestID, models.StatusRejected, admin.Email, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	slog.Info("Request rejected", "request_id", requestID, "admin", admin.Email)
	return updated, nil
}

// Match records an explicit admin choice of catalog entry on a pending
// request, overwriting any earlier automatic or manual match.
func (s *Service) Match(ctx context.Context, admin auth.Identity, requestID, bookID string) (*models.Request, error) {
	if !admin.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	match := models.MatchedBook{
		BookID: book.ID,
		Title:  book.Title,
		Author: book.Author,
		Year:   book.Year,
	}
	if err := s.store.SetMatchedBook(ctx, requestID, match); err != nil {
		return nil, err
	}
	return s.store.GetRequest(ctx, requestID)
}

// grant snapshots the full current book record, not just the denormalized
// subset on the request, so the entry carries the ebook link, cover and
// summary.
func (s *Service) grant(ctx context.Context, req *models.Request) error {
	book, err := s.store.GetBook(ctx, req.MatchedBook.BookID)
	if err != nil {
		return fmt.Errorf("failed to fetch matched book: %w", err)
	}

	cover := book.CoverImage
	if cover == "" {
		cover = models.PlaceholderCover
	}
	entry := &models.LibraryEntry{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		BookID:     book.ID,
		Title:      book.Title,
		Author:     book.Author,
		Year:       book.Year,
		Summary:    book.Summary,
		EbookURL:   book.EbookURL,
		CoverImage: cover,
		RequestID:  req.ID,
		AddedAt:    time.Now().UTC(),
	}
	if err := s.store.GrantLibraryEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to grant library entry: %w", err)
	}
	return nil
}

// ReconcileGrants re-grants library entries for approved requests that
// lost theirs to a partial failure. Grants are idempotent per request, so
// the sweep is safe to run on every tick. It returns the number repaired.
func (s *Service) ReconcileGrants(ctx context.Context) (int, error) {
	approved, err := s.store.ListRequestsByStatus(ctx, models.StatusApproved)
	if err != nil {
		return 0, fmt.Errorf("failed to list approved requests: %w", err)
	}

	repaired := 0
	for i := range approved {
		req := &approved[i]
		if req.MatchedBook == nil {
			continue
		}
		has, err := s.store.HasLibraryGrant(ctx, req.ID)
		if err != nil {
			slog.Error("Grant check failed", "request_id", req.ID, "err", err)
			continue
		}
		if has {
			continue
		}
		if err := s.grant(ctx, req); err != nil {
			slog.Error("Grant repair failed", "request_id", req.ID, "err", err)
			continue
		}
		slog.Info("Repaired missing library grant", "request_id", req.ID, "user", req.UserEmail)
		repaired++
	}
	return repaired, nil
}
