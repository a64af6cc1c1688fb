// Package store defines the document-store contract the service runs on,
// with an in-memory implementation for development and tests and a MongoDB
// implementation for deployments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/repliq-app/repliq/internal/models"
)

var (
	// ErrNotFound is returned for point lookups that match no document.
	ErrNotFound = errors.New("store: not found")
	// ErrNotPending is returned when a request-mutating operation finds the
	// request already in a terminal state. It is the precondition guard for
	// the one-transition-per-request invariant.
	ErrNotPending = errors.New("store: request is not pending")
)

// Store is the persistence contract. Implementations must enforce the
// status precondition of TransitionRequest and SetMatchedBook atomically,
// so concurrent administrators cannot both resolve the same request.
type Store interface {
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id string) (*models.Book, error)
	ListBooks(ctx context.Context) ([]models.Book, error)

	CreateRequest(ctx context.Context, req *models.Request) error
	GetRequest(ctx context.Context, id string) (*models.Request, error)
	// ListRequestsByUser returns the user's requests, newest first.
	ListRequestsByUser(ctx context.Context, userID string) ([]models.Request, error)
	// ListRequestsByStatus returns requests in the given state, newest first.
	ListRequestsByStatus(ctx context.Context, status models.Status) ([]models.Request, error)
	// ListResolvedRequests returns all non-pending requests, newest first.
	ListResolvedRequests(ctx context.Context) ([]models.Request, error)
	// SetMatchedBook writes the denormalized match onto a request. It fails
	// with ErrNotPending once the request reached a terminal state.
	SetMatchedBook(ctx context.Context, requestID string, match models.MatchedBook) error
	// TransitionRequest moves a pending request to a terminal status,
	// stamping updatedAt and the resolving admin. The pending check and the
	// write happen as one conditional update; the loser of a race gets
	// ErrNotPending. The updated request is returned.
	TransitionRequest(ctx context.Context, requestID string, to models.Status, adminEmail string, at time.Time) (*models.Request, error)

	// GrantLibraryEntry persists a library entry. Grants are idempotent per
	// originating request: a second grant for the same requestID is a no-op.
	GrantLibraryEntry(ctx context.Context, entry *models.LibraryEntry) error
	HasLibraryGrant(ctx context.Context, requestID string) (bool, error)
	ListLibraryByUser(ctx context.Context, userID string) ([]models.LibraryEntry, error)

	GetAllowlist(ctx context.Context) (models.Allowlist, error)
	// InitAllowlist seeds the allowlist config document if it does not
	// exist yet. It reports whether this call created it.
	InitAllowlist(ctx context.Context, list models.Allowlist) (bool, error)
}
