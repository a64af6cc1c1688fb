package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/repliq-app/repliq/internal/models"
)

func pendingRequest(id, userID string, createdAt time.Time) *models.Request {
	return &models.Request{
		ID:        id,
		UserID:    userID,
		UserEmail: userID + "@example.com",
		Status:    models.StatusPending,
		CreatedAt: createdAt,
	}
}

func TestTransitionRequestHappensOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now()

	if err := m.CreateRequest(ctx, pendingRequest("r1", "u1", now)); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	req, err := m.TransitionRequest(ctx, "r1", models.StatusApproved, "admin@repliq.com", now)
	if err != nil {
		t.Fatalf("TransitionRequest() error = %v", err)
	}
	if req.Status != models.StatusApproved {
		t.Errorf("Expected approved, got %s", req.Status)
	}
	if req.AdminEmail != "admin@repliq.com" {
		t.Errorf("Expected resolving admin to be stamped, got %q", req.AdminEmail)
	}
	if req.UpdatedAt == nil {
		t.Error("Expected updatedAt to be set")
	}

	// Second transition of any kind must lose.
	if _, err := m.TransitionRequest(ctx, "r1", models.StatusRejected, "other@repliq.com", now); !errors.Is(err, ErrNotPending) {
		t.Errorf("Expected ErrNotPending, got %v", err)
	}
}

func TestTransitionRequestUnknownID(t *testing.T) {
	m := NewMemory()
	if _, err := m.TransitionRequest(context.Background(), "nope", models.StatusApproved, "a@b.c", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSetMatchedBookOnTerminalRequest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now()

	if err := m.CreateRequest(ctx, pendingRequest("r1", "u1", now)); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	match := models.MatchedBook{BookID: "b1", Title: "1984", Author: "George Orwell", Year: 1949}
	if err := m.SetMatchedBook(ctx, "r1", match); err != nil {
		t.Fatalf("SetMatchedBook() error = %v", err)
	}
	if _, err := m.TransitionRequest(ctx, "r1", models.StatusRejected, "admin@repliq.com", now); err != nil {
		t.Fatalf("TransitionRequest() error = %v", err)
	}
	if err := m.SetMatchedBook(ctx, "r1", match); !errors.Is(err, ErrNotPending) {
		t.Errorf("Expected ErrNotPending, got %v", err)
	}
}

func TestGrantLibraryEntryIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	entry := &models.LibraryEntry{ID: "l1", UserID: "u1", RequestID: "r1", Title: "1984", AddedAt: time.Now()}
	if err := m.GrantLibraryEntry(ctx, entry); err != nil {
		t.Fatalf("GrantLibraryEntry() error = %v", err)
	}
	dup := &models.LibraryEntry{ID: "l2", UserID: "u1", RequestID: "r1", Title: "1984", AddedAt: time.Now()}
	if err := m.GrantLibraryEntry(ctx, dup); err != nil {
		t.Fatalf("GrantLibraryEntry() duplicate error = %v", err)
	}

	entries, err := m.ListLibraryByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListLibraryByUser() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected exactly one entry per request, got %d", len(entries))
	}
	if entries[0].ID != "l1" {
		t.Errorf("Expected first grant to win, got %s", entries[0].ID)
	}

	has, err := m.HasLibraryGrant(ctx, "r1")
	if err != nil || !has {
		t.Errorf("HasLibraryGrant() = %v, %v; want true, nil", has, err)
	}
}

func TestRequestListingsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		req := pendingRequest(id, "u1", base.Add(time.Duration(i)*time.Hour))
		if err := m.CreateRequest(ctx, req); err != nil {
			t.Fatalf("CreateRequest() error = %v", err)
		}
	}
	if err := m.CreateRequest(ctx, pendingRequest("other", "u2", base)); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if _, err := m.TransitionRequest(ctx, "r2", models.StatusRejected, "admin@repliq.com", base); err != nil {
		t.Fatalf("TransitionRequest() error = %v", err)
	}

	mine, err := m.ListRequestsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListRequestsByUser() error = %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("Expected 3 requests for u1, got %d", len(mine))
	}
	if mine[0].ID != "r3" || mine[2].ID != "r1" {
		t.Errorf("Expected newest-first ordering, got %s..%s", mine[0].ID, mine[2].ID)
	}

	pending, err := m.ListRequestsByStatus(ctx, models.StatusPending)
	if err != nil {
		t.Fatalf("ListRequestsByStatus() error = %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("Expected 3 pending requests, got %d", len(pending))
	}

	resolved, err := m.ListResolvedRequests(ctx)
	if err != nil {
		t.Fatalf("ListResolvedRequests() error = %v", err)
	}
	if len(resolved) != 1 || resolved[0].ID != "r2" {
		t.Errorf("Expected only r2 resolved, got %+v", resolved)
	}
}

func TestInitAllowlistOnlySeedsOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.GetAllowlist(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before init, got %v", err)
	}

	created, err := m.InitAllowlist(ctx, models.Allowlist{Emails: []string{"admin@repliq.com"}})
	if err != nil || !created {
		t.Fatalf("InitAllowlist() = %v, %v; want true, nil", created, err)
	}
	created, err = m.InitAllowlist(ctx, models.Allowlist{Emails: []string{"second@repliq.com"}})
	if err != nil || created {
		t.Fatalf("Second InitAllowlist() = %v, %v; want false, nil", created, err)
	}

	list, err := m.GetAllowlist(ctx)
	if err != nil {
		t.Fatalf("GetAllowlist() error = %v", err)
	}
	if !list.Contains("admin@repliq.com") || list.Contains("second@repliq.com") {
		t.Errorf("Allowlist should keep the first seed: %+v", list)
	}
}
