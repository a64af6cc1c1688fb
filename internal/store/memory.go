package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/repliq-app/repliq/internal/models"
)

// Memory is a mutex-guarded map store. It backs development mode and the
// test suite; the conditional updates are enforced under the write lock.
type Memory struct {
	mu        sync.RWMutex
	books     map[string]models.Book
	requests  map[string]models.Request
	library   map[string]models.LibraryEntry
	byRequest map[string]string // requestID -> library entry ID
	allowlist *models.Allowlist
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		books:     make(map[string]models.Book),
		requests:  make(map[string]models.Request),
		library:   make(map[string]models.LibraryEntry),
		byRequest: make(map[string]string),
	}
}

func (m *Memory) CreateBook(_ context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = *book
	return nil
}

func (m *Memory) GetBook(_ context.Context, id string) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &book, nil
}

func (m *Memory) ListBooks(_ context.Context) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	books := make([]models.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (m *Memory) CreateRequest(_ context.Context, req *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = *req
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*models.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &req, nil
}

func (m *Memory) ListRequestsByUser(_ context.Context, userID string) ([]models.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequests(func(r models.Request) bool { return r.UserID == userID }), nil
}

func (m *Memory) ListRequestsByStatus(_ context.Context, status models.Status) ([]models.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequests(func(r models.Request) bool { return r.Status == status }), nil
}

func (m *Memory) ListResolvedRequests(_ context.Context) ([]models.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequests(func(r models.Request) bool { return r.Status != models.StatusPending }), nil
}

// filterRequests is called with the lock held. Results are newest first.
func (m *Memory) filterRequests(keep func(models.Request) bool) []models.Request {
	var out []models.Request
	for _, r := range m.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) SetMatchedBook(_ context.Context, requestID string, match models.MatchedBook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	if req.Status.Terminal() {
		return ErrNotPending
	}
	req.MatchedBook = &match
	m.requests[requestID] = req
	return nil
}

func (m *Memory) TransitionRequest(_ context.Context, requestID string, to models.Status, adminEmail string, at time.Time) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Status != models.StatusPending {
		return nil, ErrNotPending
	}
	req.Status = to
	req.UpdatedAt = &at
	req.AdminEmail = adminEmail
	m.requests[requestID] = req
	return &req, nil
}

func (m *Memory) GrantLibraryEntry(_ context.Context, entry *models.LibraryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byRequest[entry.RequestID]; exists {
		return nil
	}
	m.library[entry.ID] = *entry
	m.byRequest[entry.RequestID] = entry.ID
	return nil
}

func (m *Memory) HasLibraryGrant(_ context.Context, requestID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byRequest[requestID]
	return ok, nil
}

func (m *Memory) ListLibraryByUser(_ context.Context, userID string) ([]models.LibraryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.LibraryEntry
	for _, e := range m.library {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (m *Memory) GetAllowlist(_ context.Context) (models.Allowlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.allowlist == nil {
		return models.Allowlist{}, ErrNotFound
	}
	return *m.allowlist, nil
}

func (m *Memory) InitAllowlist(_ context.Context, list models.Allowlist) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allowlist != nil {
		return false, nil
	}
	m.allowlist = &list
	return true, nil
}
