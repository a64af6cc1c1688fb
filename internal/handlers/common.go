// Package handlers is the HTTP layer. Handlers resolve the caller's
// identity, delegate to the lifecycle service or the store, and map
// domain errors onto status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/repliq-app/repliq/internal/auth"
	"github.com/repliq-app/repliq/internal/cdn"
	"github.com/repliq-app/repliq/internal/matching"
	"github.com/repliq-app/repliq/internal/requests"
	"github.com/repliq-app/repliq/internal/store"
)

type Handler struct {
	store    store.Store
	auth     *auth.Authorizer
	requests *requests.Service
	matcher  *matching.Matcher
	uploader *cdn.Uploader
}

// New wires the HTTP layer. uploader may be nil when no CDN is configured;
// cover uploads then respond 503.
func New(st store.Store, authorizer *auth.Authorizer, reqSvc *requests.Service, matcher *matching.Matcher, uploader *cdn.Uploader) *Handler {
	return &Handler{
		store:    st,
		auth:     authorizer,
		requests: reqSvc,
		matcher:  matcher,
		uploader: uploader,
	}
}

// Routes builds the API mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/requests", h.HandleRequests)
	mux.HandleFunc("/api/requests/", h.HandleRequestDetail)
	mux.HandleFunc("/api/books", h.HandleBooks)
	mux.HandleFunc("/api/covers", h.HandleCoverUpload)
	mux.HandleFunc("/api/library", h.HandleLibrary)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeDomainError maps lifecycle errors onto distinguishable statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, store.ErrNotPending):
		h.writeError(w, "Request already resolved", http.StatusConflict)
	case errors.Is(err, requests.ErrNoMatchedBook):
		h.writeError(w, "Cannot approve a request without a matched book", http.StatusPreconditionFailed)
	case errors.Is(err, auth.ErrForbidden):
		h.writeError(w, "Administrator capability required", http.StatusForbidden)
	case errors.Is(err, auth.ErrUnauthenticated):
		h.writeError(w, "Invalid or missing credentials", http.StatusUnauthorized)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// identify resolves the bearer token to an identity, writing a 401 on
// failure.
func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header {
		h.writeError(w, "Missing bearer token", http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	ident, err := h.auth.Resolve(r.Context(), token)
	if err != nil {
		h.writeDomainError(w, err)
		return auth.Identity{}, false
	}
	return ident, true
}

// requireAdmin is identify plus the allowlist check.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	ident, ok := h.identify(w, r)
	if !ok {
		return auth.Identity{}, false
	}
	if !ident.IsAdmin() {
		h.writeError(w, "Administrator capability required", http.StatusForbidden)
		return auth.Identity{}, false
	}
	return ident, true
}
