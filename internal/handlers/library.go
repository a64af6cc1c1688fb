package handlers

import (
	"net/http"

	"github.com/repliq-app/repliq/internal/models"
)

// HandleLibrary serves GET /api/library: the caller's own library
// entries, newest first. Entries belong exclusively to their user; there
// is no cross-user read.
func (h *Handler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ident, ok := h.identify(w, r)
	if !ok {
		return
	}
	entries, err := h.store.ListLibraryByUser(r.Context(), ident.UID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []models.LibraryEntry{}
	}
	h.writeJSON(w, entries)
}
