package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/repliq-app/repliq/internal/models"
)

const maxReceiptSize = 10 * 1024 * 1024

// HandleRequests serves POST /api/requests (submit a receipt) and
// GET /api/requests (the caller's own request history, newest first).
func (h *Handler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		ident, ok := h.identify(w, r)
		if !ok {
			return
		}
		list, err := h.store.ListRequestsByUser(r.Context(), ident.UID)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		h.writeJSON(w, list)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identify(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		file, header, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read receipt image: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
	if err != nil {
		h.writeError(w, "Failed to read receipt contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(imageData) >= maxReceiptSize {
		h.writeError(w, "Receipt image too large (max 10MB)", http.StatusBadRequest)
		return
	}
	if len(imageData) == 0 {
		h.writeError(w, "Empty receipt image", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	// OCR runs on the request context: a client abandoning the upload
	// cancels extraction and no request record is created.
	req, err := h.requests.Submit(r.Context(), ident, imageData, contentType)
	if err != nil {
		h.writeError(w, "Failed to process receipt: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, req)
}

// HandleRequestDetail routes /api/requests/{id}, /api/requests/pending,
// /api/requests/history and the admin actions
// /api/requests/{id}/{approve|reject|match}.
func (h *Handler) HandleRequestDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/requests/")

	switch rest {
	case "pending":
		h.handlePendingList(w, r)
		return
	case "history":
		h.handleHistoryList(w, r)
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		h.writeError(w, "Missing request id", http.StatusBadRequest)
		return
	}

	if action == "" {
		h.handleRequestGet(w, r, id)
		return
	}
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ident, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	switch action {
	case "approve":
		updated, err := h.requests.Approve(r.Context(), ident, id)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		h.writeJSON(w, updated)
	case "reject":
		updated, err := h.requests.Reject(r.Context(), ident, id)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		h.writeJSON(w, updated)
	case "match":
		var body struct {
			BookID string `json:"book_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if body.BookID == "" {
			h.writeError(w, "book_id is required", http.StatusBadRequest)
			return
		}
		updated, err := h.requests.Match(r.Context(), ident, id, body.BookID)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		h.writeJSON(w, updated)
	default:
		h.writeError(w, "Unknown action: "+action, http.StatusNotFound)
	}
}

// handleRequestGet returns one request. Clients may only read their own;
// admins may read any.
func (h *Handler) handleRequestGet(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ident, ok := h.identify(w, r)
	if !ok {
		return
	}
	req, err := h.store.GetRequest(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !ident.IsAdmin() && req.UserID != ident.UID {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, req)
}

func (h *Handler) handlePendingList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	list, err := h.store.ListRequestsByStatus(r.Context(), models.StatusPending)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, list)
}

func (h *Handler) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	list, err := h.store.ListResolvedRequests(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, list)
}
