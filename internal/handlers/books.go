package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/repliq-app/repliq/internal/models"
)

// HandleBooks serves GET /api/books?q= (catalog listing with optional
// case-insensitive title/author search) and POST /api/books (admin-only
// catalog entry creation).
func (h *Handler) HandleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := h.identify(w, r); !ok {
			return
		}
		books, err := h.matcher.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		if books == nil {
			books = []models.Book{}
		}
		h.writeJSON(w, books)
	case http.MethodPost:
		h.handleCreateBook(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	var body struct {
		Title      string `json:"title"`
		Author     string `json:"author"`
		Year       int    `json:"year"`
		Summary    string `json:"summary"`
		EbookURL   string `json:"ebook_url"`
		CoverImage string `json:"cover_image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Title == "" || body.Author == "" || body.EbookURL == "" {
		h.writeError(w, "title, author and ebook_url are required", http.StatusBadRequest)
		return
	}
	if body.CoverImage == "" {
		body.CoverImage = models.PlaceholderCover
	}

	book := &models.Book{
		ID:         uuid.NewString(),
		Title:      body.Title,
		Author:     body.Author,
		Year:       body.Year,
		Summary:    body.Summary,
		EbookURL:   body.EbookURL,
		CoverImage: body.CoverImage,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.store.CreateBook(r.Context(), book); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, book)
}

// HandleCoverUpload accepts an admin-uploaded cover image and pushes it to
// the CDN, responding with the public URL to use as cover_image.
func (h *Handler) HandleCoverUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if h.uploader == nil {
		h.writeError(w, "Cover uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read cover file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
	if err != nil {
		h.writeError(w, "Failed to read cover contents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	url, err := h.uploader.Upload(r.Context(), header.Filename, data)
	if err != nil {
		h.writeError(w, "Failed to upload cover: "+err.Error(), http.StatusBadGateway)
		return
	}
	h.writeJSON(w, map[string]string{"url": url})
}
