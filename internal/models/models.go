package models

import "time"

// Status is the lifecycle state of a Request. A request starts pending and
// transitions exactly once to approved or rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// PlaceholderCover is used when a book is created without a cover image.
const PlaceholderCover = "https://via.placeholder.com/200x300?text=Livre"

// Book is a catalog entry. Books are never mutated once a library entry
// references them; library entries snapshot the fields they need anyway.
type Book struct {
	ID         string    `json:"id" bson:"_id"`
	Title      string    `json:"title" bson:"title"`
	Author     string    `json:"author" bson:"author"`
	Year       int       `json:"year" bson:"year"`
	Summary    string    `json:"summary,omitempty" bson:"summary,omitempty"`
	EbookURL   string    `json:"ebook_url" bson:"ebookUrl"`
	CoverImage string    `json:"cover_image" bson:"coverImage"`
	CreatedAt  time.Time `json:"created_at" bson:"createdAt"`
}

// MatchedBook is the denormalized subset of a Book copied onto a Request
// once a catalog match is found, either by the automatic sweep or by an
// admin override.
type MatchedBook struct {
	BookID string `json:"book_id" bson:"bookId"`
	Title  string `json:"title" bson:"title"`
	Author string `json:"author" bson:"author"`
	Year   int    `json:"year" bson:"year"`
}

// Request is one submitted receipt awaiting resolution. The receipt image
// is embedded inline as a base64 data URL, matching what clients upload.
type Request struct {
	ID            string       `json:"id" bson:"_id"`
	UserID        string       `json:"user_id" bson:"userId"`
	UserEmail     string       `json:"user_email" bson:"userEmail"`
	TicketImage   string       `json:"ticket_image" bson:"ticketImageBase64"`
	ExtractedText string       `json:"extracted_text" bson:"extractedText"`
	DetectedTitle string       `json:"detected_title,omitempty" bson:"detectedTitle,omitempty"`
	Status        Status       `json:"status" bson:"status"`
	MatchedBook   *MatchedBook `json:"matched_book,omitempty" bson:"matchedBook,omitempty"`
	CreatedAt     time.Time    `json:"created_at" bson:"createdAt"`
	UpdatedAt     *time.Time   `json:"updated_at,omitempty" bson:"updatedAt,omitempty"`
	AdminEmail    string       `json:"admin_email,omitempty" bson:"adminEmail,omitempty"`
}

// LibraryEntry is a user's permanent grant of access to an ebook. It is a
// full snapshot of the matched book at approval time plus provenance, and
// is never mutated after creation.
type LibraryEntry struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"user_id" bson:"userId"`
	BookID     string    `json:"book_id" bson:"bookId"`
	Title      string    `json:"title" bson:"title"`
	Author     string    `json:"author" bson:"author"`
	Year       int       `json:"year" bson:"year"`
	Summary    string    `json:"summary,omitempty" bson:"summary,omitempty"`
	EbookURL   string    `json:"ebook_url" bson:"ebookUrl"`
	CoverImage string    `json:"cover_image" bson:"coverImage"`
	RequestID  string    `json:"request_id" bson:"requestId"`
	AddedAt    time.Time `json:"added_at" bson:"addedAt"`
}

// Allowlist is the config document holding administrator email addresses.
type Allowlist struct {
	Emails []string `json:"emails" bson:"emails"`
}

// Contains reports whether email confers administrator capability.
func (a Allowlist) Contains(email string) bool {
	for _, e := range a.Emails {
		if e == email {
			return true
		}
	}
	return false
}
