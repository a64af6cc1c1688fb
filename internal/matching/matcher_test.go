package matching

import (
	"context"
	"testing"
	"time"

	"github.com/repliq-app/repliq/internal/models"
	"github.com/repliq-app/repliq/internal/store"
)

func TestTitleMatchesPrefix(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		detected string
		want     bool
	}{
		{"exact", "1984", "1984", true},
		{"case normalized", "Le Petit Prince", "LE PETIT", true},
		{"detected is prefix", "Dune Messiah", "dune", true},
		{"different title", "Brave New World", "1984", false},
		{"detected longer than title", "Dune", "Dune Messiah", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleMatchesPrefix(tt.title, tt.detected); got != tt.want {
				t.Errorf("TitleMatchesPrefix(%q, %q) = %v, want %v", tt.title, tt.detected, got, tt.want)
			}
		})
	}
}

func seedBook(t *testing.T, st store.Store, id, title, author string, year int) {
	t.Helper()
	err := st.CreateBook(context.Background(), &models.Book{
		ID: id, Title: title, Author: author, Year: year,
		EbookURL:   "https://example.com/" + id + ".pdf",
		CoverImage: models.PlaceholderCover,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateBook() error = %v", err)
	}
}

func TestSweepMatchesDetectedTitles(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedBook(t, st, "b1", "1984", "George Orwell", 1949)
	seedBook(t, st, "b2", "Le Petit Prince", "Antoine de Saint-Exupéry", 1943)

	reqs := []*models.Request{
		{ID: "r1", UserID: "u1", DetectedTitle: "1984", Status: models.StatusPending, CreatedAt: time.Now()},
		{ID: "r2", UserID: "u2", DetectedTitle: "", Status: models.StatusPending, CreatedAt: time.Now()},
		{ID: "r3", UserID: "u3", DetectedTitle: "UNKNOWN BOOK", Status: models.StatusPending, CreatedAt: time.Now()},
	}
	for _, r := range reqs {
		if err := st.CreateRequest(ctx, r); err != nil {
			t.Fatalf("CreateRequest() error = %v", err)
		}
	}

	m := New(st)
	matched, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if matched != 1 {
		t.Errorf("Expected 1 match, got %d", matched)
	}

	r1, err := st.GetRequest(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRequest() error = %v", err)
	}
	if r1.MatchedBook == nil {
		t.Fatal("Expected r1 to be matched")
	}
	if r1.MatchedBook.Title != "1984" || r1.MatchedBook.Author != "George Orwell" || r1.MatchedBook.Year != 1949 {
		t.Errorf("Unexpected match: %+v", r1.MatchedBook)
	}

	for _, id := range []string{"r2", "r3"} {
		r, err := st.GetRequest(ctx, id)
		if err != nil {
			t.Fatalf("GetRequest(%s) error = %v", id, err)
		}
		if r.MatchedBook != nil {
			t.Errorf("Expected %s to stay unmatched, got %+v", id, r.MatchedBook)
		}
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedBook(t, st, "b1", "1984", "George Orwell", 1949)

	req := &models.Request{ID: "r1", UserID: "u1", DetectedTitle: "1984", Status: models.StatusPending, CreatedAt: time.Now()}
	if err := st.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	m := New(st)
	if _, err := m.Sweep(ctx); err != nil {
		t.Fatalf("first Sweep() error = %v", err)
	}
	first, _ := st.GetRequest(ctx, "r1")

	matched, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("second Sweep() error = %v", err)
	}
	if matched != 0 {
		t.Errorf("Second sweep should be a no-op, matched %d", matched)
	}
	second, _ := st.GetRequest(ctx, "r1")
	if *first.MatchedBook != *second.MatchedBook {
		t.Errorf("Match changed between sweeps: %+v vs %+v", first.MatchedBook, second.MatchedBook)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedBook(t, st, "b1", "1984", "George Orwell", 1949)
	seedBook(t, st, "b2", "Animal Farm", "George Orwell", 1945)
	seedBook(t, st, "b3", "Le Petit Prince", "Antoine de Saint-Exupéry", 1943)

	m := New(st)

	tests := []struct {
		name string
		term string
		want int
	}{
		{"empty term returns all", "", 3},
		{"author substring", "orwell", 2},
		{"title substring", "petit", 1},
		{"no hit", "tolkien", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Search(ctx, tt.term)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.term, err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q) returned %d books, want %d", tt.term, len(got), tt.want)
			}
		})
	}
}
