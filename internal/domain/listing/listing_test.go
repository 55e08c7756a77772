package listing

import (
	"testing"
	"time"

	"github.com/kailas-cloud/mapsearch/internal/domain/listing/cursor"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/request"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    Sort
		wantErr bool
	}{
		{"", SortCreated, false},
		{"created", SortCreated, false},
		{"SONGS_UPDATED", SortSongsUpdated, false},
		{"updated", SortUpdated, false},
		{"Curated", SortCurated, false},
		{"rating", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSort(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSort(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewLatest_FirstPage(t *testing.T) {
	l, err := NewLatest(SortCreated, "", nil, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Boundary() != nil {
		t.Errorf("Boundary() = %+v, want nil", l.Boundary())
	}
	if l.PageSize() != request.DefaultPageSize {
		t.Errorf("PageSize() = %d", l.PageSize())
	}
	if l.Ascending() {
		t.Error("first page must read newest first")
	}
}

func TestNewLatest_BeforeWinsOverAfter(t *testing.T) {
	before := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l, err := NewLatest(SortUpdated, "", &before, &after, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Boundary().Direction() != cursor.Older || !l.Boundary().Value().Equal(before) {
		t.Errorf("Boundary() = %+v", l.Boundary())
	}
	if l.Ascending() {
		t.Error("before must read newest first")
	}
	if l.PageSize() != request.MaxPageSize {
		t.Errorf("PageSize() = %d, want %d", l.PageSize(), request.MaxPageSize)
	}
}

func TestNewLatest_AfterReadsAscending(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l, err := NewLatest(SortCreated, "", nil, &after, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Ascending() {
		t.Error("after must read oldest first")
	}
}

func TestNewLatest_Token(t *testing.T) {
	at := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	tok := cursor.New(string(SortCurated), at, 12, cursor.Newer).Encode()

	l, err := NewLatest(SortCurated, tok, &at, nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Boundary().ID() != 12 || l.Boundary().Direction() != cursor.Newer {
		t.Errorf("token must take precedence: %+v", l.Boundary())
	}

	if _, err := NewLatest(SortCreated, tok, nil, nil, 10); err == nil {
		t.Error("expected error for cursor issued under another sort")
	}
	if _, err := NewLatest(SortCreated, "garbage!", nil, nil, 10); err == nil {
		t.Error("expected error for malformed cursor")
	}
}

func TestRequiresValue(t *testing.T) {
	if !SortCurated.RequiresValue() {
		t.Error("curated sort must exclude uncurated playlists")
	}
	if SortCreated.RequiresValue() || SortUpdated.RequiresValue() || SortSongsUpdated.RequiresValue() {
		t.Error("only curated sort requires a value")
	}
}
