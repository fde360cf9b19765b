package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(-5); got != DefaultLimit {
		t.Fatalf("expected default limit for negative input, got %d", got)
	}
	if got := NormalizeLimit(MaxLimit + 50); got != MaxLimit {
		t.Fatalf("expected max limit cap, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		ID:        uuid.New(),
	}
	encoded := EncodeCursor(cursor)

	parsed, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if parsed == nil {
		t.Fatalf("expected cursor, got nil")
	}
	if !parsed.CreatedAt.Equal(cursor.CreatedAt) {
		t.Fatalf("timestamp mismatch: %v vs %v", parsed.CreatedAt, cursor.CreatedAt)
	}
	if parsed.ID != cursor.ID {
		t.Fatalf("id mismatch: %s vs %s", parsed.ID, cursor.ID)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	parsed, err := ParseCursor("  ")
	if err != nil || parsed != nil {
		t.Fatalf("expected nil cursor for blank input, got %v / %v", parsed, err)
	}
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatalf("expected error for malformed cursor")
	}
}

func TestBuildPage(t *testing.T) {
	type row struct {
		createdAt time.Time
		id        uuid.UUID
	}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.createdAt, ID: r.id} }

	rows := make([]row, 4)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = row{createdAt: base.Add(time.Duration(i) * time.Hour), id: uuid.New()}
	}

	page := BuildPage(rows, 3, cursorOf)
	if len(page.Rows) != 3 {
		t.Fatalf("expected trimmed page of 3, got %d", len(page.Rows))
	}
	if page.NextCursor == "" {
		t.Fatalf("expected next cursor for buffered result")
	}
	parsed, err := ParseCursor(page.NextCursor)
	if err != nil {
		t.Fatalf("parse next cursor: %v", err)
	}
	if parsed.ID != rows[2].id {
		t.Fatalf("next cursor should point at last visible row")
	}

	page = BuildPage(rows[:2], 3, cursorOf)
	if len(page.Rows) != 2 || page.NextCursor != "" {
		t.Fatalf("expected final page with no cursor, got %d rows cursor=%q", len(page.Rows), page.NextCursor)
	}
}
