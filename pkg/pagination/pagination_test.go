package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("zero should normalize to default, got %d", got)
	}
	if got := NormalizeLimit(-3); got != DefaultLimit {
		t.Fatalf("negative should normalize to default, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("in-range limit should pass through, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("oversized limit should cap, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("buffer should add one, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:        uuid.New(),
	}
	encoded := EncodeCursor(original)
	parsed, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("timestamp mismatch %v vs %v", parsed.CreatedAt, original.CreatedAt)
	}
	if parsed.ID != original.ID {
		t.Fatalf("id mismatch")
	}
}

func TestParseCursorInvalid(t *testing.T) {
	if cursor, err := ParseCursor(""); err != nil || cursor != nil {
		t.Fatalf("empty cursor should be nil, got %v %v", cursor, err)
	}
	if cursor, err := ParseCursor("   "); err != nil || cursor != nil {
		t.Fatalf("blank cursor should be nil, got %v %v", cursor, err)
	}
	if _, err := ParseCursor("not base64!!"); err == nil {
		t.Fatal("expected decode error")
	}
	// Valid base64 but no separator inside.
	if _, err := ParseCursor(base64.RawURLEncoding.EncodeToString([]byte("hello"))); err == nil {
		t.Fatal("expected format error")
	}
	// Separator present but garbage on both sides.
	if _, err := ParseCursor(base64.RawURLEncoding.EncodeToString([]byte("yesterday,42"))); err == nil {
		t.Fatal("expected timestamp error")
	}
}
