// Package pagination implements the keyset cursors used by listing
// endpoints. Listings order newest first on (created_at, id); a cursor
// pins the last row of the previous page and the next page starts
// strictly after it.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size when the client sends none.
	DefaultLimit = 25
	// MaxLimit caps the page size any listing will serve.
	MaxLimit = 100
)

// Params carries the client's paging inputs through a listing call.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor pins a listing position by creation time, with the row id
// breaking ties between rows created in the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested page size into [1, MaxLimit],
// substituting DefaultLimit for zero or negative requests.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks for one row beyond the page so repositories can
// tell whether another page exists without a second query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor serializes a cursor for the next_cursor response field.
func EncodeCursor(c Cursor) string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "," + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a client-supplied cursor. An empty value means
// the first page and yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("cursor is not base64: %w", err)
	}
	stamp, idPart, found := strings.Cut(string(raw), ",")
	if !found {
		return nil, fmt.Errorf("cursor is malformed")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
