// Package pagination implements the opaque keyset cursors behind the
// dashboard's order and customer listings. Both tables are scanned
// newest-first over a (created_at, id) index; a cursor pins the last row
// of the page just served so the next query resumes strictly below it,
// which keeps pages stable while new orders keep arriving at the top.
package pagination

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
)

const (
	// DefaultLimit is the page size when the dashboard omits ?limit.
	DefaultLimit = 25
	// MaxLimit caps a single listing query regardless of what was asked for.
	MaxLimit = 100
)

// Params carries the ?limit and ?cursor query inputs through the admin
// listing handlers into the repositories.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the decoded keyset position: the created_at and id of the last
// order or customer row on the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps a requested page size into [DefaultLimit, MaxLimit].
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

// LimitWithBuffer is the row count repositories actually fetch: one past the
// page so the extra row signals whether a next page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor serializes a keyset position into the opaque token handed to
// the dashboard. The token is URL-safe so it survives a query string without
// escaping.
func EncodeCursor(cursor Cursor) string {
	token := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(token))
}

// ParseCursor reverses EncodeCursor. A blank cursor means the first page and
// decodes to nil; anything else malformed is a validation error, since the
// only legitimate source of a cursor is a previous listing response.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cursor is not a listing token")
	}
	stamp, rawID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cursor is missing its row id")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cursor timestamp is unreadable")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cursor row id is unreadable")
	}

	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
