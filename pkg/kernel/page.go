package kernel

import "encoding/base64"

// Pagination limits for all list operations.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Page is the cursor-paginated container every list endpoint returns.
type Page[T any] struct {
	Data       []T     `json:"data"`
	NextCursor *string `json:"next_cursor"`
}

// NewPage builds a page from a query that fetched limit+1 items. The extra
// item, if present, is dropped and its predecessor's key becomes the cursor.
func NewPage[T any](items []T, limit int, keyOf func(T) string) Page[T] {
	if items == nil {
		items = []T{}
	}
	if len(items) <= limit {
		return Page[T]{Data: items}
	}
	items = items[:limit]
	cursor := EncodeCursor(keyOf(items[len(items)-1]))
	return Page[T]{Data: items, NextCursor: &cursor}
}

// ClampPageSize normalizes a requested page size to the allowed range.
// Zero or negative means "use the default".
func ClampPageSize(requested int) int {
	if requested <= 0 {
		return DefaultPageSize
	}
	if requested > MaxPageSize {
		return MaxPageSize
	}
	return requested
}

// EncodeCursor converts a row key into an opaque cursor token.
func EncodeCursor(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor converts a cursor token back into a row key. An empty or
// malformed cursor decodes to "" which lists from the beginning.
func DecodeCursor(cursor string) string {
	if cursor == "" {
		return ""
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return ""
	}
	return string(raw)
}
