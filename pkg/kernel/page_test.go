package kernel_test

import (
	"testing"

	"github.com/idforge/idforge/pkg/kernel"
)

func TestNewPage_FullPageHasCursor(t *testing.T) {
	// limit+1 items means there is a next page.
	items := []string{"a", "b", "c", "d"}
	page := kernel.NewPage(items, 3, func(s string) string { return s })

	if len(page.Data) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Data))
	}
	if page.NextCursor == nil {
		t.Fatal("expected next cursor on overfull page")
	}
	if got := kernel.DecodeCursor(*page.NextCursor); got != "c" {
		t.Fatalf("expected cursor to point at last returned item, got %q", got)
	}
}

func TestNewPage_PartialPageHasNoCursor(t *testing.T) {
	page := kernel.NewPage([]string{"a", "b"}, 3, func(s string) string { return s })

	if len(page.Data) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Data))
	}
	if page.NextCursor != nil {
		t.Fatalf("expected no cursor, got %q", *page.NextCursor)
	}
}

func TestNewPage_Empty(t *testing.T) {
	page := kernel.NewPage(nil, 50, func(s string) string { return s })

	if page.Data == nil {
		t.Fatal("expected non-nil data slice for empty page")
	}
	if len(page.Data) != 0 || page.NextCursor != nil {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	encoded := kernel.EncodeCursor("f2a7c1d9")
	if got := kernel.DecodeCursor(encoded); got != "f2a7c1d9" {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	if got := kernel.DecodeCursor("%%%not-base64%%%"); got != "" {
		t.Fatalf("expected empty string for malformed cursor, got %q", got)
	}
	if got := kernel.DecodeCursor(""); got != "" {
		t.Fatalf("expected empty string for empty cursor, got %q", got)
	}
}

func TestClampPageSize(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, kernel.DefaultPageSize},
		{-5, kernel.DefaultPageSize},
		{10, 10},
		{kernel.MaxPageSize, kernel.MaxPageSize},
		{kernel.MaxPageSize + 1, kernel.MaxPageSize},
	}
	for _, c := range cases {
		if got := kernel.ClampPageSize(c.in); got != c.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAuthContext_HasScope(t *testing.T) {
	ac := &kernel.AuthContext{Scopes: []string{"groups:manage"}}
	if !ac.HasScope("groups:manage") {
		t.Fatal("expected exact scope match")
	}
	if ac.HasScope("orgs:manage") {
		t.Fatal("unexpected scope match")
	}

	admin := &kernel.AuthContext{Scopes: []string{"*"}}
	if !admin.HasScope("groups:manage") {
		t.Fatal("expected wildcard to match everything")
	}

	prefixed := &kernel.AuthContext{Scopes: []string{"groups:*"}}
	if !prefixed.HasScope("groups:manage") {
		t.Fatal("expected prefix wildcard to match")
	}
	if prefixed.HasScope("teams:manage") {
		t.Fatal("prefix wildcard matched the wrong prefix")
	}
}
