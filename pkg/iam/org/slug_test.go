package org_test

import (
	"strings"
	"testing"

	"github.com/idforge/idforge/pkg/iam/org"
)

func TestSlugify_Basic(t *testing.T) {
	cases := []struct{ name, want string }{
		{"Acme Corp", "acme-corp"},
		{"  Acme   Corp  ", "acme-corp"},
		{"Acme & Sons, Ltd.", "acme-sons-ltd"},
		{"ACME", "acme"},
		{"a1-b2", "a1-b2"},
	}
	for _, c := range cases {
		got, err := org.Slugify(c.name)
		if err != nil {
			t.Fatalf("Slugify(%q) returned error: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestSlugify_Transliterates(t *testing.T) {
	got, err := org.Slugify("Café Über Señor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "cafe-uber-senor" {
		t.Fatalf("expected transliterated slug, got %q", got)
	}
}

func TestSlugify_RejectsTooShort(t *testing.T) {
	for _, name := range []string{"", "!", "a", "  -  "} {
		if _, err := org.Slugify(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}

func TestSlugify_RejectsReserved(t *testing.T) {
	for _, name := range []string{"Admin", "API", "settings"} {
		if _, err := org.Slugify(name); err == nil {
			t.Fatalf("expected reserved-word rejection for %q", name)
		}
	}
}

func TestSlugify_Truncates(t *testing.T) {
	long := strings.Repeat("organisation ", 30)
	got, err := org.Slugify(long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) > 120 {
		t.Fatalf("slug too long: %d chars", len(got))
	}
	if err := org.ValidateSlug(got); err != nil {
		t.Fatalf("truncated slug is invalid: %v", err)
	}
}

func TestWithSuffix(t *testing.T) {
	got, err := org.WithSuffix("acme-corp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "acme-corp-") {
		t.Fatalf("expected suffixed slug, got %q", got)
	}
	if len(got) != len("acme-corp")+5 {
		t.Fatalf("expected 4-char suffix, got %q", got)
	}
	if err := org.ValidateSlug(got); err != nil {
		t.Fatalf("suffixed slug is invalid: %v", err)
	}
}

func TestWithSuffix_KeepsMaxLength(t *testing.T) {
	base := strings.Repeat("a", 120)
	got, err := org.WithSuffix(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) > 120 {
		t.Fatalf("suffixed slug exceeds cap: %d chars", len(got))
	}
	if err := org.ValidateSlug(got); err != nil {
		t.Fatalf("suffixed slug is invalid: %v", err)
	}
}

func TestWithSuffix_Randomized(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		got, err := org.WithSuffix("acme")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[got] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected randomized suffixes, got a constant")
	}
}

func TestValidateSlug(t *testing.T) {
	valid := []string{"ab", "acme", "acme-corp", "a1b2", "x-1-y-2"}
	for _, s := range valid {
		if err := org.ValidateSlug(s); err != nil {
			t.Fatalf("ValidateSlug(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "a", "-acme", "acme-", "acme--corp", "Acme", "acme corp", "admin"}
	for _, s := range invalid {
		if err := org.ValidateSlug(s); err == nil {
			t.Fatalf("ValidateSlug(%q) = nil, want error", s)
		}
	}
}
