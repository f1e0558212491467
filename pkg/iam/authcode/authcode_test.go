package authcode_test

import (
	"testing"

	"github.com/idforge/idforge/pkg/iam/authcode"
)

func TestGenerateCode(t *testing.T) {
	a, err := authcode.GenerateCode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := authcode.GenerateCode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 32 bytes base64url without padding.
	if len(a) != 43 {
		t.Fatalf("unexpected code length %d", len(a))
	}
	if a == b {
		t.Fatal("two generated codes are identical")
	}
}

func TestHashCode_Deterministic(t *testing.T) {
	h1 := authcode.HashCode("some-code", "pepper")
	h2 := authcode.HashCode("some-code", "pepper")
	if h1 != h2 {
		t.Fatal("same code and pepper hashed differently")
	}
	if len(h1) != 64 {
		t.Fatalf("unexpected hash length %d", len(h1))
	}
}

func TestHashCode_PepperMatters(t *testing.T) {
	if authcode.HashCode("some-code", "pepper-a") == authcode.HashCode("some-code", "pepper-b") {
		t.Fatal("different peppers produced the same hash")
	}
	if authcode.HashCode("code-a", "pepper") == authcode.HashCode("code-b", "pepper") {
		t.Fatal("different codes produced the same hash")
	}
}
