package authinfra_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/idforge/idforge/pkg/iam/auth/authinfra"
)

func TestVerify_ReturnsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer the-assertion" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"sub-1","email":"a@acme.test","email_verified":true,"name":"Alice"}`))
	}))
	defer srv.Close()

	v := authinfra.NewHTTPSocialVerifier(map[string]string{"acme-id": srv.URL}, srv.Client())

	identity, err := v.Verify(context.Background(), "acme-id", "the-assertion")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if identity.Provider != "acme-id" || identity.Subject != "sub-1" {
		t.Fatalf("identity wrong: %+v", identity)
	}
	if identity.Email != "a@acme.test" || !identity.EmailVerified || identity.Name != "Alice" {
		t.Fatalf("claims wrong: %+v", identity)
	}
}

func TestVerify_UnknownProvider(t *testing.T) {
	v := authinfra.NewHTTPSocialVerifier(map[string]string{}, nil)

	if _, err := v.Verify(context.Background(), "nobody", "assertion"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestVerify_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	v := authinfra.NewHTTPSocialVerifier(map[string]string{"acme-id": srv.URL}, srv.Client())

	if _, err := v.Verify(context.Background(), "acme-id", "stale"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestVerify_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	v := authinfra.NewHTTPSocialVerifier(map[string]string{"acme-id": srv.URL}, srv.Client())

	if _, err := v.Verify(context.Background(), "acme-id", "assertion"); err == nil {
		t.Fatal("expected decode error")
	}
}
