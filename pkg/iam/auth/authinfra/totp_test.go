package authinfra

import (
	"testing"
	"time"
)

// Base32 form of the RFC 6238 reference secret "12345678901234567890".
const testSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func verifierAt(unix int64) *TOTPVerifier {
	return &TOTPVerifier{now: func() time.Time { return time.Unix(unix, 0) }}
}

func TestVerify_ReferenceVectors(t *testing.T) {
	// Six-digit truncations of the RFC 6238 SHA-1 test vectors.
	cases := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, c := range cases {
		if !verifierAt(c.unix).Verify(testSecret, c.code) {
			t.Fatalf("code %s rejected at t=%d", c.code, c.unix)
		}
	}
}

func TestVerify_RejectsWrongCode(t *testing.T) {
	if verifierAt(59).Verify(testSecret, "123456") {
		t.Fatal("wrong code accepted")
	}
}

func TestVerify_AllowsOneStepOfSkew(t *testing.T) {
	// 287082 belongs to the window at t=59; it is still valid one period
	// later and stale after two.
	if !verifierAt(59+30).Verify(testSecret, "287082") {
		t.Fatal("adjacent window rejected")
	}
	if verifierAt(59+90).Verify(testSecret, "287082") {
		t.Fatal("stale code accepted")
	}
}

func TestVerify_NormalizesSecret(t *testing.T) {
	spaced := "gezd gnbv gy3t qojq gezd gnbv gy3t qojq"
	if !verifierAt(59).Verify(spaced, "287082") {
		t.Fatal("lower-case spaced secret rejected")
	}
}

func TestVerify_RejectsMalformedInput(t *testing.T) {
	v := verifierAt(59)
	if v.Verify("not!base32", "287082") {
		t.Fatal("malformed secret accepted")
	}
	if v.Verify(testSecret, "28708") {
		t.Fatal("short code accepted")
	}
}
