package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, 0)
	if err != nil {
		t.Fatalf("NewVerifier() error: %v", err)
	}
	return v
}

func TestVerifyValidToken(t *testing.T) {
	v := newTestVerifier(t)
	raw := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role: "admin",
	})

	claims, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Subject != "u-42" {
		t.Fatalf("expected subject u-42, got %q", claims.Subject)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected role admin, got %q", claims.Role)
	}
}

func TestVerifyFailuresAreUniform(t *testing.T) {
	v := newTestVerifier(t)

	expired := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Second)),
		},
		Role: "user",
	})
	badSignature := signToken(t, "other-secret", jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "user",
	})
	wrongMethod := signToken(t, testSecret, jwt.SigningMethodHS384, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "user",
	})
	missingRole := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	missingSubject := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "user",
	})
	missingExpiry := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
		Role:             "user",
	})

	cases := map[string]string{
		"absent":          "",
		"malformed":       "not-a-token",
		"expired":         expired,
		"bad signature":   badSignature,
		"wrong method":    wrongMethod,
		"missing role":    missingRole,
		"missing subject": missingSubject,
		"missing expiry":  missingExpiry,
	}
	for name, raw := range cases {
		claims, err := v.Verify(raw)
		if !errors.Is(err, ErrUnverified) {
			t.Fatalf("%s: expected ErrUnverified, got %v", name, err)
		}
		if claims != nil {
			t.Fatalf("%s: expected nil claims, got %+v", name, claims)
		}
	}
}

func TestVerifyHonorsLeeway(t *testing.T) {
	v, err := NewVerifier(testSecret, 30*time.Second)
	if err != nil {
		t.Fatalf("NewVerifier() error: %v", err)
	}
	raw := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-5 * time.Second)),
		},
		Role: "user",
	})
	if _, err := v.Verify(raw); err != nil {
		t.Fatalf("expected token within leeway to verify, got %v", err)
	}
}

func TestVerifyIsDeterministic(t *testing.T) {
	v := newTestVerifier(t)
	v.nowFunc = func() time.Time { return time.Unix(1_700_000_000, 0) }

	raw := signToken(t, testSecret, jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Unix(1_700_000_000, 0).Add(time.Hour)),
		},
		Role: "user",
	})
	first, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("first Verify() error: %v", err)
	}
	second, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("second Verify() error: %v", err)
	}
	if first.Subject != second.Subject || first.Role != second.Role {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier("", 0); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
