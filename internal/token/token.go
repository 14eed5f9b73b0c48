package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnverified covers every way a raw cookie value can fail to become a
// principal: absent, malformed, bad signature, expired, or missing a required
// claim. Callers must not branch on the failure mode, so there is only one.
var ErrUnverified = errors.New("token unverified")

// Claims is the only supported token payload shape. The backend issues these
// at login time; this package only ever verifies them.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}

type Verifier struct {
	secret  []byte
	leeway  time.Duration
	nowFunc func() time.Time
}

func NewVerifier(secret string, leeway time.Duration) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if leeway < 0 {
		leeway = 0
	}
	return &Verifier{
		secret:  []byte(secret),
		leeway:  leeway,
		nowFunc: time.Now,
	}, nil
}

// Verify parses and verifies raw as a signed session token. Every failure is
// reported as ErrUnverified; the original cause is wrapped for logs only.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrUnverified
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnverified, err)
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: missing required claim", ErrUnverified)
	}
	return claims, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
	}
	return v.secret, nil
}
