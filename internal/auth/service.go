package auth

import (
	"errors"
	"strings"
	"time"

	"estate-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of tokens minted without an explicit ttl.
const DefaultTTL = 24 * time.Hour

// Claims carries the caller account in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Tokens mints and verifies HS256 bearer tokens that identify a caller account.
type Tokens struct {
	Secret []byte
	Issuer string
	now    func() time.Time
}

func NewTokens(secret, issuer string) *Tokens {
	return &Tokens{Secret: []byte(secret), Issuer: issuer, now: time.Now}
}

// Issue returns a signed token whose subject is the account.
func (t *Tokens) Issue(account domain.Account, ttl time.Duration) (string, error) {
	if len(t.Secret) == 0 {
		return "", ErrSecretNotSet
	}
	if account.IsZero() {
		return "", ErrInvalidSubject
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := t.clock()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   account.String(),
		Issuer:    t.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

// Parse verifies the token and returns the caller account it names.
func (t *Tokens) Parse(raw string) (domain.Account, error) {
	if len(t.Secret) == 0 {
		return "", ErrSecretNotSet
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.clock),
	}
	if t.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.Issuer))
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, opts...)
	if err != nil {
		return "", ErrInvalidToken
	}
	account, err := domain.ParseAccount(claims.Subject)
	if err != nil {
		return "", ErrInvalidSubject
	}
	return account, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

// IsAuthError reports whether err rejects the presented token, as opposed to
// a server-side problem such as a missing secret.
func IsAuthError(err error) bool {
	for _, e := range []error{ErrMissingToken, ErrInvalidToken, ErrInvalidSubject} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func (t *Tokens) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}
