package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Issuer is written into every token
const Issuer = "domain-dude"

// Claims our JWT can have
type Claims struct {
	Role string `json:"role"`
	gojwt.RegisteredClaims
}

// ErrEmpty is returned when there is no token to verify
var ErrEmpty = errors.New("token is empty")

// New constructs the claims of an access token for a subject
func New(subject string, role string, ttl time.Duration) Claims {
	now := time.Now()

	return Claims{
		Role: role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Sign returns the HS256 signed token
func Sign(secret string, claims Claims) (string, error) {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Verify checks signature, algorithm and expiry and returns the claims
func Verify(token string, secret string) (*Claims, error) {
	if token == "" {
		return nil, ErrEmpty
	}

	claims := Claims{}
	parsed, err := gojwt.ParseWithClaims(token, &claims, func(t *gojwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}), gojwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if !parsed.Valid {
		return nil, errors.New("token invalid")
	}

	return &claims, nil
}
