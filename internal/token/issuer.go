// Package token issues and validates the locally signed bearer tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded payload of a locally issued token.
type Claims struct {
	UserID string
	Email  string
	Type   Type
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Type  Type   `json:"typ"`
}

// Issuer mints and validates tokens of a single type. The signing key and
// algorithm are process-wide configuration.
type Issuer struct {
	secret    []byte
	algorithm string
	typ       Type
	ttl       time.Duration
}

type IssuerConfig struct {
	Secret    string
	Algorithm string
	Type      Type
	TTL       time.Duration
}

func NewIssuer(cfg IssuerConfig) *Issuer {
	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}

	return &Issuer{
		secret:    []byte(cfg.Secret),
		algorithm: alg,
		typ:       cfg.Type,
		ttl:       cfg.TTL,
	}
}

func (i *Issuer) Issue(userID, email string) (string, error) {
	now := time.Now()
	tk, err := jwt.NewWithClaims(jwt.GetSigningMethod(i.algorithm), jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: email,
		Type:  i.typ,
	}).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tk, nil
}

// Validate checks signature, expiry and token type. Any failure is
// ErrInvalidToken; callers treat it as unauthenticated, not as a fault.
func (i *Issuer) Validate(raw string) (Claims, error) {
	var claims jwtClaims
	tk, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{i.algorithm}))
	if err != nil || !tk.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.Type != i.typ {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Type:   claims.Type,
	}, nil
}
