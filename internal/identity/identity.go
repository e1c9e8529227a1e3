// Package identity verifies third-party identity assertions (Google OAuth
// ID tokens, Firebase ID tokens) and maps them to a common claim set.
package identity

import (
	"context"
	"errors"
)

var ErrVerification = errors.New("identity verification failed")

// Claims are the fields extracted from a verified identity token.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier validates a raw identity token issued by a third party.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Claims, error)
}
