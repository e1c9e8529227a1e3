package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const firebaseIssuerBase = "https://securetoken.google.com/"

// Firebase verifies Firebase ID tokens. They are standard OIDC tokens
// issued per project by securetoken.google.com, so the same verification
// stack as Google applies; only the project id is needed.
type Firebase struct {
	verifier *oidc.IDTokenVerifier
}

type firebaseClaims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Verified bool   `json:"email_verified"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

func NewFirebase(ctx context.Context, projectID string) (*Firebase, error) {
	p, err := oidc.NewProvider(ctx, firebaseIssuerBase+projectID)
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}

	return &Firebase{
		verifier: p.Verifier(&oidc.Config{ClientID: projectID}),
	}, nil
}

func (f *Firebase) Verify(ctx context.Context, rawToken string) (Claims, error) {
	idTok, err := f.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	var claims firebaseClaims
	if err := idTok.Claims(&claims); err != nil {
		return Claims{}, fmt.Errorf("%w: read claims: %v", ErrVerification, err)
	}

	return Claims{
		Subject:       claims.Sub,
		Email:         claims.Email,
		EmailVerified: claims.Verified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}
