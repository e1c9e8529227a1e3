package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/doantruong120699/voice-cloner-backend/internal/identity"
	"github.com/doantruong120699/voice-cloner-backend/internal/serr"
	"github.com/doantruong120699/voice-cloner-backend/internal/store"
	"github.com/doantruong120699/voice-cloner-backend/internal/token"
)

// tokenIssuer mints and validates one type of locally signed token
type tokenIssuer interface {
	Issue(userID, email string) (string, error)
	Validate(raw string) (token.Claims, error)
}

// googleVerifier validates Google ID tokens and optionally exchanges OAuth
// authorization codes
type googleVerifier interface {
	Verify(ctx context.Context, rawToken string) (identity.Claims, error)
	Exchange(ctx context.Context, code string) (identity.Claims, error)
	CanExchange() bool
}

// Auth verifies third-party identity tokens, maintains the user records
// they map to, and issues session tokens.
type Auth struct {
	store        store.Store
	google       googleVerifier
	firebase     identity.Verifier
	accessToken  tokenIssuer
	refreshToken tokenIssuer
}

type AuthOption func(*Auth) *Auth

func WithStore(st store.Store) AuthOption {
	return func(a *Auth) *Auth {
		a.store = st
		return a
	}
}

func WithGoogle(g googleVerifier) AuthOption {
	return func(a *Auth) *Auth {
		a.google = g
		return a
	}
}

// WithFirebase registers the Firebase verifier. A nil verifier means
// Firebase credentials were not configured; Firebase tokens are then
// rejected with an authentication error.
func WithFirebase(f identity.Verifier) AuthOption {
	return func(a *Auth) *Auth {
		a.firebase = f
		return a
	}
}

func WithAccessToken(iss tokenIssuer) AuthOption {
	return func(a *Auth) *Auth {
		a.accessToken = iss
		return a
	}
}

func WithRefreshToken(iss tokenIssuer) AuthOption {
	return func(a *Auth) *Auth {
		a.refreshToken = iss
		return a
	}
}

func NewAuth(opts ...AuthOption) *Auth {
	a := &Auth{}
	for _, opt := range opts {
		a = opt(a)
	}

	if a.store == nil {
		panic("store is required")
	}

	if a.google == nil {
		panic("google verifier is required")
	}

	if a.accessToken == nil {
		panic("access token issuer is required")
	}

	if a.refreshToken == nil {
		panic("refresh token issuer is required")
	}

	return a
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// GoogleTokenAuth verifies a Google ID token, an OAuth authorization code
// or a Firebase ID token, resolves the user and mints an access token.
func (a *Auth) GoogleTokenAuth(ctx context.Context, rawToken string, firebaseToken bool) (store.User, string, error) {
	usr, err := a.VerifyIdentity(ctx, rawToken, firebaseToken)
	if err != nil {
		return store.User{}, "", err
	}

	at, err := a.accessToken.Issue(usr.ID, usr.Email)
	if err != nil {
		return store.User{}, "", fmt.Errorf("issue access token: %w", err)
	}

	return usr, at, nil
}

// VerifyAndIssue verifies an identity token and returns a fresh
// access/refresh token pair.
func (a *Auth) VerifyAndIssue(ctx context.Context, rawToken string, firebaseToken bool) (TokenPair, error) {
	usr, err := a.VerifyIdentity(ctx, rawToken, firebaseToken)
	if err != nil {
		return TokenPair{}, err
	}

	at, err := a.accessToken.Issue(usr.ID, usr.Email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	rt, err := a.refreshToken.Issue(usr.ID, usr.Email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return TokenPair{AccessToken: at, RefreshToken: rt}, nil
}

// VerifyIdentity validates the third-party token and gets or creates the
// matching user record.
func (a *Auth) VerifyIdentity(ctx context.Context, rawToken string, firebaseToken bool) (store.User, error) {
	claims, err := a.verifyToken(ctx, rawToken, firebaseToken)
	if err != nil {
		return store.User{}, err
	}

	usr, err := a.getOrCreateUser(ctx, claims)
	if err != nil {
		return store.User{}, err
	}

	return usr, nil
}

// UserFromToken resolves an access token to its user. Every failure mode is
// an authentication error: the caller is unauthenticated, nothing more.
func (a *Auth) UserFromToken(ctx context.Context, raw string) (store.User, error) {
	claims, err := a.accessToken.Validate(raw)
	if err != nil {
		return store.User{}, serr.New(err, http.StatusUnauthorized, "invalid or expired token")
	}

	usr, err := a.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return store.User{}, serr.New(err, http.StatusUnauthorized, "invalid or expired token")
	}

	return usr, nil
}

func (a *Auth) verifyToken(ctx context.Context, rawToken string, firebaseToken bool) (identity.Claims, error) {
	if firebaseToken {
		if a.firebase == nil {
			return identity.Claims{}, serr.New(nil, http.StatusUnauthorized,
				"firebase token verification is not configured")
		}

		claims, err := a.firebase.Verify(ctx, rawToken)
		if err != nil {
			return identity.Claims{}, serr.New(err, http.StatusUnauthorized, "invalid firebase token")
		}

		return claims, nil
	}

	claims, err := a.google.Verify(ctx, rawToken)
	if err == nil {
		return claims, nil
	}

	// The field may carry an OAuth authorization code instead of an ID
	// token; try the code exchange when a client secret is configured.
	if a.google.CanExchange() {
		claims, exErr := a.google.Exchange(ctx, rawToken)
		if exErr == nil {
			return claims, nil
		}
	}

	return identity.Claims{}, serr.New(err, http.StatusUnauthorized, "invalid google token")
}

// getOrCreateUser looks the user up by normalized email, patching name and
// picture from the fresh claims, or creates the record on first sign-in.
// Both flows share the single "google" provider namespace.
func (a *Auth) getOrCreateUser(ctx context.Context, claims identity.Claims) (store.User, error) {
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return store.User{}, serr.New(nil, http.StatusBadRequest, "email not provided in identity token")
	}

	usr, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return store.User{}, fmt.Errorf("get user by email: %w", err)
		}

		created, err := a.store.CreateUser(ctx, store.CreateUserRequest{
			Email:    email,
			Name:     optional(claims.Name),
			Picture:  optional(claims.Picture),
			Provider: "google",
		})
		if err != nil {
			return store.User{}, fmt.Errorf("create user: %w", err)
		}

		return created, nil
	}

	updated, err := a.store.UpdateUser(ctx, store.UpdateUserRequest{
		ID:      usr.ID,
		Name:    optional(claims.Name),
		Picture: optional(claims.Picture),
	})
	if err != nil {
		return store.User{}, fmt.Errorf("update user: %w", err)
	}

	return updated, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
