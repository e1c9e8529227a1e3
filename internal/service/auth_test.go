package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doantruong120699/voice-cloner-backend/internal/identity"
	"github.com/doantruong120699/voice-cloner-backend/internal/serr"
	"github.com/doantruong120699/voice-cloner-backend/internal/store"
)

const testTTL = 5 * time.Minute

func TestGoogleTokenAuth_CreatesUserOnFirstSignIn(t *testing.T) {
	st := newFakeStore()
	google := &fakeGoogle{claims: identity.Claims{
		Subject: "google-sub",
		Email:   "New.User@Example.COM",
		Name:    "New User",
		Picture: "https://example.com/p.png",
	}}
	auth := newTestAuth(st, google, nil)

	usr, at, err := auth.GoogleTokenAuth(t.Context(), "id-token", false)
	require.NoError(t, err)

	assert.NotEmpty(t, at)
	assert.Equal(t, "new.user@example.com", usr.Email)
	assert.Equal(t, "google", usr.Provider)
	require.NotNil(t, usr.Name)
	assert.Equal(t, "New User", *usr.Name)

	stored, err := st.GetUserByEmail(t.Context(), "new.user@example.com")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, stored.ID)
}

func TestGoogleTokenAuth_PatchesExistingUser(t *testing.T) {
	st := newFakeStore()
	existing, err := st.CreateUser(t.Context(), store.CreateUserRequest{
		Email: "user@example.com",
		Name:  strptr("Old Name"),
	})
	require.NoError(t, err)

	google := &fakeGoogle{claims: identity.Claims{
		Email: "user@example.com",
		Name:  "Fresh Name",
	}}
	auth := newTestAuth(st, google, nil)

	usr, _, err := auth.GoogleTokenAuth(t.Context(), "id-token", false)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, usr.ID)
	require.NotNil(t, usr.Name)
	assert.Equal(t, "Fresh Name", *usr.Name)
	assert.Len(t, st.users, 1)
}

func TestGoogleTokenAuth_MissingEmail(t *testing.T) {
	auth := newTestAuth(newFakeStore(), &fakeGoogle{claims: identity.Claims{Subject: "sub"}}, nil)

	_, _, err := auth.GoogleTokenAuth(t.Context(), "id-token", false)

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 400, sErr.StatusCode)
	assert.Contains(t, sErr.Msg, "email not provided")
}

func TestGoogleTokenAuth_InvalidToken(t *testing.T) {
	google := &fakeGoogle{err: identity.ErrVerification}
	auth := newTestAuth(newFakeStore(), google, nil)

	_, _, err := auth.GoogleTokenAuth(t.Context(), "garbage", false)

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 401, sErr.StatusCode)
	assert.Equal(t, "invalid google token", sErr.Msg)
}

func TestGoogleTokenAuth_FallsBackToCodeExchange(t *testing.T) {
	google := &fakeGoogle{
		claims:      identity.Claims{Email: "code@example.com"},
		err:         identity.ErrVerification,
		canExchange: true,
	}
	auth := newTestAuth(newFakeStore(), google, nil)

	usr, _, err := auth.GoogleTokenAuth(t.Context(), "auth-code", false)
	require.NoError(t, err)

	assert.True(t, google.exchanged)
	assert.Equal(t, "code@example.com", usr.Email)
}

func TestGoogleTokenAuth_FirebaseUnconfigured(t *testing.T) {
	auth := newTestAuth(newFakeStore(), &fakeGoogle{}, nil)

	_, _, err := auth.GoogleTokenAuth(t.Context(), "firebase-token", true)

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 401, sErr.StatusCode)
	assert.Contains(t, sErr.Msg, "not configured")
}

func TestGoogleTokenAuth_FirebaseToken(t *testing.T) {
	fb := &fakeVerifier{claims: identity.Claims{Email: "fb@example.com"}}
	auth := newTestAuth(newFakeStore(), &fakeGoogle{err: identity.ErrVerification}, fb)

	usr, _, err := auth.GoogleTokenAuth(t.Context(), "firebase-token", true)
	require.NoError(t, err)
	assert.Equal(t, "fb@example.com", usr.Email)
}

func TestVerifyAndIssue_ReturnsBothTokens(t *testing.T) {
	google := &fakeGoogle{claims: identity.Claims{Email: "pair@example.com"}}
	auth := newTestAuth(newFakeStore(), google, nil)

	pair, err := auth.VerifyAndIssue(t.Context(), "id-token", false)
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

func TestUserFromToken_RoundTrip(t *testing.T) {
	st := newFakeStore()
	google := &fakeGoogle{claims: identity.Claims{Email: "me@example.com"}}
	auth := newTestAuth(st, google, nil)

	usr, at, err := auth.GoogleTokenAuth(t.Context(), "id-token", false)
	require.NoError(t, err)

	resolved, err := auth.UserFromToken(t.Context(), at)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, resolved.ID)
}

func TestUserFromToken_BadToken(t *testing.T) {
	auth := newTestAuth(newFakeStore(), &fakeGoogle{}, nil)

	_, err := auth.UserFromToken(t.Context(), "not.a.jwt")

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 401, sErr.StatusCode)
	assert.Equal(t, "invalid or expired token", sErr.Msg)
}

func TestUserFromToken_UnknownSubject(t *testing.T) {
	st := newFakeStore()
	auth := newTestAuth(st, &fakeGoogle{claims: identity.Claims{Email: "gone@example.com"}}, nil)

	usr, at, err := auth.GoogleTokenAuth(t.Context(), "id-token", false)
	require.NoError(t, err)

	_, err = st.DeleteUser(t.Context(), usr.ID)
	require.NoError(t, err)

	_, err = auth.UserFromToken(t.Context(), at)

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 401, sErr.StatusCode)
}

func TestNewAuth_PanicsWithoutStore(t *testing.T) {
	assert.Panics(t, func() {
		NewAuth(WithGoogle(&fakeGoogle{}))
	})
}

func strptr(s string) *string { return &s }
