// Package rest exposes the HTTP API on top of the service layer.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/doantruong120699/voice-cloner-backend/internal/httpx"
	"github.com/doantruong120699/voice-cloner-backend/internal/middleware"
	"github.com/doantruong120699/voice-cloner-backend/internal/router"
	"github.com/doantruong120699/voice-cloner-backend/internal/serr"
	"github.com/doantruong120699/voice-cloner-backend/internal/service"
	"github.com/doantruong120699/voice-cloner-backend/internal/store"
)

type authService interface {
	GoogleTokenAuth(ctx context.Context, rawToken string, firebaseToken bool) (store.User, string, error)
	VerifyAndIssue(ctx context.Context, rawToken string, firebaseToken bool) (service.TokenPair, error)
}

// AuthAPI serves the token-exchange and profile endpoints. The authn
// middleware guards /me only; the exchange endpoints are public.
type AuthAPI struct {
	srv authService
	mux *http.ServeMux
}

func NewAuthAPI(srv authService, authn router.Middleware) *AuthAPI {
	api := &AuthAPI{
		srv: srv,
		mux: http.NewServeMux(),
	}
	api.mount(authn)
	return api
}

func (a *AuthAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *AuthAPI) mount(authn router.Middleware) {
	a.mux.HandleFunc("POST /google/token", a.handleGoogleToken)
	a.mux.HandleFunc("POST /verify", a.handleVerify)
	a.mux.Handle("GET /me", authn(http.HandlerFunc(a.handleMe)))
}

type userPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Picture   *string   `json:"picture"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserPayload(u store.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		Provider:  u.Provider,
		CreatedAt: u.CreatedAt,
	}
}

type googleTokenRequest struct {
	Code          string `json:"code"`
	State         string `json:"state"`
	FirebaseToken bool   `json:"firebase_token"`
}

type googleTokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        userPayload `json:"user"`
}

func (a *AuthAPI) handleGoogleToken(w http.ResponseWriter, r *http.Request) {
	var req googleTokenRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, serr.New(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	if req.Code == "" {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusBadRequest, "code is required"))
		return
	}

	usr, accessToken, err := a.srv.GoogleTokenAuth(r.Context(), req.Code, req.FirebaseToken)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, googleTokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        toUserPayload(usr),
	})
	if err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

type verifyRequest struct {
	IDToken         string `json:"idToken"`
	IsFirebaseToken *bool  `json:"is_firebase_token"`
}

type verifyResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (a *AuthAPI) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, serr.New(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	if req.IDToken == "" {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusBadRequest, "idToken is required"))
		return
	}

	// Callers are mobile clients sending Firebase tokens unless they say
	// otherwise.
	firebase := true
	if req.IsFirebaseToken != nil {
		firebase = *req.IsFirebaseToken
	}

	pair, err := a.srv.VerifyAndIssue(r.Context(), req.IDToken, firebase)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, verifyResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	if err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *AuthAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	usr, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusUnauthorized, "not authenticated"))
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toUserPayload(usr)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}
