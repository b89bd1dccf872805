package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/wilpowatech/wilpowa-academy/src/internal/config"
	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

const (
	tokenCookie = "academy_token"
	stateCookie = "academy_auth_state"
)

type AuthService struct {
	Provider *oidc.Provider
	Config   oauth2.Config
	Verifier *oidc.IDTokenVerifier
	Enabled  bool
}

// Session is the signed-in student as the frontend sees them, decoded from
// the access token cookie. A request either carries an established session
// or gets redirected to /login; there is no in-between state.
type Session struct {
	StudentID string
	Email     string
	Role      string
	Token     string
}

func NewAuthService(oidcCfg config.OIDCConfig) *AuthService {
	if oidcCfg.ProviderURL == "" {
		log.Println("OIDC provider not configured. Frontend auth disabled.")
		return &AuthService{Enabled: false}
	}

	provider, err := oidc.NewProvider(context.Background(), oidcCfg.ProviderURL)
	if err != nil {
		log.Printf("Failed to init OIDC provider: %v", err)
		return &AuthService{Enabled: false}
	}

	conf := oauth2.Config{
		ClientID:     oidcCfg.ClientID,
		ClientSecret: oidcCfg.ClientSecret,
		RedirectURL:  oidcCfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	// Access tokens may carry an audience other than our client_id
	verifier := provider.Verifier(&oidc.Config{
		ClientID:          oidcCfg.ClientID,
		SkipClientIDCheck: true,
	})

	return &AuthService{
		Provider: provider,
		Config:   conf,
		Verifier: verifier,
		Enabled:  true,
	}
}

func (s *AuthService) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.Enabled {
		http.Error(w, "OIDC not configured on server", http.StatusServiceUnavailable)
		return
	}

	// Random per-login state, checked at the callback
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   300,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.Config.AuthCodeURL(state), http.StatusFound)
}

func (s *AuthService) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.Enabled {
		http.Error(w, "Auth disabled", http.StatusBadRequest)
		return
	}

	stateCk, err := r.Cookie(stateCookie)
	if err != nil || stateCk.Value == "" || r.URL.Query().Get("state") != stateCk.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}
	// State is single-use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	oauth2Token, err := s.Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Error(w, "Failed to exchange token: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Verify the ID Token when present. The access token is what the
	// Academy API consumes; the ID token check catches a broken provider
	// early.
	if rawIDToken, ok := oauth2Token.Extra("id_token").(string); ok {
		verifier := s.Provider.Verifier(&oidc.Config{ClientID: s.Config.ClientID})
		if _, err := verifier.Verify(r.Context(), rawIDToken); err != nil {
			log.Printf("ID Token verification failed: %v", err)
		}
	}

	// Store Access Token in cookie
	// Note: Access Tokens can be large. If too large for cookie, use server-side session.
	// Keycloak tokens are usually fine (~1-2KB).
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    oauth2Token.AccessToken,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // TODO: Enable in production
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *AuthService) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// CurrentSession resolves the request's token cookie into a verified
// session. Missing or expired tokens return an error; callers redirect to
// /login.
func (s *AuthService) CurrentSession(r *http.Request) (*Session, error) {
	if !s.Enabled {
		return nil, errors.New("auth disabled")
	}

	cookie, err := r.Cookie(tokenCookie)
	if err != nil || cookie.Value == "" {
		return nil, errors.New("no session")
	}

	idToken, err := s.Verifier.Verify(r.Context(), cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	var claims struct {
		Sub               string `json:"sub"`
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
		Role              string `json:"role"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("invalid token claims: %w", err)
	}

	sess := &Session{
		StudentID: claims.Sub,
		Email:     claims.Email,
		Role:      claims.Role,
		Token:     cookie.Value,
	}
	if sess.Email == "" {
		sess.Email = claims.PreferredUsername
	}
	if sess.Role == "" {
		// Same default the API applies when provisioning
		sess.Role = string(domain.RoleStudent)
	}
	return sess, nil
}

// TokenMiddleware injects the Authorization header if cookie is present
func (s *AuthService) TokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(tokenCookie)
		if err == nil && cookie.Value != "" {
			// Inject Authorization header for proxy
			r.Header.Set("Authorization", "Bearer "+cookie.Value)
		}
		next.ServeHTTP(w, r)
	})
}
