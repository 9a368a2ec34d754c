package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recipe-app/backend/internal/config"
	"github.com/recipe-app/backend/internal/middleware"
	"github.com/recipe-app/backend/internal/repository/memory"
	"github.com/recipe-app/backend/internal/usecase"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	jwtCfg := &config.JWTConfig{
		Secret:        "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	}
	cookieCfg := &config.CookieConfig{
		Name:   "refresh_token",
		Path:   "/api/v1/auth",
		Secure: true,
	}

	auth := usecase.NewAuthUsecase(
		memory.NewUserRepository(),
		memory.NewRefreshRecordRepository(),
		memory.NewLoginEventRepository(),
		usecase.NewTokenIssuer(jwtCfg),
		usecase.BcryptHasher{},
	)
	handler := NewHandler(auth, cookieCfg)
	authMiddleware := middleware.NewAuthMiddleware(auth)
	return NewRouter(handler, authMiddleware, []string{"http://localhost:3000"})
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body interface{}, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	t.Fatal("refresh_token cookie not set")
	return nil
}

type tokensBody struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type authBody struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		FullName string `json:"full_name"`
	} `json:"user"`
	Tokens tokensBody `json:"tokens"`
}

func signup(t *testing.T, srv http.Handler, username, fullName, password string) (authBody, *http.Cookie) {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": username, "full_name": fullName, "password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body, refreshCookie(t, rec)
}

func TestSignupHandler(t *testing.T) {
	srv := newTestServer(t)

	body, cookie := signup(t, srv, "alice", "Alice A", "p1")
	require.Equal(t, "alice", body.User.Username)
	require.NotEmpty(t, body.Tokens.AccessToken)

	// The refresh token travels only in the cookie.
	require.NotEmpty(t, cookie.Value)
	require.NotEqual(t, body.Tokens.AccessToken, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, "/api/v1/auth", cookie.Path)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}

func TestSignupHandler_Validation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "alice", "password": "p1",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	signup(t, srv, "alice", "Alice A", "p1")
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "alice", "full_name": "Other", "password": "p2",
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	srv := newTestServer(t)
	signup(t, srv, "alice", "Alice A", "p1")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "p1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	refreshCookie(t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "wrong",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshHandler_RotatesCookie(t *testing.T) {
	srv := newTestServer(t)
	_, cookie := signup(t, srv, "alice", "Alice A", "p1")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rotated := refreshCookie(t, rec)
	require.NotEqual(t, cookie.Value, rotated.Value)

	var body tokensBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)

	// The superseded cookie is rejected on reuse.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The rotated one keeps working.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(rotated)
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshHandler_NoCookie(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutHandler_IdempotentAndClearsCookie(t *testing.T) {
	srv := newTestServer(t)
	body, cookie := signup(t, srv, "alice", "Alice A", "p1")
	bearer := "Bearer " + body.Tokens.AccessToken

	logout := func() *httptest.ResponseRecorder {
		return doJSON(t, srv, http.MethodPost, "/api/v1/auth/logout", nil, func(r *http.Request) {
			r.Header.Set("Authorization", bearer)
			r.AddCookie(cookie)
		})
	}

	rec := logout()
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := refreshCookie(t, rec)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	// Logging out an already-removed session still succeeds.
	rec = logout()
	require.Equal(t, http.StatusOK, rec.Code)

	// The removed refresh token is dead.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutHandler_RequiresAccessToken(t *testing.T) {
	srv := newTestServer(t)
	_, cookie := signup(t, srv, "alice", "Alice A", "p1")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/logout", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAllHandler(t *testing.T) {
	srv := newTestServer(t)
	body, cookie1 := signup(t, srv, "alice", "Alice A", "p1")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "p1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie2 := refreshCookie(t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/logout-all", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+body.Tokens.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range []*http.Cookie{cookie1, cookie2} {
		rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh", nil, func(r *http.Request) {
			r.AddCookie(c)
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestMeAndSessionsHandlers(t *testing.T) {
	srv := newTestServer(t)
	body, _ := signup(t, srv, "alice", "Alice A", "p1")
	bearer := "Bearer " + body.Tokens.AccessToken

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/auth/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", bearer)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "alice", me.Username)
	require.Equal(t, "Alice A", me.FullName)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/auth/sessions", nil, func(r *http.Request) {
		r.Header.Set("Authorization", bearer)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions struct {
		Sessions []struct {
			ID        string    `json:"id"`
			ExpiresAt time.Time `json:"expires_at"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions.Sessions, 1)
}
