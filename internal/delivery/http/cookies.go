package http

import (
	"net/http"
	"time"
)

// The refresh token travels only in an HTTP-only cookie scoped to the auth
// endpoints; it never appears in a response body.

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieCfg.Name,
		Value:    token,
		Path:     h.cookieCfg.Path,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieCfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieCfg.Name,
		Value:    "",
		Path:     h.cookieCfg.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieCfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) refreshTokenFromCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(h.cookieCfg.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
