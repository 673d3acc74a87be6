package http

import (
	"net/http"
	"time"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/auth"
)

func (r *Router) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   r.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (r *Router) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshCookie(req *http.Request) string {
	c, err := req.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
