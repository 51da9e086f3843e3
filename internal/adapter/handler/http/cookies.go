package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Cookie names of the referral contract. The code cookie holds the pending
// rider code between an anonymous visit and confirmation; the session cookie
// keeps the anonymous browser correlated across visits.
const (
	CookieReferralCode    = "referral_code"
	CookieReferralSession = "referral_session"
)

func setReferralCookie(c echo.Context, name, value string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearReferralCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
