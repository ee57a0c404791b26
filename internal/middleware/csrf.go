package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// csrfTokenLength is the number of random bytes behind a token.
	csrfTokenLength = 32

	csrfCookieName = "casa_csrf"
	csrfFormField  = "csrf_token"
	csrfContextKey = "csrf_token"
)

// CSRF protects POST/PUT/PATCH/DELETE with a double-submit cookie. The
// cookie is issued on first contact; mutating requests must echo it in the
// X-CSRF-Token header (HTMX, via hx-headers on <body>) or in the csrf_token
// form field (plain forms such as login).
func CSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := ensureCSRFCookie(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
			}
			c.Set(csrfContextKey, token)

			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			submitted := c.Request().Header.Get(echo.HeaderXCSRFToken)
			if submitted == "" {
				submitted = c.FormValue(csrfFormField)
			}
			if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid or missing CSRF token")
			}
			return next(c)
		}
	}
}

// ensureCSRFCookie returns the token from the request cookie, minting and
// setting a new one when the browser has none yet.
func ensureCSRFCookie(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)

	// Not HttpOnly: the layout script copies it into hx-headers.
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Secure:   c.Scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// GetCSRFToken returns the token for the current request, for hidden form
// fields and the layout's hx-headers.
func GetCSRFToken(c echo.Context) string {
	token, _ := c.Get(csrfContextKey).(string)
	return token
}
