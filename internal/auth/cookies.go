package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cookie names for the JWT pair
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// CookieWriter sets and clears the auth cookie pair with consistent
// attributes. Cookies are HttpOnly and SameSite=Lax; Secure follows config
// so local development over plain HTTP keeps working.
type CookieWriter struct {
	Domain string
	Secure bool
}

// SetAccess writes the access token cookie with the given max age in seconds
func (w CookieWriter) SetAccess(c *gin.Context, token string, maxAge int) {
	w.set(c, AccessCookie, token, maxAge)
}

// SetRefresh writes the refresh token cookie with the given max age in seconds
func (w CookieWriter) SetRefresh(c *gin.Context, token string, maxAge int) {
	w.set(c, RefreshCookie, token, maxAge)
}

// Clear expires both cookies. Used on logout and account deletion.
func (w CookieWriter) Clear(c *gin.Context) {
	w.set(c, AccessCookie, "", -1)
	w.set(c, RefreshCookie, "", -1)
}

func (w CookieWriter) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", w.Domain, w.Secure, true)
}
