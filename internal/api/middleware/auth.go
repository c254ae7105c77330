package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cardstoard/cardstoard-api/internal/auth"
	"github.com/cardstoard/cardstoard-api/internal/logger"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "user_id"

// Auth returns a gin middleware that authenticates the JWT cookie pair.
// An expired access token with a valid refresh token is refreshed silently:
// a new access cookie is written on the response and the request proceeds.
// Anything else is a 401.
func Auth(issuer *auth.TokenIssuer, cookies auth.CookieWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := authenticate(c, issuer, cookies)
		if err != nil {
			logger.DebugCtx(c.Request.Context(), "authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Not authenticated",
				},
			})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func authenticate(c *gin.Context, issuer *auth.TokenIssuer, cookies auth.CookieWriter) (int64, error) {
	accessToken, err := c.Cookie(auth.AccessCookie)
	if err == nil && accessToken != "" {
		userID, parseErr := issuer.ParseUserToken(accessToken, auth.TokenTypeAccess)
		if parseErr == nil {
			return userID, nil
		}
		if !errors.Is(parseErr, auth.ErrExpiredToken) {
			return 0, parseErr
		}
		// Expired access token falls through to the refresh path
	}

	refreshToken, err := c.Cookie(auth.RefreshCookie)
	if err != nil || refreshToken == "" {
		return 0, errors.New("no credentials")
	}

	userID, err := issuer.ParseUserToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return 0, err
	}

	newAccess, err := issuer.IssueAccessToken(userID)
	if err != nil {
		return 0, err
	}
	cookies.SetAccess(c, newAccess, int(issuer.AccessTTL().Seconds()))

	return userID, nil
}

// UserID reads the authenticated user id set by Auth. Handlers behind the
// middleware can assume it is present.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(UserIDKey)
}
