package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
	"github.com/cardstoard/cardstoard-api/internal/auth"
	"github.com/cardstoard/cardstoard-api/internal/logger"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

type registerRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Username *string `json:"username" binding:"omitempty,min=3,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	MFACode  string `json:"mfa_code"`
}

type mfaCodeRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

// Register creates an account, provisions default settings, and sends the
// verification mail. Mail failure does not fail registration.
func (h *handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		respondInternalError(c, err, "Failed to check account")
		return
	}
	if existing != nil {
		respondBadRequest(c, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondInternalError(c, err, "Failed to hash password")
		return
	}

	user := schema.User{
		Email:        email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := h.store.CreateUser(ctx, &user); err != nil {
		respondInternalError(c, err, "Failed to create account")
		return
	}

	if err := h.store.CreateSettings(ctx, schema.NewDefaultSettings(user.ID)); err != nil {
		respondInternalError(c, err, "Failed to provision settings")
		return
	}

	h.sendVerificationMail(c, email)

	c.JSON(http.StatusCreated, toUserDTO(&user))
}

// Login checks credentials and, when MFA is enabled, the TOTP code. Success
// sets the cookie pair.
func (h *handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		respondInternalError(c, err, "Failed to load account")
		return
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		respondUnauthorized(c, "Invalid email or password")
		return
	}

	if user.MFAEnabled {
		if req.MFACode == "" {
			c.JSON(http.StatusOK, gin.H{"mfa_required": true})
			return
		}
		if user.MFASecret == nil || !auth.ValidateTOTPCode(req.MFACode, *user.MFASecret) {
			respondUnauthorized(c, "Invalid MFA code")
			return
		}
	}

	if err := h.setAuthCookies(c, user.ID); err != nil {
		respondInternalError(c, err, "Failed to issue tokens")
		return
	}

	c.JSON(http.StatusOK, toUserDTO(user))
}

// Refresh rotates the access token from a valid refresh cookie
func (h *handler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(auth.RefreshCookie)
	if err != nil || refreshToken == "" {
		respondUnauthorized(c, "Not authenticated")
		return
	}

	userID, err := h.issuer.ParseUserToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		respondUnauthorized(c, "Not authenticated")
		return
	}

	access, err := h.issuer.IssueAccessToken(userID)
	if err != nil {
		respondInternalError(c, err, "Failed to issue token")
		return
	}
	h.cookies.SetAccess(c, access, int(h.issuer.AccessTTL().Seconds()))

	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed"})
}

// Logout clears both auth cookies
func (h *handler) Logout(c *gin.Context) {
	h.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// VerifyEmail confirms an address from a mailed token
func (h *handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondBadRequest(c, "Missing token")
		return
	}

	email, err := h.issuer.ParseVerifyToken(token)
	if err != nil {
		respondBadRequest(c, "Invalid or expired verification link")
		return
	}

	if err := h.store.MarkUserVerified(c.Request.Context(), email); err != nil {
		respondInternalError(c, err, "Failed to verify email")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

// ResendVerification sends a fresh verification mail to the authenticated
// account.
func (h *handler) ResendVerification(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if user.IsVerified {
		respondBadRequest(c, "Email already verified")
		return
	}

	h.sendVerificationMail(c, user.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Verification mail sent"})
}

// MFASetup provisions a TOTP secret and returns it with a QR code. The
// secret stays inactive until MFAEnable confirms a code against it.
func (h *handler) MFASetup(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	secret, url, err := auth.GenerateTOTPSecret(h.cfg.TOTPIssuer, user.Email)
	if err != nil {
		respondInternalError(c, err, "Failed to generate MFA secret")
		return
	}

	qr, err := auth.TOTPQRCodePNG(url)
	if err != nil {
		respondInternalError(c, err, "Failed to render QR code")
		return
	}

	user.MFASecret = &secret
	user.MFAEnabled = false
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondInternalError(c, err, "Failed to store MFA secret")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"secret":      secret,
		"otpauth_url": url,
		"qr_png":      qr,
	})
}

// MFAEnable turns MFA on after the user proves possession of the secret
func (h *handler) MFAEnable(c *gin.Context) {
	var req mfaCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if user.MFASecret == nil {
		respondBadRequest(c, "MFA setup has not been started")
		return
	}
	if !auth.ValidateTOTPCode(req.Code, *user.MFASecret) {
		respondBadRequest(c, "Invalid MFA code")
		return
	}

	user.MFAEnabled = true
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondInternalError(c, err, "Failed to enable MFA")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "MFA enabled"})
}

// MFADisable turns MFA off after a valid code
func (h *handler) MFADisable(c *gin.Context) {
	var req mfaCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !user.MFAEnabled || user.MFASecret == nil {
		respondBadRequest(c, "MFA is not enabled")
		return
	}
	if !auth.ValidateTOTPCode(req.Code, *user.MFASecret) {
		respondBadRequest(c, "Invalid MFA code")
		return
	}

	user.MFAEnabled = false
	user.MFASecret = nil
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondInternalError(c, err, "Failed to disable MFA")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "MFA disabled"})
}

// setAuthCookies issues and sets the access/refresh pair
func (h *handler) setAuthCookies(c *gin.Context, userID int64) error {
	access, err := h.issuer.IssueAccessToken(userID)
	if err != nil {
		return err
	}
	refresh, err := h.issuer.IssueRefreshToken(userID)
	if err != nil {
		return err
	}

	h.cookies.SetAccess(c, access, int(h.issuer.AccessTTL().Seconds()))
	h.cookies.SetRefresh(c, refresh, int(h.issuer.RefreshTTL().Seconds()))
	return nil
}

// sendVerificationMail issues a token and mails the link, logging instead of
// failing when delivery breaks.
func (h *handler) sendVerificationMail(c *gin.Context, email string) {
	token, err := h.issuer.IssueVerifyToken(email, h.cfg.VerifyTTL)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), fmt.Errorf("failed to issue verify token: %w", err))
		return
	}

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(h.cfg.FrontendURL, "/"), token)
	if err := h.mail.SendVerificationMail(c.Request.Context(), email, verifyURL); err != nil {
		logger.WarnCtx(c.Request.Context(), "verification mail failed",
			zap.String("email", email), zap.Error(err))
	}
}

// currentUser loads the authenticated account, answering the request itself
// on failure.
func (h *handler) currentUser(c *gin.Context) (*schema.User, bool) {
	userID := middleware.UserID(c)
	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondInternalError(c, err, "Failed to load account")
		return nil, false
	}
	if user == nil {
		respondUnauthorized(c, "Account no longer exists")
		return nil, false
	}
	return user, true
}
