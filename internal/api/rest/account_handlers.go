package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
	"github.com/cardstoard/cardstoard-api/internal/auth"
)

type updateUsernameRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
}

type updateEmailRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// GetAccount returns the authenticated account
func (h *handler) GetAccount(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toUserDTO(user))
}

// UpdateUsername changes the display handle
func (h *handler) UpdateUsername(c *gin.Context) {
	var req updateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	username := strings.TrimSpace(req.Username)
	taken, err := h.store.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		respondInternalError(c, err, "Failed to check username")
		return
	}
	if taken != nil && taken.ID != user.ID {
		respondBadRequest(c, "Username already taken")
		return
	}

	user.Username = &username
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondInternalError(c, err, "Failed to update username")
		return
	}

	c.JSON(http.StatusOK, toUserDTO(user))
}

// UpdateEmail changes the login address after a password check and resets
// verification; a fresh verification mail goes to the new address.
func (h *handler) UpdateEmail(c *gin.Context) {
	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		respondUnauthorized(c, "Invalid password")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		taken, err := h.store.GetUserByEmail(c.Request.Context(), email)
		if err != nil {
			respondInternalError(c, err, "Failed to check email")
			return
		}
		if taken != nil {
			respondBadRequest(c, "Email already registered")
			return
		}
	}

	user.Email = email
	user.IsVerified = false
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondInternalError(c, err, "Failed to update email")
		return
	}

	h.sendVerificationMail(c, email)
	c.JSON(http.StatusOK, toUserDTO(user))
}

// ChangePassword rotates the password after checking the current one
func (h *handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		respondUnauthorized(c, "Invalid password")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondInternalError(c, err, "Failed to hash password")
		return
	}

	user.PasswordHash = hash
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondInternalError(c, err, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// DeleteAccount removes the account and everything it owns, then clears the
// cookies.
func (h *handler) DeleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		respondUnauthorized(c, "Invalid password")
		return
	}

	if err := h.store.DeleteUser(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondInternalError(c, err, "Failed to delete account")
		return
	}

	h.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
