package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "type" claim. A refresh token is never accepted
// where an access token is expected, and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeVerify  = "verify"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrWrongTokenType = errors.New("unexpected token type")
)

// Claims is the JWT payload for access, refresh, and verification tokens
type Claims struct {
	TokenType string `json:"type"`
	// Email is set only on verification tokens
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses the service's JWTs with a shared HS256 secret
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a TokenIssuer with the given secret and lifetimes
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// RefreshTTL returns the configured refresh token lifetime
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// IssueAccessToken signs a short-lived access token for the user
func (t *TokenIssuer) IssueAccessToken(userID int64) (string, error) {
	return t.sign(TokenTypeAccess, strconv.FormatInt(userID, 10), "", t.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the user
func (t *TokenIssuer) IssueRefreshToken(userID int64) (string, error) {
	return t.sign(TokenTypeRefresh, strconv.FormatInt(userID, 10), "", t.refreshTTL)
}

// IssueVerifyToken signs an email verification token. The subject is empty;
// the target address rides in the email claim.
func (t *TokenIssuer) IssueVerifyToken(email string, ttl time.Duration) (string, error) {
	return t.sign(TokenTypeVerify, "", email, ttl)
}

func (t *TokenIssuer) sign(tokenType, subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseUserToken validates a signed access or refresh token and returns the
// user id it was issued for. Expired tokens return ErrExpiredToken so the
// middleware can distinguish "refresh now" from "reject".
func (t *TokenIssuer) ParseUserToken(tokenString, wantType string) (int64, error) {
	claims, err := t.parse(tokenString)
	if err != nil {
		return 0, err
	}
	if claims.TokenType != wantType {
		return 0, ErrWrongTokenType
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// ParseVerifyToken validates an email verification token and returns the
// address it was issued for.
func (t *TokenIssuer) ParseVerifyToken(tokenString string) (string, error) {
	claims, err := t.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeVerify {
		return "", ErrWrongTokenType
	}
	if claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (t *TokenIssuer) parse(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
