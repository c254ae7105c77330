package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cardstoard/cardstoard-api/internal/adapter"
	"github.com/cardstoard/cardstoard-api/internal/auth"
	"github.com/cardstoard/cardstoard-api/internal/chat"
	"github.com/cardstoard/cardstoard-api/internal/mailer"
	"github.com/cardstoard/cardstoard-api/internal/store"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
type Handler interface {
	// Register creates an account, provisions default settings, and sends
	// the verification mail
	// POST /auth/register
	Register(c *gin.Context)

	// Login checks credentials (and the TOTP code when MFA is enabled) and
	// sets the JWT cookie pair
	// POST /auth/login
	Login(c *gin.Context)

	// Refresh rotates the access token from a valid refresh cookie
	// POST /auth/refresh
	Refresh(c *gin.Context)

	// Logout clears both auth cookies
	// POST /auth/logout
	Logout(c *gin.Context)

	// VerifyEmail confirms an address from a mailed token
	// GET /auth/verify?token=<token>
	VerifyEmail(c *gin.Context)

	// ResendVerification sends a fresh verification mail
	// POST /auth/resend-verify
	ResendVerification(c *gin.Context)

	// MFASetup provisions a TOTP secret and returns it with a QR code
	// POST /auth/mfa/setup
	MFASetup(c *gin.Context)

	// MFAEnable turns MFA on after the user proves possession of the secret
	// POST /auth/mfa/enable
	MFAEnable(c *gin.Context)

	// MFADisable turns MFA off after a valid code
	// POST /auth/mfa/disable
	MFADisable(c *gin.Context)

	// GetAccount returns the authenticated account
	// GET /account/
	GetAccount(c *gin.Context)

	// UpdateUsername changes the display handle
	// POST /account/update-username
	UpdateUsername(c *gin.Context)

	// UpdateEmail changes the login address and resets verification
	// POST /account/update-email
	UpdateEmail(c *gin.Context)

	// ChangePassword rotates the password after checking the current one
	// POST /account/change-password
	ChangePassword(c *gin.Context)

	// DeleteAccount removes the account and everything it owns
	// DELETE /account/delete
	DeleteAccount(c *gin.Context)

	// CreateCard adds a card, computing its value when settings exist
	// POST /cards/
	CreateCard(c *gin.Context)

	// ListCards returns a page of the collection
	// GET /cards/?skip=<n>&limit=<n>
	ListCards(c *gin.Context)

	// CountCards returns the collection size
	// GET /cards/count
	CountCards(c *gin.Context)

	// GetCard returns one owned card
	// GET /cards/:id
	GetCard(c *gin.Context)

	// UpdateCard updates a card and recomputes its value
	// PUT /cards/:id
	UpdateCard(c *gin.Context)

	// DeleteCard removes one owned card
	// DELETE /cards/:id
	DeleteCard(c *gin.Context)

	// ImportCardsCSV bulk-loads cards from the CSV format
	// POST /cards/import-csv
	ImportCardsCSV(c *gin.Context)

	// ExportCardsCSV streams the collection in the same CSV format
	// GET /cards/export-csv
	ExportCardsCSV(c *gin.Context)

	// UploadFrontImage stores the front photo for a card
	// POST /cards/:id/upload-front
	UploadFrontImage(c *gin.Context)

	// UploadBackImage stores the back photo for a card
	// POST /cards/:id/upload-back
	UploadBackImage(c *gin.Context)

	// CardValue recomputes and persists one card's value
	// POST /cards/:id/value
	CardValue(c *gin.Context)

	// RevalueAll recomputes every card and appends a valuation snapshot
	// POST /cards/revalue-all
	RevalueAll(c *gin.Context)

	// GetSettings returns the settings row, provisioning defaults if missing
	// GET /settings/
	GetSettings(c *gin.Context)

	// UpdateSettings partially updates the settings row
	// PUT /settings/
	UpdateSettings(c *gin.Context)

	// ListDictionaryEntries returns filtered entries with an in-collection flag
	// GET /dictionary/entries?last_name=<s>&brand=<s>&year=<n>&skip=<n>&limit=<n>
	ListDictionaryEntries(c *gin.Context)

	// GetDictionaryEntry returns one entry
	// GET /dictionary/entries/:id
	GetDictionaryEntry(c *gin.Context)

	// CreateDictionaryEntry adds one entry
	// POST /dictionary/entries
	CreateDictionaryEntry(c *gin.Context)

	// UpdateDictionaryEntry updates one entry
	// PUT /dictionary/entries/:id
	UpdateDictionaryEntry(c *gin.Context)

	// DeleteDictionaryEntry removes one entry
	// DELETE /dictionary/entries/:id
	DeleteDictionaryEntry(c *gin.Context)

	// CountDictionary returns the dictionary size
	// GET /dictionary/count
	CountDictionary(c *gin.Context)

	// ListPlayers returns distinct player names for autocomplete
	// GET /dictionary/players
	ListPlayers(c *gin.Context)

	// SearchDictionary performs the smart-fill lookup
	// GET /dictionary/search?first_name=<s>&last_name=<s>&brand=<s>&year=<n>
	SearchDictionary(c *gin.Context)

	// ValidateDictionaryCSV dry-runs a dictionary import
	// POST /dictionary/validate-csv
	ValidateDictionaryCSV(c *gin.Context)

	// ImportDictionaryCSV bulk-loads dictionary entries, skipping duplicates
	// POST /dictionary/import-csv
	ImportDictionaryCSV(c *gin.Context)

	// SetRookieYear stamps a player's rookie year across their entries
	// PATCH /dictionary/players/rookie-year
	SetRookieYear(c *gin.Context)

	// GetAnalytics returns the aggregate collection report
	// GET /analytics/
	GetAnalytics(c *gin.Context)

	// CreateSale records a manually observed sale
	// POST /valuation/sales
	CreateSale(c *gin.Context)

	// ListSales returns recent sales for a card
	// GET /valuation/sales/:card_id?limit=<n>
	ListSales(c *gin.Context)

	// SaleStats returns min/max/avg over a card's sales
	// GET /valuation/stats/:card_id
	SaleStats(c *gin.Context)

	// SaleTrends returns monthly averages and rolling windows
	// GET /valuation/trends/:card_id
	SaleTrends(c *gin.Context)

	// FetchSalesNow triggers the sales sweep outside its schedule
	// POST /valuation/fetch-now
	FetchSalesNow(c *gin.Context)

	// Chat answers one assistant turn grounded in the collection
	// POST /chat/
	Chat(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// ChatService is the slice of the assistant the handlers need
type ChatService interface {
	Chat(ctx context.Context, userID int64, message string, history []chat.Message) (string, []chat.Action, error)
}

// SalesRunner triggers a sales sweep outside its schedule
type SalesRunner interface {
	RunOnce(ctx context.Context)
}

// Config holds handler settings that do not belong to a dependency
type Config struct {
	UploadsDir    string
	UploadMaxSize int64
	FrontendURL   string
	TOTPIssuer    string
	VerifyTTL     time.Duration
}

// handler implements the Handler interface
type handler struct {
	store   store.Store
	issuer  *auth.TokenIssuer
	cookies auth.CookieWriter
	mail    mailer.Mailer
	chat    ChatService
	sales   SalesRunner
	fs      adapter.FileSystem
	clock   adapter.Clock
	cfg     Config
}

// NewHandler creates a new REST API handler. chat and sales may be nil when
// the feature is not configured; the endpoints then answer 400.
func NewHandler(
	st store.Store,
	issuer *auth.TokenIssuer,
	cookies auth.CookieWriter,
	mail mailer.Mailer,
	chatSvc ChatService,
	salesRunner SalesRunner,
	fs adapter.FileSystem,
	clock adapter.Clock,
	cfg Config,
) Handler {
	if cfg.VerifyTTL == 0 {
		cfg.VerifyTTL = 24 * time.Hour
	}
	return &handler{
		store:   st,
		issuer:  issuer,
		cookies: cookies,
		mail:    mail,
		chat:    chatSvc,
		sales:   salesRunner,
		fs:      fs,
		clock:   clock,
		cfg:     cfg,
	}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   h.clock.Now().UTC(),
	})
}

// pathID parses a positive int64 path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// pagination parses skip/limit query parameters with bounds
func pagination(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
