package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
	"github.com/cardstoard/cardstoard-api/internal/csvio"
	"github.com/cardstoard/cardstoard-api/internal/logger"
	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
	"github.com/cardstoard/cardstoard-api/internal/valuation"
)

type cardRequest struct {
	FirstName   string   `json:"first_name" binding:"required"`
	LastName    string   `json:"last_name" binding:"required"`
	Year        int      `json:"year" binding:"required,gte=1800,lte=2100"`
	Brand       string   `json:"brand"`
	CardNumber  string   `json:"card_number"`
	Rookie      bool     `json:"rookie"`
	Grade       *float64 `json:"grade"`
	BookHigh    *float64 `json:"book_high" binding:"omitempty,gte=0"`
	BookHighMid *float64 `json:"book_high_mid" binding:"omitempty,gte=0"`
	BookMid     *float64 `json:"book_mid" binding:"omitempty,gte=0"`
	BookLowMid  *float64 `json:"book_low_mid" binding:"omitempty,gte=0"`
	BookLow     *float64 `json:"book_low" binding:"omitempty,gte=0"`
}

func (r *cardRequest) validate() error {
	if r.Grade != nil && !schema.GradeValid(*r.Grade) {
		return fmt.Errorf("grade %v is not on the grading scale", *r.Grade)
	}
	return nil
}

func (r *cardRequest) apply(card *schema.Card) {
	card.FirstName = strings.TrimSpace(r.FirstName)
	card.LastName = strings.TrimSpace(r.LastName)
	card.Year = r.Year
	card.Brand = strings.TrimSpace(r.Brand)
	card.CardNumber = strings.TrimSpace(r.CardNumber)
	card.Rookie = r.Rookie
	card.Grade = r.Grade
	card.BookHigh = r.BookHigh
	card.BookHighMid = r.BookHighMid
	card.BookMid = r.BookMid
	card.BookLowMid = r.BookLowMid
	card.BookLow = r.BookLow
}

// CreateCard adds a card. The value is computed when a settings row exists;
// without one the card stores with an undefined value. A fully specified card
// also grows the shared dictionary.
func (h *handler) CreateCard(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	settings, err := h.store.GetSettings(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "Failed to load settings")
		return
	}

	card := schema.Card{UserID: userID}
	req.apply(&card)
	valuation.Revalue(&card, settings)

	if err := h.store.CreateCard(ctx, &card); err != nil {
		respondInternalError(c, err, "Failed to create card")
		return
	}

	h.growDictionary(c, &card)

	c.JSON(http.StatusCreated, toCardDTO(&card))
}

// ListCards returns a page of the collection
func (h *handler) ListCards(c *gin.Context) {
	skip, limit := pagination(c, 100, 500)

	cards, err := h.store.ListCards(c.Request.Context(), middleware.UserID(c), skip, limit)
	if err != nil {
		respondInternalError(c, err, "Failed to list cards")
		return
	}
	c.JSON(http.StatusOK, toCardDTOs(cards))
}

// CountCards returns the collection size
func (h *handler) CountCards(c *gin.Context) {
	count, err := h.store.CountCards(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondInternalError(c, err, "Failed to count cards")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetCard returns one owned card
func (h *handler) GetCard(c *gin.Context) {
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	card, err := h.store.GetCard(c.Request.Context(), middleware.UserID(c), cardID)
	if err != nil {
		respondInternalError(c, err, "Failed to load card")
		return
	}
	if card == nil {
		respondNotFound(c, "Card not found")
		return
	}
	c.JSON(http.StatusOK, toCardDTO(card))
}

// UpdateCard replaces the card's editable fields and recomputes its value
func (h *handler) UpdateCard(c *gin.Context) {
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	card, err := h.store.GetCard(ctx, userID, cardID)
	if err != nil {
		respondInternalError(c, err, "Failed to load card")
		return
	}
	if card == nil {
		respondNotFound(c, "Card not found")
		return
	}

	settings, err := h.store.GetSettings(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "Failed to load settings")
		return
	}

	req.apply(card)
	valuation.Revalue(card, settings)

	if err := h.store.UpdateCard(ctx, card); err != nil {
		respondInternalError(c, err, "Failed to update card")
		return
	}
	c.JSON(http.StatusOK, toCardDTO(card))
}

// DeleteCard removes one owned card
func (h *handler) DeleteCard(c *gin.Context) {
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	card, err := h.store.GetCard(ctx, userID, cardID)
	if err != nil {
		respondInternalError(c, err, "Failed to load card")
		return
	}
	if card == nil {
		respondNotFound(c, "Card not found")
		return
	}

	if err := h.store.DeleteCard(ctx, userID, cardID); err != nil {
		respondInternalError(c, err, "Failed to delete card")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Card deleted"})
}

// CardValue recomputes and persists one card's value
func (h *handler) CardValue(c *gin.Context) {
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	card, err := h.store.GetCard(ctx, userID, cardID)
	if err != nil {
		respondInternalError(c, err, "Failed to load card")
		return
	}
	if card == nil {
		respondNotFound(c, "Card not found")
		return
	}

	settings, err := h.store.GetSettings(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "Failed to load settings")
		return
	}
	if settings == nil {
		respondBadRequest(c, "Settings not provisioned")
		return
	}

	valuation.Revalue(card, settings)
	if err := h.store.UpdateCard(ctx, card); err != nil {
		respondInternalError(c, err, "Failed to save card")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card_id":       card.ID,
		"avg_book":      valuation.PickAvgBook(card),
		"market_factor": card.MarketFactor,
		"value":         card.Value,
	})
}

// RevalueAll recomputes every card and appends one valuation snapshot
func (h *handler) RevalueAll(c *gin.Context) {
	result, err := h.store.RevalueAllCards(c.Request.Context(), middleware.UserID(c), h.clock.Now())
	if err != nil {
		if errors.Is(err, store.ErrNoSettings) {
			respondBadRequest(c, "Settings not provisioned")
			return
		}
		respondInternalError(c, err, "Failed to revalue collection")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"updated": result.Updated,
		"message": fmt.Sprintf("Revalued %d cards", result.Updated),
	})
}

// ImportCardsCSV bulk-loads cards. Bad rows are skipped and reported; the
// request only fails when nothing imports.
func (h *handler) ImportCardsCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		respondBadRequest(c, "Missing file upload")
		return
	}
	defer func() { _ = file.Close() }()

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	cards, rowErrs, err := csvio.ParseCards(file, userID)
	if err != nil {
		respondBadRequest(c, "Invalid CSV", err.Error())
		return
	}
	if len(cards) == 0 {
		details := "no rows"
		if len(rowErrs) > 0 {
			details = rowErrs[0].Error()
		}
		respondBadRequest(c, "No importable rows", details)
		return
	}

	settings, err := h.store.GetSettings(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "Failed to load settings")
		return
	}
	for _, card := range cards {
		valuation.Revalue(card, settings)
	}

	if err := h.store.CreateCards(ctx, cards); err != nil {
		respondInternalError(c, err, "Failed to import cards")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": len(cards),
		"errors":   rowErrs,
	})
}

// ExportCardsCSV streams the collection in the import format
func (h *handler) ExportCardsCSV(c *gin.Context) {
	cards, err := h.store.ListAllUserCards(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondInternalError(c, err, "Failed to load cards")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="cards.csv"`)
	if err := csvio.ExportCards(c.Writer, cards); err != nil {
		logger.ErrorCtx(c.Request.Context(), fmt.Errorf("csv export failed: %w", err))
	}
}

// UploadFrontImage stores the front photo for a card
func (h *handler) UploadFrontImage(c *gin.Context) {
	h.uploadImage(c, func(card *schema.Card, path string) { card.FrontImage = &path })
}

// UploadBackImage stores the back photo for a card
func (h *handler) UploadBackImage(c *gin.Context) {
	h.uploadImage(c, func(card *schema.Card, path string) { card.BackImage = &path })
}

func (h *handler) uploadImage(c *gin.Context, assign func(*schema.Card, string)) {
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	card, err := h.store.GetCard(ctx, userID, cardID)
	if err != nil {
		respondInternalError(c, err, "Failed to load card")
		return
	}
	if card == nil {
		respondNotFound(c, "Card not found")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondBadRequest(c, "Missing file upload")
		return
	}
	defer func() { _ = file.Close() }()

	if h.cfg.UploadMaxSize > 0 && header.Size > h.cfg.UploadMaxSize {
		respondBadRequest(c, "File too large")
		return
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		respondInternalError(c, err, "Failed to inspect upload")
		return
	}
	ext, ok := imageExtension(mtype.String())
	if !ok {
		respondBadRequest(c, "Unsupported image type", mtype.String())
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondInternalError(c, err, "Failed to read upload")
		return
	}

	if err := h.fs.MkdirAll(h.cfg.UploadsDir, 0o755); err != nil {
		respondInternalError(c, err, "Failed to prepare upload dir")
		return
	}

	name := uuid.New().String() + ext
	path := filepath.Join(h.cfg.UploadsDir, name)
	dst, err := h.fs.Create(path)
	if err != nil {
		respondInternalError(c, err, "Failed to store upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		_ = dst.Close()
		_ = h.fs.Remove(path)
		respondInternalError(c, err, "Failed to store upload")
		return
	}
	if err := dst.Close(); err != nil {
		respondInternalError(c, err, "Failed to store upload")
		return
	}

	assign(card, path)
	if err := h.store.UpdateCard(ctx, card); err != nil {
		respondInternalError(c, err, "Failed to save card")
		return
	}

	c.JSON(http.StatusOK, toCardDTO(card))
}

// imageExtension maps an accepted image MIME type to its file extension
func imageExtension(mime string) (string, bool) {
	switch mime {
	case "image/jpeg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/webp":
		return ".webp", true
	default:
		return "", false
	}
}

// growDictionary adds a dictionary entry for a fully specified new card.
// Best effort; a failure never disturbs the card write.
func (h *handler) growDictionary(c *gin.Context, card *schema.Card) {
	if card.Brand == "" || card.CardNumber == "" {
		return
	}

	ctx := c.Request.Context()
	existing, err := h.store.SearchDictionary(ctx, card.FirstName, card.LastName, card.Brand, &card.Year)
	if err != nil || existing != nil {
		return
	}

	entry := schema.DictionaryEntry{
		FirstName:  card.FirstName,
		LastName:   card.LastName,
		Brand:      card.Brand,
		Year:       card.Year,
		CardNumber: card.CardNumber,
	}
	if card.Rookie {
		entry.RookieYear = &card.Year
	}
	if err := h.store.CreateDictionaryEntry(ctx, &entry); err != nil {
		logger.WarnCtx(ctx, "dictionary growth failed",
			zap.Int64("card_id", card.ID), zap.Error(err))
	}
}
