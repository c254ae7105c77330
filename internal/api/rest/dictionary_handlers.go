package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
	"github.com/cardstoard/cardstoard-api/internal/csvio"
	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

type dictionaryEntryRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	RookieYear *int   `json:"rookie_year" binding:"omitempty,gte=1800,lte=2100"`
	Brand      string `json:"brand" binding:"required"`
	Year       int    `json:"year" binding:"required,gte=1800,lte=2100"`
	CardNumber string `json:"card_number"`
}

func (r *dictionaryEntryRequest) apply(e *schema.DictionaryEntry) {
	e.FirstName = strings.TrimSpace(r.FirstName)
	e.LastName = strings.TrimSpace(r.LastName)
	e.RookieYear = r.RookieYear
	e.Brand = strings.TrimSpace(r.Brand)
	e.Year = r.Year
	e.CardNumber = strings.TrimSpace(r.CardNumber)
}

type rookieYearRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	RookieYear *int   `json:"rookie_year" binding:"omitempty,gte=1800,lte=2100"`
}

// ListDictionaryEntries returns filtered entries, each flagged when the
// authenticated user already owns a matching card.
func (h *handler) ListDictionaryEntries(c *gin.Context) {
	skip, limit := pagination(c, 100, 500)

	filter := store.DictionaryFilter{
		LastName: strings.TrimSpace(c.Query("last_name")),
		Brand:    strings.TrimSpace(c.Query("brand")),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			respondValidationError(c, "invalid year")
			return
		}
		filter.Year = &year
	}

	ctx := c.Request.Context()
	entries, err := h.store.ListDictionaryEntries(ctx, filter, skip, limit)
	if err != nil {
		respondInternalError(c, err, "Failed to list dictionary")
		return
	}

	owned, err := h.store.CardFingerprints(ctx, middleware.UserID(c))
	if err != nil {
		respondInternalError(c, err, "Failed to load collection")
		return
	}

	out := make([]DictionaryEntryDTO, 0, len(entries))
	for i := range entries {
		dto := toDictionaryEntryDTO(&entries[i])
		key := store.Fingerprint(entries[i].FirstName, entries[i].LastName, entries[i].Year, entries[i].Brand, entries[i].CardNumber)
		_, dto.InCollection = owned[key]
		out = append(out, dto)
	}
	c.JSON(http.StatusOK, out)
}

// GetDictionaryEntry returns one entry
func (h *handler) GetDictionaryEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.store.GetDictionaryEntry(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "Failed to load entry")
		return
	}
	if entry == nil {
		respondNotFound(c, "Dictionary entry not found")
		return
	}
	c.JSON(http.StatusOK, toDictionaryEntryDTO(entry))
}

// CreateDictionaryEntry adds one entry
func (h *handler) CreateDictionaryEntry(c *gin.Context) {
	var req dictionaryEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	var entry schema.DictionaryEntry
	req.apply(&entry)

	if err := h.store.CreateDictionaryEntry(c.Request.Context(), &entry); err != nil {
		respondInternalError(c, err, "Failed to create entry")
		return
	}
	c.JSON(http.StatusCreated, toDictionaryEntryDTO(&entry))
}

// UpdateDictionaryEntry updates one entry
func (h *handler) UpdateDictionaryEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dictionaryEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	entry, err := h.store.GetDictionaryEntry(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "Failed to load entry")
		return
	}
	if entry == nil {
		respondNotFound(c, "Dictionary entry not found")
		return
	}

	req.apply(entry)
	if err := h.store.UpdateDictionaryEntry(c.Request.Context(), entry); err != nil {
		respondInternalError(c, err, "Failed to update entry")
		return
	}
	c.JSON(http.StatusOK, toDictionaryEntryDTO(entry))
}

// DeleteDictionaryEntry removes one entry
func (h *handler) DeleteDictionaryEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.store.GetDictionaryEntry(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "Failed to load entry")
		return
	}
	if entry == nil {
		respondNotFound(c, "Dictionary entry not found")
		return
	}

	if err := h.store.DeleteDictionaryEntry(c.Request.Context(), id); err != nil {
		respondInternalError(c, err, "Failed to delete entry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted"})
}

// CountDictionary returns the dictionary size
func (h *handler) CountDictionary(c *gin.Context) {
	count, err := h.store.CountDictionaryEntries(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to count dictionary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ListPlayers returns distinct player names for autocomplete
func (h *handler) ListPlayers(c *gin.Context) {
	players, err := h.store.ListDictionaryPlayers(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to list players")
		return
	}
	c.JSON(http.StatusOK, players)
}

// SearchDictionary is the smart-fill lookup: given a player name (plus
// optional brand and year), return the matched entry, the card number to
// prefill, and whether the year makes it a rookie card.
func (h *handler) SearchDictionary(c *gin.Context) {
	firstName := strings.TrimSpace(c.Query("first_name"))
	lastName := strings.TrimSpace(c.Query("last_name"))
	if firstName == "" || lastName == "" {
		respondBadRequest(c, "first_name and last_name are required")
		return
	}

	var year *int
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			respondValidationError(c, "invalid year")
			return
		}
		year = &y
	}

	entry, err := h.store.SearchDictionary(c.Request.Context(), firstName, lastName, strings.TrimSpace(c.Query("brand")), year)
	if err != nil {
		respondInternalError(c, err, "Failed to search dictionary")
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}

	rookie := entry.RookieYear != nil && *entry.RookieYear == entry.Year
	c.JSON(http.StatusOK, gin.H{
		"found":       true,
		"entry":       toDictionaryEntryDTO(entry),
		"card_number": entry.CardNumber,
		"rookie":      rookie,
	})
}

// ValidateDictionaryCSV dry-runs an import and reports what would happen
func (h *handler) ValidateDictionaryCSV(c *gin.Context) {
	entries, rowErrs, skipped, ok := h.parseDictionaryUpload(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      len(rowErrs) == 0,
		"importable": len(entries),
		"duplicates": skipped,
		"errors":     rowErrs,
	})
}

// ImportDictionaryCSV bulk-loads entries, skipping duplicates
func (h *handler) ImportDictionaryCSV(c *gin.Context) {
	entries, rowErrs, skipped, ok := h.parseDictionaryUpload(c)
	if !ok {
		return
	}
	if len(entries) == 0 && len(rowErrs) > 0 {
		respondBadRequest(c, "No importable rows", rowErrs[0].Error())
		return
	}

	if err := h.store.CreateDictionaryEntries(c.Request.Context(), entries); err != nil {
		respondInternalError(c, err, "Failed to import dictionary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported":   len(entries),
		"duplicates": skipped,
		"errors":     rowErrs,
	})
}

func (h *handler) parseDictionaryUpload(c *gin.Context) ([]*schema.DictionaryEntry, []csvio.RowError, int, bool) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		respondBadRequest(c, "Missing file upload")
		return nil, nil, 0, false
	}
	defer func() { _ = file.Close() }()

	existing, err := h.store.DictionaryFingerprints(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to load dictionary")
		return nil, nil, 0, false
	}

	entries, rowErrs, skipped, err := csvio.ParseDictionary(file, existing, store.Fingerprint)
	if err != nil {
		respondBadRequest(c, "Invalid CSV", err.Error())
		return nil, nil, 0, false
	}
	return entries, rowErrs, skipped, true
}

// SetRookieYear stamps a player's rookie year across their entries.
// A null rookie_year clears it.
func (h *handler) SetRookieYear(c *gin.Context) {
	var req rookieYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	updated, err := h.store.SetPlayerRookieYear(c.Request.Context(), req.FirstName, req.LastName, req.RookieYear)
	if err != nil {
		respondInternalError(c, err, "Failed to update rookie year")
		return
	}
	if updated == 0 {
		respondNotFound(c, "Player not found in dictionary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
