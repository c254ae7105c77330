package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

type settingsRequest struct {
	AppName       *string        `json:"app_name" binding:"omitempty,max=64"`
	RookieFactor  *float64       `json:"rookie_factor" binding:"omitempty,gte=0,lte=10"`
	AutoFactor    *float64       `json:"auto_factor" binding:"omitempty,gte=0,lte=10"`
	MTGradeFactor *float64       `json:"mtgrade_factor" binding:"omitempty,gte=0,lte=10"`
	EXGradeFactor *float64       `json:"exgrade_factor" binding:"omitempty,gte=0,lte=10"`
	VGGradeFactor *float64       `json:"vggrade_factor" binding:"omitempty,gte=0,lte=10"`
	GDGradeFactor *float64       `json:"gdgrade_factor" binding:"omitempty,gte=0,lte=10"`
	FRGradeFactor *float64       `json:"frgrade_factor" binding:"omitempty,gte=0,lte=10"`
	PRGradeFactor *float64       `json:"prgrade_factor" binding:"omitempty,gte=0,lte=10"`
	VintageYear   *int           `json:"vintage_year" binding:"omitempty,gte=1800,lte=2100"`
	ModernYear    *int           `json:"modern_year" binding:"omitempty,gte=1800,lte=2100"`
	VintageFactor *float64       `json:"vintage_factor" binding:"omitempty,gte=0,lte=10"`
	ModernFactor  *float64       `json:"modern_factor" binding:"omitempty,gte=0,lte=10"`
	DisplayPrefs  map[string]any `json:"display_prefs"`
}

// updates flattens the set fields into a column update map
func (r *settingsRequest) updates() (map[string]interface{}, error) {
	u := make(map[string]interface{})

	if r.AppName != nil {
		u["app_name"] = *r.AppName
	}
	if r.RookieFactor != nil {
		u["rookie_factor"] = *r.RookieFactor
	}
	if r.AutoFactor != nil {
		u["auto_factor"] = *r.AutoFactor
	}
	if r.MTGradeFactor != nil {
		u["mtgrade_factor"] = *r.MTGradeFactor
	}
	if r.EXGradeFactor != nil {
		u["exgrade_factor"] = *r.EXGradeFactor
	}
	if r.VGGradeFactor != nil {
		u["vggrade_factor"] = *r.VGGradeFactor
	}
	if r.GDGradeFactor != nil {
		u["gdgrade_factor"] = *r.GDGradeFactor
	}
	if r.FRGradeFactor != nil {
		u["frgrade_factor"] = *r.FRGradeFactor
	}
	if r.PRGradeFactor != nil {
		u["prgrade_factor"] = *r.PRGradeFactor
	}
	if r.VintageYear != nil {
		u["vintage_year"] = *r.VintageYear
	}
	if r.ModernYear != nil {
		u["modern_year"] = *r.ModernYear
	}
	if r.VintageFactor != nil {
		u["vintage_factor"] = *r.VintageFactor
	}
	if r.ModernFactor != nil {
		u["modern_factor"] = *r.ModernFactor
	}

	if r.DisplayPrefs != nil {
		raw, err := json.Marshal(r.DisplayPrefs)
		if err != nil {
			return nil, err
		}
		u["display_prefs"] = datatypes.JSON(raw)
	}
	return u, nil
}

// GetSettings returns the settings row, provisioning defaults for accounts
// that predate automatic provisioning.
func (h *handler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	settings, err := h.store.GetSettings(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "Failed to load settings")
		return
	}
	if settings == nil {
		settings = schema.NewDefaultSettings(userID)
		if err := h.store.CreateSettings(ctx, settings); err != nil {
			respondInternalError(c, err, "Failed to provision settings")
			return
		}
	}

	c.JSON(http.StatusOK, toSettingsDTO(settings))
}

// UpdateSettings partially updates the settings row. Card values are not
// recomputed here; clients follow up with /cards/revalue-all.
func (h *handler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	updates, err := req.updates()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if len(updates) == 0 {
		respondBadRequest(c, "No fields to update")
		return
	}

	settings, err := h.store.UpdateSettings(c.Request.Context(), middleware.UserID(c), updates)
	if err != nil {
		if errors.Is(err, store.ErrNoSettings) {
			respondBadRequest(c, "Settings not provisioned")
			return
		}
		respondInternalError(c, err, "Failed to update settings")
		return
	}

	c.JSON(http.StatusOK, toSettingsDTO(settings))
}
