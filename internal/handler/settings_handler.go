package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/pkg/response"
)

const defaultActivityLimit = 50

type settingsService interface {
	Countdown(ctx context.Context) (bool, error)
	SetCountdown(ctx context.Context, actor *models.JWTClaims, req dto.CountdownSetting) (bool, error)
}

type activityService interface {
	List(ctx context.Context, limit int) ([]models.Activity, error)
}

// SettingsHandler serves the countdown flag and the activity feed.
type SettingsHandler struct {
	settings   settingsService
	activities activityService
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(settings settingsService, activities activityService) *SettingsHandler {
	return &SettingsHandler{settings: settings, activities: activities}
}

// Countdown godoc
// @Summary Read the countdown flag
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/countdown [get]
func (h *SettingsHandler) Countdown(c *gin.Context) {
	enabled, err := h.settings.Countdown(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"enabled": enabled}, nil)
}

// SetCountdown godoc
// @Summary Set the countdown flag
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.CountdownSetting true "Flag"
// @Success 200 {object} response.Envelope
// @Router /settings/countdown [put]
func (h *SettingsHandler) SetCountdown(c *gin.Context) {
	var req dto.CountdownSetting
	if !bindJSON(c, &req, "enabled is required") {
		return
	}
	enabled, err := h.settings.SetCountdown(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"enabled": enabled}, nil)
}

// Activities godoc
// @Summary Recent activity
// @Description Newest first; entries older than the retention window are pruned
// @Tags Settings
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *SettingsHandler) Activities(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultActivityLimit)))
	if err != nil || limit <= 0 || limit > 500 {
		limit = defaultActivityLimit
	}
	items, err := h.activities.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
