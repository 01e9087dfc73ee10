package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procurement-api/internal/dto"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/response"
)

type notificationService interface {
	SendSummary(ctx context.Context, req dto.SendEmailRequest) error
	SendStatusSummary(ctx context.Context, req dto.SendNotificationsRequest) error
}

// NotificationHandler serves the mail endpoints.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// SendEmail godoc
// @Summary Mail a PDF summary
// @Description Render items into a summary PDF and send it as an attachment
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.SendEmailRequest true "Recipient and items"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /sendEmail [post]
func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var req dto.SendEmailRequest
	if !bindJSON(c, &req, "invalid email payload") {
		return
	}
	if err := h.service.SendSummary(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Email sent successfully")
}

// SendNotifications godoc
// @Summary Mail a status summary
// @Description Send an HTML table of request lines with their status
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.SendNotificationsRequest true "Recipient, status and lines"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /sendNotifications [post]
func (h *NotificationHandler) SendNotifications(c *gin.Context) {
	var req dto.SendNotificationsRequest
	if !bindJSON(c, &req, "invalid notification payload") {
		return
	}
	if err := h.service.SendStatusSummary(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Notification sent successfully")
}

// UpdateEnv godoc
// @Summary Rotate mail credentials (not supported)
// @Description Mail credentials come from deployment configuration and cannot be changed at runtime
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.UpdateEnvRequest true "Credentials"
// @Failure 501 {object} response.Envelope
// @Router /updateEnv [post]
func (h *NotificationHandler) UpdateEnv(c *gin.Context) {
	response.Error(c, appErrors.Clone(appErrors.ErrNotSupported, "mail credentials are managed by deployment configuration"))
}
