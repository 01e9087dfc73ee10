package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/internal/realtime"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/logger"
	"github.com/noah-isme/procurement-api/pkg/response"
)

const keepAliveInterval = 25 * time.Second

type subscriber interface {
	Subscribe(path, owner string, onChange func(models.Snapshot)) (func(), error)
}

// adminCollections are readable only by administrators.
var adminCollections = map[string]struct{}{"users": {}, "activities": {}}

// ownerScoped collections are narrowed to the lecturer's own documents.
var ownerScoped = map[string]struct{}{"requests": {}}

// SubscribeHandler streams snapshots of a path as server-sent events.
type SubscribeHandler struct {
	hub       subscriber
	keepAlive time.Duration
}

// NewSubscribeHandler constructs the handler.
func NewSubscribeHandler(hub subscriber) *SubscribeHandler {
	return &SubscribeHandler{hub: hub, keepAlive: keepAliveInterval}
}

// Stream godoc
// @Summary Subscribe to a path
// @Description Streams a "snapshot" event with the full current value now and after every change under path
// @Tags Realtime
// @Produce text/event-stream
// @Param path query string true "Collection path such as requests, requests/{id}, foodItems, categories/{vendorId}"
// @Success 200 {string} string "event stream"
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subscribe [get]
func (h *SubscribeHandler) Stream(c *gin.Context) {
	actor := requireClaims(c)
	if actor == nil {
		return
	}
	path, segments := realtime.NormalizePath(c.Query("path"))
	if len(segments) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown subscription path"))
		return
	}
	root := segments[0]

	owner := ""
	if actor.Role != models.RoleAdmin {
		if _, ok := adminCollections[root]; ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		if _, ok := ownerScoped[root]; ok {
			owner = actor.UserID
		}
	}

	// Each snapshot is complete, so a slow client only needs the latest one.
	updates := make(chan models.Snapshot, 1)
	cancel, err := h.hub.Subscribe(path, owner, func(s models.Snapshot) {
		select {
		case <-updates:
		default:
		}
		updates <- s
	})
	if err != nil {
		if errors.Is(err, realtime.ErrUnknownPath) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown subscription path"))
			return
		}
		response.Error(c, appErrors.Internal(err, "failed to subscribe"))
		return
	}
	defer cancel()

	log := logger.FromContext(c).With(zap.String("path", path))
	log.Debug("subscription opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			log.Debug("subscription closed")
			return false
		case snap := <-updates:
			c.SSEvent("snapshot", snap)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
