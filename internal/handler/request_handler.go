package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/middleware"
	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/internal/service"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/response"
)

type requestService interface {
	Submit(ctx context.Context, actor *models.JWTClaims, upload service.Upload) (*models.Request, error)
	SubmitBatch(ctx context.Context, actor *models.JWTClaims, uploads []service.Upload) ([]dto.SubmitResult, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Request, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.RequestListQuery) ([]models.Request, error)
	Resubmit(ctx context.Context, actor *models.JWTClaims, id string, req dto.ResubmitRequest) (*models.Request, error)
}

type reviewService interface {
	Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.Request, error)
	Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectRequest) (*models.Request, error)
}

type forwardingService interface {
	Forward(ctx context.Context, actor *models.JWTClaims, req dto.ForwardRequest) (*dto.ForwardResult, error)
}

// RequestHandler exposes procurement request endpoints.
type RequestHandler struct {
	requests   requestService
	reviews    reviewService
	forwarding forwardingService
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(requests requestService, reviews reviewService, forwarding forwardingService) *RequestHandler {
	return &RequestHandler{requests: requests, reviews: reviews, forwarding: forwarding}
}

// Upload godoc
// @Summary Submit request forms
// @Description Upload one or more request spreadsheets. A single file answers with the created request; several files answer with one result per file in completion order.
// @Tags Requests
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Request form(s)"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Upload(c *gin.Context) {
	actor := requireClaims(c)
	if actor == nil {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form with files is required"))
		return
	}
	headers := append(append([]*multipart.FileHeader{}, form.File["files"]...), form.File["file"]...)
	if len(headers) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one file is required"))
		return
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			response.Error(c, err)
			return
		}
		uploads = append(uploads, service.Upload{Name: fh.Filename, Data: data})
	}

	if len(uploads) == 1 {
		req, err := h.requests.Submit(c.Request.Context(), actor, uploads[0])
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, req)
		return
	}

	results, err := h.requests.SubmitBatch(c.Request.Context(), actor, uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// List godoc
// @Summary List requests
// @Description Lecturers see only their own requests
// @Tags Requests
// @Produce json
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Param includeArchived query bool false "Include archived (admins only)"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	actor := requireClaims(c)
	if actor == nil {
		return
	}
	var query dto.RequestListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.requests.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, middleware.ResponseMeta(c, map[string]interface{}{"count": len(items)}))
}

// Get godoc
// @Summary Get request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	actor := requireClaims(c)
	if actor == nil {
		return
	}
	req, err := h.requests.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Resubmit godoc
// @Summary Edit and resubmit a request
// @Description The owner edits header or items; the request returns to Pending
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ResubmitRequest true "Edits"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id} [put]
func (h *RequestHandler) Resubmit(c *gin.Context) {
	actor := requireClaims(c)
	if actor == nil {
		return
	}
	var req dto.ResubmitRequest
	if !bindJSON(c, &req, "invalid request payload") {
		return
	}
	updated, err := h.requests.Resubmit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Approve godoc
// @Summary Approve a pending request
// @Tags Review
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	actor := requireClaims(c)
	if actor == nil {
		return
	}
	req, err := h.reviews.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Reject godoc
// @Summary Reject a pending request
// @Tags Review
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectRequest true "Remark"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	actor := requireClaims(c)
	if actor == nil {
		return
	}
	var body dto.RejectRequest
	if !bindJSON(c, &body, "remark is required") {
		return
	}
	req, err := h.reviews.Reject(c.Request.Context(), actor, c.Param("id"), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Forward godoc
// @Summary Forward approved requests to a vendor
// @Description Aggregates every approved request into one PDF and mails it to the vendor
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body dto.ForwardRequest true "Vendor"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forward [post]
func (h *RequestHandler) Forward(c *gin.Context) {
	actor := requireClaims(c)
	if actor == nil {
		return
	}
	var req dto.ForwardRequest
	if !bindJSON(c, &req, "vendorId is required") {
		return
	}
	result, err := h.forwarding.Forward(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
