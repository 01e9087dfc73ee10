package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/internal/service"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/response"
)

type stockService interface {
	SetStock(ctx context.Context, actor *models.JWTClaims, id string, req dto.SetStockRequest) (*dto.StockResponse, error)
	Step(ctx context.Context, actor *models.JWTClaims, id string, req dto.StepStockRequest) (*dto.StockResponse, error)
	BulkAdjust(ctx context.Context, actor *models.JWTClaims, req dto.BulkStockRequest) ([]models.StockAdjustResult, error)
	BulkAdjustFromSheet(ctx context.Context, actor *models.JWTClaims, mode models.StockAdjustMode, r io.Reader) ([]models.StockAdjustResult, error)
	Export(ctx context.Context, format string) (*service.StockExport, error)
}

type ingestionService interface {
	Preview(ctx context.Context, data []byte, mimeType string) ([]models.StockLine, error)
	Apply(ctx context.Context, actor *models.JWTClaims, mode models.StockAdjustMode, data []byte, mimeType string) ([]models.StockAdjustResult, error)
}

// StockHandler exposes stock ledger endpoints.
type StockHandler struct {
	stock     stockService
	ingestion ingestionService
}

// NewStockHandler constructs the handler.
func NewStockHandler(stock stockService, ingestion ingestionService) *StockHandler {
	return &StockHandler{stock: stock, ingestion: ingestion}
}

// SetStock godoc
// @Summary Set stock
// @Description Write the integer typed into the stock field
// @Tags Stock
// @Accept json
// @Produce json
// @Param id path string true "Food item ID"
// @Param payload body dto.SetStockRequest true "Value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /food-items/{id}/stock [put]
func (h *StockHandler) SetStock(c *gin.Context) {
	var req dto.SetStockRequest
	if !bindJSON(c, &req, "value is required") {
		return
	}
	res, err := h.stock.SetStock(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Step godoc
// @Summary Increment or decrement stock
// @Tags Stock
// @Accept json
// @Produce json
// @Param id path string true "Food item ID"
// @Param payload body dto.StepStockRequest true "Delta of -1 or 1"
// @Success 200 {object} response.Envelope
// @Router /food-items/{id}/stock/step [post]
func (h *StockHandler) Step(c *gin.Context) {
	var req dto.StepStockRequest
	if !bindJSON(c, &req, "delta is required") {
		return
	}
	res, err := h.stock.Step(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Bulk godoc
// @Summary Bulk stock adjustment
// @Description Apply description/quantity lines to items of the same name
// @Tags Stock
// @Accept json
// @Produce json
// @Param payload body dto.BulkStockRequest true "Mode and lines"
// @Success 200 {object} response.Envelope
// @Router /stock/bulk [post]
func (h *StockHandler) Bulk(c *gin.Context) {
	var req dto.BulkStockRequest
	if !bindJSON(c, &req, "invalid stock adjustment") {
		return
	}
	results, err := h.stock.BulkAdjust(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// BulkSheet godoc
// @Summary Bulk stock adjustment from a workbook
// @Tags Stock
// @Accept multipart/form-data
// @Produce json
// @Param mode formData string true "add or subtract"
// @Param file formData file true "Market-list workbook with Items and Stocks columns"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /stock/bulk/sheet [post]
func (h *StockHandler) BulkSheet(c *gin.Context) {
	mode, ok := adjustMode(c)
	if !ok {
		return
	}
	_, data, ok := singleFile(c, "file")
	if !ok {
		return
	}
	results, err := h.stock.BulkAdjustFromSheet(c.Request.Context(), claimsFromContext(c), mode, bytes.NewReader(data))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Export godoc
// @Summary Export the stock list
// @Tags Stock
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /stock/export [get]
func (h *StockHandler) Export(c *gin.Context) {
	out, err := h.stock.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// PreviewNote godoc
// @Summary Read a delivery note
// @Description Extract description/quantity lines from a PDF or image without changing stock
// @Tags Stock
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Delivery note"
// @Success 200 {object} response.Envelope
// @Router /stock/delivery-notes/preview [post]
func (h *StockHandler) PreviewNote(c *gin.Context) {
	fh, data, ok := singleFile(c, "file")
	if !ok {
		return
	}
	lines, err := h.ingestion.Preview(c.Request.Context(), data, contentType(fh.Header.Get("Content-Type"), data))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lines, nil)
}

// ApplyNote godoc
// @Summary Apply a delivery note to stock
// @Tags Stock
// @Accept multipart/form-data
// @Produce json
// @Param mode formData string true "add or subtract"
// @Param file formData file true "Delivery note"
// @Success 200 {object} response.Envelope
// @Router /stock/delivery-notes [post]
func (h *StockHandler) ApplyNote(c *gin.Context) {
	mode, ok := adjustMode(c)
	if !ok {
		return
	}
	fh, data, ok := singleFile(c, "file")
	if !ok {
		return
	}
	results, err := h.ingestion.Apply(c.Request.Context(), claimsFromContext(c), mode, data, contentType(fh.Header.Get("Content-Type"), data))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

func adjustMode(c *gin.Context) (models.StockAdjustMode, bool) {
	mode := models.StockAdjustMode(strings.ToLower(c.PostForm("mode")))
	if mode != models.StockAdd && mode != models.StockSubtract {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "mode must be add or subtract"))
		return "", false
	}
	return mode, true
}

// contentType trusts the declared part type unless it is missing or generic.
func contentType(declared string, data []byte) string {
	declared = strings.TrimSpace(strings.SplitN(declared, ";", 2)[0])
	if declared == "" || declared == "application/octet-stream" {
		return strings.SplitN(http.DetectContentType(data), ";", 2)[0]
	}
	return declared
}
