package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/ocr"
)

type stockAdjuster interface {
	BulkAdjust(ctx context.Context, actor *models.JWTClaims, req dto.BulkStockRequest) ([]models.StockAdjustResult, error)
}

// IngestionService reads delivery notes into stock adjustment lines.
type IngestionService struct {
	extractor ocr.Extractor
	stock     stockAdjuster
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewIngestionService constructs the service.
func NewIngestionService(extractor ocr.Extractor, stock stockAdjuster, metrics *MetricsService, logger *zap.Logger) *IngestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{extractor: extractor, stock: stock, metrics: metrics, logger: logger}
}

// Preview extracts the lines of a delivery note without touching stock.
func (s *IngestionService) Preview(ctx context.Context, data []byte, mimeType string) ([]models.StockLine, error) {
	source := noteSource(mimeType)
	lines, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		s.metrics.NoteExtracted(source, false)
		switch {
		case errors.Is(err, ocr.ErrUnsupported):
			return nil, appErrors.Clone(appErrors.ErrValidation, "delivery note must be a pdf or an image")
		case source == "pdf":
			return nil, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, "could not read delivery note")
		default:
			s.logger.Warn("delivery note extraction failed", zap.Error(err))
			return nil, appErrors.Upstream(err, "text recognition failed")
		}
	}
	s.metrics.NoteExtracted(source, true)

	out := make([]models.StockLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, models.StockLine{Description: line.Description, Quantity: line.Quantity})
	}
	return out, nil
}

// Apply extracts a delivery note and feeds its lines to a bulk stock adjustment.
func (s *IngestionService) Apply(ctx context.Context, actor *models.JWTClaims, mode models.StockAdjustMode, data []byte, mimeType string) ([]models.StockAdjustResult, error) {
	lines, err := s.Preview(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoItems, "no lines recognised in delivery note")
	}
	return s.stock.BulkAdjust(ctx, actor, dto.BulkStockRequest{Mode: mode, Lines: lines})
}

func noteSource(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case mimeType == "application/pdf":
		return "pdf"
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	default:
		return "other"
	}
}
