package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/internal/repository"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/export"
	"github.com/noah-isme/procurement-api/pkg/spreadsheet"
)

type stockStore interface {
	List(ctx context.Context, filter models.FoodItemFilter) ([]models.FoodItem, error)
	GetByID(ctx context.Context, id string) (*models.FoodItem, error)
	SetStock(ctx context.Context, id string, stock int) (int, error)
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
	AdjustStockByName(ctx context.Context, name string, delta int) ([]repository.StockChange, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type datasetPDFRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// StockExport is a rendered stock list.
type StockExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StockService maintains food item stock levels.
type StockService struct {
	store      stockStore
	csv        datasetRenderer
	pdf        datasetPDFRenderer
	activities ActivityRecorder
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStockService constructs the service.
func NewStockService(store stockStore, csv datasetRenderer, pdf datasetPDFRenderer, activities ActivityRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StockService{store: store, csv: csv, pdf: pdf, activities: activities, metrics: metrics, validator: validate, logger: logger}
}

// UseCache lets stock changes drop cached food item listings.
func (s *StockService) UseCache(cache *CacheService) {
	s.cache = cache
}

// SetStock writes the integer typed into the stock field. Leading digits are read the way a
// form field would read them; the value is not clamped.
func (s *StockService) SetStock(ctx context.Context, actor *models.JWTClaims, id string, req dto.SetStockRequest) (*dto.StockResponse, error) {
	value, ok := ParseStockValue(req.Value)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%q is not a stock value", req.Value))
	}
	stock, err := s.store.SetStock(ctx, id, value)
	if err != nil {
		return nil, s.itemError(err)
	}
	s.record(ctx, actor, id)
	return &dto.StockResponse{ID: id, Stock: stock}, nil
}

// Step moves stock by one unit, never below zero.
func (s *StockService) Step(ctx context.Context, actor *models.JWTClaims, id string, req dto.StepStockRequest) (*dto.StockResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "delta must be -1 or 1")
	}
	stock, err := s.store.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		return nil, s.itemError(err)
	}
	s.record(ctx, actor, id)
	return &dto.StockResponse{ID: id, Stock: stock}, nil
}

// BulkAdjust applies each line to the non-archived items named exactly like its description.
// Lines without a match are reported and never create items.
func (s *StockService) BulkAdjust(ctx context.Context, actor *models.JWTClaims, req dto.BulkStockRequest) ([]models.StockAdjustResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stock adjustment")
	}

	sign := 1
	if req.Mode == models.StockSubtract {
		sign = -1
	}

	results := make([]models.StockAdjustResult, 0, len(req.Lines))
	for _, line := range req.Lines {
		name := line.Description
		result := models.StockAdjustResult{Description: name, Quantity: line.Quantity}
		delta := sign * int(math.Round(line.Quantity))

		changes, err := s.store.AdjustStockByName(ctx, name, delta)
		if err != nil {
			return results, appErrors.Upstream(err, "failed to adjust stock")
		}
		if len(changes) == 0 {
			result.Message = models.NoMatchMessage
			results = append(results, result)
			s.metrics.StockAdjusted(string(req.Mode), false)
			continue
		}
		if len(changes) > 1 {
			s.logger.Warn("stock line matched several items", zap.String("name", name), zap.Int("matches", len(changes)))
		}
		result.Matched = true
		result.ItemID = changes[0].ID
		result.Stock = changes[0].Stock
		results = append(results, result)
		s.metrics.StockAdjusted(string(req.Mode), true)
		for _, c := range changes {
			s.record(ctx, actor, c.ID)
		}
	}
	return results, nil
}

// BulkAdjustFromSheet reads Items/Stocks columns from every sheet of a market-list workbook.
func (s *StockService) BulkAdjustFromSheet(ctx context.Context, actor *models.JWTClaims, mode models.StockAdjustMode, r io.Reader) ([]models.StockAdjustResult, error) {
	sheets, err := spreadsheet.ParseMarketList(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, "could not parse stock workbook")
	}
	lines := make([]models.StockLine, 0)
	for _, sheet := range sheets {
		for _, row := range sheet.Data {
			name := strings.TrimSpace(spreadsheet.Text(row[spreadsheet.ColumnItems]))
			qty, ok := spreadsheet.Number(row[spreadsheet.ColumnStocks])
			if name == "" || !ok {
				continue
			}
			lines = append(lines, models.StockLine{Description: name, Quantity: qty})
		}
	}
	if len(lines) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoItems, "no item rows with Items and Stocks values found")
	}
	return s.BulkAdjust(ctx, actor, dto.BulkStockRequest{Mode: mode, Lines: lines})
}

// Export renders the non-archived stock list as csv or pdf.
func (s *StockService) Export(ctx context.Context, format string) (*StockExport, error) {
	items, err := s.store.List(ctx, models.FoodItemFilter{})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list food items")
	}
	data := export.Dataset{Headers: []string{"Vendor", "Item", "Unit", "Stock"}}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"Vendor": item.Vendor,
			"Item":   item.Name,
			"Unit":   item.Unit,
			"Stock":  strconv.Itoa(item.Stock),
		})
	}

	switch strings.ToLower(format) {
	case "", "csv":
		out, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render csv")
		}
		return &StockExport{Filename: "stock.csv", ContentType: "text/csv", Data: out}, nil
	case "pdf":
		out, err := s.pdf.Render(data, "Stock List")
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render pdf")
		}
		return &StockExport{Filename: "stock.pdf", ContentType: pdfContentType, Data: out}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *StockService) itemError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "food item not found")
	}
	return appErrors.Upstream(err, "failed to update stock")
}

func (s *StockService) record(ctx context.Context, actor *models.JWTClaims, itemID string) {
	_ = s.cache.Invalidate(ctx, foodItemsPattern)
	if s.activities == nil {
		return
	}
	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}
	s.activities.Record(ctx, models.ActivityEdit, "Stock of item "+itemID, actorID)
}

// ParseStockValue reads an optional sign and the leading digits of raw.
func ParseStockValue(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
