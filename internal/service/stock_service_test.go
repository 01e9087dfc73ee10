package service

import (
	"bytes"
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/internal/repository"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/export"
)

// stockStoreStub mirrors the single-statement SQL semantics of the food item repository.
type stockStoreStub struct {
	items map[string]*models.FoodItem
}

func newStockStoreStub(items ...models.FoodItem) *stockStoreStub {
	s := &stockStoreStub{items: map[string]*models.FoodItem{}}
	for i := range items {
		item := items[i]
		s.items[item.ID] = &item
	}
	return s
}

func (s *stockStoreStub) List(context.Context, models.FoodItemFilter) ([]models.FoodItem, error) {
	out := make([]models.FoodItem, 0, len(s.items))
	for _, item := range s.items {
		if !item.Archived {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *stockStoreStub) GetByID(_ context.Context, id string) (*models.FoodItem, error) {
	if item, ok := s.items[id]; ok {
		copy := *item
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stockStoreStub) SetStock(_ context.Context, id string, stock int) (int, error) {
	item, ok := s.items[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	item.Stock = stock
	return stock, nil
}

func clampAdd(stock, delta int) int {
	if stock+delta < 0 {
		return 0
	}
	return stock + delta
}

func (s *stockStoreStub) AdjustStock(_ context.Context, id string, delta int) (int, error) {
	item, ok := s.items[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	item.Stock = clampAdd(item.Stock, delta)
	return item.Stock, nil
}

func (s *stockStoreStub) AdjustStockByName(_ context.Context, name string, delta int) ([]repository.StockChange, error) {
	var changes []repository.StockChange
	for _, item := range s.items {
		if item.Name == name && !item.Archived {
			item.Stock = clampAdd(item.Stock, delta)
			changes = append(changes, repository.StockChange{ID: item.ID, Stock: item.Stock})
		}
	}
	return changes, nil
}

func newStockService(store *stockStoreStub) *StockService {
	return NewStockService(store, export.NewCSVExporter(false), export.NewPDFExporter(export.OverflowPaginate, ""), nil, nil, nil, nil)
}

func TestBulkAddAndSubtractClampAtZero(t *testing.T) {
	store := newStockStoreStub(models.FoodItem{ID: "f1", Name: "Paper", Stock: 10})
	svc := newStockService(store)

	results, err := svc.BulkAdjust(context.Background(), adminActor, dto.BulkStockRequest{
		Mode:  models.StockAdd,
		Lines: []models.StockLine{{Description: "Paper", Quantity: 4}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Matched)
	assert.Equal(t, 14, results[0].Stock)

	store.items["f1"].Stock = 10
	results, err = svc.BulkAdjust(context.Background(), adminActor, dto.BulkStockRequest{
		Mode:  models.StockSubtract,
		Lines: []models.StockLine{{Description: "Paper", Quantity: 20}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, results[0].Stock)
}

func TestBulkAdjustReportsUnmatchedLines(t *testing.T) {
	store := newStockStoreStub(
		models.FoodItem{ID: "f1", Name: "Paper", Stock: 1},
		models.FoodItem{ID: "f2", Name: "Ink", Stock: 1, Archived: true},
	)
	svc := newStockService(store)

	results, err := svc.BulkAdjust(context.Background(), adminActor, dto.BulkStockRequest{
		Mode: models.StockAdd,
		Lines: []models.StockLine{
			{Description: "paper", Quantity: 1},
			{Description: "Ink", Quantity: 1},
			{Description: "Paper", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, models.NoMatchMessage, results[0].Message, "matching is case-sensitive")
	assert.Equal(t, models.NoMatchMessage, results[1].Message, "archived items are not matched")
	assert.True(t, results[2].Matched)
	assert.Len(t, store.items, 2)
}

func TestBulkAdjustMatchesDescriptionVerbatim(t *testing.T) {
	store := newStockStoreStub(models.FoodItem{ID: "f1", Name: "Paper", Stock: 1})
	svc := newStockService(store)

	results, err := svc.BulkAdjust(context.Background(), adminActor, dto.BulkStockRequest{
		Mode:  models.StockAdd,
		Lines: []models.StockLine{{Description: " Paper", Quantity: 1}, {Description: "Paper ", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Matched)
	assert.Equal(t, " Paper", results[0].Description)
	assert.False(t, results[1].Matched)
	assert.Equal(t, 1, store.items["f1"].Stock)
}

func TestBulkAdjustRejectsOversizedQuantity(t *testing.T) {
	store := newStockStoreStub(models.FoodItem{ID: "f1", Name: "Paper", Stock: 1})
	svc := newStockService(store)

	_, err := svc.BulkAdjust(context.Background(), adminActor, dto.BulkStockRequest{
		Mode:  models.StockAdd,
		Lines: []models.StockLine{{Description: "Paper", Quantity: 1e300}},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, 1, store.items["f1"].Stock)

	_, err = svc.BulkAdjust(context.Background(), adminActor, dto.BulkStockRequest{
		Mode:  models.StockAdd,
		Lines: []models.StockLine{{Description: "Paper", Quantity: models.MaxStockQuantity}},
	})
	require.NoError(t, err)
}

func TestSetStockAndStep(t *testing.T) {
	store := newStockStoreStub(models.FoodItem{ID: "f1", Name: "Paper", Stock: 0})
	svc := newStockService(store)

	resp, err := svc.SetStock(context.Background(), adminActor, "f1", dto.SetStockRequest{Value: " 12 boxes"})
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Stock)

	_, err = svc.SetStock(context.Background(), adminActor, "f1", dto.SetStockRequest{Value: "many"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	store.items["f1"].Stock = 0
	resp, err = svc.Step(context.Background(), adminActor, "f1", dto.StepStockRequest{Delta: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Stock)

	_, err = svc.Step(context.Background(), adminActor, "f1", dto.StepStockRequest{Delta: 5})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Step(context.Background(), adminActor, "missing", dto.StepStockRequest{Delta: 1})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestParseStockValue(t *testing.T) {
	cases := map[string]struct {
		want int
		ok   bool
	}{
		"42":    {42, true},
		"-3":    {-3, true},
		" 7kg ": {7, true},
		"":      {0, false},
		"abc":   {0, false},
		"-":     {0, false},
	}
	for raw, tc := range cases {
		got, ok := ParseStockValue(raw)
		assert.Equal(t, tc.ok, ok, raw)
		assert.Equal(t, tc.want, got, raw)
	}
}

func TestBulkAdjustFromSheet(t *testing.T) {
	store := newStockStoreStub(models.FoodItem{ID: "f1", Name: "Paper", Stock: 10})
	svc := newStockService(store)

	data := buildWorkbook(t, map[string][][]interface{}{
		"Acme": {
			{"No", "Items", "Unit", "Qty To Order"},
			{1, "Paper", "ream", 4},
			{2, "Stapler", "pc", 1},
			{3, "Glue", "pc", ""},
		},
	}, "Acme")

	results, err := svc.BulkAdjustFromSheet(context.Background(), adminActor, models.StockAdd, bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 14, results[0].Stock)
	assert.Equal(t, models.NoMatchMessage, results[1].Message)
}

func TestExportStockList(t *testing.T) {
	store := newStockStoreStub(models.FoodItem{ID: "f1", Name: "Paper", Vendor: "Acme", Unit: "ream", Stock: 3})
	svc := newStockService(store)

	out, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.Equal(t, "Vendor,Item,Unit,Stock\nAcme,Paper,ream,3\n", string(out.Data))

	out, err = svc.Export(context.Background(), "PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out.Data), "%PDF"))

	_, err = svc.Export(context.Background(), "xml")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
