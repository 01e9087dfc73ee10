package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/ocr"
)

type extractorStub struct {
	lines []ocr.Line
	err   error
}

func (e extractorStub) Extract(context.Context, []byte, string) ([]ocr.Line, error) {
	return e.lines, e.err
}

func TestIngestionApplyAdjustsStock(t *testing.T) {
	store := newStockStoreStub(models.FoodItem{ID: "f1", Name: "Rice", Stock: 2})
	stock := newStockService(store)
	router := ocr.Router{PDF: extractorStub{lines: []ocr.Line{{Description: "Rice", Quantity: 3}, {Description: "Salt", Quantity: 1}}}}
	svc := NewIngestionService(router, stock, nil, nil)

	results, err := svc.Apply(context.Background(), adminActor, models.StockAdd, []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 5, results[0].Stock)
	assert.False(t, results[1].Matched)
}

func TestIngestionErrorMapping(t *testing.T) {
	router := ocr.Router{
		PDF:    extractorStub{err: errors.New("open pdf: bad xref")},
		Vision: extractorStub{err: errors.New("vision request: 529")},
	}
	svc := NewIngestionService(router, nil, nil, nil)

	_, err := svc.Preview(context.Background(), nil, "text/plain")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Preview(context.Background(), nil, "application/pdf")
	assert.ErrorIs(t, err, appErrors.ErrParse)

	_, err = svc.Preview(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestIngestionVisionDisabled(t *testing.T) {
	svc := NewIngestionService(ocr.Router{}, nil, nil, nil)
	_, err := svc.Preview(context.Background(), nil, "image/jpeg")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestIngestionApplyWithoutLines(t *testing.T) {
	svc := NewIngestionService(ocr.Router{PDF: extractorStub{}}, nil, nil, nil)
	_, err := svc.Apply(context.Background(), adminActor, models.StockAdd, nil, "application/pdf")
	assert.ErrorIs(t, err, appErrors.ErrNoItems)
}
