package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/export"
	"github.com/noah-isme/procurement-api/pkg/spreadsheet"
)

type vendorLookup interface {
	GetByID(ctx context.Context, id string) (*models.Vendor, error)
}

type pdfSender interface {
	SendPDF(ctx context.Context, recipient, subject string, pdf []byte) error
}

// ForwardingService aggregates approved requests into one purchase summary for a vendor.
type ForwardingService struct {
	store      requestStore
	vendors    vendorLookup
	renderer   summaryRenderer
	sender     pdfSender
	activities ActivityRecorder
	logger     *zap.Logger
}

// NewForwardingService constructs the service.
func NewForwardingService(store requestStore, vendors vendorLookup, renderer summaryRenderer, sender pdfSender, activities ActivityRecorder, logger *zap.Logger) *ForwardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForwardingService{store: store, vendors: vendors, renderer: renderer, sender: sender, activities: activities, logger: logger}
}

// Forward emails the aggregate of every AdminApproved request to the chosen vendor. Request
// statuses are left unchanged.
func (s *ForwardingService) Forward(ctx context.Context, actor *models.JWTClaims, req dto.ForwardRequest) (*dto.ForwardResult, error) {
	if req.VendorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "vendor is required")
	}
	vendor, err := s.vendors.GetByID(ctx, req.VendorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vendor not found")
		}
		return nil, appErrors.Internal(err, "failed to load vendor")
	}

	approved, err := s.store.List(ctx, models.RequestFilter{Status: []models.RequestStatus{models.StatusAdminApproved}})
	if err != nil {
		return nil, appErrors.Upstream(err, "failed to load approved requests")
	}
	summary := Aggregate(approved)
	if len(approved) == 0 || len(summary.Items) == 0 {
		return nil, appErrors.ErrNoItems
	}

	pdf, err := s.renderer.RenderSummary(summary)
	if err != nil {
		if errors.Is(err, export.ErrOverflow) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "too many items for a single page")
		}
		return nil, appErrors.Internal(err, "failed to render summary")
	}
	if err := s.sender.SendPDF(ctx, vendor.Email, "Purchase request for "+vendor.Name, pdf); err != nil {
		return nil, err
	}

	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}
	if s.activities != nil {
		s.activities.Record(ctx, models.ActivityEdit, "Forwarded approved requests to "+vendor.Name, actorID)
	}
	s.logger.Info("approved requests forwarded", zap.String("vendor_id", vendor.ID), zap.Int("requests", len(approved)), zap.Int("items", len(summary.Items)))

	return &dto.ForwardResult{
		VendorID:  vendor.ID,
		Recipient: vendor.Email,
		Requests:  len(approved),
		Items:     len(summary.Items),
		Total:     summary.Total(),
	}, nil
}

// Aggregate merges line items across requests by description, summing quantities in first-seen
// order. The header comes from the first item's request; a serial delivery date on that item
// is converted and takes precedence.
func Aggregate(requests []models.Request) export.Summary {
	var summary export.Summary
	index := make(map[string]int)
	headerSet := false

	for _, req := range requests {
		for _, item := range req.LineItems {
			desc := item.Description()
			if desc == "" {
				continue
			}
			if !headerSet {
				summary.Header = summaryHeader(req.SectionA)
				if v, _, ok := item.DeliveryDate(); ok && !spreadsheet.IsEmpty(v) {
					summary.Header.DeliveryDate = spreadsheet.Text(spreadsheet.ConvertSerialDate(v))
				}
				headerSet = true
			}
			qty, _ := item.Quantity()
			if i, ok := index[desc]; ok {
				summary.Items[i].Quantity += qty
				continue
			}
			index[desc] = len(summary.Items)
			summary.Items = append(summary.Items, export.SummaryItem{Description: desc, Quantity: qty})
		}
	}
	return summary
}
