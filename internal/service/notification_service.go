package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/export"
	"github.com/noah-isme/procurement-api/pkg/mailer"
)

//go:embed templates/status_summary.html
var templateFS embed.FS

const pdfContentType = "application/pdf"

type summaryRenderer interface {
	RenderSummary(s export.Summary) ([]byte, error)
}

// NotificationService sends purchase summaries and status emails. Delivery is at-most-once.
type NotificationService struct {
	sender    mailer.Sender
	renderer  summaryRenderer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	status    *template.Template
}

// NewNotificationService parses the embedded templates.
func NewNotificationService(sender mailer.Sender, renderer summaryRenderer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) (*NotificationService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	tmpl, err := template.New("status_summary.html").Funcs(template.FuncMap{
		"inc":         func(i int) int { return i + 1 },
		"quantity":    export.FormatQuantity,
		"statusLabel": statusLabel,
	}).ParseFS(templateFS, "templates/status_summary.html")
	if err != nil {
		return nil, fmt.Errorf("parse status template: %w", err)
	}
	return &NotificationService{sender: sender, renderer: renderer, metrics: metrics, validator: validate, logger: logger, status: tmpl}, nil
}

// SendPDF mails pdf to recipient as summary.pdf.
func (s *NotificationService) SendPDF(ctx context.Context, recipient, subject string, pdf []byte) error {
	msg := mailer.Message{
		To:       recipient,
		Subject:  subject,
		TextBody: "Please find the purchase summary attached.",
		Attachments: []mailer.Attachment{{
			Name:        "summary.pdf",
			ContentType: pdfContentType,
			Data:        pdf,
		}},
	}
	return s.send(ctx, "summary_pdf", msg)
}

// SendSummary renders items into a purchase summary PDF and mails it.
func (s *NotificationService) SendSummary(ctx context.Context, req dto.SendEmailRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email payload")
	}
	summary := export.Summary{Items: make([]export.SummaryItem, 0, len(req.Items))}
	if first := req.Items[0].SectionA; first != nil {
		summary.Header = summaryHeader(*first)
	}
	for _, item := range req.Items {
		summary.Items = append(summary.Items, export.SummaryItem{Description: item.Description, Quantity: item.Quantity})
	}

	pdf, err := s.render(summary)
	if err != nil {
		return err
	}
	subject := req.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "Purchase summary"
	}
	return s.SendPDF(ctx, req.Recipient, subject, pdf)
}

// SendStatusSummary mails an inline HTML status table with no attachment.
func (s *NotificationService) SendStatusSummary(ctx context.Context, req dto.SendNotificationsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	return s.sendStatus(ctx, req.Recipient, req.Status, "", req.RequestInfo)
}

// NotifyDecision mails the requester the outcome of a review.
func (s *NotificationService) NotifyDecision(ctx context.Context, recipient string, req *models.Request) error {
	remark := ""
	if req.Remark != nil {
		remark = *req.Remark
	}
	return s.sendStatus(ctx, recipient, string(req.Status), remark, StatusRows(req.LineItems))
}

func (s *NotificationService) sendStatus(ctx context.Context, recipient, status, remark string, rows []dto.StatusRow) error {
	var body bytes.Buffer
	data := struct {
		Status string
		Remark string
		Rows   []dto.StatusRow
	}{Status: status, Remark: remark, Rows: rows}
	if err := s.status.Execute(&body, data); err != nil {
		return appErrors.Internal(err, "failed to render status email")
	}
	msg := mailer.Message{
		To:       recipient,
		Subject:  "Item request " + statusLabel(status),
		HTMLBody: body.String(),
	}
	return s.send(ctx, "status_summary", msg)
}

func (s *NotificationService) render(summary export.Summary) ([]byte, error) {
	pdf, err := s.renderer.RenderSummary(summary)
	if err != nil {
		if errors.Is(err, export.ErrOverflow) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "too many items for a single page")
		}
		return nil, appErrors.Internal(err, "failed to render summary")
	}
	return pdf, nil
}

func (s *NotificationService) send(ctx context.Context, kind string, msg mailer.Message) error {
	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.EmailSent(kind, false)
		s.logger.Error("send email", zap.String("kind", kind), zap.String("to", msg.To), zap.Error(err))
		return appErrors.Upstream(err, "failed to send email")
	}
	s.metrics.EmailSent(kind, true)
	s.logger.Info("email sent", zap.String("kind", kind), zap.String("to", msg.To))
	return nil
}

// StatusRows lists line items with a description for the status table.
func StatusRows(items models.LineItems) []dto.StatusRow {
	rows := make([]dto.StatusRow, 0, len(items))
	for _, item := range items {
		desc := item.Description()
		if desc == "" {
			continue
		}
		qty, _ := item.Quantity()
		rows = append(rows, dto.StatusRow{Description: desc, Quantity: qty})
	}
	return rows
}

func summaryHeader(a models.SectionA) export.SummaryHeader {
	return export.SummaryHeader{
		DeliveryDate: a.DeliveryDate,
		Project:      a.Project,
		PICContact:   a.PICContact,
		Entity:       a.Entity,
	}
}

func statusLabel(status string) string {
	switch models.RequestStatus(status) {
	case models.StatusAdminApproved:
		return "approved"
	case models.StatusAdminDisapproved:
		return "disapproved"
	case models.StatusPending:
		return "pending review"
	case models.StatusSentToVendor:
		return "sent to vendor"
	case models.StatusQuotationReceived:
		return "quotation received"
	case models.StatusRequestSuccessful:
		return "completed"
	}
	return status
}
