package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/jobs"
	"github.com/noah-isme/procurement-api/pkg/spreadsheet"
	"github.com/noah-isme/procurement-api/pkg/storage"
)

const submissionJobType = "request_submission"

type requestStore interface {
	Create(ctx context.Context, req *models.Request) (string, error)
	GetByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
	Update(ctx context.Context, id string, upd models.RequestUpdate) error
	UpdateIfStatus(ctx context.Context, id string, from models.RequestStatus, upd models.RequestUpdate) error
}

type uploadStore interface {
	Put(filename string, r io.Reader) (*storage.StoredFile, error)
	Remove(file *storage.StoredFile) error
}

type jobQueue interface {
	RunBatch(ctx context.Context, batch []jobs.Job[submission]) ([]jobs.Outcome[submission], error)
}

// Upload is one submitted request file held in memory.
type Upload struct {
	Name string
	Data []byte
}

type submission struct {
	upload Upload
	actor  models.JWTClaims
	result *dto.SubmitResult
}

// RequestService handles request submission and lecturer-side access.
type RequestService struct {
	store      requestStore
	files      uploadStore
	activities ActivityRecorder
	metrics    *MetricsService
	queue      jobQueue
	logger     *zap.Logger
	now        func() time.Time
}

// NewRequestService constructs the service.
func NewRequestService(store requestStore, files uploadStore, activities ActivityRecorder, metrics *MetricsService, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{store: store, files: files, activities: activities, metrics: metrics, logger: logger, now: time.Now}
}

// UseQueue routes batch submissions through a worker pool whose handler is HandleSubmission.
func (s *RequestService) UseQueue(q jobQueue) {
	s.queue = q
}

// Submit stores, parses and persists one request template. Unparseable files are rejected
// before anything is written.
func (s *RequestService) Submit(ctx context.Context, actor *models.JWTClaims, upload Upload) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if len(upload.Data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	sheet, err := spreadsheet.ParseRequestForm(bytes.NewReader(upload.Data))
	if err != nil {
		s.metrics.RequestSubmitted(false)
		return nil, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, fmt.Sprintf("could not parse %s", upload.Name))
	}

	stored, err := s.files.Put(upload.Name, bytes.NewReader(upload.Data))
	if err != nil {
		s.metrics.RequestSubmitted(false)
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		s.logger.Error("store uploaded request", zap.String("file", upload.Name), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to store file")
	}

	req := NormalizeRequest(sheet, actor.UserID, stored.DownloadURL, s.now())
	id, err := s.store.Create(ctx, req)
	if err != nil {
		if rmErr := s.files.Remove(stored); rmErr != nil {
			s.logger.Warn("remove orphaned upload", zap.String("path", stored.Path), zap.Error(rmErr))
		}
		s.metrics.RequestSubmitted(false)
		return nil, appErrors.Upstream(err, "failed to save request")
	}
	req.ID = id

	s.metrics.RequestSubmitted(true)
	if s.activities != nil {
		s.activities.Record(ctx, models.ActivityAdd, "Request "+id, actor.UserID)
	}
	s.logger.Info("request submitted", zap.String("request_id", id), zap.Int("items", len(req.LineItems)))
	return req, nil
}

// SubmitBatch processes several files and returns one result per file in completion order.
// A failing file does not affect the others.
func (s *RequestService) SubmitBatch(ctx context.Context, actor *models.JWTClaims, uploads []Upload) ([]dto.SubmitResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if len(uploads) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}

	if s.queue == nil {
		results := make([]dto.SubmitResult, 0, len(uploads))
		for _, u := range uploads {
			results = append(results, s.submitResult(ctx, actor, u))
		}
		return results, nil
	}

	batch := make([]jobs.Job[submission], 0, len(uploads))
	for _, u := range uploads {
		batch = append(batch, jobs.Job[submission]{
			ID:      uuid.NewString(),
			Type:    submissionJobType,
			Payload: submission{upload: u, actor: *actor, result: &dto.SubmitResult{File: u.Name}},
		})
	}

	outcomes, err := s.queue.RunBatch(ctx, batch)
	results := make([]dto.SubmitResult, 0, len(outcomes))
	for _, o := range outcomes {
		if errors.Is(o.Err, jobs.ErrUnavailable) {
			s.logger.Warn("enqueue submission", zap.String("file", o.Job.Payload.upload.Name), zap.Error(o.Err))
			results = append(results, dto.SubmitResult{File: o.Job.Payload.upload.Name, Error: "submission queue unavailable"})
			continue
		}
		results = append(results, *o.Job.Payload.result)
	}
	if err != nil {
		return results, appErrors.Internal(err, "submission interrupted")
	}
	return results, nil
}

// HandleSubmission is the worker pool handler for batch submissions. The outcome is written
// into the job payload; a failed file is also reported as the job error.
func (s *RequestService) HandleSubmission(ctx context.Context, job jobs.Job[submission]) error {
	sub := job.Payload
	actor := sub.actor
	*sub.result = s.submitResult(ctx, &actor, sub.upload)
	if sub.result.Error != "" {
		return errors.New(sub.result.Error)
	}
	return nil
}

func (s *RequestService) submitResult(ctx context.Context, actor *models.JWTClaims, u Upload) dto.SubmitResult {
	req, err := s.Submit(ctx, actor, u)
	if err != nil {
		return dto.SubmitResult{File: u.Name, Error: appErrors.FromError(err).Message}
	}
	result := dto.SubmitResult{File: u.Name, RequestID: req.ID}
	if req.DownloadLink != nil {
		result.DownloadLink = *req.DownloadLink
	}
	return result
}

// Get returns a request. Lecturers only see their own.
func (s *RequestService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Request, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Internal(err, "failed to load request")
	}
	if actor == nil || (actor.Role != models.RoleAdmin && req.CreatedBy != actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return req, nil
}

// List returns requests visible to actor, oldest first.
func (s *RequestService) List(ctx context.Context, actor *models.JWTClaims, query dto.RequestListQuery) ([]models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{
		Status:          query.Status,
		IncludeArchived: query.IncludeArchived && actor.Role == models.RoleAdmin,
		Limit:           query.Limit,
		Offset:          query.Offset,
	}
	if actor.Role != models.RoleAdmin {
		filter.CreatedBy = actor.UserID
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list requests")
	}
	return items, nil
}

// Resubmit applies the owner's edits and returns the request to Pending with the remark cleared.
func (s *RequestService) Resubmit(ctx context.Context, actor *models.JWTClaims, id string, req dto.ResubmitRequest) (*models.Request, error) {
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if current.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requester can edit a request")
	}
	if current.Archived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request is archived")
	}

	pending := models.StatusPending
	upd := models.RequestUpdate{SectionA: req.SectionA, Status: &pending, ClearRemark: true}
	if req.SectionA != nil {
		fields := FieldsWithSectionA(current.HeaderFields, *req.SectionA)
		upd.HeaderFields = &fields
	}
	if req.LineItems != nil {
		items := SanitizeLineItems(*req.LineItems)
		upd.LineItems = &items
	}
	if err := s.store.Update(ctx, id, upd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Upstream(err, "failed to update request")
	}
	if s.activities != nil {
		s.activities.Record(ctx, models.ActivityEdit, "Request "+id, actor.UserID)
	}
	return s.Get(ctx, actor, id)
}
