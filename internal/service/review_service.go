package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type decisionNotifier interface {
	NotifyDecision(ctx context.Context, recipient string, req *models.Request) error
}

// ReviewService moves Pending requests to AdminApproved or AdminDisapproved.
type ReviewService struct {
	store      requestStore
	users      userLookup
	notifier   decisionNotifier
	activities ActivityRecorder
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReviewService constructs the service.
func NewReviewService(store requestStore, users userLookup, notifier decisionNotifier, activities ActivityRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{store: store, users: users, notifier: notifier, activities: activities, metrics: metrics, validator: validate, logger: logger}
}

// Approve marks a Pending request AdminApproved.
func (s *ReviewService) Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.Request, error) {
	status := models.StatusAdminApproved
	return s.decide(ctx, actor, id, models.RequestUpdate{Status: &status, ClearRemark: true})
}

// Reject marks a Pending request AdminDisapproved. A blank remark is a validation error.
func (s *ReviewService) Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectRequest) (*models.Request, error) {
	req.Remark = strings.TrimSpace(req.Remark)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "a remark is required to disapprove a request")
	}
	status := models.StatusAdminDisapproved
	return s.decide(ctx, actor, id, models.RequestUpdate{Status: &status, Remark: &req.Remark})
}

func (s *ReviewService) decide(ctx context.Context, actor *models.JWTClaims, id string, upd models.RequestUpdate) (*models.Request, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}

	if err := s.store.UpdateIfStatus(ctx, id, models.StatusPending, upd); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Upstream(err, "failed to update request")
		}
		current, getErr := s.store.GetByID(ctx, id)
		if getErr != nil {
			if errors.Is(getErr, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
			}
			return nil, appErrors.Internal(getErr, "failed to load request")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "request is "+string(current.Status)+", only Pending requests can be reviewed")
	}

	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load request")
	}

	decision := string(req.Status)
	s.metrics.ReviewDecided(decision)
	if s.activities != nil {
		s.activities.Record(ctx, models.ActivityEdit, "Request "+id+" "+decision, actor.UserID)
	}
	s.notifyRequester(ctx, req)
	return req, nil
}

// notifyRequester emails the owner. Failures are logged and never undo the decision.
func (s *ReviewService) notifyRequester(ctx context.Context, req *models.Request) {
	if s.notifier == nil || s.users == nil {
		return
	}
	owner, err := s.users.FindByID(ctx, req.CreatedBy)
	if err != nil {
		s.logger.Warn("look up requester for decision email", zap.String("request_id", req.ID), zap.Error(err))
		return
	}
	if err := s.notifier.NotifyDecision(ctx, owner.Email, req); err != nil {
		s.logger.Warn("decision email not sent", zap.String("request_id", req.ID), zap.Error(err))
	}
}
