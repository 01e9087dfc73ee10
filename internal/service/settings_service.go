package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type settingStore interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, key string, value json.RawMessage, updatedBy *string) error
}

// SettingsService reads and writes application flags.
type SettingsService struct {
	repo       settingStore
	activities ActivityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSettingsService constructs the service.
func NewSettingsService(repo settingStore, activities ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, activities: activities, validator: validate, logger: logger}
}

// Countdown reports whether the submission countdown is shown. An unset flag reads as false.
func (s *SettingsService) Countdown(ctx context.Context) (bool, error) {
	setting, err := s.repo.Get(ctx, models.SettingCountdownEnabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Internal(err, "failed to load setting")
	}
	var enabled bool
	if err := json.Unmarshal(setting.Value, &enabled); err != nil {
		s.logger.Warn("countdown setting is not a boolean", zap.ByteString("value", setting.Value))
		return false, nil
	}
	return enabled, nil
}

// SetCountdown stores the countdown flag.
func (s *SettingsService) SetCountdown(ctx context.Context, actor *models.JWTClaims, req dto.CountdownSetting) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "enabled is required")
	}
	value, err := json.Marshal(*req.Enabled)
	if err != nil {
		return false, appErrors.Internal(err, "failed to encode setting")
	}
	var updatedBy *string
	if actor != nil {
		updatedBy = &actor.UserID
	}
	if err := s.repo.Upsert(ctx, models.SettingCountdownEnabled, value, updatedBy); err != nil {
		return false, appErrors.Internal(err, "failed to store setting")
	}
	if s.activities != nil && updatedBy != nil {
		s.activities.Record(ctx, models.ActivityEdit, "Countdown setting", *updatedBy)
	}
	return *req.Enabled, nil
}
