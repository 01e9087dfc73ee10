package service

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type activityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, limit int) ([]models.Activity, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityRecorder appends audit entries. Failures are logged, never returned.
type ActivityRecorder interface {
	Record(ctx context.Context, action models.ActivityAction, subject string, actorID string)
}

// ActivityService maintains the rolling activity log.
type ActivityService struct {
	repo      activityRepository
	logger    *zap.Logger
	retention time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

// NewActivityService constructs the service. Entries older than retention are pruned.
func NewActivityService(repo activityRepository, logger *zap.Logger, retention time.Duration) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &ActivityService{
		repo:      repo,
		logger:    logger,
		retention: retention,
		now:       time.Now,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// Record appends an entry with a time-sortable id.
func (s *ActivityService) Record(ctx context.Context, action models.ActivityAction, subject string, actorID string) {
	if s == nil || s.repo == nil {
		return
	}
	now := s.now().UTC()
	s.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("generate activity id", zap.Error(err))
		return
	}

	entry := &models.Activity{ID: id.String(), Action: action, Subject: subject, CreatedAt: now}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("record activity", zap.String("action", string(action)), zap.String("subject", subject), zap.Error(err))
	}
}

// List returns the newest entries first.
func (s *ActivityService) List(ctx context.Context, limit int) ([]models.Activity, error) {
	items, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list activities")
	}
	return items, nil
}

// Prune removes entries older than the retention window.
func (s *ActivityService) Prune(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteOlderThan(ctx, s.now().UTC().Add(-s.retention))
	if err != nil {
		return 0, appErrors.Internal(err, "failed to prune activities")
	}
	return removed, nil
}

// StartPruner prunes once immediately and then every interval until ctx is done.
func (s *ActivityService) StartPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if removed, err := s.Prune(ctx); err != nil {
				s.logger.Warn("activity prune failed", zap.Error(err))
			} else if removed > 0 {
				s.logger.Info("activity log pruned", zap.Int64("removed", removed))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
