package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, upd models.UserUpdate) error
	CountSuperAdmins(ctx context.Context) (int, error)
}

type requestArchiver interface {
	ArchiveByCreator(ctx context.Context, userID string) (int64, error)
}

// UserService handles admin user management workflows.
type UserService struct {
	repo       userRepository
	requests   requestArchiver
	activities ActivityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, requests requestArchiver, activities ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, requests: requests, activities: activities, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, query dto.UserListQuery) ([]models.User, *models.Pagination, error) {
	filter := models.UserFilter{
		Pending:  query.Pending,
		Archived: query.Archived,
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Role != "" {
		role := models.UserRole(strings.ToUpper(query.Role))
		if !role.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
		}
		filter.Role = &role
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// Update applies an admin edit. Toggling super-admin requires a super-admin actor; archiving a
// user also archives every request they created.
func (s *UserService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UserAdminUpdate) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user update")
	}

	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	upd := models.UserUpdate{Role: req.Role, SuperAdmin: req.SuperAdmin, Archived: req.Archived}
	if req.Approved != nil {
		pending := !*req.Approved
		upd.PendingApproval = &pending
	}

	if req.SuperAdmin != nil && *req.SuperAdmin != target.SuperAdmin {
		if !actor.SuperAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only a super-admin can change super-admin access")
		}
		if *req.SuperAdmin && effectiveRole(target, req) != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrValidation, "super-admin access requires the ADMIN role")
		}
	}
	if target.SuperAdmin && !actor.SuperAdmin && (req.Role != nil || req.Archived != nil) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only a super-admin can modify another super-admin")
	}
	if req.Archived != nil && *req.Archived && target.ID == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot archive your own account")
	}
	if target.SuperAdmin && losesSuperAdmin(target, req) {
		count, err := s.repo.CountSuperAdmins(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to count super-admins")
		}
		if count <= 1 {
			return nil, appErrors.Clone(appErrors.ErrConflict, "at least one super-admin must remain")
		}
	}
	if effectiveRole(target, req) == models.RoleLecturer && target.SuperAdmin && upd.SuperAdmin == nil {
		revoke := false
		upd.SuperAdmin = &revoke
	}

	if err := s.repo.Update(ctx, id, upd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update user")
	}

	action := models.ActivityEdit
	if req.Archived != nil && *req.Archived && !target.Archived {
		action = models.ActivityArchive
		archived, err := s.requests.ArchiveByCreator(ctx, id)
		if err != nil {
			s.logger.Error("archive requests of archived user", zap.String("user_id", id), zap.Error(err))
			return nil, appErrors.Internal(err, "user archived but their requests could not be archived")
		}
		s.logger.Info("user archived", zap.String("user_id", id), zap.Int64("requests_archived", archived))
	}
	if s.activities != nil {
		s.activities.Record(ctx, action, "User "+target.Email, actor.UserID)
	}

	return s.Get(ctx, id)
}

// Bootstrap ensures a super-admin exists, promoting or creating the configured account.
func (s *UserService) Bootstrap(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	count, err := s.repo.CountSuperAdmins(ctx)
	if err != nil {
		return appErrors.Internal(err, "failed to count super-admins")
	}
	if count > 0 {
		return nil
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		role, super, pending, archived := models.RoleAdmin, true, false, false
		if err := s.repo.Update(ctx, existing.ID, models.UserUpdate{Role: &role, SuperAdmin: &super, PendingApproval: &pending, Archived: &archived}); err != nil {
			return appErrors.Internal(err, "failed to promote bootstrap admin")
		}
		s.logger.Info("bootstrap admin promoted", zap.String("email", email))
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return appErrors.Internal(err, "failed to look up bootstrap admin")
	}

	if len(password) < 8 {
		return appErrors.Clone(appErrors.ErrValidation, "bootstrap admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.Create(ctx, &models.User{Email: email, PasswordHash: string(hash), Role: models.RoleAdmin, SuperAdmin: true}); err != nil {
		return appErrors.Internal(err, "failed to create bootstrap admin")
	}
	s.logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}

func effectiveRole(target *models.User, req dto.UserAdminUpdate) models.UserRole {
	if req.Role != nil {
		return *req.Role
	}
	return target.Role
}

func losesSuperAdmin(target *models.User, req dto.UserAdminUpdate) bool {
	if req.SuperAdmin != nil && !*req.SuperAdmin {
		return true
	}
	if req.Archived != nil && *req.Archived {
		return true
	}
	return req.Role != nil && *req.Role == models.RoleLecturer && target.Role == models.RoleAdmin
}
