package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshWindow time.Duration
	Issuer        string
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo       authUserRepository
	activities ActivityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, activities ActivityRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = time.Hour
	}
	if config.RefreshWindow <= 0 {
		config.RefreshWindow = 10 * time.Minute
	}
	return &AuthService{repo: repo, activities: activities, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates a user and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if err := accountUsable(user); err != nil {
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	s.logger.Info("user signed in", zap.String("user_id", user.ID))
	return session, nil
}

// Register creates a lecturer account that an admin must approve before sign-in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Email:           req.Email,
		PasswordHash:    string(hash),
		Role:            models.RoleLecturer,
		PendingApproval: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}
	if s.activities != nil {
		s.activities.Record(ctx, models.ActivityAdd, "User "+user.Email, user.ID)
	}
	info := userInfo(user)
	return &info, nil
}

// Refresh re-issues the token once less than the refresh window remains. Earlier calls return
// the presented token unchanged.
func (s *AuthService) Refresh(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.loadActive(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	expiresAt := claims.ExpiresAt.Time
	if expiresAt.Sub(s.now()) >= s.config.RefreshWindow {
		return &models.Session{Token: token, ExpiresAt: expiresAt.UTC(), User: userInfo(user)}, nil
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to refresh access token")
	}
	return session, nil
}

// VerifyToken resolves a bearer token to its owner. Invalid tokens are 401; archived or
// unapproved owners are 403.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.VerifyTokenResponse, error) {
	claims, err := s.ValidateToken(strings.TrimSpace(strings.TrimPrefix(token, "Bearer ")))
	if err != nil {
		return nil, err
	}
	user, err := s.loadActive(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &models.VerifyTokenResponse{UID: user.ID, Role: user.Role}, nil
}

// Authenticate validates token and refreshes its role claims from the owner's current account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.loadActive(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	claims.Role = user.Role
	claims.Email = user.Email
	claims.SuperAdmin = user.SuperAdmin
	return claims, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing token")
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) loadActive(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token owner no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if err := accountUsable(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*models.Session, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.JWTClaims{
		UserID:     user.ID,
		Role:       user.Role,
		Email:      user.Email,
		SuperAdmin: user.SuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, err
	}
	// NumericDate truncates to seconds; report the expiry the token actually carries.
	return &models.Session{Token: signed, ExpiresAt: claims.ExpiresAt.Time.UTC(), User: userInfo(user)}, nil
}

func accountUsable(user *models.User) error {
	if user.Archived {
		return appErrors.Clone(appErrors.ErrInactiveAccount, "account is archived")
	}
	if user.PendingApproval {
		return appErrors.ErrPendingApproval
	}
	return nil
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{ID: user.ID, Email: user.Email, Role: user.Role, SuperAdmin: user.SuperAdmin}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
