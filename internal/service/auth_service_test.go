package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type mockAuthRepo struct {
	users   map[string]*models.User
	created []*models.User
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(_ context.Context, user *models.User) error {
	user.ID = "new-user"
	m.created = append(m.created, user)
	m.users[user.ID] = user
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, nil, AuthConfig{Secret: "secret", Expiry: time.Hour, RefreshWindow: 10 * time.Minute, Issuer: "test"})
}

func TestLoginIssuesToken(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "admin@example.com", PasswordHash: hashPassword(t, "password1"), Role: models.RoleAdmin, SuperAdmin: true})
	svc := newAuthService(repo)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: " Admin@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 2*time.Second)

	claims, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.SuperAdmin)
}

func TestLoginRejectsWrongPasswordAndPendingAccounts(t *testing.T) {
	repo := newMockAuthRepo(
		&models.User{ID: "u1", Email: "a@example.com", PasswordHash: hashPassword(t, "password1"), Role: models.RoleLecturer},
		&models.User{ID: "u2", Email: "p@example.com", PasswordHash: hashPassword(t, "password1"), Role: models.RoleLecturer, PendingApproval: true},
		&models.User{ID: "u3", Email: "x@example.com", PasswordHash: hashPassword(t, "password1"), Role: models.RoleLecturer, Archived: true},
	)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "p@example.com", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrPendingApproval)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "x@example.com", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestRegisterCreatesPendingLecturer(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "taken@example.com"})
	svc := newAuthService(repo)
	recorder := &activityRecorderStub{}
	svc.activities = recorder

	info, err := svc.Register(context.Background(), models.RegisterRequest{Email: "New@Example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleLecturer, info.Role)
	require.Len(t, repo.created, 1)
	assert.True(t, repo.created[0].PendingApproval)
	assert.Equal(t, "new@example.com", repo.created[0].Email)
	require.Len(t, recorder.entries, 1)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Email: "taken@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Email: "short@example.com", Password: "short"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRefreshOnlyInsideWindow(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "a@example.com", Role: models.RoleLecturer})
	svc := newAuthService(repo)
	start := time.Now()
	svc.now = func() time.Time { return start }

	user, _ := repo.FindByID(context.Background(), "u1")
	issued, err := svc.issue(user)
	require.NoError(t, err)

	same, err := svc.Refresh(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.Token, same.Token)

	svc.now = func() time.Time { return start.Add(55 * time.Minute) }
	fresh, err := svc.Refresh(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Token, fresh.Token)
	assert.True(t, fresh.ExpiresAt.After(issued.ExpiresAt))
}

func TestVerifyToken(t *testing.T) {
	active := &models.User{ID: "u1", Email: "a@example.com", Role: models.RoleAdmin}
	repo := newMockAuthRepo(active)
	svc := newAuthService(repo)

	session, err := svc.issue(active)
	require.NoError(t, err)

	resp, err := svc.VerifyToken(context.Background(), "Bearer "+session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UID)
	assert.Equal(t, models.RoleAdmin, resp.Role)

	_, err = svc.VerifyToken(context.Background(), "garbage")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Status)

	repo.users["u1"].Archived = true
	_, err = svc.VerifyToken(context.Background(), session.Token)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 403, appErr.Status)
}

func TestAuthenticateUsesCurrentRole(t *testing.T) {
	user := &models.User{ID: "u1", Email: "a@example.com", Role: models.RoleAdmin, SuperAdmin: true}
	repo := newMockAuthRepo(user)
	svc := newAuthService(repo)

	session, err := svc.issue(user)
	require.NoError(t, err)

	repo.users["u1"].Role = models.RoleLecturer
	repo.users["u1"].SuperAdmin = false
	claims, err := svc.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLecturer, claims.Role)
	assert.False(t, claims.SuperAdmin)

	repo.users["u1"].PendingApproval = true
	_, err = svc.Authenticate(context.Background(), session.Token)
	assert.ErrorIs(t, err, appErrors.ErrPendingApproval)
}
