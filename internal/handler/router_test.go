package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/internal/realtime"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) Authenticate(_ context.Context, token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func newTestRouter() *gin.Engine {
	return newTestRouterWithHub(nil)
}

func newTestRouterWithHub(hub subscriber) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tokens := tokenTable{
		"lecturer": {UserID: "lec", Role: models.RoleLecturer},
		"admin":    {UserID: "adm", Role: models.RoleAdmin},
		"super":    {UserID: "sup", Role: models.RoleAdmin, SuperAdmin: true},
	}
	Register(r, "/api/v1", tokens, Handlers{
		Auth:          NewAuthHandler(&authServiceMock{}, CookieOptions{}),
		Requests:      NewRequestHandler(&requestServiceMock{}, &reviewServiceMock{}, nil),
		Notifications: NewNotificationHandler(nil),
		Catalogue:     NewCatalogueHandler(nil),
		Stock:         NewStockHandler(nil, nil),
		Users:         NewUserHandler(nil),
		Settings:      NewSettingsHandler(nil, nil),
		Subscribe:     NewSubscribeHandler(hub),
		Files:         NewFileHandler(nil),
		Metrics:       NewMetricsHandler(nil),
	})
	return r
}

func call(r *gin.Engine, method, path, token string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRoutesRequireToken(t *testing.T) {
	r := newTestRouter()
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/v1/requests", ""))
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/v1/requests", "lecturer"))
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", ""))
}

func TestAdminRoutesRejectLecturers(t *testing.T) {
	r := newTestRouter()
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/users", "lecturer"))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/v1/requests/r1/approve", "lecturer"))
	assert.Equal(t, http.StatusOK, call(r, http.MethodPost, "/api/v1/requests/r1/approve", "admin"))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/sendEmail", "lecturer"))
}

func TestUpdateEnvIsSuperAdminOnlyAndUnsupported(t *testing.T) {
	r := newTestRouter()
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/api/updateEnv", ""))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/updateEnv", "admin"))
	assert.Equal(t, http.StatusNotImplemented, call(r, http.MethodPost, "/api/updateEnv", "super"))
}

func TestSubscribeRejectsLecturerOnAdminCollections(t *testing.T) {
	r := newTestRouter()
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/subscribe?path=users", "lecturer"))
}

type subscription struct {
	path  string
	owner string
}

// subscriberSpy records subscriptions and refuses them so no stream is opened.
type subscriberSpy struct {
	seen []subscription
}

func (s *subscriberSpy) Subscribe(path, owner string, _ func(models.Snapshot)) (func(), error) {
	s.seen = append(s.seen, subscription{path: path, owner: owner})
	return nil, realtime.ErrUnknownPath
}

func TestSubscribeChecksCanonicalPath(t *testing.T) {
	hub := &subscriberSpy{}
	r := newTestRouterWithHub(hub)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/subscribe?path=%20users", "lecturer"))
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/subscribe?path=/activities%20/x", "lecturer"))
	assert.Empty(t, hub.seen)

	call(r, http.MethodGet, "/api/v1/subscribe?path=%20requests", "lecturer")
	call(r, http.MethodGet, "/api/v1/subscribe?path=requests/%20x", "lecturer")
	call(r, http.MethodGet, "/api/v1/subscribe?path=%20requests", "admin")
	assert.Equal(t, []subscription{
		{path: "requests", owner: "lec"},
		{path: "requests/x", owner: "lec"},
		{path: "requests", owner: ""},
	}, hub.seen)

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/v1/subscribe?path=%20/%20", "lecturer"))
}
