package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/internal/middleware"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type authServiceMock struct {
	session  *models.Session
	loginErr error
	verify   *models.VerifyTokenResponse
	refreshT string
}

func (m *authServiceMock) Login(context.Context, models.LoginRequest) (*models.Session, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.session, nil
}

func (m *authServiceMock) Register(_ context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	return &models.UserInfo{ID: "u2", Email: req.Email, Role: models.RoleLecturer}, nil
}

func (m *authServiceMock) Refresh(_ context.Context, token string) (*models.Session, error) {
	m.refreshT = token
	return m.session, nil
}

func (m *authServiceMock) VerifyToken(_ context.Context, token string) (*models.VerifyTokenResponse, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return m.verify, nil
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSetsSessionCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	expires := time.Now().Add(time.Hour).UTC()
	h := NewAuthHandler(&authServiceMock{session: &models.Session{Token: "tok", ExpiresAt: expires}}, CookieOptions{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/auth/login", models.LoginRequest{Email: "a@example.com", Password: "password1"})
	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	token := cookieByName(w, middleware.TokenCookie)
	require.NotNil(t, token)
	assert.Equal(t, "tok", token.Value)
	assert.True(t, token.HttpOnly)
	exp := cookieByName(w, ExpirationCookie)
	require.NotNil(t, exp)
	assert.NotEmpty(t, exp.Value)
}

func TestLoginFailureSetsNoCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceMock{loginErr: appErrors.ErrInvalidCredentials}, CookieOptions{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/auth/login", models.LoginRequest{Email: "a@example.com", Password: "bad"})
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, cookieByName(w, middleware.TokenCookie))
}

func TestLogoutClearsBothCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceMock{}, CookieOptions{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/auth/logout", nil)
	h.Logout(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	for _, name := range []string{middleware.TokenCookie, ExpirationCookie} {
		cookie := cookieByName(w, name)
		require.NotNil(t, cookie, name)
		assert.True(t, cookie.MaxAge < 0, name)
	}
}

func TestRefreshReadsTokenCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceMock{session: &models.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}}
	h := NewAuthHandler(svc, CookieOptions{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/auth/refresh", nil)
	c.Request.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: "tok"})
	h.Refresh(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", svc.refreshT)
}

func TestVerifyTokenResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authServiceMock{verify: &models.VerifyTokenResponse{UID: "u1", Role: models.RoleAdmin}}, CookieOptions{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/verifyToken", models.VerifyTokenRequest{Token: "good"})
	h.VerifyToken(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"u1","role":"ADMIN"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/verifyToken", map[string]string{})
	h.VerifyToken(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
