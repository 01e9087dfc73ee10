package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procurement-api/internal/middleware"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/response"
)

// ExpirationCookie mirrors the token expiry (unix milliseconds) for clients that schedule refreshes.
const ExpirationCookie = "tokenExpiration"

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error)
	Refresh(ctx context.Context, token string) (*models.Session, error)
	VerifyToken(ctx context.Context, token string) (*models.VerifyTokenResponse, error)
}

// CookieOptions scope the session cookies.
type CookieOptions struct {
	Domain string
	Secure bool
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookies CookieOptions
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password; sets the token and tokenExpiration cookies
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSession(c, session)
	response.JSON(c, http.StatusOK, session, nil)
}

// Register godoc
// @Summary Register lecturer
// @Description Create a lecturer account awaiting admin approval
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Re-issue the token when less than the refresh window remains; otherwise echo it
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := presentedToken(c)
	if token == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	session, err := h.service.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearSession(c)
		response.Error(c, err)
		return
	}

	h.setSession(c, session)
	response.JSON(c, http.StatusOK, session, nil)
}

// Logout godoc
// @Summary Logout
// @Description Clear both session cookies
// @Tags Authentication
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSession(c)
	response.NoContent(c)
}

// VerifyToken godoc
// @Summary Verify bearer token
// @Description Resolve a token to its owner's uid and role
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.VerifyTokenRequest true "Token"
// @Success 200 {object} models.VerifyTokenResponse
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /verifyToken [post]
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req models.VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "token is required"))
		return
	}

	res, err := h.service.VerifyToken(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) setSession(c *gin.Context, session *models.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, session.Token, maxAge, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(ExpirationCookie, strconv.FormatInt(session.ExpiresAt.UnixMilli(), 10), maxAge, "/", h.cookies.Domain, h.cookies.Secure, false)
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(ExpirationCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, false)
}

func presentedToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	if cookie, err := c.Cookie(middleware.TokenCookie); err == nil {
		return cookie
	}
	return ""
}
