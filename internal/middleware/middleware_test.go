package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type authStub map[string]*models.JWTClaims

func (a authStub) Authenticate(_ context.Context, token string) (*models.JWTClaims, error) {
	if claims, ok := a[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var testAuth = authStub{
	"admin":    {UserID: "a1", Role: models.RoleAdmin},
	"super":    {UserID: "s1", Role: models.RoleAdmin, SuperAdmin: true},
	"lecturer": {UserID: "l1", Role: models.RoleLecturer},
}

func newRouter(guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(testAuth)}, guards...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/users/:id", handlers...)
	return r
}

func do(r *gin.Engine, path string, mutate func(*http.Request)) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestJWTAcceptsHeaderOrCookie(t *testing.T) {
	r := newRouter()
	assert.Equal(t, http.StatusUnauthorized, do(r, "/users/x", nil))
	assert.Equal(t, http.StatusOK, do(r, "/users/x", bearer("admin")))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/users/x", bearer("nope")))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/users/x", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }))
	assert.Equal(t, http.StatusOK, do(r, "/users/x", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "lecturer"})
	}))
}

func TestRequireRolesAllowsSelf(t *testing.T) {
	r := newRouter(RBAC(string(models.RoleAdmin), "SELF"))
	assert.Equal(t, http.StatusOK, do(r, "/users/x", bearer("admin")))
	assert.Equal(t, http.StatusForbidden, do(r, "/users/x", bearer("lecturer")))
	assert.Equal(t, http.StatusOK, do(r, "/users/l1", bearer("lecturer")))
}

func TestRequireSuperAdmin(t *testing.T) {
	r := newRouter(RequireSuperAdmin())
	assert.Equal(t, http.StatusForbidden, do(r, "/users/x", bearer("admin")))
	assert.Equal(t, http.StatusOK, do(r, "/users/x", bearer("super")))
}

type observerStub struct{ paths []string }

func (o *observerStub) ObserveHTTPRequest(_ string, path string, _ int, _ time.Duration) {
	o.paths = append(o.paths, path)
}

func TestMetricsSkipsListedPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &observerStub{}
	r := gin.New()
	r.Use(Metrics(obs, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/vendors/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, "/metrics", nil)
	do(r, "/vendors/1", nil)
	do(r, "/missing", nil)
	assert.Equal(t, []string{"/vendors/:id", "unmatched"}, obs.paths)
}

func TestResponseMetaReportsProcessingTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(Timing())
	r.GET("/", func(c *gin.Context) {
		meta = ResponseMeta(c, map[string]interface{}{"count": 2})
		c.Status(http.StatusOK)
	})
	do(r, "/", nil)
	assert.Equal(t, 2, meta["count"])
	assert.Contains(t, meta, "processing_time_ms")
}
