package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/makeups-api/internal/models"
	"github.com/noah-isme/makeups-api/internal/service"
	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
	"github.com/noah-isme/makeups-api/pkg/middleware/requestid"
)

type verifierStub struct {
	role  models.UserRole
	err   error
	token string
}

func (v *verifierStub) Session(tokenString string) (models.Session, *models.JWTClaims, error) {
	v.token = tokenString
	if v.err != nil {
		return models.Session{}, nil, v.err
	}
	claims := &models.JWTClaims{UserID: "u-1", Role: v.role, Email: "ic@example.edu"}
	return models.SessionFromClaims(claims, tokenString), claims, nil
}

func newProtectedRouter(verifier *verifierStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/requests", JWT(verifier), RequireRoles(models.RoleFaculty), func(c *gin.Context) {
		session, _ := c.Get(ContextSessionKey)
		c.JSON(http.StatusOK, gin.H{"email": session.(models.Session).Email})
	})
	return r
}

func TestJWTAndRoles(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		verifier *verifierStub
		status   int
	}{
		{name: "missing header", verifier: &verifierStub{role: models.RoleFaculty}, status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", verifier: &verifierStub{role: models.RoleFaculty}, status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer abc", verifier: &verifierStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}, status: http.StatusUnauthorized},
		{name: "student", header: "Bearer abc", verifier: &verifierStub{role: models.RoleStudent}, status: http.StatusForbidden},
		{name: "faculty", header: "Bearer abc", verifier: &verifierStub{role: models.RoleFaculty}, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/requests", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			newProtectedRouter(tc.verifier).ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "abc", tc.verifier.token)
				assert.Contains(t, w.Body.String(), "ic@example.edu")
			}
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleFaculty), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsAndResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics), WithResponseMeta())
	r.GET("/requests", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusBadGateway)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/requests", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_hit":true`)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/makeups/api/nope", nil))
	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
}

func TestResponseMetaCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware(), WithResponseMeta())
	r.GET("/course", func(c *gin.Context) {
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/course", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"request_id":"req-42"}`, w.Body.String())
}
