package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/domain"
	resp "auto-ria-clone/internal/transport/http/response"
)

func engine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	return r
}

func code(t *testing.T, r http.Handler, req *http.Request) int {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var out resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Code
}

func TestRequestID(t *testing.T) {
	r := engine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(KeyRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(KeyRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(KeyRequestID, strings.Repeat("x", 65))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(KeyRequestID), 36)
}

func TestRateLimitPerIP(t *testing.T) {
	r := engine(RateLimitPerIP(rate.Every(time.Hour), 1, time.Minute))

	from := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.RemoteAddr = ip + ":1234"
		return req
	}
	assert.Equal(t, resp.CodeOK, code(t, r, from("10.0.0.1")))
	assert.Equal(t, resp.CodeTooManyRequests, code(t, r, from("10.0.0.1")))
	assert.Equal(t, resp.CodeOK, code(t, r, from("10.0.0.2")), "buckets are per client")
}

func TestRecovery(t *testing.T) {
	r := engine(Recovery(zap.NewNop()))
	assert.Equal(t, resp.CodeServerError, code(t, r, httptest.NewRequest(http.MethodGet, "/boom", nil)))
}

func TestTimeout(t *testing.T) {
	r := engine(Timeout(20 * time.Millisecond))
	assert.Equal(t, resp.CodeTimeout, code(t, r, httptest.NewRequest(http.MethodGet, "/slow", nil)))
	assert.Equal(t, resp.CodeOK, code(t, r, httptest.NewRequest(http.MethodGet, "/ok", nil)))
}

func TestRequireAnyPermission(t *testing.T) {
	as := func(p *access.Principal) gin.HandlerFunc {
		return func(c *gin.Context) {
			if p != nil {
				c.Set(KeyPrincipal, *p)
			}
		}
	}
	guard := RequireAnyPermission(access.AdsValidate)
	req := func() *http.Request { return httptest.NewRequest(http.MethodGet, "/ok", nil) }

	assert.Equal(t, resp.CodeUnauthorized, code(t, engine(as(nil), guard), req()))

	seller := access.NewPrincipal(&domain.User{ID: "s", Role: domain.RoleSeller})
	assert.Equal(t, resp.CodeForbidden, code(t, engine(as(&seller), guard), req()))

	manager := access.NewPrincipal(&domain.User{ID: "m", Role: domain.RoleManager})
	assert.Equal(t, resp.CodeOK, code(t, engine(as(&manager), guard), req()))
}
