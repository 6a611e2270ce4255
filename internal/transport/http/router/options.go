package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"auto-ria-clone/internal/core/auth"
	"auto-ria-clone/internal/core/config"
	mdw "auto-ria-clone/internal/transport/http/middleware"
	resp "auto-ria-clone/internal/transport/http/response"
)

// Options carries what both engines share.
type Options struct {
	Logger     *zap.Logger
	JWT        *auth.JWTer
	Principals mdw.PrincipalLoader
	HTTP       config.HTTP
	// Health reports readiness of the backing stores; nil means always healthy.
	Health func(ctx context.Context) error
}

func (o Options) middleware(limiter gin.HandlerFunc) []gin.HandlerFunc {
	h := o.HTTP
	chain := []gin.HandlerFunc{mdw.RequestID(), limiter}
	if h.MaxInFlight > 0 {
		chain = append(chain, mdw.ConcurrencyLimit(int64(h.MaxInFlight)))
	}
	if h.MaxBodyMB > 0 {
		chain = append(chain, mdw.MaxBodyBytes(int64(h.MaxBodyMB)<<20))
	}
	timeout := time.Duration(h.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return append(chain,
		mdw.Timeout(timeout),
		mdw.Recovery(o.Logger),
		mdw.Metrics(),
		mdw.AccessLog(o.Logger),
	)
}

func (o Options) limit() (rate.Limit, int) {
	rps, burst := rate.Limit(o.HTTP.RateLimitRPS), o.HTTP.RateLimitBurst
	if rps <= 0 {
		rps = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return rps, burst
}

// mountHealth serves /health and /metrics.
func (o Options) mountHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		if o.Health != nil {
			if err := o.Health(c.Request.Context()); err != nil {
				o.Logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusOK, resp.Error(resp.CodeServiceBusy, "unhealthy"))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
