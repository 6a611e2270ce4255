package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"auto-ria-clone/internal/core/server"
	mdw "auto-ria-clone/internal/transport/http/middleware"
)

// NewAPIEngine serves the public API under /api/v1. Every route sees the
// principal when a token is sent; anonymous callers pass through.
func NewAPIEngine(o Options) *gin.Engine {
	r := server.NewRouter(o.Logger, o.HTTP.CORSOrigins)

	rps, burst := o.limit()
	r.Use(o.middleware(mdw.RateLimitPerIP(rps, burst, 10*time.Minute))...)

	o.mountHealth(r)

	api := r.Group("/api/v1", mdw.AuthJWT(o.JWT, o.Principals, true))
	MountAllAPI(api)
	return r
}
