package router

import (
	"github.com/gin-gonic/gin"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/core/server"
	mdw "auto-ria-clone/internal/transport/http/middleware"
)

// staffPermissions: holding any of these opens the staff API; each route
// then checks its own permission.
var staffPermissions = []access.Permission{
	access.UsersGetAll,
	access.CarsSeeDetailsAll,
	access.AdsValidate,
	access.BrandsManage,
	access.UsersCreateManager,
}

func NewAdminEngine(o Options) *gin.Engine {
	r := server.NewRouter(o.Logger, o.HTTP.CORSOrigins)

	rps, burst := o.limit()
	r.Use(o.middleware(mdw.RateLimit(rps, burst))...)

	o.mountHealth(r)

	// bootstrap and sign-in work without a token
	MountAllAdminPublic(r.Group("/admin/v1"))

	admin := r.Group("/admin/v1",
		mdw.AuthJWT(o.JWT, o.Principals, false),
		mdw.RequireAnyPermission(staffPermissions...),
	)
	MountAllAdmin(admin)
	return r
}
