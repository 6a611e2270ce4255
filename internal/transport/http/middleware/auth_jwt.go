package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/core/auth"
	"auto-ria-clone/internal/domain"
	resp "auto-ria-clone/internal/transport/http/response"
)

const (
	KeyPrincipal = "principal"
	KeyUserID    = "userId"
	KeyRole      = "role"
)

// PrincipalLoader resolves the stored account behind a token subject.
type PrincipalLoader func(ctx context.Context, uid string) (access.Principal, error)

// AuthJWT authenticates the bearer token and stores the resolved principal.
// With optional set, requests without a token continue as anonymous; a
// token that is present but invalid is still rejected.
func AuthJWT(j *auth.JWTer, load PrincipalLoader, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if ah == "" && optional {
			c.Next()
			return
		}
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.ParseFor(strings.TrimPrefix(ah, "Bearer "), auth.PurposeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		p, err := load(c.Request.Context(), claims.UID)
		if err != nil {
			switch domain.KindOf(err) {
			case domain.KindUnauthorized:
				c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, err.Error()))
			case domain.KindForbidden:
				c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, err.Error()))
			default:
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, ""))
			}
			return
		}
		c.Set(KeyPrincipal, p)
		c.Set(KeyUserID, p.UserID)
		c.Set(KeyRole, string(p.Role))
		c.Next()
	}
}

// PrincipalFrom returns the request principal; anonymous when none was set.
func PrincipalFrom(c *gin.Context) access.Principal {
	if v, ok := c.Get(KeyPrincipal); ok {
		if p, ok := v.(access.Principal); ok {
			return p
		}
	}
	return access.Principal{}
}

// RequireAnyPermission guards a whole group: the principal needs at least one of perms.
func RequireAnyPermission(perms ...access.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p.Anonymous() {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return
		}
		if !p.Permissions.HasAny(perms...) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Next()
	}
}
