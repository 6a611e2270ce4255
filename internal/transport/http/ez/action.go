package ez

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auto-ria-clone/internal/access"
	mdw "auto-ria-clone/internal/transport/http/middleware"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// Action 一行注册一个接口：I 入参，O 出参
type Action[I any, O any] struct {
	Method string // GET | POST | PUT | PATCH | DELETE
	Path   string
	Binder Binder
	// Auth rejects anonymous callers with 401.
	Auth bool
	// Permissions must all be held by the principal; implies Auth.
	Permissions []access.Permission
	Handler     func(c *gin.Context, in *I) (O, error)
}

func (a Action[I, O]) guard(c *gin.Context) error {
	if !a.Auth && len(a.Permissions) == 0 {
		return nil
	}
	p := mdw.PrincipalFrom(c)
	if p.Anonymous() {
		return Unauthorized("unauthorized")
	}
	for _, perm := range a.Permissions {
		if err := access.Require(p, perm); err != nil {
			return err
		}
	}
	return nil
}

func bind[I any](c *gin.Context, b Binder, in *I) error {
	var err error
	switch b {
	case BindJSON:
		err = c.ShouldBindJSON(in)
	case BindQuery:
		err = c.ShouldBindQuery(in)
	}
	if err != nil {
		return BadRequest(err.Error())
	}
	return nil
}

// RegisterAction 在当前 EZ 分组下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if err := a.guard(c); err != nil {
			e.Fail(c, err)
			return
		}
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			e.Fail(c, err)
			return
		}
		out, err := a.Handler(c, &in)
		if err != nil {
			e.Fail(c, err)
			return
		}
		e.OK(c, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
