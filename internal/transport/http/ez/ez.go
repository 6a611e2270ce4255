package ez

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auto-ria-clone/internal/domain"
	mdw "auto-ria-clone/internal/transport/http/middleware"
	resp "auto-ria-clone/internal/transport/http/response"
)

// EZ 轻封装：一个路由分组加上记录 500 错误用的 logger
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// AErr is a transport level error with an explicit envelope code.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

var kindCodes = map[domain.Kind]int{
	domain.KindBadRequest:   resp.CodeBadRequest,
	domain.KindUnauthorized: resp.CodeUnauthorized,
	domain.KindForbidden:    resp.CodeForbidden,
	domain.KindNotFound:     resp.CodeNotFound,
	domain.KindConflict:     resp.CodeConflict,
}

// CodeOf maps an error to its envelope code and the message shown to the
// caller. Unclassified errors become 500 with the default message.
func CodeOf(err error) (int, string) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code == resp.CodeServerError {
			return ae.Code, ae.Msg
		}
		return ae.Code, ae.Error()
	}
	if code, ok := kindCodes[domain.KindOf(err)]; ok {
		return code, err.Error()
	}
	return resp.CodeServerError, ""
}

// Fail writes the error envelope. Server errors are logged with their cause.
func (e EZ) Fail(c *gin.Context, err error) {
	code, msg := CodeOf(err)
	if code == resp.CodeServerError {
		_ = c.Error(err)
		e.log.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.Set(mdw.KeyRespCode, code)
	c.JSON(http.StatusOK, resp.Error(code, msg))
}

func (e EZ) OK(c *gin.Context, data any) {
	c.Set(mdw.KeyRespCode, resp.CodeOK)
	c.JSON(http.StatusOK, resp.OK(data))
}
