package ez

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/domain"
	mdw "auto-ria-clone/internal/transport/http/middleware"
	resp "auto-ria-clone/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, req *http.Request) envelope {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

// withPrincipal stands in for the auth middleware.
func withPrincipal(p access.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.Anonymous() {
			c.Set(mdw.KeyPrincipal, p)
		}
		c.Next()
	}
}

type echoIn struct {
	Name string `json:"name" binding:"required"`
}

func engine(p access.Principal) *gin.Engine {
	r := gin.New()
	g := r.Group("/", withPrincipal(p))
	e := New(g, nil)
	RegisterAction(e, Action[echoIn, string]{
		Method: http.MethodPost, Path: "/echo", Binder: BindJSON,
		Handler: func(_ *gin.Context, in *echoIn) (string, error) { return "hi " + in.Name, nil },
	})
	RegisterAction(e, Action[struct{}, any]{
		Method: http.MethodGet, Path: "/fail/:kind", Binder: BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (any, error) {
			switch c.Param("kind") {
			case "conflict":
				return nil, domain.Conflict("already premium")
			case "forbidden":
				return nil, domain.Forbidden("no")
			case "missing":
				return nil, domain.NotFound("listing x not found")
			}
			return nil, fmt.Errorf("dial tcp: connection refused")
		},
	})
	RegisterAction(e, Action[struct{}, string]{
		Method: http.MethodDelete, Path: "/guarded", Permissions: []access.Permission{access.AdsValidate},
		Handler: func(*gin.Context, *struct{}) (string, error) { return "ok", nil },
	})
	POSTFILE(e, "/upload", "file", 8, func(_ *gin.Context, f File) (string, error) {
		b, _ := io.ReadAll(f.Body)
		return f.ContentType() + ":" + string(b), nil
	})
	return r
}

func TestRegisterAction_BindsAndWraps(t *testing.T) {
	r := engine(access.Principal{})

	e := do(t, r, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{"name":"olena"}`)))
	assert.Equal(t, resp.CodeOK, e.Code)
	assert.JSONEq(t, `"hi olena"`, string(e.Data))

	e = do(t, r, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{}`)))
	assert.Equal(t, resp.CodeBadRequest, e.Code)
}

func TestRegisterAction_MapsErrorKinds(t *testing.T) {
	r := engine(access.Principal{})
	cases := map[string]int{
		"conflict":  resp.CodeConflict,
		"forbidden": resp.CodeForbidden,
		"missing":   resp.CodeNotFound,
		"boom":      resp.CodeServerError,
	}
	for kind, code := range cases {
		e := do(t, r, httptest.NewRequest(http.MethodGet, "/fail/"+kind, nil))
		assert.Equal(t, code, e.Code, kind)
	}

	e := do(t, r, httptest.NewRequest(http.MethodGet, "/fail/boom", nil))
	assert.Equal(t, "Internal Server Error", e.Msg, "causes are not leaked")
	e = do(t, r, httptest.NewRequest(http.MethodGet, "/fail/conflict", nil))
	assert.Equal(t, "already premium", e.Msg)
}

func TestRegisterAction_Permissions(t *testing.T) {
	req := func() *http.Request { return httptest.NewRequest(http.MethodDelete, "/guarded", nil) }

	assert.Equal(t, resp.CodeUnauthorized, do(t, engine(access.Principal{}), req()).Code)

	seller := access.NewPrincipal(&domain.User{ID: "s", Role: domain.RoleSeller})
	assert.Equal(t, resp.CodeForbidden, do(t, engine(seller), req()).Code)

	manager := access.NewPrincipal(&domain.User{ID: "m", Role: domain.RoleManager})
	assert.Equal(t, resp.CodeOK, do(t, engine(manager), req()).Code)
}

func multipartBody(t *testing.T, field, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="a.png"`, field))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte(content))
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestPOSTFILE(t *testing.T) {
	seller := access.NewPrincipal(&domain.User{ID: "s", Role: domain.RoleSeller})
	upload := func(p access.Principal, field, content string) envelope {
		body, ct := multipartBody(t, field, "image/png", content)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		return do(t, engine(p), req)
	}

	e := upload(seller, "file", "png")
	assert.Equal(t, resp.CodeOK, e.Code)
	assert.JSONEq(t, `"image/png:png"`, string(e.Data))

	assert.Equal(t, resp.CodeUnauthorized, upload(access.Principal{}, "file", "png").Code)
	assert.Equal(t, resp.CodeBadRequest, upload(seller, "other", "png").Code)
	assert.Equal(t, resp.CodeBadRequest, upload(seller, "file", "far too large").Code)
}
