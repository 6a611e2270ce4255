package ez

import (
	"fmt"
	"mime/multipart"

	"github.com/gin-gonic/gin"
)

// File is the single uploaded part handed to a POSTFILE handler.
type File struct {
	Header *multipart.FileHeader
	Body   multipart.File
}

// ContentType is taken from the part header, not sniffed.
func (f File) ContentType() string { return f.Header.Header.Get("Content-Type") }

// POSTFILE 处理 multipart/form-data 单文件上传；需要登录
func POSTFILE[O any](e EZ, path, field string, maxBytes int64, h func(c *gin.Context, f File) (O, error)) {
	guard := Action[struct{}, O]{Auth: true}
	e.g.POST(path, func(c *gin.Context) {
		if err := guard.guard(c); err != nil {
			e.Fail(c, err)
			return
		}
		fh, err := c.FormFile(field)
		if err != nil {
			e.Fail(c, BadRequest(fmt.Sprintf("multipart field %q is required", field)))
			return
		}
		if maxBytes > 0 && fh.Size > maxBytes {
			e.Fail(c, BadRequest(fmt.Sprintf("file exceeds %d bytes", maxBytes)))
			return
		}
		body, err := fh.Open()
		if err != nil {
			e.Fail(c, BadRequest("cannot read uploaded file"))
			return
		}
		defer body.Close()

		out, err := h(c, File{Header: fh, Body: body})
		if err != nil {
			e.Fail(c, err)
			return
		}
		e.OK(c, out)
	})
}
