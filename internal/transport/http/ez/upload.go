package ez

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/core/storage"
)

// FormUpload 读取 multipart 单文件；字段不存在时返回 nil, nil
// 调用方负责 close
func FormUpload(c *gin.Context, field string) (*storage.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, apperr.BadRequest("invalid multipart form: " + err.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, apperr.BadRequest("cannot read upload: " + err.Error())
	}
	return &storage.Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
