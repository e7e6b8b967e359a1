package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-blog/internal/service"
	"go-gin-gorm-blog/internal/transport/http/ez"
)

type Comment struct{ d *Deps }

func NewComment(d *Deps) *Comment { return &Comment{d: d} }

func (*Comment) Priority() int { return 40 }

func (m *Comment) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("", m.d.Authed), m.d.Log)

	ez.RegisterAction(e, ez.Action[struct{}, []service.CommentView]{
		Method: http.MethodGet,
		Path:   "/blogs/:id/comments",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]service.CommentView, error) {
			return m.d.Comments.List(c.Request.Context(), ez.Caller(c), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.CommentInput, service.CommentView]{
		Method: http.MethodPost,
		Path:   "/blogs/:id/comments",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.CommentInput) (service.CommentView, error) {
			return m.d.Comments.Create(c.Request.Context(), ez.Caller(c), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, service.CommentView]{
		Method: http.MethodGet,
		Path:   "/comments/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.CommentView, error) {
			return m.d.Comments.Get(c.Request.Context(), ez.Caller(c), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/comments/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := m.d.Comments.SoftDelete(c.Request.Context(), ez.Caller(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
