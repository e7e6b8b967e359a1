package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-blog/internal/service"
	"go-gin-gorm-blog/internal/transport/http/ez"
)

type Blog struct{ d *Deps }

func NewBlog(d *Deps) *Blog { return &Blog{d: d} }

func (*Blog) Priority() int { return 30 }

type pageQ struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

func (m *Blog) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/blogs", m.d.public()...), m.d.Log)
	authed := ez.New(api.Group("/blogs", m.d.Authed), m.d.Log)

	ez.RegisterAction(pub, ez.Action[service.BlogQuery, service.Page[service.BlogView]]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *service.BlogQuery) (service.Page[service.BlogView], error) {
			return m.d.Blogs.ListPublished(c.Request.Context(), ez.Caller(c), *in)
		},
	})

	// JSON 或 multipart（image 字段）
	ez.RegisterAction(authed, ez.Action[service.BlogInput, service.BlogView]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindForm,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.BlogInput) (service.BlogView, error) {
			up, done, err := ez.FormUpload(c, "image")
			if err != nil {
				return service.BlogView{}, err
			}
			defer done()
			in.Image = up
			return m.d.Blogs.Create(c.Request.Context(), ez.Caller(c), *in)
		},
	})

	ez.RegisterAction(authed, ez.Action[pageQ, service.Page[service.BlogView]]{
		Method: http.MethodGet,
		Path:   "/mine",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *pageQ) (service.Page[service.BlogView], error) {
			return m.d.Blogs.ListMine(c.Request.Context(), ez.Caller(c), in.Page, in.Size)
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, service.BlogView]{
		Method: http.MethodGet,
		Path:   "/title/:title",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.BlogView, error) {
			return m.d.Blogs.ViewByTitle(c.Request.Context(), ez.Caller(c), c.Param("title"))
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, service.BlogView]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.BlogView, error) {
			return m.d.Blogs.View(c.Request.Context(), ez.Caller(c), c.Param("id"))
		},
	})

	ez.RegisterAction(authed, ez.Action[service.BlogPatch, service.BlogView]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindForm,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.BlogPatch) (service.BlogView, error) {
			up, done, err := ez.FormUpload(c, "image")
			if err != nil {
				return service.BlogView{}, err
			}
			defer done()
			in.Image = up
			return m.d.Blogs.Update(c.Request.Context(), ez.Caller(c), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := m.d.Blogs.Delete(c.Request.Context(), ez.Caller(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, service.LikeResult]{
		Method: http.MethodPost,
		Path:   "/:id/like-toggle",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.LikeResult, error) {
			return m.d.Blogs.ToggleLike(c.Request.Context(), ez.Caller(c), c.Param("id"))
		},
	})
}

// MountAdmin 彻底删除（含已软删的博客）
func (m *Blog) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, m.d.Log)
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/blogs/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  []string{ez.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := m.d.Blogs.Purge(c.Request.Context(), ez.Caller(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "purged": true}, nil
		},
	})
}
