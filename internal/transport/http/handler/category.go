package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/service"
	"go-gin-gorm-blog/internal/transport/http/ez"
)

type Category struct{ d *Deps }

func NewCategory(d *Deps) *Category { return &Category{d: d} }

func (*Category) Priority() int { return 20 }

func (m *Category) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/categories"), m.d.Log)
	// 写操作在 service 内先查存在性再校验 admin
	authed := ez.New(api.Group("/categories", m.d.Authed), m.d.Log)

	ez.RegisterAction(pub, ez.Action[struct{}, []domain.Category]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Category, error) {
			return m.d.Categories.List(c.Request.Context())
		},
	})

	ez.RegisterAction(authed, ez.Action[service.CategoryInput, domain.Category]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.CategoryInput) (domain.Category, error) {
			return m.d.Categories.Create(c.Request.Context(), ez.Caller(c), *in)
		},
	})

	ez.RegisterAction(authed, ez.Action[service.CategoryPatch, domain.Category]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.CategoryPatch) (domain.Category, error) {
			return m.d.Categories.Update(c.Request.Context(), ez.Caller(c), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := m.d.Categories.Delete(c.Request.Context(), ez.Caller(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
