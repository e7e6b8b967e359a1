package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-blog/internal/service"
	"go-gin-gorm-blog/internal/transport/http/ez"
)

// Admin 统计 + 用户管理
type Admin struct{ d *Deps }

func NewAdmin(d *Deps) *Admin { return &Admin{d: d} }

func (*Admin) Priority() int { return 50 }

func (m *Admin) stats(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[struct{}, service.Stats]{
		Method: http.MethodGet,
		Path:   "/stats",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.Stats, error) {
			return m.d.Stats.Collect(c.Request.Context(), ez.Caller(c))
		},
	})
}

// MountAPI 用户端 /api/v1/stats，非管理员由 service 返回 403
func (m *Admin) MountAPI(api *gin.RouterGroup) {
	m.stats(ez.New(api.Group("", m.d.Authed), m.d.Log))
}

// MountAdmin 管理端：分组已走 AuthJWT("admin")
func (m *Admin) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, m.d.Log)
	m.stats(e)

	// --- GET /admin/v1/users  用户列表 ---
	ez.RegisterAction(e, ez.Action[service.UserListQuery, service.UserList]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Auth:   true,
		Roles:  []string{ez.RoleAdmin},
		Handler: func(c *gin.Context, in *service.UserListQuery) (service.UserList, error) {
			return m.d.Users.List(c.Request.Context(), ez.Caller(c), *in)
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（软删） ---
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  []string{ez.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := m.d.Users.Ban(c.Request.Context(), ez.Caller(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})
}
