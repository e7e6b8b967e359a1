package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/service"
	"go-gin-gorm-blog/internal/transport/http/ez"
)

// Auth 注册/登录/令牌/密码重置/个人资料
type Auth struct{ d *Deps }

func NewAuth(d *Deps) *Auth { return &Auth{d: d} }

func (*Auth) Priority() int { return 10 }

type refreshIn struct {
	Refresh string `json:"refresh"`
}

func (r refreshIn) token() (string, error) {
	tok := strings.TrimSpace(r.Refresh)
	if tok == "" {
		return "", apperr.Invalid("validation failed", map[string]string{"refresh": "This field is required."})
	}
	return tok, nil
}

func (m *Auth) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/auth"), m.d.Log)
	authed := ez.New(api.Group("/auth", m.d.Authed), m.d.Log)

	ez.RegisterAction(pub, ez.Action[service.RegisterInput, service.UserView]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.RegisterInput) (service.UserView, error) {
			return m.d.Auth.Register(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(pub, ez.Action[service.LoginInput, auth.Pair]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (auth.Pair, error) {
			return m.d.Auth.Login(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(pub, ez.Action[refreshIn, service.AccessToken]{
		Method: http.MethodPost,
		Path:   "/token/refresh",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *refreshIn) (service.AccessToken, error) {
			tok, err := in.token()
			if err != nil {
				return service.AccessToken{}, err
			}
			return m.d.Auth.Refresh(c.Request.Context(), tok)
		},
	})

	ez.RegisterAction(pub, ez.Action[service.ResetRequest, detail]{
		Method: http.MethodPost,
		Path:   "/reset-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.ResetRequest) (detail, error) {
			msg, err := m.d.Auth.RequestPasswordReset(c.Request.Context(), *in)
			return detail{Detail: msg}, err
		},
	})

	ez.RegisterAction(pub, ez.Action[service.ResetConfirm, detail]{
		Method: http.MethodPost,
		Path:   "/reset-password-confirm/:uid/:token",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.ResetConfirm) (detail, error) {
			if err := m.d.Auth.ConfirmPasswordReset(c.Request.Context(), c.Param("uid"), c.Param("token"), *in); err != nil {
				return detail{}, err
			}
			return detail{Detail: "Password has been reset successfully."}, nil
		},
	})

	// ---- 需要登录 ----
	ez.RegisterAction(authed, ez.Action[refreshIn, detail]{
		Method: http.MethodPost,
		Path:   "/logout",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *refreshIn) (detail, error) {
			tok, err := in.token()
			if err != nil {
				return detail{}, err
			}
			if err := m.d.Auth.Logout(c.Request.Context(), ez.Caller(c), tok); err != nil {
				return detail{}, err
			}
			return detail{Detail: "Successfully logged out."}, nil
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, service.UserView]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.UserView, error) {
			return m.d.Auth.Me(c.Request.Context(), ez.Caller(c))
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, service.PictureResult]{
		Method: http.MethodPut,
		Path:   "/me/profile-picture",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.PictureResult, error) {
			up, done, err := ez.FormUpload(c, "profile_picture")
			if err != nil {
				return service.PictureResult{}, err
			}
			defer done()
			return m.d.Profile.UpdatePicture(c.Request.Context(), ez.Caller(c), up)
		},
	})
}
