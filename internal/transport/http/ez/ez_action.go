package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/domain"
	resp "go-gin-gorm-blog/internal/transport/http/response"
)

// 上下文 key，由 AuthJWT 中间件写入
const (
	KeyClaims = "claims"
	KeyUserID = "userId"
	KeyRole   = "role"

	KeyRequestID = "X-Request-ID"

	RoleAdmin = "admin"
	RoleUser  = "user"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindForm  Binder = "form"  // 按 Content-Type 绑定（JSON / multipart / urlencoded）
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

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

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "DELETE"
	Path    string   // 例："/blogs/:id/like-toggle"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录（检查 userId）
	Roles   []string // 限定角色（可选）
	Handler func(c *gin.Context, in *I) (O, error)
}

// Caller 从 JWT claims 构造调用者；未登录返回零值
func Caller(c *gin.Context) domain.Caller {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return domain.Caller{}
	}
	cl, ok := v.(*auth.Claims)
	if !ok || cl == nil {
		return domain.Caller{}
	}
	return domain.Caller{UserID: cl.UID, Username: cl.Username, Email: cl.Email, IsAdmin: cl.IsAdmin}
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth && c.GetString(KeyUserID) == "" {
			resp.JSON(c, resp.Error(resp.CodeUnauthorized, "Authentication credentials were not provided."))
			return
		}
		if len(a.Roles) > 0 {
			role := c.GetString(KeyRole)
			ok := false
			for _, r := range a.Roles {
				if role == r {
					ok = true
					break
				}
			}
			if !ok {
				resp.JSON(c, resp.Error(resp.CodeForbidden, "You do not have permission to perform this action."))
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindForm:
			bindErr = c.ShouldBind(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			writeErr(c, e.log, bindError(bindErr))
			return
		}

		// 3) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			writeErr(c, e.log, err)
			return
		}
		resp.JSON(c, resp.OK(out))
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

func bindError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		return apperr.FromValidation(err)
	}
	if errors.Is(err, http.ErrNotMultipart) || strings.Contains(err.Error(), "request body too large") {
		return apperr.BadRequest(err.Error())
	}
	return apperr.BadRequest("malformed request: " + err.Error())
}

// 统一错误映射；5xx 记日志，不把内部错误透给客户端
func writeErr(c *gin.Context, l *zap.Logger, err error) {
	var ae *apperr.AErr
	if !errors.As(err, &ae) {
		ae = &apperr.AErr{Code: apperr.CodeInternal, Msg: "internal error", Err: err}
	}
	if ae.Code >= 500 {
		l.Error("action failed",
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("code", ae.Code),
			zap.String("msg", ae.Msg),
			zap.Error(ae.Err),
		)
		_ = c.Error(err)
	}
	var data interface{}
	if len(ae.Fields) > 0 {
		data = ae.Fields
	}
	resp.JSON(c, resp.ErrorWithData(ae.Code, ae.Msg, data))
}
