package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/transport/http/ez"
	resp "go-gin-gorm-blog/internal/transport/http/response"
)

// ActiveChecker 确认 token 对应的用户仍然存在且未被封禁
type ActiveChecker interface {
	Active(ctx context.Context, uid string) (bool, error)
}

func bearer(c *gin.Context) (string, bool) {
	ah := c.GetHeader("Authorization")
	if !strings.HasPrefix(ah, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")), true
}

func setClaims(c *gin.Context, cl *auth.Claims) {
	role := ez.RoleUser
	if cl.IsAdmin {
		role = ez.RoleAdmin
	}
	c.Set(ez.KeyClaims, cl)
	c.Set(ez.KeyUserID, cl.UID)
	c.Set(ez.KeyRole, role)
}

// AuthJWT 要求 access token；requireRole 非空时校验角色；active 可为 nil
func AuthJWT(j *auth.JWTer, requireRole string, active ActiveChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearer(c)
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims, err := j.ParseAs(tok, auth.TypeAccess)
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "Given token not valid for any token type")
			return
		}
		if active != nil {
			ok, err := active.Active(c.Request.Context(), claims.UID)
			if err != nil {
				resp.Abort(c, resp.CodeServiceUnavailable, "service unavailable")
				return
			}
			if !ok {
				resp.Abort(c, resp.CodeUnauthorized, "User not found")
				return
			}
		}
		if requireRole == ez.RoleAdmin && !claims.IsAdmin {
			resp.Abort(c, resp.CodeForbidden, "You do not have permission to perform this action.")
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth 公共接口：带了合法 token 就写入身份，否则按匿名处理
func OptionalAuth(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, ok := bearer(c); ok {
			if claims, err := j.ParseAs(tok, auth.TypeAccess); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}
