// Package service holds the blog's use cases. Every operation takes the
// caller explicitly and returns *apperr.AErr on failure.
package service

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/domain"
)

var (
	validate   = newValidator()
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误字段名用 json 名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	// 用户名只允许字母数字和 @ . + - _
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return v
}

func check(in any) error {
	if err := validate.Struct(in); err != nil {
		return apperr.FromValidation(err)
	}
	return nil
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page[T any] struct {
	List  []T   `json:"list"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func normPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func requireAuth(c domain.Caller) error {
	if !c.Authenticated() {
		return apperr.Unauthorized("Authentication credentials were not provided.")
	}
	return nil
}
