// Package apperr is the error taxonomy shared by services and the HTTP layer.
// Code values follow HTTP semantics so the transport can map them directly.
package apperr

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	CodeBadRequest   = 400 // ValidationError
	CodeUnauthorized = 401 // AuthenticationError
	CodeForbidden    = 403 // AuthorizationError
	CodeNotFound     = 404
	CodeInternal     = 500
	CodeUnavailable  = 503
)

type AErr struct {
	Code   int
	Msg    string
	Err    error
	Fields map[string]string // 字段级校验信息（可选）
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: CodeInternal, Msg: msg, Err: err}
}
func Unavailable(msg string, err error) error {
	return &AErr{Code: CodeUnavailable, Msg: msg, Err: err}
}

// Invalid is a ValidationError carrying per-field messages.
func Invalid(msg string, fields map[string]string) error {
	return &AErr{Code: CodeBadRequest, Msg: msg, Fields: fields}
}

// CodeOf returns the taxonomy code of err, CodeInternal for foreign errors.
func CodeOf(err error) int {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// FromStore classifies an error returned by the persistence layer.
func FromStore(msg string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AErr
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(msg + ": not found")
	case IsUnavailable(err):
		return Unavailable("service unavailable, please try again later", err)
	}
	return Internal(msg, err)
}

// IsUnavailable reports whether err means the backing store cannot be reached.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "sql: database is closed")
}

// IsDupKey 唯一约束冲突
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

// FromValidation converts validator errors into a ValidationError with field messages.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return BadRequest(err.Error())
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		fields[fe.Field()] = describe(fe)
	}
	return Invalid("validation failed", fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "eqfield":
		return "Must match " + fe.Param() + "."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return "Invalid value (" + fe.Tag() + ")."
}
