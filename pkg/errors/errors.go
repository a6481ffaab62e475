package errors

import (
	"errors"

	"github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/code"

	"github.com/gin-gonic/gin"
)

// AppError pairs a Code with the cause that produced it. The cause is logged,
// never serialized.
type AppError struct {
	Code  *code.Code
	Cause error
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Code.Error() + ": " + e.Cause.Error()
	}
	return e.Code.Error()
}

// Unwrap exposes the Code so code.KindOf and errors.Is see through AppError.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Cause}
}

// NewAppError 从 Code 对象创建 AppError
func NewAppError(c *code.Code, cause error) *AppError {
	return &AppError{Code: c, Cause: cause}
}

// ToCode resolves err to the Code the boundary should answer with. Unknown
// errors and leaked Unavailable errors become internal errors.
func ToCode(err error) *code.Code {
	var c *code.Code
	if errors.As(err, &c) {
		if c.Kind() == code.KindUnavailable {
			return code.ErrorServerInternal.WithDetails(c.Error())
		}
		return c
	}
	return code.ErrorServerInternal
}

// ErrorResponse 统一错误响应处理
// The trace id set by the tracing middleware is echoed in the envelope.
func ErrorResponse(c *gin.Context, err error) {
	app.NewResponse(c).ToResponse(ToCode(err))
}

// ErrorResponseWithCode 使用指定的 Code 对象返回错误响应
func ErrorResponseWithCode(c *gin.Context, codeErr *code.Code, cause error) {
	if cause != nil {
		_ = c.Error(cause)
	}
	app.NewResponse(c).ToResponse(codeErr)
}

// IsAppError 检查错误是否为 AppError 类型
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
