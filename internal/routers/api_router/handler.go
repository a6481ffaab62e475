// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/thingspace/thingspace-notes/internal/app"
	"github.com/thingspace/thingspace-notes/internal/middleware"
	pkgapp "github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/code"
	"github.com/thingspace/thingspace-notes/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler，嵌入后获得 App Container 和通用的鉴权、日志辅助方法
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// requireUser 获取用户 ID，缺失时直接返回 401
func (h *Handler) requireUser(c *gin.Context, method string) (string, bool) {
	uid := pkgapp.GetUserID(c)
	if uid == "" {
		h.App.Logger().Warn(method+" err uid empty", zap.String(logger.FieldTraceID, middleware.GetTraceIDFromGin(c)))
		pkgapp.NewResponse(c).ToResponse(code.ErrorNotUserAuthToken)
		return "", false
	}
	return uid, true
}

// logError 记录错误日志，包含 Trace ID
// Internal failures log at error level, rejected requests at info.
func (h *Handler) logError(ctx context.Context, method string, err error) {
	fields := []zap.Field{
		zap.String(logger.FieldMethod, method),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
		zap.Error(err),
	}
	if code.KindOf(err) == code.KindInternal {
		h.App.Logger().Error(method+" failed", fields...)
		return
	}
	h.App.Logger().Info(method+" rejected", fields...)
}
