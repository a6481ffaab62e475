package middleware

import (
	"github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoFound 未匹配路由统一返回 {error} 和 404
func NoFound(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Debug("route not found",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("traceId", GetTraceIDFromGin(c)))
		app.NewResponse(c).ToResponse(code.ErrorNotFoundAPI)
		c.Abort()
	}
}
