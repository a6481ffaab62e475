package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/uber/jaeger-client-go"
)

const (
	// DefaultTraceIDHeader 默认的 Trace ID 请求头名称
	DefaultTraceIDHeader = "X-Trace-ID"
	// TraceIDKey Context 中存储 Trace ID 的键
	TraceIDKey = "trace_id"
)

type traceIDCtxKey struct{}

// TraceMiddleware 创建请求追踪中间件
//  1. 开启一个 opentracing span (gorm 查询挂在其下)
//  2. 从请求头获取 Trace ID，否则取 jaeger trace id 或生成 uuid
//  3. 将 Trace ID 注入到 gin.Context 和 request.Context，并在响应头中返回
func TraceMiddleware(header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultTraceIDHeader
	}
	return func(c *gin.Context) {
		tracer := opentracing.GlobalTracer()

		var span opentracing.Span
		parent, err := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(c.Request.Header))
		if err == nil {
			span = tracer.StartSpan(c.Request.Method+" "+c.FullPath(), ext.RPCServerOption(parent))
		} else {
			span = tracer.StartSpan(c.Request.Method + " " + c.FullPath())
		}
		defer span.Finish()

		traceID := c.GetHeader(header)
		if traceID == "" {
			if sc, ok := span.Context().(jaeger.SpanContext); ok {
				traceID = sc.TraceID().String()
			} else {
				traceID = uuid.NewString()
			}
		}

		c.Set(TraceIDKey, traceID)
		ctx := opentracing.ContextWithSpan(c.Request.Context(), span)
		ctx = context.WithValue(ctx, traceIDCtxKey{}, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(header, traceID)

		c.Next()

		ext.HTTPMethod.Set(span, c.Request.Method)
		ext.HTTPUrl.Set(span, c.Request.URL.Path)
		ext.HTTPStatusCode.Set(span, uint16(c.Writer.Status()))
		if c.Writer.Status() >= 500 {
			ext.Error.Set(span, true)
		}
	}
}

// GetTraceID 从 context.Context 获取 Trace ID
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// GetTraceIDFromGin 从 gin.Context 获取 Trace ID
func GetTraceIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(TraceIDKey)
}
