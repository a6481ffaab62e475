package routers

import (
	"github.com/thingspace/thingspace-notes/internal/app"
	"github.com/thingspace/thingspace-notes/internal/middleware"
	"github.com/thingspace/thingspace-notes/internal/routers/api_router"
	"github.com/thingspace/thingspace-notes/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// NewRouter 创建对外 API 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	r := gin.New()

	// Registered globally so preflight and unknown routes pass through CORS,
	// tracing and language selection too.
	r.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
	r.Use(middleware.TraceMiddleware(cfg.Tracer.Header)) // Trace ID 中间件
	r.Use(middleware.Metrics())
	r.Use(middleware.Cors(cfg.Cors))
	r.Use(middleware.LangWithTranslator(uni))
	if cfg.Limiter.Enabled {
		r.Use(middleware.RateLimiter(limiter.NewMethodLimiter().AddBuckets(cfg.GetLimiterRules()...)))
	}
	r.Use(middleware.ContextTimeout(cfg.Server.ContextTimeout))
	r.Use(middleware.AccessLog(appContainer.Logger()))
	r.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

	healthHandler := api_router.NewHealthHandler(appContainer)
	r.GET("/health", healthHandler.Check)

	noteHandler := api_router.NewNoteHandler(appContainer)

	notes := r.Group("/notes")
	notes.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey))
	{
		notes.GET("", noteHandler.List)
		notes.POST("", noteHandler.Create)
		notes.GET("/:id", noteHandler.Get)
		notes.PUT("/:id", noteHandler.Update)
		notes.DELETE("/:id", noteHandler.Delete)
		notes.POST("/:id/share", noteHandler.Share)
		notes.POST("/:id/copy", noteHandler.Copy)
		notes.GET("/:id/workspaces", noteHandler.Workspaces)
	}

	r.NoRoute(middleware.NoFound(appContainer.Logger()))

	return r
}
