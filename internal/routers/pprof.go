package routers

import (
	"net/http/pprof"

	"github.com/thingspace/thingspace-notes/internal/middleware"
	"github.com/thingspace/thingspace-notes/internal/routers/api_router"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultPrefix url prefix of pprof
const DefaultPrefix = "/debug/pprof"

// pprofProfiles 通过 pprof.Handler 暴露的命名 profile
var pprofProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// NewPrivateRouterWithLogger 创建私有路由：expvar、prometheus 指标，debug 模式下附带 pprof
// authToken, when set, is required on every request.
func NewPrivateRouterWithLogger(runMode, authToken string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RecoveryWithLogger(logger))
	if authToken != "" {
		r.Use(middleware.SimpleAuthTokenWithConfig(authToken))
	}

	r.GET("/debug/vars", api_router.Expvar)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if runMode == gin.DebugMode {
		p := r.Group(DefaultPrefix)
		p.GET("/", gin.WrapF(pprof.Index))
		p.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		p.GET("/profile", gin.WrapF(pprof.Profile))
		p.Any("/symbol", gin.WrapF(pprof.Symbol))
		p.GET("/trace", gin.WrapF(pprof.Trace))
		for _, name := range pprofProfiles {
			p.GET("/"+name, gin.WrapH(pprof.Handler(name)))
		}
	}

	r.NoRoute(middleware.NoFound(logger))
	return r
}
