// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"os"
	"runtime"
	"time"

	"github.com/thingspace/thingspace-notes/internal/app"
	"github.com/thingspace/thingspace-notes/internal/dto"
	pkgapp "github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接和进程资源占用
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthDTO}
// @Failure 503 {object} pkgapp.Res{data=dto.HealthDTO}
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	res := &dto.HealthDTO{
		Status:     "healthy",
		Version:    h.App.Version().Version,
		Database:   "connected",
		Embedding:  h.App.Embedder().Name(),
		Uptime:     time.Since(h.App.StartedAt()).Truncate(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}

	// 进程资源占用，获取失败时保持 0
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			res.CPUPercent = cpu
		}
		if mem, err := p.MemoryPercentWithContext(ctx); err == nil {
			res.MemPercent = float64(mem)
		}
	}

	// 检查数据库连接
	sqlDB, err := h.App.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.App.Logger().Error("HealthHandler.Check database ping failed", zap.Error(err))
		res.Status = "unhealthy"
		res.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.Unhealthy.WithData(res))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(res))
}
