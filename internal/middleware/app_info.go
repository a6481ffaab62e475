package middleware

import (
	"github.com/thingspace/thingspace-notes/pkg/app"

	"github.com/gin-gonic/gin"
)

// AppVersionHeader 每个响应都携带服务版本
const AppVersionHeader = "X-App-Version"

// AppInfo 写入应用信息到上下文和响应头
func AppInfo(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Set("access_host", app.GetAccessHost(c))
		c.Header(AppVersionHeader, version)

		c.Next()
	}
}
