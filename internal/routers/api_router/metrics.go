package api_router

import (
	"encoding/json"
	"expvar"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Expvar 导出 expvar 运行时指标
// ?prefix= 只返回名称以该前缀开头的变量，例如 prefix=notes
func Expvar(c *gin.Context) {
	prefix := c.Query("prefix")
	vars := make(map[string]json.RawMessage)
	expvar.Do(func(kv expvar.KeyValue) {
		if prefix != "" && !strings.HasPrefix(kv.Key, prefix) {
			return
		}
		vars[kv.Key] = json.RawMessage(kv.Value.String())
	})
	c.JSON(http.StatusOK, vars)
}
