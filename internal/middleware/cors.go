package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// CorsConfig 跨域配置
type CorsConfig struct {
	AllowedOrigins []string `yaml:"allowed-origins" default:"[\"*\"]"`
	MaxAge         int      `yaml:"max-age" default:"600"`
}

// Cors answers preflight requests and decorates responses with CORS headers.
func Cors(cfg CorsConfig) gin.HandlerFunc {
	h := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Token", "Content-Type", "Lang", "Accept-Language", DefaultTraceIDHeader},
		ExposedHeaders: []string{DefaultTraceIDHeader},
		MaxAge:         cfg.MaxAge,
	})
	return func(c *gin.Context) {
		h.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
