package middleware

import (
	"strings"

	"github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/code"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest reads the token from the Authorization header (with or
// without a Bearer prefix), the Token header or the token query parameter.
func tokenFromRequest(c *gin.Context) string {
	var token string

	if s := c.GetHeader("Authorization"); len(s) != 0 {
		token = s
	} else if s := c.GetHeader("Token"); len(s) != 0 {
		token = s
	} else if s, exist := c.GetQuery("authorization"); exist {
		token = s
	} else if s, exist := c.GetQuery("token"); exist {
		token = s
	}

	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

// UserAuthTokenWithConfig 用户 Token 认证中间件（使用注入的密钥）
// Requests without a valid principal stop here with 401.
func UserAuthTokenWithConfig(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := tokenFromRequest(c)
		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		user, err := app.ParseTokenWithKey(token, secretKey)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		app.SetUser(c, user)

		c.Next()
	}
}
