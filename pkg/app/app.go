package app

import (
	"github.com/thingspace/thingspace-notes/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

// Res is the success envelope: {message, data}
// Res 成功响应结构
type Res struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrRes is the failure envelope: {error}. Code, details and trace id are
// informational extras.
type ErrRes struct {
	Error   string   `json:"error"`
	Code    int      `json:"code,omitempty"`
	Kind    string   `json:"kind,omitempty"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"traceId,omitempty"`
}

const (
	langKey    = "lang"
	traceIDKey = "trace_id"
)

type Response struct {
	Ctx *gin.Context
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// GetRequestIP gets the request IP
// GetRequestIP 获取ip
func GetRequestIP(c *gin.Context) string {
	reqIP := c.ClientIP()
	if reqIP == "::1" {
		reqIP = "127.0.0.1"
	}
	return reqIP
}

func GetAccessHost(c *gin.Context) string {
	proto := c.Request.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
	}
	return proto + "://" + c.Request.Host
}

// GetLang returns the request language chosen by the lang middleware.
func GetLang(c *gin.Context) string {
	return c.GetString(langKey)
}

// SetLang stores the request language.
func SetLang(c *gin.Context, l string) {
	c.Set(langKey, l)
}

// ToResponse writes codeObj as a success or failure envelope with the status
// its kind maps to.
// ToResponse 输出到浏览器
func (r *Response) ToResponse(codeObj *code.Code) {
	r.Ctx.Set("status_code", codeObj.StatusCode())

	msg := codeObj.Lang.Message(GetLang(r.Ctx))
	if codeObj.Status() {
		r.send(codeObj.StatusCode(), Res{
			Message: msg,
			Data:    codeObj.Data(),
		})
		return
	}

	content := ErrRes{
		Error:   msg,
		Code:    codeObj.Code(),
		Kind:    codeObj.Kind().String(),
		TraceID: r.Ctx.GetString(traceIDKey),
	}
	if codeObj.HaveDetails() {
		content.Details = codeObj.Details()
	}
	r.send(codeObj.StatusCode(), content)
}

func (r *Response) send(statusCode int, content interface{}) {
	r.Ctx.JSON(statusCode, content)
}
