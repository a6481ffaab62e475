package code

import "net/http"

var (
	Success = NewSuss(1, http.StatusOK, lang{en: "Success", zh: "成功"})
	Created = NewSuss(2, http.StatusCreated, lang{en: "Created", zh: "创建成功"})
	// Unhealthy still carries the health report in data.
	Unhealthy = NewSuss(3, http.StatusServiceUnavailable, lang{en: "Unhealthy", zh: "服务异常"})
)

var (
	ErrorServerInternal = NewError(500000, KindInternal, lang{en: "Internal server error", zh: "服务内部错误"})
	ErrorDBQuery        = NewError(500001, KindInternal, lang{en: "Database query failed", zh: "数据库查询失败"})

	ErrorInvalidParams = NewError(400001, KindValidation, lang{en: "Invalid parameters", zh: "入参错误"})
	ErrorNoteInvalid   = NewError(400002, KindValidation, lang{en: "Note is invalid", zh: "笔记内容不合法"})

	ErrorNotUserAuthToken     = NewError(401001, KindNotAuthenticated, lang{en: "Authentication token missing", zh: "缺少认证令牌"})
	ErrorInvalidUserAuthToken = NewError(401002, KindNotAuthenticated, lang{en: "Authentication token invalid", zh: "认证令牌无效"})

	ErrorAccessDenied  = NewError(403001, KindAccessDenied, lang{en: "Access denied", zh: "无权访问"})
	ErrorNoteOwnerOnly = NewError(403002, KindAccessDenied, lang{en: "Only the author may delete this note", zh: "仅作者可删除该笔记"})

	ErrorNotFoundAPI       = NewError(404001, KindNotFound, lang{en: "API not found", zh: "接口不存在"})
	ErrorNoteNotFound      = NewError(404002, KindNotFound, lang{en: "Note not found", zh: "笔记不存在"})
	ErrorWorkspaceNotFound = NewError(404003, KindNotFound, lang{en: "Workspace not found", zh: "工作区不存在"})

	ErrorNoteConflict = NewError(409001, KindConflict, lang{en: "Note was modified concurrently, retry", zh: "笔记被并发修改，请重试"})

	ErrorTooManyRequests = NewError(429001, KindTooManyRequests, lang{en: "Too many requests", zh: "请求过多"})

	ErrorEmbeddingUnavailable = NewError(503001, KindUnavailable, lang{en: "Embedding provider unavailable", zh: "向量服务不可用"})
)
