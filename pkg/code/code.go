package code

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a Code so the HTTP boundary can map it to a status without
// looking at the message text.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindNotAuthenticated
	KindAccessDenied
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindUnavailable
	KindInternal
)

var kindNames = map[Kind]string{
	KindNone:             "none",
	KindValidation:       "validation",
	KindNotAuthenticated: "not_authenticated",
	KindAccessDenied:     "access_denied",
	KindNotFound:         "not_found",
	KindConflict:         "conflict",
	KindTooManyRequests:  "too_many_requests",
	KindUnavailable:      "unavailable",
	KindInternal:         "internal",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// HTTPStatus returns the transport status for the kind.
// Unavailable is never meant to reach a caller; if it leaks it is reported as 500.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNone:
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindAccessDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type Code struct {
	// 状态码
	code int
	// 成功或失败
	status bool
	kind   Kind
	// 成功时的 HTTP 状态（201 等），0 表示按 kind 推导
	httpStatus int
	// 消息
	Lang lang
	// 数据
	data     interface{}
	haveData bool
	// 错误详细信息
	details     []string
	haveDetails bool
	// 结构化上下文：资源类型与资源 ID
	resource   string
	resourceID string
}

var codes = map[int]string{}

// NewError registers an error code. Duplicate codes panic at init time.
func NewError(code int, kind Kind, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("error code %d already registered", code))
	}
	codes[code] = l.en
	return &Code{code: code, status: false, kind: kind, Lang: l}
}

var sussCodes = map[int]string{}

// NewSuss registers a success code answered with the given HTTP status.
func NewSuss(code int, httpStatus int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("success code %d already registered", code))
	}
	sussCodes[code] = l.en
	return &Code{code: code, status: true, kind: KindNone, httpStatus: httpStatus, Lang: l}
}

// Clone 创建一个新的 Code 副本
func (e *Code) Clone() *Code {
	c := *e
	if e.details != nil {
		c.details = append([]string(nil), e.details...)
	}
	return &c
}

func (e *Code) Error() string {
	msg := e.Lang.Message("en")
	if e.resource != "" {
		msg = fmt.Sprintf("%s: %s %s", msg, e.resource, e.resourceID)
	}
	if e.haveDetails && len(e.details) > 0 {
		msg = fmt.Sprintf("%s (%v)", msg, e.details)
	}
	return msg
}

// Is reports whether target is the same registered code, so errors.Is works
// against the package-level values after With* copies.
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	if !ok {
		return false
	}
	return t.code == e.code && t.status == e.status
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Kind() Kind {
	return e.kind
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) Resource() (string, string) {
	return e.resource, e.resourceID
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

// WithData returns a copy carrying data.
func (e *Code) WithData(data interface{}) *Code {
	c := e.Clone()
	c.haveData = true
	c.data = data
	return c
}

// WithDetails returns a copy carrying details.
func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

// WithResource returns a copy tagged with the resource type and id it concerns.
func (e *Code) WithResource(resource, id string) *Code {
	c := e.Clone()
	c.resource = resource
	c.resourceID = id
	return c
}

func (e *Code) StatusCode() int {
	if e.status && e.httpStatus != 0 {
		return e.httpStatus
	}
	return e.kind.HTTPStatus()
}

// KindOf extracts the Kind of err. nil is KindNone; anything that is not a
// *Code is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var c *Code
	if errors.As(err, &c) {
		return c.kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
