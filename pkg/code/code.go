package code

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the error taxonomy a code belongs to
// Kind 错误码所属的错误分类
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidInput
	KindConflict
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindInvalidInput:
		return "InvalidInput"
	case KindConflict:
		return "Conflict"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	default:
		return "Internal"
	}
}

type Code struct {
	// 状态码
	code int
	// 错误分类
	kind Kind
	// 错误消息
	Lang lang
	// 数据
	data interface{}
	// 是否含有Data
	haveData bool
	// 错误详细信息
	details []string
	// 是否含有详情
	haveDetails bool
}

var codes = map[int]string{}

// NewError registers a new error code, panics on a duplicated number
// NewError 注册新的错误码，错误码重复时 panic
func NewError(code int, kind Kind, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.en
	return &Code{code: code, kind: kind, Lang: l}
}

// Clone 创建一个新的 Code 副本
func (e *Code) Clone() *Code {
	return &Code{code: e.code, kind: e.kind, Lang: e.Lang}
}

func (e *Code) Error() string {
	if e.haveDetails {
		return e.Msg() + ": " + strings.Join(e.details, "; ")
	}
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
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

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

// WithData returns a copy carrying data, the registered code is left untouched
// WithData 返回携带数据的副本，不修改已注册的错误码
func (e *Code) WithData(data interface{}) *Code {
	c := e.Clone()
	c.details, c.haveDetails = e.details, e.haveDetails
	c.haveData = true
	c.data = data
	return c
}

// WithDetails returns a copy carrying details, the registered code is left untouched
// WithDetails 返回携带详情的副本，不修改已注册的错误码
func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.data, c.haveData = e.data, e.haveData
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

// Is matches codes by number so clones compare equal to the registered code
// Is 按错误码数值匹配，副本与注册的错误码相等
func (e *Code) Is(target error) bool {
	var t *Code
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

// StatusCode maps the error kind to an HTTP status for a transport layer
// StatusCode 将错误分类映射为 HTTP 状态码
func (e *Code) StatusCode() int {
	switch e.kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// KindOf classifies any error, errors without a code are internal
// KindOf 对任意错误分类，不含错误码的错误视为内部错误
func KindOf(err error) Kind {
	var c *Code
	if errors.As(err, &c) {
		return c.kind
	}
	return KindInternal
}
