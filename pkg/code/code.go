// Package code 定义统一的业务状态码
package code

import (
	"fmt"
	"net/http"
)

type Code struct {
	// 状态码
	code int
	// 状态
	status bool
	// 消息
	msg string
	// 数据
	data interface{}
	// 错误详细信息
	details []string
}

var codes = map[int]string{}

// NewError registers an error code, code must be unique
// NewError 注册错误码，状态码必须唯一
func NewError(code int, msg string) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = msg
	return &Code{code: code, status: false, msg: msg}
}

// NewSuss registers a success code
// NewSuss 注册成功码
func NewSuss(code int, msg string) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	codes[code] = msg
	return &Code{code: code, status: true, msg: msg}
}

// Clone 创建一个新的 Code 副本
func (e *Code) Clone() *Code {
	return &Code{
		code:   e.code,
		status: e.status,
		msg:    e.msg,
	}
}

func (e *Code) Error() string {
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.msg
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) Details() []string {
	return e.details
}

// WithData returns a copy carrying response data
// WithData 返回携带响应数据的副本
func (e *Code) WithData(data interface{}) *Code {
	c := e.Clone()
	c.data = data
	return c
}

// WithDetails returns a copy carrying error details
// WithDetails 返回携带错误详情的副本
func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.details = append([]string{}, details...)
	return c
}

func (e *Code) StatusCode() int {
	return http.StatusOK
}
