package services

import (
	"context"
	"errors"
	"fmt"
)

// NotFoundError 集群不存在
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("集群不存在: %s", e.ID)
}

// ValidationError 输入不合法（请求参数、资源清单等）
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("参数校验失败: %v", e.Err)
	}
	return fmt.Sprintf("参数校验失败: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RegistrationError 注册时连通性探测失败
type RegistrationError struct {
	Name string
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("集群 %s 注册失败: %v", e.Name, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// ConnectorError 控制面调用失败
type ConnectorError struct {
	Op  string
	Err error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("%s失败: %v", e.Op, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// QueryError 指标端点查询失败或超时
type QueryError struct {
	Query      string
	StatusCode int
	Body       string
	Timeout    bool
	Err        error
}

func (e *QueryError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("指标查询超时: %s", e.Query)
	case e.StatusCode != 0:
		return fmt.Sprintf("指标查询失败: %s, 状态码: %d", e.Body, e.StatusCode)
	default:
		return fmt.Sprintf("指标查询失败: %v", e.Err)
	}
}

func (e *QueryError) Unwrap() error { return e.Err }

// newQueryError 包装传输层错误，区分超时
func newQueryError(query string, err error) *QueryError {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		timeout = true
	}
	return &QueryError{
		Query:   query,
		Timeout: timeout,
		Err:     err,
	}
}
