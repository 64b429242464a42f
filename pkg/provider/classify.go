package provider

import (
	"context"
	"errors"
	"net"
	"strings"

	"stockapi/pkg/core"
)

// ErrorLevel 上游错误的严重级别
type ErrorLevel int

const (
	LevelNone    ErrorLevel = iota // 无错误或正常的空结果
	LevelFatal                     // 连接被拒、域名无法解析、403，数据源整体不可用
	LevelNetwork                   // 超时、连接中断，可能很快恢复
	LevelInvalid                   // 参数无效或标的不存在，与数据源健康无关
	LevelUnknown                   // 未知错误
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelFatal:
		return "fatal"
	case LevelNetwork:
		return "network"
	case LevelInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// tripsBreaker 参数错误和空结果不计入熔断失败
func (l ErrorLevel) tripsBreaker() bool {
	return l == LevelFatal || l == LevelNetwork || l == LevelUnknown
}

// ClassifyError 根据错误内容分类
func ClassifyError(err error) ErrorLevel {
	switch {
	case err == nil, errors.Is(err, core.ErrEmptyResult):
		return LevelNone
	case errors.Is(err, context.Canceled):
		// 客户端断开，不代表数据源有问题
		return LevelNone
	case errors.Is(err, context.DeadlineExceeded):
		return LevelNetwork
	case errors.Is(err, core.ErrUnknownFunction):
		return LevelInvalid
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return LevelNetwork
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection refused"):
		return LevelFatal
	case strings.Contains(msg, "connection reset") && !strings.Contains(msg, "read tcp") && !strings.Contains(msg, "write tcp"):
		// 只有直接连接重置才是致命错误，TCP读写重置是网络错误
		return LevelFatal
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "dial tcp"):
		return LevelFatal
	case strings.Contains(msg, "forbidden") && strings.Contains(msg, "403"):
		return LevelFatal
	}

	switch {
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "temporary failure"),
		strings.Contains(msg, "read tcp") && strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "write tcp"),
		strings.Contains(msg, "unexpected eof"):
		return LevelNetwork
	case strings.Contains(msg, "status error: 5"):
		return LevelNetwork
	}

	switch {
	case strings.Contains(msg, "invalid argument"),
		strings.Contains(msg, "bad request"),
		strings.Contains(msg, "not found") && strings.Contains(msg, "404"):
		return LevelInvalid
	}

	return LevelUnknown
}
