package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"stockapi/pkg/core"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorLevel
	}{
		{"nil错误", nil, LevelNone},
		{"空结果", fmt.Errorf("stock_zh_a_hist: %w", core.ErrEmptyResult), LevelNone},
		{"客户端取消", fmt.Errorf("HTTP request failed: %w", context.Canceled), LevelNone},

		// 致命级错误
		{"连接拒绝", errors.New("dial tcp 1.2.3.4:443: connection refused"), LevelFatal},
		{"连接重置", errors.New("read: connection reset by peer"), LevelFatal},
		{"主机未找到", errors.New("dial tcp: lookup push2his.eastmoney.com: no such host"), LevelFatal},
		{"403禁止", errors.New("HTTP status error: 403 Forbidden"), LevelFatal},

		// 网络错误
		{"超时", errors.New("i/o timeout"), LevelNetwork},
		{"上下文超时", fmt.Errorf("HTTP request failed: %w", context.DeadlineExceeded), LevelNetwork},
		{"网络不可达", errors.New("network is unreachable"), LevelNetwork},
		{"读TCP失败", errors.New("read tcp: connection reset by peer"), LevelNetwork},
		{"写TCP失败", errors.New("write tcp: broken pipe"), LevelNetwork},
		{"服务端错误", errors.New("HTTP status error: 502 Bad Gateway"), LevelNetwork},

		// 无效参数
		{"请求错误", errors.New("HTTP status error: 400 Bad Request"), LevelInvalid},
		{"未找到", errors.New("HTTP status error: 404 Not Found"), LevelInvalid},
		{"未知函数", fmt.Errorf("foo: %w", core.ErrUnknownFunction), LevelInvalid},

		{"其他错误", errors.New("decode response failed: invalid character"), LevelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyError(tt.err), "错误分类应匹配预期: %s", tt.name)
		})
	}
}

func TestErrorLevelTripsBreaker(t *testing.T) {
	assert.True(t, LevelFatal.tripsBreaker())
	assert.True(t, LevelNetwork.tripsBreaker())
	assert.True(t, LevelUnknown.tripsBreaker())
	assert.False(t, LevelNone.tripsBreaker())
	assert.False(t, LevelInvalid.tripsBreaker())
	assert.Equal(t, "network", LevelNetwork.String())
}
