// Package storage 提供可选的外部存储：
// 多实例共享的A股行情快照（Redis）和历史K线镜像（InfluxDB），以及对应的内存/空实现。
package storage

import (
	"context"
	"time"

	"stockapi/pkg/core"
)

// SpotStore 全市场行情快照的共享缓存
type SpotStore interface {
	// Load 读取快照，不存在或已过期时返回 false
	Load(ctx context.Context) ([]core.SpotRow, bool)
	// Save 写入快照，ttl 后自动失效
	Save(ctx context.Context, rows []core.SpotRow, ttl time.Duration) error
	Close() error
}

// HistoryMirror 历史K线的旁路写入，写入失败不影响主流程
type HistoryMirror interface {
	WriteBars(ctx context.Context, ticker, period, adjust string, rows []core.HistoryRecord) error
	Close() error
}
