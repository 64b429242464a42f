package cache

import (
	"sync/atomic"
	"time"

	"stockapi/pkg/core"
)

// QuoteStore 昨收价缓存的行为，provider 依赖此接口
type QuoteStore interface {
	HasValidCache(ticker string, maxAgeDays int) bool
	GetCache(ticker string) (*QuoteEntry, bool)
	UpdateCache(ticker string, entry QuoteEntry) error
	ClearCache(ticker string) (int, error)
}

// HistoryStore 历史K线缓存的行为，history 包依赖此接口
type HistoryStore interface {
	HasValidCache(ticker, period, adjust string, maxAgeDays int) bool
	GetCache(ticker, period, adjust string) ([]core.HistoryRecord, bool)
	UpdateCache(ticker string, rows []core.HistoryRecord, period, adjust string) error
	MergeNewData(ticker string, rows []core.HistoryRecord, period, adjust string) error
	ClearCache(ticker, period, adjust string) (int, error)
}

// CacheStats 包含了缓存的统计信息。
type CacheStats struct {
	Dir         string    `json:"dir"`          // 缓存目录
	Files       int       `json:"files"`        // 当前缓存文件数
	HitCount    int64     `json:"hit_count"`    // 命中次数
	MissCount   int64     `json:"miss_count"`   // 未命中次数
	HitRate     float64   `json:"hit_rate"`     // 命中率
	LastCleanup time.Time `json:"last_cleanup"` // 最后一次清理的时间
}

// counters 命中统计
type counters struct {
	hits        atomic.Int64
	misses      atomic.Int64
	lastCleanup atomic.Int64
}

func (c *counters) hit()  { c.hits.Add(1) }
func (c *counters) miss() { c.misses.Add(1) }

func (c *counters) cleaned(at time.Time) { c.lastCleanup.Store(at.UnixNano()) }

func (c *counters) fill(s *CacheStats) {
	s.HitCount = c.hits.Load()
	s.MissCount = c.misses.Load()
	if total := s.HitCount + s.MissCount; total > 0 {
		s.HitRate = float64(s.HitCount) / float64(total)
	}
	if ns := c.lastCleanup.Load(); ns > 0 {
		s.LastCleanup = time.Unix(0, ns)
	}
}
