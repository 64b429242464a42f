package storage

import (
	"context"
	"sync"
	"time"

	"stockapi/pkg/core"
)

// MemorySpotStore 进程内的行情快照缓存，未启用 Redis 时使用。
type MemorySpotStore struct {
	mu        sync.RWMutex
	rows      []core.SpotRow
	expiresAt time.Time
	now       func() time.Time
	stats     MemoryStoreStats
}

// MemoryStoreStats 包含了 MemorySpotStore 的运行统计信息。
type MemoryStoreStats struct {
	Saves    int64     `json:"saves"`     // 写入次数
	Hits     int64     `json:"hits"`      // 命中次数
	Misses   int64     `json:"misses"`    // 未命中或已过期次数
	LastSave time.Time `json:"last_save"` // 最后一次写入时间
}

// NewMemorySpotStore 创建内存快照缓存
func NewMemorySpotStore() *MemorySpotStore {
	return &MemorySpotStore{now: time.Now}
}

// Load 读取未过期的快照，返回的切片是副本
func (m *MemorySpotStore) Load(ctx context.Context) ([]core.SpotRow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rows == nil || !m.now().Before(m.expiresAt) {
		m.stats.Misses++
		return nil, false
	}
	m.stats.Hits++
	out := make([]core.SpotRow, len(m.rows))
	copy(out, m.rows)
	return out, true
}

// Save 覆盖当前快照
func (m *MemorySpotStore) Save(ctx context.Context, rows []core.SpotRow, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = make([]core.SpotRow, len(rows))
	copy(m.rows, rows)
	now := m.now()
	m.expiresAt = now.Add(ttl)
	m.stats.Saves++
	m.stats.LastSave = now
	return nil
}

// Close 清空快照
func (m *MemorySpotStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

// GetStats 返回当前的运行统计信息。
func (m *MemorySpotStore) GetStats() MemoryStoreStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// NopMirror 不做任何写入的镜像
type NopMirror struct{}

func (NopMirror) WriteBars(ctx context.Context, ticker, period, adjust string, rows []core.HistoryRecord) error {
	return nil
}

func (NopMirror) Close() error { return nil }
