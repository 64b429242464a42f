package provider

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"stockapi/pkg/config"
	"stockapi/pkg/core"
)

// breakerSet 每个上游函数一个熔断器，首次调用时创建。
// 连续失败达到阈值后熔断，冷却期内直接跳过该数据源，让回退更快进行。
type breakerSet struct {
	config config.BreakerConfig
	log    *logrus.Entry

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	stats    map[string]*BreakerStats
}

// BreakerStats 单个数据源的熔断统计
type BreakerStats struct {
	State             string    `json:"state"`
	TotalRequests     int64     `json:"total_requests"`
	SuccessfulRequest int64     `json:"successful_requests"`
	FailedRequests    int64     `json:"failed_requests"`
	Rejected          int64     `json:"rejected"`
	LastFailure       time.Time `json:"last_failure"`
}

func newBreakerSet(cfg config.BreakerConfig, log *logrus.Entry) *breakerSet {
	return &breakerSet{
		config:   cfg,
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		stats:    make(map[string]*BreakerStats),
	}
}

func (b *breakerSet) get(name string) (*gobreaker.CircuitBreaker, *BreakerStats) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[name]; ok {
		return cb, b.stats[name]
	}

	threshold := b.config.ReadyToTrip
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: b.config.MaxRequests,
		Interval:    b.config.Interval,
		Timeout:     b.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 当连续失败次数达到阈值时触发熔断
			return counts.ConsecutiveFailures >= threshold
		},
		// 空结果和参数错误与数据源健康无关，不计入失败
		IsSuccessful: func(err error) bool {
			return !ClassifyError(err).tripsBreaker()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.WithFields(logrus.Fields{"source": name, "from": from.String(), "to": to.String()}).Warn("熔断器状态变更")
		},
	}
	cb := gobreaker.NewCircuitBreaker(settings)
	b.breakers[name] = cb
	b.stats[name] = &BreakerStats{}
	return cb, b.stats[name]
}

// execute 通过熔断器调用 fn，未启用时直接调用
func (b *breakerSet) execute(name string, fn func() (*core.Table, error)) (*core.Table, error) {
	if !b.config.Enabled {
		return fn()
	}

	cb, stats := b.get(name)
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	b.record(stats, err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, err
	}

	table, ok := result.(*core.Table)
	if !ok {
		return nil, fmt.Errorf("熔断器返回数据类型错误")
	}
	return table, nil
}

func (b *breakerSet) record(stats *BreakerStats, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats.TotalRequests++
	switch {
	case ClassifyError(err) == LevelNone:
		stats.SuccessfulRequest++
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		stats.Rejected++
	default:
		stats.FailedRequests++
		stats.LastFailure = time.Now()
	}
}

// snapshot 所有数据源的熔断统计
func (b *breakerSet) snapshot() map[string]BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]BreakerStats, len(b.stats))
	for name, s := range b.stats {
		copied := *s
		copied.State = b.breakers[name].State().String()
		out[name] = copied
	}
	return out
}
