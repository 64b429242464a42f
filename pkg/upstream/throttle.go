package upstream

import (
	"context"
	"sync"
	"time"
)

// hostThrottle 同一主机的两次请求之间至少间隔 minInterval，降低触发反爬限制的概率
type hostThrottle struct {
	minInterval time.Duration

	mu   sync.Mutex
	next map[string]time.Time
}

func newHostThrottle(minInterval time.Duration) *hostThrottle {
	return &hostThrottle{
		minInterval: minInterval,
		next:        make(map[string]time.Time),
	}
}

// wait 为 host 预约下一个请求时刻并等待到该时刻，等待期间 ctx 结束时返回其错误
func (t *hostThrottle) wait(ctx context.Context, host string) error {
	if t == nil || t.minInterval <= 0 {
		return nil
	}

	t.mu.Lock()
	now := time.Now()
	at := t.next[host]
	if at.Before(now) {
		at = now
	}
	t.next[host] = at.Add(t.minInterval)
	t.mu.Unlock()

	delay := time.Until(at)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
