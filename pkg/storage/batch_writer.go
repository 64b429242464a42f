package storage

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stockapi/pkg/core"
	"stockapi/pkg/logger"
)

// BatchWriter 封装了底层镜像，提供批量写入功能，请求路径上的 WriteBars 只做入队。
// 缓存的记录数达到 BatchSize 或到达刷新间隔时，再一次性写入底层镜像。
type BatchWriter struct {
	mirror      HistoryMirror
	buffer      []pendingBars
	buffered    int
	bufferMu    sync.Mutex
	flushMu     sync.Mutex
	flushTicker *time.Ticker
	stopChan    chan struct{}
	closeOnce   sync.Once
	config      BatchWriterConfig
	stats       BatchWriterStats
	log         *logrus.Entry
}

type pendingBars struct {
	ticker, period, adjust string
	rows                   []core.HistoryRecord
}

// BatchWriterConfig 定义了 BatchWriter 的配置选项。
type BatchWriterConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`      // 触发批量写入的记录数。
	FlushInterval time.Duration `mapstructure:"flush_interval"`  // 定期将缓冲区数据写入镜像的时间间隔。
	MaxBufferSize int           `mapstructure:"max_buffer_size"` // 缓冲区中可容纳的最大记录数，超出时同步刷新。
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`   // 单次刷新的超时时间。
}

// BatchWriterStats 包含了 BatchWriter 的运行统计信息。
type BatchWriterStats struct {
	TotalBatches    int64     `json:"total_batches"`    // 已成功写入的总批次数。
	TotalRecords    int64     `json:"total_records"`    // 已成功写入的总记录数。
	BufferSize      int       `json:"buffer_size"`      // 当前缓冲区中的记录数。
	LastFlush       time.Time `json:"last_flush"`       // 最后一次成功刷新的时间。
	FlushErrors     int64     `json:"flush_errors"`     // 刷新（写入）失败的次数。
	BufferOverflows int64     `json:"buffer_overflows"` // 因缓冲区满而导致强制刷新的次数。
}

// DefaultBatchWriterConfig 返回一个默认的 BatchWriter 配置实例。
func DefaultBatchWriterConfig() BatchWriterConfig {
	return BatchWriterConfig{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
		MaxBufferSize: 5000,
		WriteTimeout:  10 * time.Second,
	}
}

// NewBatchWriter 创建一个新的 BatchWriter 实例。
func NewBatchWriter(mirror HistoryMirror, config BatchWriterConfig) *BatchWriter {
	bw := &BatchWriter{
		mirror:   mirror,
		stopChan: make(chan struct{}),
		config:   config,
		log:      logger.WithComponent("BatchWriter"),
	}

	if config.FlushInterval > 0 {
		bw.flushTicker = time.NewTicker(config.FlushInterval)
		go bw.startPeriodicFlush()
	}

	return bw
}

// WriteBars 把一组记录加入缓冲区，达到批次大小时在后台刷新
func (bw *BatchWriter) WriteBars(ctx context.Context, ticker, period, adjust string, rows []core.HistoryRecord) error {
	if len(rows) == 0 {
		return nil
	}
	copied := make([]core.HistoryRecord, len(rows))
	copy(copied, rows)

	bw.bufferMu.Lock()
	overflow := bw.config.MaxBufferSize > 0 && bw.buffered+len(copied) > bw.config.MaxBufferSize
	if overflow {
		bw.stats.BufferOverflows++
	}
	bw.buffer = append(bw.buffer, pendingBars{ticker: ticker, period: period, adjust: adjust, rows: copied})
	bw.buffered += len(copied)
	full := bw.buffered >= bw.config.BatchSize
	bw.bufferMu.Unlock()

	switch {
	case overflow:
		return bw.Flush()
	case full:
		go bw.Flush()
	}
	return nil
}

// Flush 手动触发一次将缓冲区所有数据写入底层镜像的操作。
func (bw *BatchWriter) Flush() error {
	bw.flushMu.Lock()
	defer bw.flushMu.Unlock()

	bw.bufferMu.Lock()
	pending := bw.buffer
	bw.buffer = nil
	bw.buffered = 0
	bw.bufferMu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	ctx := context.Background()
	if bw.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bw.config.WriteTimeout)
		defer cancel()
	}

	var firstErr error
	var written int64
	for _, p := range pending {
		if err := bw.mirror.WriteBars(ctx, p.ticker, p.period, p.adjust, p.rows); err != nil {
			bw.log.WithError(err).WithField("ticker", p.ticker).Warn("镜像写入失败")
			bw.bufferMu.Lock()
			bw.stats.FlushErrors++
			bw.bufferMu.Unlock()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written += int64(len(p.rows))
	}

	bw.bufferMu.Lock()
	bw.stats.TotalBatches++
	bw.stats.TotalRecords += written
	bw.stats.LastFlush = time.Now()
	bw.bufferMu.Unlock()
	return firstErr
}

// startPeriodicFlush 启动一个 goroutine，按固定的时间间隔刷新缓冲区。
func (bw *BatchWriter) startPeriodicFlush() {
	for {
		select {
		case <-bw.flushTicker.C:
			bw.Flush()
		case <-bw.stopChan:
			return
		}
	}
}

// Close 先刷新剩余数据，再停止后台任务并关闭底层镜像。
func (bw *BatchWriter) Close() error {
	var err error
	bw.closeOnce.Do(func() {
		if bw.flushTicker != nil {
			bw.flushTicker.Stop()
		}
		close(bw.stopChan)
		err = bw.Flush()
		if cerr := bw.mirror.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// GetStats 返回当前的运行统计信息。
func (bw *BatchWriter) GetStats() BatchWriterStats {
	bw.bufferMu.Lock()
	defer bw.bufferMu.Unlock()

	stats := bw.stats
	stats.BufferSize = bw.buffered
	return stats
}
