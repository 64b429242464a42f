package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stockapi/pkg/config"
	"stockapi/pkg/logger"
	"stockapi/pkg/ticker"
	"stockapi/pkg/timing"
)

// 维护任务名
const (
	JobPruneHistory = "prune_history"
	JobWarmIndex    = "warm_index"
)

// HistoryPruner 删除过期的历史缓存文件，*cache.HistoryCache 实现了该接口
type HistoryPruner interface {
	Prune(maxAge time.Duration) (int, error)
}

// PreviousCloser 获取并缓存昨收价，*provider.Provider 实现了该接口
type PreviousCloser interface {
	PreviousClose(ctx context.Context, ticker string) (float64, bool)
}

// PruneHistoryJob 删除修改时间早于 maxAge 的历史缓存文件
func PruneHistoryJob(pruner HistoryPruner, maxAge time.Duration) JobFunc {
	return func(ctx context.Context, runID string) error {
		removed, err := pruner.Prune(maxAge)
		if err != nil {
			return fmt.Errorf("清理历史缓存失败: %w", err)
		}
		logger.WithComponent("Scheduler").WithFields(logrus.Fields{
			"run_id":  runID,
			"removed": removed,
			"max_age": maxAge.String(),
		}).Info("历史缓存清理完成")
		return nil
	}
}

// WarmIndexJob 在交易日刷新指数白名单的昨收价缓存，非交易日直接跳过
func WarmIndexJob(closer PreviousCloser, clock timing.TimeService) JobFunc {
	mt := timing.NewMarketTime(clock)
	return func(ctx context.Context, runID string) error {
		log := logger.WithComponent("Scheduler").WithField("run_id", runID)
		if !mt.IsTradingDay(mt.Now()) {
			log.Debug("非交易日，跳过指数预热")
			return nil
		}

		var failed []string
		for _, code := range ticker.KnownIndices() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, ok := closer.PreviousClose(ctx, ticker.IndexMarker+code); !ok {
				failed = append(failed, code)
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d 个指数昨收价获取失败: %v", len(failed), failed)
		}
		log.WithField("indices", len(ticker.KnownIndices())).Info("指数昨收价预热完成")
		return nil
	}
}

// Maintenance 维护任务依赖
type Maintenance struct {
	History HistoryPruner
	Closer  PreviousCloser
	Clock   timing.TimeService
}

// RegisterMaintenance 按配置注册缓存维护任务
func RegisterMaintenance(s JobScheduler, sc config.SchedulerConfig, cc config.CacheConfig, m Maintenance) error {
	if m.History != nil && sc.PruneSchedule != "" {
		maxAge := time.Duration(cc.HistoryPruneDays) * 24 * time.Hour
		if err := s.AddJob(JobConfig{
			Name:     JobPruneHistory,
			Enabled:  sc.Enabled && cc.HistoryPruneDays > 0,
			Schedule: sc.PruneSchedule,
		}, PruneHistoryJob(m.History, maxAge)); err != nil {
			return err
		}
	}
	if m.Closer != nil && sc.WarmSchedule != "" {
		if err := s.AddJob(JobConfig{
			Name:     JobWarmIndex,
			Enabled:  sc.Enabled,
			Schedule: sc.WarmSchedule,
		}, WarmIndexJob(m.Closer, m.Clock)); err != nil {
			return err
		}
	}
	return nil
}
