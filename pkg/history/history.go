// Package history 提供带本地缓存的个股历史行情，以及在日线上叠加技术指标。
package history

import (
	"context"

	"github.com/sirupsen/logrus"

	"stockapi/pkg/cache"
	"stockapi/pkg/core"
	"stockapi/pkg/indicator"
	"stockapi/pkg/logger"
	"stockapi/pkg/storage"
	"stockapi/pkg/timing"
)

// Fetcher 历史行情的上游来源，*provider.Provider 实现了该接口
type Fetcher interface {
	StockHistory(ctx context.Context, code, period, start, end, adjust string) ([]core.HistoryRecord, error)
}

// Query 历史行情查询参数，日期为 YYYYMMDD，留空时使用默认窗口
type Query struct {
	Ticker    string
	Period    string
	StartDate string
	EndDate   string
	Adjust    string
	UseCache  bool
}

// Options 创建 Provider 的参数
type Options struct {
	Fetcher    Fetcher
	Cache      cache.HistoryStore
	Mirror     storage.HistoryMirror
	Clock      timing.TimeService
	MaxAgeDays int
}

// Provider 历史行情提供者
type Provider struct {
	fetcher    Fetcher
	cache      cache.HistoryStore
	mirror     storage.HistoryMirror
	clock      *timing.MarketTime
	maxAgeDays int
	log        *logrus.Entry
}

// New 创建历史行情提供者，Mirror 为空时不做旁路写入
func New(opts Options) *Provider {
	if opts.Mirror == nil {
		opts.Mirror = storage.NopMirror{}
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 7
	}
	return &Provider{
		fetcher:    opts.Fetcher,
		cache:      opts.Cache,
		mirror:     opts.Mirror,
		clock:      timing.NewMarketTime(opts.Clock),
		maxAgeDays: opts.MaxAgeDays,
		log:        logger.WithComponent("HistoryProvider"),
	}
}

// GetStockHistory 优先返回缓存中落在窗口内的数据，缓存无效或窗口内为空时从上游获取整个窗口并合并进缓存。
// 上游失败时返回空切片。
func (p *Provider) GetStockHistory(ctx context.Context, q Query) []core.HistoryRecord {
	if q.Period == "" {
		q.Period = "daily"
	}
	q.StartDate, q.EndDate = timing.HistoryWindow(p.clock.Now(), q.StartDate, q.EndDate)
	log := p.log.WithFields(logrus.Fields{"ticker": q.Ticker, "period": q.Period, "adjust": q.Adjust})

	useCache := q.UseCache && p.cache != nil
	if useCache && p.cache.HasValidCache(q.Ticker, q.Period, q.Adjust, p.maxAgeDays) {
		if cached, ok := p.cache.GetCache(q.Ticker, q.Period, q.Adjust); ok {
			if rows := cache.FilterRange(cached, q.StartDate, q.EndDate); len(rows) > 0 {
				log.WithField("rows", len(rows)).Info("历史缓存命中")
				return rows
			}
			log.Info("缓存中没有请求窗口的数据，重新获取")
		}
	}

	rows, err := p.fetcher.StockHistory(ctx, q.Ticker, q.Period, q.StartDate, q.EndDate, q.Adjust)
	if err != nil {
		log.WithError(err).Error("获取股票历史数据异常")
		return []core.HistoryRecord{}
	}
	if len(rows) == 0 {
		log.Warn("历史数据为空")
		return []core.HistoryRecord{}
	}
	log.WithField("rows", len(rows)).Info("成功获取历史数据")

	if useCache {
		if err := p.cache.MergeNewData(q.Ticker, rows, q.Period, q.Adjust); err != nil {
			log.WithError(err).Warn("合并历史缓存失败")
		}
	}
	if err := p.mirror.WriteBars(ctx, q.Ticker, q.Period, q.Adjust, rows); err != nil {
		log.WithError(err).Warn("历史数据镜像写入失败")
	}
	return rows
}

// IndicatorRecord 带技术指标的日线记录，窗口未满的指标为 null
type IndicatorRecord struct {
	core.HistoryRecord
	MA5      *float64 `json:"MA5"`
	MA10     *float64 `json:"MA10"`
	MA20     *float64 `json:"MA20"`
	MA60     *float64 `json:"MA60"`
	VolumeMA *float64 `json:"VOLUME_MA5"`
	RSI      *float64 `json:"RSI"`
}

// rsiWindow RSI 计算窗口
const rsiWindow = 14

// GetStockDailyIndicators 日线历史加上 MA5/10/20/60、5日均量和 RSI14
func (p *Provider) GetStockDailyIndicators(ctx context.Context, q Query) []IndicatorRecord {
	q.Period = "daily"
	rows := p.GetStockHistory(ctx, q)
	return WithIndicators(rows)
}

// WithIndicators 在记录上计算技术指标，输入为空时返回空切片
func WithIndicators(rows []core.HistoryRecord) []IndicatorRecord {
	out := make([]IndicatorRecord, len(rows))
	if len(rows) == 0 {
		return out
	}

	closes := make([]float64, len(rows))
	volumes := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = r.Close
		volumes[i] = r.Volume
	}

	ma5 := indicator.SMA(closes, 5)
	ma10 := indicator.SMA(closes, 10)
	ma20 := indicator.SMA(closes, 20)
	ma60 := indicator.SMA(closes, 60)
	volMA := indicator.SMA(volumes, 5)
	rsi := indicator.RSI(closes, rsiWindow)

	for i, r := range rows {
		out[i] = IndicatorRecord{
			HistoryRecord: r,
			MA5:           ma5[i],
			MA10:          ma10[i],
			MA20:          ma20[i],
			MA60:          ma60[i],
			VolumeMA:      volMA[i],
			RSI:           rsi[i],
		}
	}
	return out
}
