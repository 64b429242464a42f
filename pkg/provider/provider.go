// Package provider 实现多数据源回退：每类请求对应一张有序的数据源表，
// 依次调用上游函数并按列映射转换，第一个非空结果胜出。
// 单个数据源的错误只记录日志，全部失败时返回空结果，由调用方决定是否填充占位数据。
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"stockapi/pkg/cache"
	"stockapi/pkg/config"
	"stockapi/pkg/core"
	"stockapi/pkg/logger"
	"stockapi/pkg/storage"
	"stockapi/pkg/ticker"
	"stockapi/pkg/timing"
	"stockapi/pkg/upstream"
)

// Caller 按函数名调用上游，*upstream.Client 实现了该接口
type Caller interface {
	Call(ctx context.Context, name string, args upstream.Args) (*core.Table, error)
	YahooQuote(ctx context.Context, symbol string) (*core.Quote, error)
}

// Options 创建 Provider 的参数，零值字段使用默认值
type Options struct {
	Caller          Caller
	Registry        Registry
	QuoteCache      cache.QuoteStore
	SpotStore       storage.SpotStore
	Clock           timing.TimeService
	Breaker         config.BreakerConfig
	QuoteMaxAgeDays int
	ListingTTL      time.Duration
	NewsTTL         time.Duration
	SpotTTL         time.Duration
}

// Provider 数据提供者
type Provider struct {
	caller      Caller
	registry    Registry
	quotes      cache.QuoteStore
	spot        storage.SpotStore
	clock       *timing.MarketTime
	breakers    *breakerSet
	quoteMaxAge int
	spotTTL     time.Duration

	group   singleflight.Group
	listing *expirable.LRU[string, []core.CodeName]
	news    *expirable.LRU[string, []core.NewsItem]

	log *logrus.Entry
}

// New 创建数据提供者
func New(opts Options) *Provider {
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.QuoteMaxAgeDays <= 0 {
		opts.QuoteMaxAgeDays = 1
	}
	if opts.ListingTTL <= 0 {
		opts.ListingTTL = 12 * time.Hour
	}
	if opts.NewsTTL <= 0 {
		opts.NewsTTL = time.Minute
	}
	if opts.SpotTTL <= 0 {
		opts.SpotTTL = 10 * time.Second
	}
	if opts.SpotStore == nil {
		opts.SpotStore = storage.NewMemorySpotStore()
	}

	log := logger.WithComponent("DataProvider")
	return &Provider{
		caller:      opts.Caller,
		registry:    opts.Registry,
		quotes:      opts.QuoteCache,
		spot:        opts.SpotStore,
		clock:       timing.NewMarketTime(opts.Clock),
		breakers:    newBreakerSet(opts.Breaker, log),
		quoteMaxAge: opts.QuoteMaxAgeDays,
		spotTTL:     opts.SpotTTL,
		listing:     expirable.NewLRU[string, []core.CodeName](4, nil, opts.ListingTTL),
		news:        expirable.NewLRU[string, []core.NewsItem](32, nil, opts.NewsTTL),
		log:         log,
	}
}

// call 调用一个上游函数：经过熔断器，并把上游适配器的 panic 转换为错误
func (p *Provider) call(ctx context.Context, name string, args upstream.Args) (table *core.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panic: %v", name, r)
		}
	}()
	return p.breakers.execute(name, func() (*core.Table, error) {
		return p.caller.Call(ctx, name, args)
	})
}

func (p *Provider) try(ctx context.Context, kind Kind, src Source, req Request) ([]core.Bar, error) {
	table, err := p.call(ctx, src.Name, src.Args(req))
	if err != nil {
		return nil, err
	}
	bars, err := MapBars(table, src.Columns)
	if err != nil {
		return nil, err
	}
	if kind.filtered() {
		bars = filterBars(bars, req.StartDate, req.EndDate)
	}
	return bars, nil
}

// Fetch 依次尝试该类别的数据源，返回第一个非空结果。全部失败时返回空切片。
func (p *Provider) Fetch(ctx context.Context, kind Kind, req Request) []core.Bar {
	log := p.log.WithFields(logrus.Fields{"kind": kind, "ticker": req.Ticker})

	sourcesFor, ok := p.registry[kind]
	if !ok {
		log.Warn("未注册的请求类别")
		return []core.Bar{}
	}

	var failures []string
	for _, src := range sourcesFor(req) {
		if ctx.Err() != nil {
			break
		}
		slog := log.WithField("source", src.Name)
		slog.Debug("尝试数据源")

		bars, err := p.try(ctx, kind, src, req)
		if err != nil {
			slog.WithError(err).WithField("level", ClassifyError(err)).Warn("数据源获取失败")
			failures = append(failures, src.Name)
			continue
		}
		if len(bars) == 0 {
			slog.Info("数据源返回空数据")
			continue
		}
		slog.WithField("rows", len(bars)).Info("数据源获取成功")
		return bars
	}

	if len(failures) > 0 {
		log.WithField("failed", strings.Join(failures, ",")).Warn("所有数据源都未返回数据")
	} else {
		log.Info("所有数据源都未返回数据")
	}
	return []core.Bar{}
}

// RealtimeMinute 最近一天的分时数据，指数和个股使用不同的数据源
func (p *Provider) RealtimeMinute(ctx context.Context, rawTicker, interval string) []core.Bar {
	code, isIndex := ticker.Normalize(rawTicker)
	now := p.clock.Now()
	return p.Fetch(ctx, KindMinute, Request{
		Ticker:    code,
		IsIndex:   isIndex,
		Period:    timing.MinutePeriod(interval),
		StartDate: now.Add(-24 * time.Hour).Format(timing.DateTimeLayout),
		EndDate:   now.Format(timing.DateTimeLayout),
	})
}

// IndexDaily 指数K线，按 [start, end] 过滤，日期为 YYYYMMDD
func (p *Provider) IndexDaily(ctx context.Context, code, start, end, period string) []core.Bar {
	if period == "" {
		period = "daily"
	}
	return p.Fetch(ctx, KindIndexDaily, Request{
		Ticker:    code,
		IsIndex:   true,
		Period:    period,
		StartDate: start,
		EndDate:   end,
	})
}

// StockDaily 个股K线，按 [start, end] 过滤
func (p *Provider) StockDaily(ctx context.Context, code, start, end, period, adjust string) []core.Bar {
	if period == "" {
		period = "daily"
	}
	return p.Fetch(ctx, KindStockDaily, Request{
		Ticker:    ticker.StripMarketPrefix(code),
		Period:    period,
		StartDate: start,
		EndDate:   end,
		Adjust:    adjust,
	})
}

var historyRequired = []string{"日期", "开盘", "收盘", "最高", "最低"}

// StockHistory 完整字段的个股历史行情，供历史缓存使用
func (p *Provider) StockHistory(ctx context.Context, code, period, start, end, adjust string) ([]core.HistoryRecord, error) {
	table, err := p.call(ctx, upstream.FnStockHist, upstream.Args{
		Symbol:    ticker.StripMarketPrefix(code),
		Period:    period,
		StartDate: start,
		EndDate:   end,
		Adjust:    adjust,
	})
	if err != nil {
		return nil, err
	}
	return MapHistory(table)
}

// MapHistory 把 stock_zh_a_hist 表格转换为历史记录
func MapHistory(t *core.Table) ([]core.HistoryRecord, error) {
	if t.Empty() {
		return []core.HistoryRecord{}, nil
	}
	if missing := t.Missing(historyRequired...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", core.ErrMissingColumns, missing)
	}
	rows := make([]core.HistoryRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		closePrice, ok := t.Float(i, "收盘")
		date := t.Get(i, "日期")
		if !ok || date == "" {
			return nil, fmt.Errorf("%w: row %d", core.ErrBadRow, i)
		}
		rows = append(rows, core.HistoryRecord{
			Date:          timing.NormalizeDate(date),
			Open:          t.FloatOr(i, "开盘", 0),
			Close:         closePrice,
			High:          t.FloatOr(i, "最高", 0),
			Low:           t.FloatOr(i, "最低", 0),
			Volume:        t.FloatOr(i, "成交量", 0),
			Amount:        t.FloatOr(i, "成交额", 0),
			Amplitude:     t.FloatOr(i, "振幅", 0),
			ChangePercent: t.FloatOr(i, "涨跌幅", 0),
			Change:        t.FloatOr(i, "涨跌额", 0),
			Turnover:      t.FloatOr(i, "换手率", 0),
		})
	}
	return rows, nil
}

// previousCloseLookback 查找昨收价时回看的自然日数，覆盖长假
const previousCloseLookback = 20

// PreviousClose 昨收价：优先读缓存，否则取最近一个有数据的交易日之前那根日线的收盘价。
// 周末、节假日和开盘前最近的交易日不是今天，昨收是该交易日前一天的收盘价。
// 只有交易日已经开始（最近一根日线就是今天）或今天休市时才写回缓存，开盘前的结果在开盘后会变化。
func (p *Provider) PreviousClose(ctx context.Context, rawTicker string) (float64, bool) {
	code, isIndex := ticker.Normalize(rawTicker)
	log := p.log.WithField("ticker", code)

	if p.quotes != nil && p.quotes.HasValidCache(code, p.quoteMaxAge) {
		if entry, ok := p.quotes.GetCache(code); ok && entry.PrevClose > 0 {
			log.WithField("prev_close", entry.PrevClose).Debug("使用缓存的昨收价")
			return entry.PrevClose, true
		}
	}

	now := p.clock.Now()
	today := now.Format(timing.DateLayout)
	start := now.AddDate(0, 0, -previousCloseLookback).Format(timing.CompactDateLayout)
	end := now.Format(timing.CompactDateLayout)

	var bars []core.Bar
	if isIndex {
		bars = p.IndexDaily(ctx, code, start, end, "daily")
	} else {
		bars = p.StockDaily(ctx, code, start, end, "daily", "")
	}

	if len(bars) == 0 {
		log.Info("未能获取昨收价")
		return 0, false
	}
	session := dayOf(bars[len(bars)-1].Date)
	if session > today {
		session = today
	}

	var prevClose float64
	for i := len(bars) - 1; i >= 0; i-- {
		if dayOf(bars[i].Date) < session && bars[i].Close > 0 {
			prevClose = bars[i].Close
			break
		}
	}
	if prevClose == 0 {
		log.WithField("session", session).Info("未能获取昨收价")
		return 0, false
	}

	stable := session == today || !p.clock.IsTradingDay(now)
	if p.quotes != nil && stable {
		if err := p.quotes.UpdateCache(code, cache.QuoteEntry{PrevClose: prevClose}); err != nil {
			log.WithError(err).Warn("写入昨收价缓存失败")
		}
	}
	return prevClose, true
}

// Overseas 非A股、非指数代码通过 Yahoo 查询报价
func (p *Provider) Overseas(ctx context.Context, rawTicker string) (q *core.Quote, ok bool) {
	symbol, _ := ticker.Normalize(rawTicker)
	log := p.log.WithFields(logrus.Fields{"ticker": symbol, "source": "yahoo"})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("海外行情查询异常")
			q, ok = nil, false
		}
	}()

	quote, err := p.caller.YahooQuote(ctx, symbol)
	if err != nil {
		log.WithError(err).Warn("海外行情查询失败")
		return nil, false
	}
	return quote, true
}

// BreakerStats 各数据源的熔断统计
func (p *Provider) BreakerStats() map[string]BreakerStats {
	return p.breakers.snapshot()
}
