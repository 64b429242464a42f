package provider

import (
	"context"

	"stockapi/pkg/core"
)

//go:generate mockgen -package=api -destination=../api/mock_fetcher_test.go -source=interfaces.go Fetcher

// Fetcher 接口层依赖的数据获取能力，*Provider 实现了该接口
type Fetcher interface {
	// RealtimeMinute 最近一个交易时段的分时K线
	RealtimeMinute(ctx context.Context, ticker, interval string) []core.Bar
	// IndexDaily 指数日/周/月K线
	IndexDaily(ctx context.Context, code, start, end, period string) []core.Bar
	// StockDaily 个股日/周/月K线
	StockDaily(ctx context.Context, code, start, end, period, adjust string) []core.Bar
	// PreviousClose 昨收价
	PreviousClose(ctx context.Context, ticker string) (float64, bool)
	// Overseas 海外市场报价
	Overseas(ctx context.Context, ticker string) (*core.Quote, bool)
	// Spot 全市场A股实时行情
	Spot(ctx context.Context) ([]core.SpotRow, error)
	// Search 代码或名称搜索
	Search(ctx context.Context, query string) ([]Match, error)
	// StockNews 个股新闻
	StockNews(ctx context.Context, code string, count int) ([]core.NewsItem, error)
	// News 快讯
	News(ctx context.Context, source string, count, page int) ([]core.NewsItem, error)
}

var _ Fetcher = (*Provider)(nil)
