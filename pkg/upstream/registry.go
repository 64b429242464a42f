package upstream

import (
	"context"
	"fmt"
	"sort"

	"stockapi/pkg/core"
)

// 上游函数名，与数据源的接口名保持一致，日志和熔断器都以此区分数据源
const (
	FnStockHist      = "stock_zh_a_hist"
	FnStockHistMin   = "stock_zh_a_hist_min_em"
	FnStockMinute    = "stock_zh_a_minute"
	FnIndexHistMin   = "index_zh_a_hist_min_em"
	FnIndexHist      = "index_zh_a_hist"
	FnIndexDaily     = "stock_zh_index_daily"
	FnIndexDailyTX   = "stock_zh_index_daily_tx"
	FnIndexDailyEM   = "stock_zh_index_daily_em"
	FnStockSpot      = "stock_zh_a_spot_em"
	FnStockCodeNames = "stock_info_a_code_name"
	FnIndexSpot      = "stock_zh_index_spot_sina"
	FnStockNews      = "stock_news_em"
	FnGlobalNewsSina = "stock_info_global_sina"
	FnGlobalNewsEM   = "stock_info_global_em"
	FnTelegraphCLS   = "stock_info_global_cls"
	FnBrokerNewsSina = "stock_info_broker_sina"
	FnBreakfastEM    = "stock_info_cjzc_em"
)

func (c *Client) register() map[string]Func {
	return map[string]Func{
		FnStockHist:      c.StockHist,
		FnStockHistMin:   c.StockHistMin,
		FnStockMinute:    c.StockMinute,
		FnIndexHistMin:   c.IndexHistMin,
		FnIndexHist:      c.IndexHist,
		FnIndexDaily:     c.IndexDaily,
		FnIndexDailyTX:   c.IndexDailyTX,
		FnIndexDailyEM:   c.IndexDailyEM,
		FnStockSpot:      c.StockSpot,
		FnStockCodeNames: c.StockCodeNames,
		FnIndexSpot:      c.IndexSpot,
		FnStockNews:      c.StockNews,
		FnGlobalNewsSina: c.GlobalNewsSina,
		FnGlobalNewsEM:   c.GlobalNewsEM,
		FnTelegraphCLS:   c.TelegraphCLS,
		FnBrokerNewsSina: c.BrokerNewsSina,
		FnBreakfastEM:    c.BreakfastEM,
	}
}

// Lookup 按函数名查找上游函数
func (c *Client) Lookup(name string) (Func, bool) {
	fn, ok := c.funcs[name]
	return fn, ok
}

// Names 已注册的函数名，按字母序
func (c *Client) Names() []string {
	names := make([]string, 0, len(c.funcs))
	for name := range c.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call 按函数名调用上游
func (c *Client) Call(ctx context.Context, name string, args Args) (*core.Table, error) {
	fn, ok := c.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, core.ErrUnknownFunction)
	}
	return fn(ctx, args)
}
