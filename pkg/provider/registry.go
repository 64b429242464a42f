package provider

import (
	"stockapi/pkg/ticker"
	"stockapi/pkg/upstream"
)

// Registry 每个请求类别的数据源列表，按顺序尝试
type Registry map[Kind]func(Request) []Source

func prefixedSymbol(r Request) upstream.Args {
	return upstream.Args{Symbol: ticker.WithIndexPrefix(r.Ticker)}
}

func windowArgs(r Request) upstream.Args {
	return upstream.Args{
		Symbol:    ticker.StripMarketPrefix(r.Ticker),
		Period:    r.Period,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Adjust:    r.Adjust,
	}
}

func minuteArgs(adjust string) func(Request) upstream.Args {
	return func(r Request) upstream.Args {
		a := windowArgs(r)
		a.Adjust = adjust
		return a
	}
}

var (
	stockMinuteSources = []Source{
		{Name: upstream.FnStockHistMin, Args: minuteArgs("qfq"), Columns: cnMinute},
		{Name: upstream.FnStockMinute, Args: func(r Request) upstream.Args {
			return upstream.Args{Symbol: ticker.WithMarketPrefix(r.Ticker), Period: r.Period}
		}, Columns: enMinute},
	}
	indexMinuteSources = []Source{
		{Name: upstream.FnIndexHistMin, Args: minuteArgs(""), Columns: cnMinute},
	}
	indexDailySources = []Source{
		{Name: upstream.FnIndexHist, Args: windowArgs, Columns: cnDaily},
		{Name: upstream.FnIndexDaily, Args: prefixedSymbol, Columns: enDaily},
		{Name: upstream.FnIndexDailyTX, Args: func(r Request) upstream.Args {
			a := prefixedSymbol(r)
			a.StartDate, a.EndDate = r.StartDate, r.EndDate
			return a
		}, Columns: enDaily},
		{Name: upstream.FnIndexDailyEM, Args: prefixedSymbol, Columns: enDaily},
	}
	stockDailySources = []Source{
		{Name: upstream.FnStockHist, Args: windowArgs, Columns: cnDaily},
	}
)

// DefaultRegistry 默认数据源表
func DefaultRegistry() Registry {
	return Registry{
		KindMinute: func(r Request) []Source {
			if r.IsIndex {
				return indexMinuteSources
			}
			return stockMinuteSources
		},
		KindIndexDaily: func(Request) []Source { return indexDailySources },
		KindStockDaily: func(Request) []Source { return stockDailySources },
	}
}

// filtered 日线类别在每个数据源内部按窗口过滤，窗口内为空时继续尝试下一个数据源
func (k Kind) filtered() bool {
	return k == KindIndexDaily || k == KindStockDaily
}
