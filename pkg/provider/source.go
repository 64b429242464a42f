package provider

import (
	"fmt"

	"stockapi/pkg/core"
	"stockapi/pkg/upstream"
)

// Kind 请求类别，每个类别对应一组按优先级排列的数据源
type Kind string

const (
	KindMinute     Kind = "minute"
	KindIndexDaily Kind = "index_daily"
	KindStockDaily Kind = "stock_daily"
)

// Request 一次K线请求
type Request struct {
	Ticker    string // 已去掉 ^ 标记
	IsIndex   bool
	Period    string // daily/weekly/monthly，分钟类为 1/5/15/30/60
	StartDate string // 日线为 YYYYMMDD，分钟类为 YYYY-MM-DD HH:MM:SS
	EndDate   string
	Adjust    string
}

// ColumnMap 标准字段到数据源列名的映射，Volume 可以为空
type ColumnMap struct {
	Date, Open, Close, High, Low, Volume string
}

// Source 一个数据源：上游函数名、参数构造和列映射
type Source struct {
	Name    string
	Args    func(Request) upstream.Args
	Columns ColumnMap
}

var (
	// 东方财富K线，中文列名
	cnDaily  = ColumnMap{Date: "日期", Open: "开盘", Close: "收盘", High: "最高", Low: "最低", Volume: "成交量"}
	cnMinute = ColumnMap{Date: "时间", Open: "开盘", Close: "收盘", High: "最高", Low: "最低", Volume: "成交量"}
	// 新浪、腾讯K线，英文列名
	enDaily  = ColumnMap{Date: "date", Open: "open", Close: "close", High: "high", Low: "low", Volume: "volume"}
	enMinute = ColumnMap{Date: "day", Open: "open", Close: "close", High: "high", Low: "low", Volume: "volume"}
)

func (m ColumnMap) required() []string {
	return []string{m.Date, m.Open, m.Close, m.High, m.Low}
}

// MapBars 按列映射把上游表格转换为K线。
// 缺少必需列返回 core.ErrMissingColumns，任意一行价格无法解析返回 core.ErrBadRow，
// 成交量缺失或无法解析时记为 0。
func MapBars(t *core.Table, m ColumnMap) ([]core.Bar, error) {
	if t.Empty() {
		return []core.Bar{}, nil
	}
	if missing := t.Missing(m.required()...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", core.ErrMissingColumns, missing)
	}

	bars := make([]core.Bar, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		open, ok1 := t.Float(i, m.Open)
		closePrice, ok2 := t.Float(i, m.Close)
		high, ok3 := t.Float(i, m.High)
		low, ok4 := t.Float(i, m.Low)
		date := t.Get(i, m.Date)
		if !(ok1 && ok2 && ok3 && ok4) || date == "" {
			return nil, fmt.Errorf("%w: row %d", core.ErrBadRow, i)
		}
		var volume float64
		if m.Volume != "" {
			volume = t.FloatOr(i, m.Volume, 0)
		}
		bars = append(bars, core.Bar{
			Date:   date,
			Open:   open,
			Close:  closePrice,
			High:   high,
			Low:    low,
			Volume: volume,
		})
	}
	return bars, nil
}

// filterBars 保留日期部分在 [start, end] 内的K线，边界可以是 YYYYMMDD 或 YYYY-MM-DD
func filterBars(bars []core.Bar, start, end string) []core.Bar {
	start, end = dayOf(start), dayOf(end)
	out := make([]core.Bar, 0, len(bars))
	for _, b := range bars {
		d := dayOf(b.Date)
		if start != "" && d < start {
			continue
		}
		if end != "" && d > end {
			continue
		}
		out = append(out, b)
	}
	return out
}

// dayOf 取日期部分并统一为 YYYY-MM-DD
func dayOf(s string) string {
	switch {
	case len(s) == 8:
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	case len(s) > 10:
		return s[:10]
	}
	return s
}
