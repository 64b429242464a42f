package placeholder

import (
	"sort"
	"strings"
	"time"

	"stockapi/pkg/core"
)

const (
	// minChartPoints 随机图表至少包含的点数
	minChartPoints = 10
	// minutesPerDay 随机分时数据每天生成的分钟数
	minutesPerDay = 60

	equityBasePrice = 100.0
	indexBasePrice  = 3500.0
)

// chartStep 日线类 interval 的步长，分钟类返回 false
func chartStep(interval string) (time.Duration, bool) {
	switch strings.ToLower(interval) {
	case "1d", "daily":
		return 24 * time.Hour, true
	case "1wk", "weekly":
		return 7 * 24 * time.Hour, true
	case "1mo", "monthly":
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

func isWeekday(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

// Chart 生成 [start, end] 内的随机K线，只有 random 策略会生成数据，其余策略返回空切片。
// 日线类只包含工作日，分钟类每个工作日从 09:00 起生成 60 根；不足 10 个点时从 end 往前补齐。
func (g *Generator) Chart(start, end time.Time, interval string, isIndex bool) []core.Bar {
	if !g.Fabricates() {
		return []core.Bar{}
	}

	base, volatility := equityBasePrice, g.config.EquityChange
	if isIndex {
		base, volatility = indexBasePrice, g.config.IndexChange
	}

	var bars []core.Bar
	price := base
	if step, daily := chartStep(interval); daily {
		for d := start; !d.After(end); d = d.Add(step) {
			if !isWeekday(d) {
				continue
			}
			var bar core.Bar
			bar, price = g.bar(d.Format("2006-01-02"), price, volatility, 0.01)
			bar.Volume = g.intBetween(100000, 10000000)
			bars = append(bars, bar)
		}
	} else {
		days := int(end.Sub(start).Hours() / 24)
		if days < 1 {
			days = 1
		}
		for day := 0; day < days; day++ {
			d := start.AddDate(0, 0, day)
			if !isWeekday(d) {
				continue
			}
			for minute := 0; minute < minutesPerDay; minute++ {
				at := time.Date(d.Year(), d.Month(), d.Day(), 9+minute/60, minute%60, 0, 0, d.Location())
				var bar core.Bar
				bar, price = g.bar(at.Format("2006-01-02 15:04"), price, volatility/20, 0.002)
				bar.Volume = g.intBetween(1000, 100000)
				bars = append(bars, bar)
			}
		}
	}

	for i := 0; len(bars) < minChartPoints; i++ {
		d := end.AddDate(0, 0, -i)
		pct := g.signed(volatility)
		open := base * (1 + pct*0.5)
		bar, _ := g.bar(d.Format("2006-01-02"), open, volatility, 0.01)
		bar.Volume = g.intBetween(100000, 10000000)
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars
}

// bar 以 open 为开盘价生成一根随机K线，返回K线和收盘价
func (g *Generator) bar(date string, open, volatility, wick float64) (core.Bar, float64) {
	closePrice := open * (1 + g.signed(volatility))
	high := maxOf(open, closePrice) * (1 + g.float64n()*wick)
	low := minOf(open, closePrice) * (1 - g.float64n()*wick)
	return core.Bar{
		Date:  date,
		Open:  Round2(open),
		Close: Round2(closePrice),
		High:  Round2(high),
		Low:   Round2(low),
	}, closePrice
}
