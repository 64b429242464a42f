package timing

import (
	"strings"
	"time"
)

// Window 图表请求对应的日期窗口和K线周期
type Window struct {
	Start  time.Time
	End    time.Time
	Period string // daily, weekly, monthly
}

// RangeWindow 把 1d/5d/1mo/.../ytd/max 之类的范围字符串换算成日期窗口。
// 未识别的范围按 max 处理。
func RangeWindow(now time.Time, rangeStr string) Window {
	w := Window{End: now, Period: "daily"}

	switch strings.ToLower(rangeStr) {
	case "1d":
		w.Start = now.AddDate(0, 0, -1)
	case "5d":
		w.Start = now.AddDate(0, 0, -5)
	case "1mo":
		w.Start = now.AddDate(0, 0, -30)
	case "3mo":
		w.Start = now.AddDate(0, 0, -90)
	case "6mo":
		w.Start = now.AddDate(0, 0, -180)
	case "1y":
		w.Start = now.AddDate(0, 0, -365)
	case "2y":
		w.Start = now.AddDate(0, 0, -365*2)
	case "5y":
		w.Start = now.AddDate(0, 0, -365*5)
		w.Period = "weekly"
	case "10y":
		w.Start = now.AddDate(0, 0, -365*10)
		w.Period = "weekly"
	case "ytd":
		w.Start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		w.Start = time.Date(2000, 1, 1, 0, 0, 0, 0, now.Location())
		w.Period = "monthly"
	}
	return w
}

// IsIntraday 判断图表 interval 是否为分钟级别
func IsIntraday(interval string) bool {
	switch strings.ToLower(interval) {
	case "", "1d", "5d", "daily", "1wk", "weekly", "1mo", "monthly", "3mo":
		return false
	}
	return true
}

// MinutePeriod 把 1m/5m/15m/30m/60m/1h 转换为上游分时接口的周期参数
func MinutePeriod(interval string) string {
	switch strings.ToLower(interval) {
	case "5m":
		return "5"
	case "15m":
		return "15"
	case "30m":
		return "30"
	case "60m", "1h", "90m":
		return "60"
	default:
		return "1"
	}
}

// ParseDate 解析 YYYYMMDD、YYYY-MM-DD 或带时间的日期字符串
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{CompactDateLayout, DateLayout, DateTimeLayout, "2006-01-02 15:04", "2006/01/02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate 把任意支持的日期写法统一为 YYYY-MM-DD，无法解析时原样返回
func NormalizeDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format(DateLayout)
	}
	return s
}

// HistoryWindow 历史接口的默认窗口：结束日默认今天，开始日默认一年前，返回 YYYYMMDD
func HistoryWindow(now time.Time, start, end string) (string, string) {
	if end == "" {
		end = now.Format(CompactDateLayout)
	}
	if start == "" {
		start = now.AddDate(0, 0, -365).Format(CompactDateLayout)
	}
	return start, end
}
