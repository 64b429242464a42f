package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// MockTimeService 模拟时间服务
type MockTimeService struct {
	current time.Time
}

func (m *MockTimeService) Now() time.Time {
	return m.current
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return ts
}

func TestMarketTiming_TradingTime_AllCases(t *testing.T) {
	tests := []struct {
		name     string
		mockTime string
		expected bool
	}{
		{"开盘前-09:29:59", "2025-08-21 09:29:59", false},
		{"开盘-09:30:00", "2025-08-21 09:30:00", true},
		{"上午结束-11:30:00", "2025-08-21 11:30:00", true},
		{"午休-12:00:00", "2025-08-21 12:00:00", false},
		{"下午开盘-13:00:00", "2025-08-21 13:00:00", true},
		{"收盘-15:00:00", "2025-08-21 15:00:00", true},
		{"收盘后-15:00:01", "2025-08-21 15:00:01", false},
		{"周六-禁止", "2025-08-23 10:00:00", false},
		{"周日-禁止", "2025-08-24 10:00:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := NewMarketTime(&MockTimeService{current: mustParse(t, tt.mockTime)})
			assert.Equal(t, tt.expected, mt.IsTradingTime())
		})
	}
}

func TestMarketTime_WeekendAndToday(t *testing.T) {
	mt := NewMarketTime(&MockTimeService{current: mustParse(t, "2024-01-06 10:00:00")}) // 周六
	assert.True(t, mt.IsWeekend())
	assert.Equal(t, "2024-01-06", mt.Today())

	mt = NewMarketTime(&MockTimeService{current: mustParse(t, "2024-01-08 10:00:00")}) // 周一
	assert.False(t, mt.IsWeekend())
}

func TestMarketTime_PreviousTradingDay(t *testing.T) {
	mt := DefaultMarketTime()

	monday := mustParse(t, "2024-01-08 10:00:00")
	assert.Equal(t, "2024-01-05", mt.PreviousTradingDay(monday).Format(DateLayout), "周一的上一个交易日是上周五")

	wednesday := mustParse(t, "2024-01-10 10:00:00")
	assert.Equal(t, "2024-01-09", mt.PreviousTradingDay(wednesday).Format(DateLayout))
}

func TestMarketTime_AgeInDays(t *testing.T) {
	now := mustParse(t, "2024-01-10 12:00:00")
	mt := NewMarketTime(&MockTimeService{current: now})

	assert.Equal(t, 0, mt.AgeInDays(now.Add(-23*time.Hour)))
	assert.Equal(t, 1, mt.AgeInDays(now.Add(-25*time.Hour)))
	assert.Equal(t, 7, mt.AgeInDays(now.AddDate(0, 0, -7)))
}

func TestRangeWindow(t *testing.T) {
	now := mustParse(t, "2024-06-15 10:00:00")

	tests := []struct {
		rng    string
		start  string
		period string
	}{
		{"1d", "2024-06-14", "daily"},
		{"5d", "2024-06-10", "daily"},
		{"1mo", "2024-05-16", "daily"},
		{"1y", "2023-06-16", "daily"},
		{"5y", "2019-06-17", "weekly"},
		{"ytd", "2024-01-01", "daily"},
		{"max", "2000-01-01", "monthly"},
		{"unknown", "2000-01-01", "monthly"},
	}

	for _, tt := range tests {
		t.Run(tt.rng, func(t *testing.T) {
			w := RangeWindow(now, tt.rng)
			assert.Equal(t, tt.start, w.Start.Format(DateLayout))
			assert.Equal(t, tt.period, w.Period)
			assert.Equal(t, now, w.End)
		})
	}
}

func TestIntervalHelpers(t *testing.T) {
	assert.True(t, IsIntraday("1m"))
	assert.True(t, IsIntraday("15m"))
	assert.False(t, IsIntraday("1d"))
	assert.False(t, IsIntraday("1wk"))

	assert.Equal(t, "1", MinutePeriod("1m"))
	assert.Equal(t, "5", MinutePeriod("5m"))
	assert.Equal(t, "60", MinutePeriod("1h"))
	assert.Equal(t, "1", MinutePeriod("bogus"))
}

func TestParseAndNormalizeDate(t *testing.T) {
	for _, in := range []string{"20240105", "2024-01-05", "2024-01-05 09:31:00", "2024-01-05 09:31"} {
		d, ok := ParseDate(in)
		assert.True(t, ok, in)
		assert.Equal(t, "2024-01-05", d.Format(DateLayout), in)
	}

	_, ok := ParseDate("not-a-date")
	assert.False(t, ok)
	assert.Equal(t, "2024-01-05", NormalizeDate("20240105"))
	assert.Equal(t, "garbage", NormalizeDate("garbage"))
}

func TestHistoryWindow(t *testing.T) {
	now := mustParse(t, "2024-06-15 10:00:00")

	start, end := HistoryWindow(now, "", "")
	assert.Equal(t, "20240615", end)
	assert.Equal(t, "20230616", start)

	start, end = HistoryWindow(now, "20240101", "20240301")
	assert.Equal(t, "20240101", start)
	assert.Equal(t, "20240301", end)
}
