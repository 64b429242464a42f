package timing

import (
	"time"
)

// TimeService 提供当前时间接口，用于mock测试
type TimeService interface {
	Now() time.Time
}

// SystemTimeService 使用系统实际时间
type SystemTimeService struct{}

func (s *SystemTimeService) Now() time.Time {
	return time.Now()
}

// FixedTimeService 返回固定时间，测试和回放场景使用
type FixedTimeService struct {
	At time.Time
}

func (s *FixedTimeService) Now() time.Time {
	return s.At
}

const (
	// DateLayout 缓存及响应中使用的日期格式
	DateLayout = "2006-01-02"
	// CompactDateLayout 上游接口使用的日期格式 YYYYMMDD
	CompactDateLayout = "20060102"
	// DateTimeLayout 分时数据时间格式
	DateTimeLayout = "2006-01-02 15:04:05"
)

// MarketTime 提供市场交易时间检测功能
type MarketTime struct {
	timeService TimeService
}

// NewMarketTime 创建新的市场时间检测器
func NewMarketTime(timeService TimeService) *MarketTime {
	if timeService == nil {
		timeService = &SystemTimeService{}
	}
	return &MarketTime{
		timeService: timeService,
	}
}

// DefaultMarketTime 使用系统时间的默认市场时间检测器
func DefaultMarketTime() *MarketTime {
	return NewMarketTime(&SystemTimeService{})
}

// Now 返回当前时间
func (m *MarketTime) Now() time.Time {
	return m.timeService.Now()
}

// Today 返回当天日期字符串 YYYY-MM-DD
func (m *MarketTime) Today() string {
	return m.timeService.Now().Format(DateLayout)
}

// IsWeekend 当前是否为周六或周日
func (m *MarketTime) IsWeekend() bool {
	return !m.IsTradingDay(m.timeService.Now())
}

// IsTradingTime 判断当前是否在交易时段
func (m *MarketTime) IsTradingTime() bool {
	now := m.timeService.Now()

	// 周末不交易
	if !m.IsTradingDay(now) {
		return false
	}

	// 上午交易时段: 09:30:00 - 11:30:00
	// 下午交易时段: 13:00:00 - 15:00:00
	currentTime := now.Format("15:04:05")

	return (currentTime >= "09:30:00" && currentTime <= "11:30:00") ||
		(currentTime >= "13:00:00" && currentTime <= "15:00:00")
}

// IsTradingDay 判断是否是交易日（周一到周五）
func (m *MarketTime) IsTradingDay(t time.Time) bool {
	weekday := t.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// PreviousTradingDay 返回 t 之前最近的一个交易日（只跳过周末）
func (m *MarketTime) PreviousTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for !m.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// AgeInDays 返回 since 到当前时间经过的完整天数
func (m *MarketTime) AgeInDays(since time.Time) int {
	return int(m.timeService.Now().Sub(since) / (24 * time.Hour))
}
