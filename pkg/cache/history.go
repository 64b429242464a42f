package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/core"
	"stockapi/pkg/logger"
	"stockapi/pkg/ticker"
	"stockapi/pkg/timing"
)

const (
	historyExt = ".parquet"
	// weekendHistoryMaxAge 周末历史缓存至少保留的天数
	weekendHistoryMaxAge = 10
)

// HistoryCache 历史K线缓存，一个代码/周期/复权组合对应一个 parquet 文件
type HistoryCache struct {
	dir   string
	clock *timing.MarketTime
	stats counters
	log   *logrus.Entry
}

// NewHistoryCache 创建历史缓存，目录不存在时自动创建
func NewHistoryCache(dir string, ts timing.TimeService) (*HistoryCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建历史缓存目录失败: %w", err)
	}
	c := &HistoryCache{
		dir:   dir,
		clock: timing.NewMarketTime(ts),
		log:   logger.WithComponent("HistoryCache"),
	}
	c.log.WithField("dir", dir).Info("历史数据缓存目录")
	return c, nil
}

// Path 缓存文件路径 <dir>/<safe>_<period>[_<adjust>].parquet
func (c *HistoryCache) Path(code, period, adjust string) string {
	name := ticker.SafeFileName(code) + "_" + period
	if adjust != "" {
		name += "_" + adjust
	}
	return filepath.Join(c.dir, name+historyExt)
}

// HasValidCache 只看文件修改时间，周末放宽到至少 10 天
func (c *HistoryCache) HasValidCache(code, period, adjust string, maxAgeDays int) bool {
	info, err := os.Stat(c.Path(code, period, adjust))
	if err != nil {
		c.stats.miss()
		return false
	}
	if c.clock.IsWeekend() && maxAgeDays < weekendHistoryMaxAge {
		maxAgeDays = weekendHistoryMaxAge
	}
	if c.clock.AgeInDays(info.ModTime()) > maxAgeDays {
		c.stats.miss()
		return false
	}
	c.stats.hit()
	return true
}

// GetCache 读取整张缓存表
func (c *HistoryCache) GetCache(code, period, adjust string) ([]core.HistoryRecord, bool) {
	path := c.Path(code, period, adjust)
	rows, err := parquet.ReadFile[core.HistoryRecord](path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.WithError(err).WithField("path", path).Warn("读取历史缓存异常")
		}
		return nil, false
	}
	return rows, true
}

// UpdateCache 覆盖写入整张缓存表
func (c *HistoryCache) UpdateCache(code string, rows []core.HistoryRecord, period, adjust string) error {
	if len(rows) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows); err != nil {
		return NewCacheError(ErrCacheWrite, code, err)
	}
	path := c.Path(code, period, adjust)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		c.log.WithError(err).WithField("path", path).Error("写入历史缓存异常")
		return NewCacheError(ErrCacheWrite, code, err)
	}
	c.log.WithFields(logrus.Fields{"ticker": code, "period": period, "adjust": adjust, "rows": len(rows)}).Debug("历史缓存已更新")
	return nil
}

// MergeNewData 把新数据并入已有缓存，按日期去重（新数据优先）并升序排列
func (c *HistoryCache) MergeNewData(code string, rows []core.HistoryRecord, period, adjust string) error {
	if len(rows) == 0 {
		return nil
	}
	existing, _ := c.GetCache(code, period, adjust)
	return c.UpdateCache(code, MergeRecords(existing, rows), period, adjust)
}

// MergeRecords 合并两组记录，同一日期保留 incoming 中的记录，结果按日期升序
func MergeRecords(existing, incoming []core.HistoryRecord) []core.HistoryRecord {
	byDate := make(map[string]core.HistoryRecord, len(existing)+len(incoming))
	for _, r := range existing {
		byDate[r.Date] = r
	}
	for _, r := range incoming {
		byDate[r.Date] = r
	}
	merged := make([]core.HistoryRecord, 0, len(byDate))
	for _, r := range byDate {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}

// FilterRange 保留日期在 [start, end] 内的记录，start/end 可为 YYYYMMDD 或 YYYY-MM-DD，为空表示不限
func FilterRange(rows []core.HistoryRecord, start, end string) []core.HistoryRecord {
	start = timing.NormalizeDate(start)
	end = timing.NormalizeDate(end)
	out := make([]core.HistoryRecord, 0, len(rows))
	for _, r := range rows {
		d := r.Date
		if len(d) > len(timing.DateLayout) {
			d = d[:len(timing.DateLayout)]
		}
		if start != "" && d < start {
			continue
		}
		if end != "" && d > end {
			continue
		}
		out = append(out, r)
	}
	return out
}

// historyPeriods 缓存文件名中可能出现的周期
var historyPeriods = []string{"daily", "weekly", "monthly"}

// parseHistoryName 把 <ticker>_<period>[_<adjust>] 拆成三部分。
// 代码本身可能含有下划线（600000.SH 存为 600000_SH），所以从右侧定位周期。
func parseHistoryName(base string) (code, period, adjust string, ok bool) {
	for _, p := range historyPeriods {
		token := "_" + p
		for i := strings.LastIndex(base, token); i > 0; i = strings.LastIndex(base[:i], token) {
			rest := base[i+len(token):]
			switch {
			case rest == "":
				return base[:i], p, "", true
			case strings.HasPrefix(rest, "_") && !strings.Contains(rest[1:], "_") && len(rest) > 1:
				return base[:i], p, rest[1:], true
			}
		}
	}
	return "", "", "", false
}

// clearTargets 目录中符合条件的缓存文件，空字符串表示该维度不限，各维度都按整段精确比较
func (c *HistoryCache) clearTargets(code, period, adjust string) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	safe := ticker.SafeFileName(code)
	all := code == "" && period == "" && adjust == ""

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, historyExt) {
			continue
		}
		if !all {
			fc, fp, fa, ok := parseHistoryName(strings.TrimSuffix(name, historyExt))
			if !ok || (code != "" && fc != safe) || (period != "" && fp != period) || (adjust != "" && fa != adjust) {
				continue
			}
		}
		paths = append(paths, filepath.Join(c.dir, name))
	}
	return paths, nil
}

// ClearCache 按代码/周期/复权清除缓存文件，全部为空时清空目录，返回删除的文件数
func (c *HistoryCache) ClearCache(code, period, adjust string) (int, error) {
	paths, err := c.clearTargets(code, period, adjust)
	if err != nil {
		return 0, err
	}

	count, err := removeAll(paths)
	if err != nil {
		c.log.WithError(err).Error("清除历史缓存异常")
		return count, err
	}
	c.stats.cleaned(c.clock.Now())
	c.log.WithFields(logrus.Fields{
		"ticker": code,
		"period": period,
		"adjust": adjust,
		"files":  count,
	}).Info("已清除历史缓存")
	return count, nil
}

// Prune 删除修改时间早于 maxAge 的缓存文件
func (c *HistoryCache) Prune(maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+historyExt))
	if err != nil {
		return 0, err
	}
	cutoff := c.clock.Now().Add(-maxAge)
	var stale []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, m)
		}
	}
	count, err := removeAll(stale)
	if count > 0 {
		c.stats.cleaned(c.clock.Now())
	}
	return count, err
}

// Stats 缓存统计
func (c *HistoryCache) Stats() CacheStats {
	s := CacheStats{Dir: c.dir}
	if matches, err := filepath.Glob(filepath.Join(c.dir, "*"+historyExt)); err == nil {
		s.Files = len(matches)
	}
	c.stats.fill(&s)
	return s
}

// Files 当前缓存文件名（不含目录），按字母序
func (c *HistoryCache) Files() []string {
	matches, _ := filepath.Glob(filepath.Join(c.dir, "*"+historyExt))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names
}
