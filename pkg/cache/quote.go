// Package cache 提供按代码落盘的本地文件缓存：
// 昨收价缓存（每个代码一个 JSON 文件）和历史K线缓存（每个代码/周期/复权一个 parquet 文件）。
// 两者都不加锁，同一代码的并发写入以最后一次为准。
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"stockapi/pkg/logger"
	"stockapi/pkg/ticker"
	"stockapi/pkg/timing"
)

// weekendQuoteMaxAge 周末昨收价缓存至少保留的天数
const weekendQuoteMaxAge = 3

// QuoteEntry 昨收价缓存条目
type QuoteEntry struct {
	PrevClose  float64 `json:"prev_close"`
	CacheDate  string  `json:"cache_date,omitempty"`  // YYYY-MM-DD
	UpdateTime string  `json:"update_time,omitempty"` // YYYY-MM-DD HH:MM:SS
}

// QuoteCache 昨收价缓存
type QuoteCache struct {
	dir   string
	clock *timing.MarketTime
	stats counters
	log   *logrus.Entry
}

// NewQuoteCache 创建昨收价缓存，目录不存在时自动创建
func NewQuoteCache(dir string, ts timing.TimeService) (*QuoteCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}
	c := &QuoteCache{
		dir:   dir,
		clock: timing.NewMarketTime(ts),
		log:   logger.WithComponent("QuoteCache"),
	}
	c.log.WithField("dir", dir).Info("股票数据缓存目录")
	return c, nil
}

// Path 指定代码的缓存文件路径
func (c *QuoteCache) Path(code string) string {
	return filepath.Join(c.dir, ticker.SafeFileName(code)+".json")
}

// HasValidCache 缓存文件存在、修改时间在有效期内、且工作日的 cache_date 为今天
func (c *QuoteCache) HasValidCache(code string, maxAgeDays int) bool {
	path := c.Path(code)
	info, err := os.Stat(path)
	if err != nil {
		c.stats.miss()
		return false
	}

	weekend := c.clock.IsWeekend()
	if weekend && maxAgeDays < weekendQuoteMaxAge {
		maxAgeDays = weekendQuoteMaxAge
	}
	if c.clock.AgeInDays(info.ModTime()) > maxAgeDays {
		c.stats.miss()
		return false
	}

	entry, err := c.read(path)
	if err != nil {
		c.log.WithError(err).WithField("ticker", code).Warn("检查缓存有效性异常")
		c.stats.miss()
		return false
	}
	if entry.CacheDate == "" {
		c.stats.miss()
		return false
	}
	if !weekend && entry.CacheDate != c.clock.Today() {
		c.stats.miss()
		return false
	}

	c.stats.hit()
	return true
}

// GetCache 读取缓存条目，文件不存在或损坏时返回 false
func (c *QuoteCache) GetCache(code string) (*QuoteEntry, bool) {
	entry, err := c.read(c.Path(code))
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.WithError(err).WithField("ticker", code).Warn("读取缓存文件异常")
		}
		return nil, false
	}
	return entry, true
}

func (c *QuoteCache) read(path string) (*QuoteEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry QuoteEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, NewCacheError(ErrCacheCorrupted, path, err)
	}
	return &entry, nil
}

// UpdateCache 写入缓存条目，cache_date 和 update_time 以当前时间为准
func (c *QuoteCache) UpdateCache(code string, entry QuoteEntry) error {
	now := c.clock.Now()
	entry.CacheDate = now.Format(timing.DateLayout)
	entry.UpdateTime = now.Format(timing.DateTimeLayout)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return NewCacheError(ErrCacheWrite, code, err)
	}
	if err := writeFileAtomic(c.Path(code), data); err != nil {
		c.log.WithError(err).WithField("ticker", code).Error("更新缓存文件异常")
		return NewCacheError(ErrCacheWrite, code, err)
	}
	c.log.WithField("ticker", code).Debug("更新股票缓存成功")
	return nil
}

// ClearCache 删除指定代码的缓存，code 为空时删除目录下全部 JSON 文件，返回删除数量
func (c *QuoteCache) ClearCache(code string) (int, error) {
	var paths []string
	if code != "" {
		paths = []string{c.Path(code)}
	} else {
		matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
		if err != nil {
			return 0, err
		}
		paths = matches
	}

	count, err := removeAll(paths)
	if err != nil {
		c.log.WithError(err).Error("清除缓存异常")
		return count, err
	}
	c.stats.cleaned(c.clock.Now())
	c.log.WithFields(logrus.Fields{"ticker": code, "files": count}).Info("已清除股票缓存")
	return count, nil
}

// Stats 缓存统计
func (c *QuoteCache) Stats() CacheStats {
	s := CacheStats{Dir: c.dir}
	if matches, err := filepath.Glob(filepath.Join(c.dir, "*.json")); err == nil {
		s.Files = len(matches)
	}
	c.stats.fill(&s)
	return s
}

// writeFileAtomic 先写临时文件再改名，避免读到写了一半的文件
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func removeAll(paths []string) (int, error) {
	count := 0
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}
