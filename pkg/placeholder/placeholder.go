// Package placeholder 在真实数据缺失时生成占位数据。
// 占位策略由配置决定：zero 返回全零字段，random 返回合理范围内的随机值，error 不生成任何数值。
package placeholder

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Policy 占位策略
type Policy string

const (
	PolicyZero   Policy = "zero"
	PolicyRandom Policy = "random"
	PolicyError  Policy = "error"
)

// ParsePolicy 解析配置中的策略名，大小写不敏感，空串为 zero
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyZero, nil
	case PolicyZero, PolicyRandom, PolicyError:
		return p, nil
	}
	return "", fmt.Errorf("unknown placeholder policy %q", s)
}

// Range 数值范围 [Min, Max)
type Range struct {
	Min float64
	Max float64
}

func (r Range) valid() bool { return r.Min < r.Max }

// Config 随机占位数据的取值范围
type Config struct {
	EquityPrice  Range
	IndexPrice   Range
	Volume       Range
	EquityChange float64 // 个股涨跌幅上限，0.04 表示 ±4%
	IndexChange  float64
	Seed         int64 // 0 表示按时间播种
}

// DefaultConfig 默认取值范围
func DefaultConfig() Config {
	return Config{
		EquityPrice:  Range{Min: 10, Max: 100},
		IndexPrice:   Range{Min: 3000, Max: 4000},
		Volume:       Range{Min: 1e5, Max: 1e7},
		EquityChange: 0.04,
		IndexChange:  0.02,
	}
}

// Generator 占位数据生成器，可并发使用
type Generator struct {
	policy Policy
	config Config

	mu   sync.Mutex
	rand *rand.Rand
}

// New 创建生成器
func New(policy Policy, config Config) *Generator {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	d := DefaultConfig()
	if !config.EquityPrice.valid() {
		config.EquityPrice = d.EquityPrice
	}
	if !config.IndexPrice.valid() {
		config.IndexPrice = d.IndexPrice
	}
	if !config.Volume.valid() {
		config.Volume = d.Volume
	}
	if config.EquityChange <= 0 {
		config.EquityChange = d.EquityChange
	}
	if config.IndexChange <= 0 {
		config.IndexChange = d.IndexChange
	}
	return &Generator{
		policy: policy,
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Policy 当前策略
func (g *Generator) Policy() Policy {
	return g.policy
}

// Fabricates 当前策略是否生成随机数值
func (g *Generator) Fabricates() bool {
	return g.policy == PolicyRandom
}

// float64n 返回 [0, 1) 的随机数
func (g *Generator) float64n() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rand.Float64()
}

func (g *Generator) between(r Range) float64 {
	return r.Min + g.float64n()*(r.Max-r.Min)
}

// signed 返回 [-limit, limit) 的随机数
func (g *Generator) signed(limit float64) float64 {
	return (g.float64n()*2 - 1) * limit
}

func (g *Generator) intBetween(min, max int64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return float64(min + g.rand.Int63n(max-min+1))
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Round 保留 places 位小数
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Quote 单只股票或指数的占位行情
type Quote struct {
	Price         float64
	Open          float64
	High          float64
	Low           float64
	PrevClose     float64
	Change        float64
	ChangePercent float64 // 小数形式
	Volume        float64
}

// Quote 按策略生成占位行情：random 策略生成自洽的随机值，其余策略全部为 0
func (g *Generator) Quote(isIndex bool) Quote {
	if !g.Fabricates() {
		return Quote{}
	}

	priceRange, limit := g.config.EquityPrice, g.config.EquityChange
	if isIndex {
		priceRange, limit = g.config.IndexPrice, g.config.IndexChange
	}

	prevClose := g.between(priceRange)
	pct := g.signed(limit)
	price := prevClose * (1 + pct)
	open := prevClose * (1 + g.signed(limit/2))
	high := maxOf(price, open, prevClose) * (1 + g.float64n()*0.01)
	low := minOf(price, open, prevClose) * (1 - g.float64n()*0.01)

	return Quote{
		Price:         Round2(price),
		Open:          Round2(open),
		High:          Round2(high),
		Low:           Round2(low),
		PrevClose:     Round2(prevClose),
		Change:        Round2(price - prevClose),
		ChangePercent: Round(pct, 4),
		Volume:        float64(int64(g.between(g.config.Volume))),
	}
}

func maxOf(v float64, rest ...float64) float64 {
	for _, x := range rest {
		if x > v {
			v = x
		}
	}
	return v
}

func minOf(v float64, rest ...float64) float64 {
	for _, x := range rest {
		if x < v {
			v = x
		}
	}
	return v
}
