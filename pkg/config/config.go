package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"stockapi/pkg/logger"
)

// Config 主配置结构
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logger      logger.Config     `mapstructure:"logger"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Upstream    UpstreamConfig    `mapstructure:"upstream"`
	Placeholder PlaceholderConfig `mapstructure:"placeholder"`
	Redis       RedisConfig       `mapstructure:"redis"`
	InfluxDB    InfluxDBConfig    `mapstructure:"influxdb"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port       string `mapstructure:"port"`
	Mode       string `mapstructure:"mode"`        // debug, release, test
	BasePath   string `mapstructure:"base_path"`   // 兼容前端的路由前缀
	MountRoot  bool   `mapstructure:"mount_root"`  // 是否同时挂载在根路径
	CORSOrigin string `mapstructure:"cors_origin"` // 允许的跨域来源
}

// CacheConfig 本地文件缓存配置
type CacheConfig struct {
	QuoteDir          string `mapstructure:"quote_dir"`            // 昨收价缓存目录
	HistoryDir        string `mapstructure:"history_dir"`          // 历史K线缓存目录
	QuoteMaxAgeDays   int    `mapstructure:"quote_max_age_days"`   // 昨收价缓存有效天数
	HistoryMaxAgeDays int    `mapstructure:"history_max_age_days"` // 历史缓存有效天数
	HistoryPruneDays  int    `mapstructure:"history_prune_days"`   // 超过该天数的历史缓存文件会被清理
}

// UpstreamConfig 上游数据源配置
type UpstreamConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`      // 单次上游请求超时
	UserAgent   string        `mapstructure:"user_agent"`   // 用户代理
	MinInterval time.Duration `mapstructure:"min_interval"` // 同一主机两次请求的最小间隔
	Breaker     BreakerConfig `mapstructure:"breaker"`
	// 代码名称表、新闻等低频数据的进程内缓存时间
	ListingTTL time.Duration `mapstructure:"listing_ttl"`
	NewsTTL    time.Duration `mapstructure:"news_ttl"`
	SpotTTL    time.Duration `mapstructure:"spot_ttl"`
}

// BreakerConfig 每个数据源的熔断器配置
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests uint32        `mapstructure:"max_requests"`  // 半开状态下的最大请求数
	Interval    time.Duration `mapstructure:"interval"`      // 统计窗口
	Timeout     time.Duration `mapstructure:"timeout"`       // 打开后的冷却时间
	ReadyToTrip uint32        `mapstructure:"ready_to_trip"` // 连续失败阈值
}

// PlaceholderConfig 数据缺失时的占位策略
type PlaceholderConfig struct {
	Policy string `mapstructure:"policy"` // zero, random, error
	Seed   int64  `mapstructure:"seed"`   // 随机策略的种子，0 表示按时间播种
}

// RedisConfig 行情快照共享缓存
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// InfluxDBConfig 历史K线镜像写入
type InfluxDBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

// SchedulerConfig 缓存维护任务
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	PruneSchedule string `mapstructure:"prune_schedule"` // 带秒字段的 cron 表达式
	WarmSchedule  string `mapstructure:"warm_schedule"`
}

var validPolicies = map[string]bool{"zero": true, "random": true, "error": true}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       "8080",
			Mode:       "release",
			BasePath:   "/api/py",
			MountRoot:  true,
			CORSOrigin: "*",
		},
		Logger: logger.Config{
			Level:      "info",
			Format:     "text",
			Output:     "console",
			Filename:   "logs/stockapi.log",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Cache: CacheConfig{
			QuoteDir:          "data/cache/stock",
			HistoryDir:        "data/cache/stock_history",
			QuoteMaxAgeDays:   1,
			HistoryMaxAgeDays: 7,
			HistoryPruneDays:  30,
		},
		Upstream: UpstreamConfig{
			Timeout:     15 * time.Second,
			MinInterval: 200 * time.Millisecond,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			Breaker: BreakerConfig{
				Enabled:     true,
				MaxRequests: 1,
				Interval:    60 * time.Second,
				Timeout:     30 * time.Second,
				ReadyToTrip: 5,
			},
			ListingTTL: 12 * time.Hour,
			NewsTTL:    1 * time.Minute,
			SpotTTL:    10 * time.Second,
		},
		Placeholder: PlaceholderConfig{
			Policy: "zero",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		InfluxDB: InfluxDBConfig{
			URL:    "http://localhost:8086",
			Org:    "stockapi",
			Bucket: "stock_history",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			PruneSchedule: "0 30 3 * * *",
			WarmSchedule:  "0 35 9 * * 1-5",
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}

	if c.Cache.QuoteDir == "" || c.Cache.HistoryDir == "" {
		return errors.New("cache directories cannot be empty")
	}

	if c.Cache.QuoteMaxAgeDays <= 0 {
		return errors.New("quote_max_age_days must be positive")
	}

	if c.Cache.HistoryMaxAgeDays <= 0 {
		return errors.New("history_max_age_days must be positive")
	}

	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}

	if c.Upstream.MinInterval < 0 {
		return errors.New("upstream min_interval cannot be negative")
	}

	if !validPolicies[strings.ToLower(c.Placeholder.Policy)] {
		return fmt.Errorf("invalid placeholder policy %q, expected zero, random or error", c.Placeholder.Policy)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis addr cannot be empty when redis is enabled")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		return errors.New("influxdb url and bucket are required when influxdb is enabled")
	}

	return nil
}

// Load 读取配置：默认值 < 配置文件 < STOCKAPI_ 前缀的环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("api_server")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	setDefaults(v, Default())

	v.SetEnvPrefix("STOCKAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Placeholder.Policy = strings.ToLower(cfg.Placeholder.Policy)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults 把默认配置注册到 viper，保证环境变量也能覆盖未出现在文件中的键
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.base_path", d.Server.BasePath)
	v.SetDefault("server.mount_root", d.Server.MountRoot)
	v.SetDefault("server.cors_origin", d.Server.CORSOrigin)

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.output", d.Logger.Output)
	v.SetDefault("logger.filename", d.Logger.Filename)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)

	v.SetDefault("cache.quote_dir", d.Cache.QuoteDir)
	v.SetDefault("cache.history_dir", d.Cache.HistoryDir)
	v.SetDefault("cache.quote_max_age_days", d.Cache.QuoteMaxAgeDays)
	v.SetDefault("cache.history_max_age_days", d.Cache.HistoryMaxAgeDays)
	v.SetDefault("cache.history_prune_days", d.Cache.HistoryPruneDays)

	v.SetDefault("upstream.timeout", d.Upstream.Timeout)
	v.SetDefault("upstream.user_agent", d.Upstream.UserAgent)
	v.SetDefault("upstream.min_interval", d.Upstream.MinInterval)
	v.SetDefault("upstream.listing_ttl", d.Upstream.ListingTTL)
	v.SetDefault("upstream.news_ttl", d.Upstream.NewsTTL)
	v.SetDefault("upstream.spot_ttl", d.Upstream.SpotTTL)
	v.SetDefault("upstream.breaker.enabled", d.Upstream.Breaker.Enabled)
	v.SetDefault("upstream.breaker.max_requests", d.Upstream.Breaker.MaxRequests)
	v.SetDefault("upstream.breaker.interval", d.Upstream.Breaker.Interval)
	v.SetDefault("upstream.breaker.timeout", d.Upstream.Breaker.Timeout)
	v.SetDefault("upstream.breaker.ready_to_trip", d.Upstream.Breaker.ReadyToTrip)

	v.SetDefault("placeholder.policy", d.Placeholder.Policy)
	v.SetDefault("placeholder.seed", d.Placeholder.Seed)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)

	v.SetDefault("influxdb.enabled", d.InfluxDB.Enabled)
	v.SetDefault("influxdb.url", d.InfluxDB.URL)
	v.SetDefault("influxdb.token", d.InfluxDB.Token)
	v.SetDefault("influxdb.org", d.InfluxDB.Org)
	v.SetDefault("influxdb.bucket", d.InfluxDB.Bucket)

	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.prune_schedule", d.Scheduler.PruneSchedule)
	v.SetDefault("scheduler.warm_schedule", d.Scheduler.WarmSchedule)
}
