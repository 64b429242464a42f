package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/api"
	"stockapi/pkg/cache"
	"stockapi/pkg/config"
	"stockapi/pkg/history"
	"stockapi/pkg/logger"
	"stockapi/pkg/placeholder"
	"stockapi/pkg/provider"
	"stockapi/pkg/scheduler"
	"stockapi/pkg/storage"
	"stockapi/pkg/timing"
	"stockapi/pkg/upstream"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (例如 ./config/api_server.yaml)")
	logLevel   = flag.String("log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置文件")
	logFormat  = flag.String("log-format", "", "日志格式 (json or text)，覆盖配置文件")
	port       = flag.String("port", "", "监听端口，覆盖配置文件")
	policyFlag = flag.String("placeholder", "", "数据缺失时的占位策略 (zero, random, error)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	applyFlags(cfg)

	logger.Init(cfg.Logger)
	log := logger.WithComponent("main")

	gin.SetMode(cfg.Server.Mode)

	svc, err := newApp(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create API server")
	}
	defer svc.close()

	if err := svc.start(); err != nil {
		log.WithError(err).Fatal("Failed to start API server")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API server...")
}

// applyFlags 命令行参数优先于配置文件和环境变量
func applyFlags(cfg *config.Config) {
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logger.Format = *logFormat
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *policyFlag != "" {
		cfg.Placeholder.Policy = *policyFlag
	}
}

// app 组装好的服务及其依赖，按创建的逆序关闭
type app struct {
	server    *api.Server
	scheduler scheduler.JobScheduler
	upstream  *upstream.Client
	spot      storage.SpotStore
	mirror    storage.HistoryMirror
	log       *logrus.Entry
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.WithComponent("main")
	clock := &timing.SystemTimeService{}
	health := make(map[string]func(ctx context.Context) error)
	stats := make(map[string]func() interface{})

	policy, err := placeholder.ParsePolicy(cfg.Placeholder.Policy)
	if err != nil {
		return nil, err
	}

	quoteCache, err := cache.NewQuoteCache(cfg.Cache.QuoteDir, clock)
	if err != nil {
		return nil, err
	}
	historyCache, err := cache.NewHistoryCache(cfg.Cache.HistoryDir, clock)
	if err != nil {
		return nil, err
	}

	stats["quote_cache"] = func() interface{} { return quoteCache.Stats() }
	stats["history_cache"] = func() interface{} { return historyCache.Stats() }

	a := &app{log: log}

	// Redis 和 InfluxDB 都是可选的，连接失败时退回进程内实现
	memSpot := storage.NewMemorySpotStore()
	a.spot = memSpot
	stats["spot_store"] = func() interface{} { return memSpot.GetStats() }
	if cfg.Redis.Enabled {
		rs, err := storage.NewRedisSpotStore(ctx, storage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.WithError(err).Warn("Redis 不可用，使用进程内行情快照")
		} else {
			a.spot = rs
			health["redis"] = rs.Ping
			delete(stats, "spot_store")
		}
	}

	a.mirror = storage.NopMirror{}
	if cfg.InfluxDB.Enabled {
		im, err := storage.NewInfluxMirror(ctx, storage.InfluxOptions{
			URL:    cfg.InfluxDB.URL,
			Token:  cfg.InfluxDB.Token,
			Org:    cfg.InfluxDB.Org,
			Bucket: cfg.InfluxDB.Bucket,
		})
		if err != nil {
			log.WithError(err).Warn("InfluxDB 不可用，不写入历史镜像")
		} else {
			bw := storage.NewBatchWriter(im, storage.DefaultBatchWriterConfig())
			a.mirror = bw
			health["influxdb"] = im.Ping
			stats["history_mirror"] = func() interface{} { return bw.GetStats() }
		}
	}

	a.upstream = upstream.NewClient(upstream.Options{
		Timeout:     cfg.Upstream.Timeout,
		UserAgent:   cfg.Upstream.UserAgent,
		MinInterval: cfg.Upstream.MinInterval,
	})

	dataProvider := provider.New(provider.Options{
		Caller:          a.upstream,
		QuoteCache:      quoteCache,
		SpotStore:       a.spot,
		Clock:           clock,
		Breaker:         cfg.Upstream.Breaker,
		QuoteMaxAgeDays: cfg.Cache.QuoteMaxAgeDays,
		ListingTTL:      cfg.Upstream.ListingTTL,
		NewsTTL:         cfg.Upstream.NewsTTL,
		SpotTTL:         cfg.Upstream.SpotTTL,
	})

	historyProvider := history.New(history.Options{
		Fetcher:    dataProvider,
		Cache:      historyCache,
		Mirror:     a.mirror,
		Clock:      clock,
		MaxAgeDays: cfg.Cache.HistoryMaxAgeDays,
	})

	js := scheduler.NewJobScheduler()
	if err := scheduler.RegisterMaintenance(js, cfg.Scheduler, cfg.Cache, scheduler.Maintenance{
		History: historyCache,
		Closer:  dataProvider,
		Clock:   clock,
	}); err != nil {
		return nil, err
	}
	a.scheduler = js
	stats["breakers"] = func() interface{} { return dataProvider.BreakerStats() }
	stats["jobs"] = func() interface{} { return scheduler.Summaries(js) }

	a.server = api.NewServer(api.Options{
		Config:       cfg.Server,
		Fetcher:      dataProvider,
		History:      historyProvider,
		QuoteCache:   quoteCache,
		HistoryCache: historyCache,
		Placeholder: placeholder.New(policy, placeholder.Config{
			Seed: cfg.Placeholder.Seed,
		}),
		Clock:  clock,
		Health: health,
		Stats:  stats,
	})

	log.WithFields(logrus.Fields{
		"port":        cfg.Server.Port,
		"base_path":   cfg.Server.BasePath,
		"placeholder": policy,
		"redis":       cfg.Redis.Enabled,
		"influxdb":    cfg.InfluxDB.Enabled,
	}).Info("API server configured")
	return a, nil
}

func (a *app) start() error {
	if err := a.scheduler.Start(); err != nil {
		return err
	}
	return a.server.Start()
}

func (a *app) close() {
	a.server.Stop()
	if err := a.scheduler.Stop(); err != nil {
		a.log.WithError(err).Warn("Failed to stop scheduler")
	}
	if err := a.mirror.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to flush history mirror")
	}
	if err := a.spot.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close spot store")
	}
	a.upstream.Close()
}
