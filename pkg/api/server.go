// Package api 提供与 Yahoo Finance 字段兼容的 HTTP 接口。
// 所有 /stock 路由都不返回错误状态码：数据缺失时按占位策略填充字段并标记 _no_data。
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/config"
	"stockapi/pkg/core"
	"stockapi/pkg/history"
	"stockapi/pkg/logger"
	"stockapi/pkg/placeholder"
	"stockapi/pkg/provider"
	"stockapi/pkg/timing"
)

// HistoryService 带缓存的历史行情
type HistoryService interface {
	GetStockHistory(ctx context.Context, q history.Query) []core.HistoryRecord
	GetStockDailyIndicators(ctx context.Context, q history.Query) []history.IndicatorRecord
}

// QuoteCacheClearer 清除昨收价缓存
type QuoteCacheClearer interface {
	ClearCache(ticker string) (int, error)
}

// HistoryCacheClearer 清除历史K线缓存，空参数表示不限
type HistoryCacheClearer interface {
	ClearCache(ticker, period, adjust string) (int, error)
}

// Options 创建 Server 的参数
type Options struct {
	Config       config.ServerConfig
	Fetcher      provider.Fetcher
	History      HistoryService
	QuoteCache   QuoteCacheClearer
	HistoryCache HistoryCacheClearer
	Placeholder  *placeholder.Generator
	Clock        timing.TimeService
	// Health 附加的健康检查项，返回 nil 表示正常
	Health map[string]func(ctx context.Context) error
	// Stats 运行统计项，由 /stats 输出
	Stats map[string]func() interface{}
}

// Server HTTP 服务
type Server struct {
	config       config.ServerConfig
	fetcher      provider.Fetcher
	history      HistoryService
	quoteCache   QuoteCacheClearer
	historyCache HistoryCacheClearer
	placeholder  *placeholder.Generator
	clock        *timing.MarketTime
	health       map[string]func(ctx context.Context) error
	stats        map[string]func() interface{}
	startedAt    time.Time

	router *gin.Engine
	server *http.Server
	log    *logrus.Entry
}

// NewServer 创建 HTTP 服务并注册路由
func NewServer(opts Options) *Server {
	if opts.Placeholder == nil {
		opts.Placeholder = placeholder.New(placeholder.PolicyZero, placeholder.Config{})
	}
	s := &Server{
		config:       opts.Config,
		fetcher:      opts.Fetcher,
		history:      opts.History,
		quoteCache:   opts.QuoteCache,
		historyCache: opts.HistoryCache,
		placeholder:  opts.Placeholder,
		clock:        timing.NewMarketTime(opts.Clock),
		health:       opts.Health,
		stats:        opts.Stats,
		log:          logger.WithComponent("APIServer"),
	}
	s.startedAt = s.clock.Now()
	s.router = s.routes()
	return s
}

// Handler 返回路由，测试和自定义 http.Server 使用
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(s.loggingMiddleware())
	router.Use(s.recoveryMiddleware())
	router.Use(corsMiddleware(s.config.CORSOrigin))

	router.GET("/", s.root)
	router.GET("/health", s.healthCheck)
	router.GET("/stats", s.getStats)

	base := strings.TrimRight(s.config.BasePath, "/")
	if base != "" {
		s.registerStockRoutes(router.Group(base))
	}
	if s.config.MountRoot || base == "" {
		s.registerStockRoutes(router.Group(""))
	}
	return router
}

func (s *Server) registerStockRoutes(g *gin.RouterGroup) {
	g.GET("/stock/search", s.search)
	g.GET("/stock/quote", s.quote)
	g.GET("/stock/chart", s.chart)
	g.GET("/stock/history", s.stockHistory)
	g.GET("/stock/clear_history_cache", s.clearHistoryCache)
	g.GET("/stock/quoteSummary", s.quoteSummary)
	g.GET("/stock/screener", s.screener)
	g.GET("/stock/news", s.news)
	g.GET("/stock/news_category", s.newsCategories)
}

// Start 在后台开始监听
func (s *Server) Start() error {
	addr := ":" + s.config.Port
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.WithField("port", s.config.Port).Info("Starting API server...")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()
	return nil
}

// Stop 优雅关闭，最多等待 10 秒
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("Failed to gracefully shutdown server")
	}
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	health := gin.H{
		"status":    "ok",
		"timestamp": s.clock.Now(),
	}
	if len(s.health) > 0 {
		services := make(map[string]string, len(s.health))
		for name, check := range s.health {
			if err := check(ctx); err != nil {
				services[name] = "error: " + err.Error()
				health["status"] = "degraded"
			} else {
				services[name] = "ok"
			}
		}
		health["services"] = services
	}

	// 依赖降级不影响服务本身，始终返回 200
	c.JSON(http.StatusOK, health)
}

// getStats 运行统计：缓存命中、熔断器、维护任务等
func (s *Server) getStats(c *gin.Context) {
	now := s.clock.Now()
	stats := gin.H{
		"timestamp": now,
		"uptime":    now.Sub(s.startedAt).Round(time.Second).String(),
	}
	for name, collect := range s.stats {
		stats[name] = collect()
	}
	c.JSON(http.StatusOK, stats)
}
