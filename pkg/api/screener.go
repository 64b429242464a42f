package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/core"
	"stockapi/pkg/placeholder"
)

// screener 排序方式和标题
type screener struct {
	title string
	less  func(a, b core.SpotRow) bool
}

func byAmount(a, b core.SpotRow) bool { return a.Amount > b.Amount }

var screeners = map[string]screener{
	"most_actives": {"交易最活跃", byAmount},
	"day_gainers":  {"日涨幅最大", func(a, b core.SpotRow) bool { return a.ChangePercent > b.ChangePercent }},
	"day_losers":   {"日跌幅最大", func(a, b core.SpotRow) bool { return a.ChangePercent < b.ChangePercent }},
}

func screenerFor(name string) screener {
	if sc, ok := screeners[name]; ok {
		return sc
	}
	return screener{title: "筛选器: " + name, less: byAmount}
}

// ScreenerQuote 筛选结果中的一只股票
type ScreenerQuote struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketVolume        float64 `json:"regularMarketVolume"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	TrailingPE                 float64 `json:"trailingPE"`
	MarketCap                  float64 `json:"marketCap"`
	AverageDailyVolume3Month   float64 `json:"averageDailyVolume3Month"`
	Sector                     string  `json:"sector"`
	Currency                   string  `json:"currency"`
}

// ScreenerResponse 筛选器返回结构
type ScreenerResponse struct {
	Quotes []ScreenerQuote `json:"quotes"`
	Title  string          `json:"title"`
	Count  int             `json:"count"`
	Start  int             `json:"start"`
	Total  int             `json:"total"`
	Error  string          `json:"error,omitempty"`
}

func screenerErrorResponse(msg string) interface{} {
	return ScreenerResponse{Quotes: []ScreenerQuote{}, Title: "数据获取失败", Error: "获取数据失败: " + msg}
}

// displaySymbol 0/3 开头加 sz，6 开头加 sh
func displaySymbol(code string) string {
	switch {
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"):
		return "sz" + code
	case strings.HasPrefix(code, "6"):
		return "sh" + code
	}
	return code
}

func toScreenerQuote(r core.SpotRow) ScreenerQuote {
	sector := r.Sector
	if sector == "" {
		sector = "未知"
	}
	return ScreenerQuote{
		Symbol:                     displaySymbol(r.Code),
		ShortName:                  r.Name,
		RegularMarketPrice:         r.Price,
		RegularMarketChange:        r.Change,
		RegularMarketChangePercent: placeholder.Round(r.ChangePercent/100, 6),
		RegularMarketVolume:        r.Volume,
		RegularMarketDayHigh:       r.High,
		RegularMarketDayLow:        r.Low,
		RegularMarketOpen:          r.Open,
		RegularMarketPreviousClose: r.PrevClose,
		TrailingPE:                 r.PE,
		MarketCap:                  r.MarketCap,
		AverageDailyVolume3Month:   r.Volume,
		Sector:                     sector,
		Currency:                   "CNY",
	}
}

func (s *Server) screener(c *gin.Context) {
	onPanic(c, screenerErrorResponse)

	name := queryOr(c, "screener", "most_actives")
	count := queryInt(c, "count", 40)
	if count < 0 {
		count = 0
	}
	sc := screenerFor(name)
	log := s.log.WithFields(logrus.Fields{"screener": name, "count": count})

	rows, err := s.fetcher.Spot(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("获取行情列表失败")
		c.JSON(http.StatusOK, screenerErrorResponse(err.Error()))
		return
	}

	sorted := make([]core.SpotRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sc.less(sorted[i], sorted[j]) })
	if len(sorted) > count {
		sorted = sorted[:count]
	}

	quotes := make([]ScreenerQuote, 0, len(sorted))
	for _, r := range sorted {
		quotes = append(quotes, toScreenerQuote(r))
	}
	log.WithField("rows", len(quotes)).Info("筛选完成")
	c.JSON(http.StatusOK, ScreenerResponse{
		Quotes: quotes,
		Title:  sc.title,
		Count:  len(quotes),
		Total:  len(quotes),
	})
}
