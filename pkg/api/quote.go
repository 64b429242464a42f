package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/core"
	"stockapi/pkg/placeholder"
	"stockapi/pkg/ticker"
)

// QuoteResponse Yahoo Finance quote 字段
type QuoteResponse struct {
	Symbol                        string  `json:"symbol"`
	ShortName                     string  `json:"shortName"`
	LongName                      string  `json:"longName"`
	RegularMarketPrice            float64 `json:"regularMarketPrice"`
	RegularMarketChange           float64 `json:"regularMarketChange"`
	RegularMarketChangePercent    float64 `json:"regularMarketChangePercent"`
	RegularMarketDayHigh          float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow           float64 `json:"regularMarketDayLow"`
	RegularMarketVolume           float64 `json:"regularMarketVolume"`
	RegularMarketOpen             float64 `json:"regularMarketOpen"`
	RegularMarketPreviousClose    float64 `json:"regularMarketPreviousClose"`
	Bid                           float64 `json:"bid"`
	Ask                           float64 `json:"ask"`
	BidSize                       float64 `json:"bidSize"`
	AskSize                       float64 `json:"askSize"`
	MarketCap                     float64 `json:"marketCap"`
	Currency                      string  `json:"currency"`
	Market                        string  `json:"market"`
	Exchange                      string  `json:"exchange"`
	QuoteType                     string  `json:"quoteType"`
	Region                        string  `json:"region"`
	Language                      string  `json:"language"`
	FiftyTwoWeekLow               float64 `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh              float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLowChange         float64 `json:"fiftyTwoWeekLowChange"`
	FiftyTwoWeekHighChange        float64 `json:"fiftyTwoWeekHighChange"`
	FiftyTwoWeekLowChangePercent  float64 `json:"fiftyTwoWeekLowChangePercent"`
	FiftyTwoWeekHighChangePercent float64 `json:"fiftyTwoWeekHighChangePercent"`
	PriceHint                     int     `json:"priceHint"`
	FullExchangeName              string  `json:"fullExchangeName"`
	AverageDailyVolume3Month      float64 `json:"averageDailyVolume3Month"`
	HasPrePostMarketData          bool    `json:"hasPrePostMarketData"`
	NoData                        bool    `json:"_no_data,omitempty"`
	Error                         string  `json:"_error,omitempty"`
}

func newQuoteResponse(symbol string, isIndex bool) *QuoteResponse {
	quoteType := "EQUITY"
	if isIndex {
		quoteType = "INDEX"
	}
	return &QuoteResponse{
		Symbol:    symbol,
		Currency:  "CNY",
		Market:    "cn_market",
		QuoteType: quoteType,
		Region:    "CN",
		Language:  "zh-CN",
		PriceHint: 2,
	}
}

// quoteErrorResponse 处理函数异常时的精简报价
func quoteErrorResponse(symbol, msg string) interface{} {
	_, isIndex := ticker.Normalize(symbol)
	quoteType := "EQUITY"
	if isIndex {
		quoteType = "INDEX"
	}
	return gin.H{
		"symbol":                     symbol,
		"shortName":                  "暂无数据",
		"longName":                   "暂无数据",
		"regularMarketPrice":         0,
		"regularMarketChange":        0,
		"regularMarketChangePercent": 0,
		"currency":                   "CNY",
		"quoteType":                  quoteType,
		"_error":                     msg,
		"_no_data":                   true,
	}
}

func (s *Server) quote(c *gin.Context) {
	symbol := c.Query("ticker")
	onPanic(c, func(msg string) interface{} { return quoteErrorResponse(symbol, msg) })

	c.JSON(http.StatusOK, s.buildQuote(c.Request.Context(), symbol))
}

// buildQuote 以最近一个交易时段的分时数据组装报价。
// 昨收价优先取缓存或日线，取不到时退回分时第一根的收盘价。
func (s *Server) buildQuote(ctx context.Context, symbol string) *QuoteResponse {
	code, isIndex := ticker.Normalize(symbol)
	log := s.log.WithFields(logrus.Fields{"ticker": symbol, "code": code})
	resp := newQuoteResponse(symbol, isIndex)

	if !isIndex && !ticker.IsAShare(code) {
		if q, ok := s.fetcher.Overseas(ctx, symbol); ok {
			fillOverseas(resp, q)
			return resp
		}
		log.Info("海外行情不可用")
		s.fillNoData(resp, code, isIndex)
		return resp
	}

	bars := s.fetcher.RealtimeMinute(ctx, symbol, "1m")
	if len(bars) == 0 {
		log.Warn("无法获取分时数据，使用占位数据")
		s.fillNoData(resp, code, isIndex)
		return resp
	}

	latest, first := bars[len(bars)-1], bars[0]
	prevClose, ok := s.fetcher.PreviousClose(ctx, symbol)
	if !ok {
		prevClose = first.Close
	}

	price := latest.Close
	var change, changePercent float64
	if prevClose > 0 {
		change = price - prevClose
		changePercent = change / prevClose
	}

	high, low, volume := first.High, first.Low, 0.0
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
		volume += b.Volume
	}

	name := ticker.DisplayName(code, isIndex)
	exchange, fullExchange := exchangeOf(code, isIndex)

	resp.ShortName = name
	resp.LongName = name
	resp.RegularMarketPrice = price
	resp.RegularMarketChange = placeholder.Round(change, 4)
	resp.RegularMarketChangePercent = placeholder.Round(changePercent, 6)
	resp.RegularMarketDayHigh = high
	resp.RegularMarketDayLow = low
	resp.RegularMarketVolume = volume
	resp.RegularMarketOpen = first.Open
	resp.RegularMarketPreviousClose = prevClose
	resp.Exchange = exchange
	resp.FullExchangeName = fullExchange
	resp.AverageDailyVolume3Month = volume
	fillFiftyTwoWeek(resp, high, low)

	log.WithFields(logrus.Fields{"price": price, "change_percent": changePercent}).Info("报价组装完成")
	return resp
}

func exchangeOf(code string, isIndex bool) (string, string) {
	if isIndex {
		return ticker.Exchange(ticker.WithIndexPrefix(code))
	}
	return ticker.Exchange(code)
}

// fillFiftyTwoWeek 没有一年的日线时按当日高低价估算 52 周区间
func fillFiftyTwoWeek(resp *QuoteResponse, dayHigh, dayLow float64) {
	price := resp.RegularMarketPrice
	resp.FiftyTwoWeekLow = placeholder.Round2(dayLow * 0.9)
	resp.FiftyTwoWeekHigh = placeholder.Round2(dayHigh * 1.1)
	resp.FiftyTwoWeekLowChange = placeholder.Round(price-resp.FiftyTwoWeekLow, 4)
	resp.FiftyTwoWeekHighChange = placeholder.Round(price-resp.FiftyTwoWeekHigh, 4)
	if resp.FiftyTwoWeekLow != 0 {
		resp.FiftyTwoWeekLowChangePercent = placeholder.Round(resp.FiftyTwoWeekLowChange/resp.FiftyTwoWeekLow, 6)
	}
	if resp.FiftyTwoWeekHigh != 0 {
		resp.FiftyTwoWeekHighChangePercent = placeholder.Round(resp.FiftyTwoWeekHighChange/resp.FiftyTwoWeekHigh, 6)
	}
}

func fillOverseas(resp *QuoteResponse, q *core.Quote) {
	name := q.Name
	if name == "" {
		name = q.Symbol
	}
	resp.ShortName = name
	resp.LongName = name
	resp.RegularMarketPrice = q.Price
	resp.RegularMarketChange = q.Change
	resp.RegularMarketChangePercent = q.ChangePercent
	resp.RegularMarketDayHigh = q.High
	resp.RegularMarketDayLow = q.Low
	resp.RegularMarketVolume = q.Volume
	resp.RegularMarketOpen = q.Open
	resp.RegularMarketPreviousClose = q.PrevClose
	resp.Currency = q.Currency
	resp.Market = "us_market"
	resp.Region = "US"
	resp.Exchange = q.Exchange
	resp.FullExchangeName = q.Exchange
	resp.AverageDailyVolume3Month = q.Volume
	fillFiftyTwoWeek(resp, q.High, q.Low)
}

// fillNoData 按占位策略填充缺失的报价，三种策略都会标记 _no_data
func (s *Server) fillNoData(resp *QuoteResponse, code string, isIndex bool) {
	resp.NoData = true
	resp.ShortName = fmt.Sprintf("未找到 %s 的数据", code)

	switch s.placeholder.Policy() {
	case placeholder.PolicyRandom:
		q := s.placeholder.Quote(isIndex)
		resp.LongName = ticker.DisplayName(code, isIndex)
		resp.RegularMarketPrice = q.Price
		resp.RegularMarketChange = q.Change
		resp.RegularMarketChangePercent = q.ChangePercent
		resp.RegularMarketDayHigh = q.High
		resp.RegularMarketDayLow = q.Low
		resp.RegularMarketVolume = q.Volume
		resp.RegularMarketOpen = q.Open
		resp.RegularMarketPreviousClose = q.PrevClose
		resp.AverageDailyVolume3Month = q.Volume
		fillFiftyTwoWeek(resp, q.High, q.Low)
	case placeholder.PolicyError:
		resp.Error = fmt.Sprintf("%s: %s", core.ErrNoData, code)
	}
}

// rawValue 包装为 {"raw": v}
type rawValue struct {
	Raw float64 `json:"raw"`
}

// SummaryResponse quoteSummary 返回结构
type SummaryResponse struct {
	Error                string              `json:"error,omitempty"`
	SummaryDetail        map[string]rawValue `json:"summaryDetail"`
	DefaultKeyStatistics map[string]rawValue `json:"defaultKeyStatistics"`
	AssetProfile         map[string]string   `json:"assetProfile,omitempty"`
	Price                gin.H               `json:"price,omitempty"`
}

func summaryErrorResponse(msg string) interface{} {
	zero := rawValue{}
	return SummaryResponse{
		Error: "获取摘要失败: " + msg,
		SummaryDetail: map[string]rawValue{
			"marketCap": zero, "volume": zero, "averageVolume": zero,
			"regularMarketDayHigh": zero, "regularMarketDayLow": zero,
			"fiftyTwoWeekHigh": zero, "fiftyTwoWeekLow": zero,
		},
		DefaultKeyStatistics: map[string]rawValue{
			"enterpriseValue": zero, "forwardPE": zero, "trailingPE": zero, "pegRatio": zero,
		},
	}
}

func (s *Server) quoteSummary(c *gin.Context) {
	onPanic(c, summaryErrorResponse)

	ctx := c.Request.Context()
	symbol := c.Query("ticker")
	q := s.buildQuote(ctx, symbol)
	if q.NoData {
		c.JSON(http.StatusOK, buildSummary(&QuoteResponse{Currency: "CNY"}, "", "", "无可用数据"))
		return
	}

	// 个股补充市值、市盈率和行业，取不到时保持默认
	var trailingPE float64
	industry := "未知"
	code, isIndex := ticker.Normalize(symbol)
	if !isIndex && ticker.IsAShare(code) {
		if row, ok := s.spotRow(ctx, ticker.StripMarketPrefix(code)); ok {
			q.MarketCap = row.MarketCap
			trailingPE = row.PE
			if row.Sector != "" {
				industry = row.Sector
			}
		}
	}

	resp := buildSummary(q, industry, industry, "")
	resp.DefaultKeyStatistics["trailingPE"] = rawValue{trailingPE}
	c.JSON(http.StatusOK, resp)
}

func buildSummary(q *QuoteResponse, industry, sector, errMsg string) SummaryResponse {
	return SummaryResponse{
		Error: errMsg,
		SummaryDetail: map[string]rawValue{
			"marketCap":                  {q.MarketCap},
			"volume":                     {q.RegularMarketVolume},
			"averageVolume":              {q.AverageDailyVolume3Month},
			"regularMarketOpen":          {q.RegularMarketOpen},
			"regularMarketDayHigh":       {q.RegularMarketDayHigh},
			"regularMarketDayLow":        {q.RegularMarketDayLow},
			"regularMarketVolume":        {q.RegularMarketVolume},
			"regularMarketPreviousClose": {q.RegularMarketPreviousClose},
			"fiftyTwoWeekHigh":           {q.FiftyTwoWeekHigh},
			"fiftyTwoWeekLow":            {q.FiftyTwoWeekLow},
			"bid":                        {q.Bid},
			"ask":                        {q.Ask},
		},
		DefaultKeyStatistics: map[string]rawValue{
			"enterpriseValue": {q.MarketCap},
			"forwardPE":       {},
			"trailingPE":      {},
			"pegRatio":        {},
		},
		AssetProfile: map[string]string{
			"industry":            industry,
			"sector":              sector,
			"longBusinessSummary": "",
		},
		Price: gin.H{
			"regularMarketPrice":         rawValue{q.RegularMarketPrice},
			"regularMarketChange":        rawValue{q.RegularMarketChange},
			"regularMarketChangePercent": rawValue{q.RegularMarketChangePercent},
			"regularMarketDayHigh":       rawValue{q.RegularMarketDayHigh},
			"regularMarketDayLow":        rawValue{q.RegularMarketDayLow},
			"regularMarketVolume":        rawValue{q.RegularMarketVolume},
			"currency":                   q.Currency,
		},
	}
}

// spotRow 在全市场行情中查找单只股票
func (s *Server) spotRow(ctx context.Context, code string) (core.SpotRow, bool) {
	rows, err := s.fetcher.Spot(ctx)
	if err != nil {
		s.log.WithError(err).WithField("ticker", code).Debug("行情列表不可用")
		return core.SpotRow{}, false
	}
	for _, r := range rows {
		if r.Code == code {
			return r, true
		}
	}
	return core.SpotRow{}, false
}
