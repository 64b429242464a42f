package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/core"
	"stockapi/pkg/placeholder"
	"stockapi/pkg/ticker"
	"stockapi/pkg/timing"
)

// ChartResponse 图表数据
type ChartResponse struct {
	Ticker   string     `json:"ticker"`
	Quotes   []core.Bar `json:"quotes"`
	Currency string     `json:"currency"`
	Error    *string    `json:"error"`
	NoData   bool       `json:"_no_data,omitempty"`
}

func chartErrorResponse(symbol string) func(string) interface{} {
	return func(msg string) interface{} {
		return ChartResponse{Ticker: symbol, Quotes: []core.Bar{}, Currency: "CNY", Error: &msg, NoData: true}
	}
}

// chart 分钟级 interval 走分时接口，其余按 range 换算窗口后取指数或个股K线
func (s *Server) chart(c *gin.Context) {
	symbol := c.Query("ticker")
	rangeStr := queryOr(c, "range", "1d")
	interval := queryOr(c, "interval", "1m")
	onPanic(c, chartErrorResponse(symbol))

	ctx := c.Request.Context()
	code, isIndex := ticker.Normalize(symbol)
	window := timing.RangeWindow(s.clock.Now(), rangeStr)
	log := s.log.WithFields(logrus.Fields{"ticker": symbol, "range": rangeStr, "interval": interval})

	var bars []core.Bar
	switch {
	case timing.IsIntraday(interval) && (isIndex || ticker.IsAShare(code)):
		bars = s.fetcher.RealtimeMinute(ctx, symbol, interval)
	case isIndex:
		bars = s.fetcher.IndexDaily(ctx, code,
			window.Start.Format(timing.CompactDateLayout), window.End.Format(timing.CompactDateLayout), window.Period)
	case ticker.IsAShare(code):
		bars = s.fetcher.StockDaily(ctx, code,
			window.Start.Format(timing.CompactDateLayout), window.End.Format(timing.CompactDateLayout), window.Period, "")
	}

	resp := ChartResponse{Ticker: symbol, Quotes: bars, Currency: "CNY"}
	if len(bars) == 0 {
		log.Info("无图表数据，按占位策略处理")
		resp.Quotes = s.placeholder.Chart(window.Start, window.End, interval, isIndex)
		resp.NoData = true
		if s.placeholder.Policy() == placeholder.PolicyError {
			msg := fmt.Sprintf("%s: %s", core.ErrNoData, symbol)
			resp.Error = &msg
		}
	}
	c.JSON(http.StatusOK, resp)
}
