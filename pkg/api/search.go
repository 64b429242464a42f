package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/ticker"
)

// SearchQuote 搜索命中的代码
type SearchQuote struct {
	Symbol         string `json:"symbol"`
	ShortName      string `json:"shortname"`
	Exchange       string `json:"exchange"`
	QuoteType      string `json:"quoteType"`
	IsYahooFinance bool   `json:"isYahooFinance"`
}

// SearchNews 第一个命中代码的相关新闻
type SearchNews struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Publisher   string `json:"publisher"`
	PublishTime string `json:"publish_time"`
}

// SearchResponse 搜索接口返回结构
type SearchResponse struct {
	Quotes    []SearchQuote `json:"quotes"`
	News      []SearchNews  `json:"news"`
	Count     int           `json:"count"`
	TotalTime int64         `json:"totalTime"`
	Error     string        `json:"error,omitempty"`
}

func searchErrorResponse(msg string) interface{} {
	return SearchResponse{Quotes: []SearchQuote{}, News: []SearchNews{}, Error: "Failed to fetch stock search: " + msg}
}

// search 代码或名称搜索，附带第一个结果的新闻。
// quotes_count 小于 0 或缺省时返回全部命中，totalTime 为耗时毫秒数。
func (s *Server) search(c *gin.Context) {
	onPanic(c, searchErrorResponse)

	start := time.Now()
	ctx := c.Request.Context()
	query := c.Query("ticker")
	quotesCount := queryInt(c, "quotes_count", -1)
	newsCount := queryInt(c, "news_count", 5)
	log := s.log.WithFields(logrus.Fields{"ticker": query, "quotes_count": quotesCount, "news_count": newsCount})

	matches, err := s.fetcher.Search(ctx, query)
	if err != nil {
		log.WithError(err).Warn("搜索失败")
		c.JSON(http.StatusOK, searchErrorResponse(err.Error()))
		return
	}

	resp := SearchResponse{Quotes: []SearchQuote{}, News: []SearchNews{}}
	for i, m := range matches {
		if quotesCount >= 0 && i >= quotesCount {
			break
		}
		resp.Quotes = append(resp.Quotes, SearchQuote{
			Symbol:         m.Symbol,
			ShortName:      m.Name,
			Exchange:       m.Exchange,
			QuoteType:      m.QuoteType,
			IsYahooFinance: true,
		})
	}

	if len(resp.Quotes) > 0 && newsCount > 0 {
		code := strings.TrimPrefix(resp.Quotes[0].Symbol, ticker.IndexMarker)
		items, err := s.fetcher.StockNews(ctx, code, newsCount)
		if err != nil {
			log.WithError(err).WithField("ticker", code).Warn("获取相关新闻失败")
		}
		for _, n := range items {
			resp.News = append(resp.News, SearchNews{
				Title:       n.Title,
				Link:        n.URL,
				Publisher:   n.Publisher,
				PublishTime: n.Time,
			})
		}
	}

	resp.Count = len(resp.Quotes)
	resp.TotalTime = time.Since(start).Milliseconds()
	c.JSON(http.StatusOK, resp)
}
