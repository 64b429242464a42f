package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/history"
	"stockapi/pkg/ticker"
)

// HistoryResponse 历史行情接口返回结构
type HistoryResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Count   int         `json:"count"`
	Data    interface{} `json:"data"`
}

func historyErrorResponse(msg string) interface{} {
	return HistoryResponse{Message: "获取历史数据失败: " + msg, Data: []interface{}{}}
}

// stockHistory 个股历史行情，indicators 只在日线下生效
func (s *Server) stockHistory(c *gin.Context) {
	onPanic(c, historyErrorResponse)

	symbol := c.Query("ticker")
	code, _ := ticker.Normalize(symbol)
	q := history.Query{
		Ticker:    code,
		Period:    queryOr(c, "period", "daily"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Adjust:    c.Query("adjust"),
		UseCache:  queryBool(c, "use_cache", true),
	}
	withIndicators := queryBool(c, "indicators", false) && q.Period == "daily"

	s.log.WithFields(logrus.Fields{
		"ticker":     code,
		"period":     q.Period,
		"adjust":     q.Adjust,
		"indicators": withIndicators,
	}).Info("查询历史行情")

	var data interface{}
	var count int
	if withIndicators {
		rows := s.history.GetStockDailyIndicators(c.Request.Context(), q)
		data, count = rows, len(rows)
	} else {
		rows := s.history.GetStockHistory(c.Request.Context(), q)
		data, count = rows, len(rows)
	}

	if count == 0 {
		c.JSON(http.StatusOK, HistoryResponse{
			Message: fmt.Sprintf("未找到股票 %s 的历史数据", symbol),
			Data:    []interface{}{},
		})
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{Success: true, Message: "获取历史数据成功", Count: count, Data: data})
}

// clearHistoryCache 清除历史缓存。指定 ticker 时同时清除其昨收价缓存，不指定时清除全部历史缓存。
func (s *Server) clearHistoryCache(c *gin.Context) {
	symbol := c.Query("ticker")
	target := "所有"
	code := ""
	if symbol != "" {
		code, _ = ticker.Normalize(symbol)
		target = symbol + "的"
	}
	onPanic(c, func(msg string) interface{} {
		return gin.H{"success": false, "message": fmt.Sprintf("清除%s历史数据缓存失败: %s", target, msg)}
	})

	log := s.log.WithField("ticker", code)
	removed, err := s.historyCache.ClearCache(code, "", "")
	if err != nil {
		log.WithError(err).Error("清除历史缓存失败")
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": fmt.Sprintf("清除%s历史数据缓存失败: %v", target, err),
		})
		return
	}

	if code != "" && s.quoteCache != nil {
		n, err := s.quoteCache.ClearCache(code)
		if err != nil {
			log.WithError(err).Warn("清除昨收价缓存失败")
		}
		removed += n
	}

	log.WithField("removed", removed).Info("缓存已清除")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("成功清除%s历史数据缓存", target),
		"removed": removed,
	})
}
