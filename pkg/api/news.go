package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/core"
	"stockapi/pkg/provider"
)

const maxNewsCount = 100

// NewsResponse 快讯接口返回结构
type NewsResponse struct {
	Items  []core.NewsItem `json:"items"`
	Source string          `json:"source"`
	Error  string          `json:"error,omitempty"`
}

// news 快讯列表，未识别的 source 按新浪处理，count 限制在 1 到 100
func (s *Server) news(c *gin.Context) {
	source := provider.ResolveNewsSource(c.Query("source"))
	onPanic(c, func(msg string) interface{} {
		return NewsResponse{Items: []core.NewsItem{}, Source: source, Error: "获取数据失败: " + msg}
	})

	count := clamp(queryInt(c, "count", 30), 1, maxNewsCount)
	page := queryInt(c, "page", 1)
	log := s.log.WithFields(logrus.Fields{"source": source, "count": count, "page": page})

	items, err := s.fetcher.News(c.Request.Context(), source, count, page)
	if err != nil {
		log.WithError(err).Error("获取快讯失败")
		c.JSON(http.StatusOK, NewsResponse{Items: []core.NewsItem{}, Source: source, Error: "获取数据失败: " + err.Error()})
		return
	}

	resp := NewsResponse{Items: items, Source: source}
	if len(items) == 0 {
		resp.Items = []core.NewsItem{}
		resp.Error = fmt.Sprintf("未能获取到%s的快讯数据", source)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) newsCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": provider.NewsSources()})
}
