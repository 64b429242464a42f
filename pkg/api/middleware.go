package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	// fallbackKey 处理函数在 gin.Context 中登记的异常兜底响应
	fallbackKey = "fallback_payload"
)

// requestIDMiddleware 沿用客户端传入的请求 ID，否则生成一个
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := s.log.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("request completed with errors")
			return
		}
		entry.Info("request completed")
	}
}

// recoveryMiddleware 处理函数 panic 时返回该接口登记的兜底响应，状态码仍为 200
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			msg := fmt.Sprint(r)
			s.log.WithFields(logrus.Fields{
				"request_id": c.GetString(requestIDKey),
				"path":       c.Request.URL.Path,
				"panic":      msg,
			}).Error("handler panic recovered")

			if build, ok := c.Get(fallbackKey); ok {
				if fn, ok := build.(func(string) interface{}); ok {
					c.AbortWithStatusJSON(http.StatusOK, fn(msg))
					return
				}
			}
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"error": msg, "_error": msg, "_no_data": true})
		}()
		c.Next()
	}
}

// onPanic 登记当前请求 panic 时的兜底响应
func onPanic(c *gin.Context, build func(msg string) interface{}) {
	c.Set(fallbackKey, build)
}

func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
