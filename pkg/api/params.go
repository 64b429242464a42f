package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// queryInt 读取整数参数，缺失或无法解析时返回 def
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return def
	}
	return v
}

// queryBool 读取布尔参数，接受 true/false/1/0
func queryBool(c *gin.Context, key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return def
	}
	return v
}

func queryOr(c *gin.Context, key, def string) string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return v
	}
	return def
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
