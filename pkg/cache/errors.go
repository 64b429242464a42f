package cache

import (
	"stockapi/pkg/core"
)

// CacheError 缓存相关错误
type CacheError struct {
	core.BaseError
}

const (
	// ErrCacheMiss 表示在缓存中未找到请求的条目。
	ErrCacheMiss core.ErrorCode = "CACHE_MISS"
	// ErrCacheCorrupted 表示缓存文件无法解析。
	ErrCacheCorrupted core.ErrorCode = "CACHE_CORRUPTED"
	// ErrCacheWrite 表示缓存文件写入失败。
	ErrCacheWrite core.ErrorCode = "CACHE_WRITE"
)

// NewCacheError 创建缓存错误
func NewCacheError(code core.ErrorCode, message string, cause error) *CacheError {
	return &CacheError{
		BaseError: *core.WrapError(code, message, cause),
	}
}
