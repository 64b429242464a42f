package storage

import (
	"stockapi/pkg/core"
)

const (
	// ErrStorageIO 表示发生了存储I/O错误。
	ErrStorageIO core.ErrorCode = "STORAGE_IO"
	// ErrSerializeFailed 表示序列化操作失败。
	ErrSerializeFailed core.ErrorCode = "SERIALIZE_FAILED"
	// ErrDeserializeFailed 表示反序列化操作失败。
	ErrDeserializeFailed core.ErrorCode = "DESERIALIZE_FAILED"
	// ErrResourceClosed 表示尝试访问已关闭的资源。
	ErrResourceClosed core.ErrorCode = "RESOURCE_CLOSED"
)

type StorageError struct {
	core.BaseError
}

func NewStorageError(code core.ErrorCode, message string, cause error) *StorageError {
	return &StorageError{
		BaseError: *core.WrapError(code, message, cause),
	}
}
