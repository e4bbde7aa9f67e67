package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStore публикует объекты в публичное хранилище.
type ObjectStore interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader) (*UploadResult, error)
	GetPublicURL(key string) string
}
