package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrForeignURL marks an image URL that does not point at an object this service owns.
	ErrForeignURL = errors.New("image url is not hosted by this service")
	// ErrUnsupportedType is returned for uploads that are not images.
	ErrUnsupportedType = errors.New("only image uploads are supported")
	// ErrNotConfigured is returned when no bucket has been configured.
	ErrNotConfigured = errors.New("storage service not configured")
)

type ObjectInfo struct {
	Key          string
	URL          string
	Size         int64
	LastModified *time.Time
}

// Service talks to remote object storage.
type Service interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}
