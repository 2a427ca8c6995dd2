// Package storage defines the object-store surface used to publish
// pipeline output files.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Publisher uploads finished output files under a stable key.
type Publisher interface {
	PublishFile(ctx context.Context, localPath, key string) (ObjectInfo, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}
