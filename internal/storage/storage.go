package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is a single bucket of opaque blobs addressed by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the object's bytes and content type.
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
	BucketExists(ctx context.Context) (bool, error)
	CreateBucket(ctx context.Context) error
}

// EnsureBucket creates the store's bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, store ObjectStore, logger *logrus.Logger) error {
	ok, err := store.BucketExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if ok {
		return nil
	}
	if err := store.CreateBucket(ctx); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	logger.Info("Created avatar bucket")
	return nil
}
