// Package remote implements the object stores cloud sync pushes to and
// pulls from. Every backend stores opaque byte blobs under string keys.
package remote

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cryptforge/forge-studio/internal/config"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("remote object not found")

// Client is a remote object store.
type Client interface {
	// Put stores data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the object under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Name identifies the backend in logs.
	Name() string
	Close() error
}

// Open connects to the backend selected by cfg. dataPath is the local data
// directory, used for the default sqlite location.
func Open(ctx context.Context, cfg config.CloudConfig, dataPath string) (Client, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemory(), nil
	case config.BackendMinio:
		return NewMinio(MinioOptions{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
		})
	case config.BackendS3:
		return NewS3(ctx, S3Options{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	case config.BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(dataPath, "remote.db")
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown cloud backend %q", cfg.Backend)
	}
}
