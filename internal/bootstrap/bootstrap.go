// Package bootstrap builds the logger, document store and object storage selected
// by configuration. It is shared by the API server and the catalogctl tool.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mediahub/catalog/internal/config"
	"github.com/mediahub/catalog/internal/db"
	"github.com/mediahub/catalog/internal/storage"
	"github.com/mediahub/catalog/internal/store"
	"github.com/mediahub/catalog/internal/store/memstore"
	"github.com/mediahub/catalog/internal/store/mongostore"
	"github.com/mediahub/catalog/internal/store/pgstore"
)

// NewLogger returns a JSON logger in production and a text logger otherwise.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// OpenStore connects the configured document store. Postgres migrations are
// applied before the store is returned.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.StoreMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StorePostgres:
		if err := db.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return pgstore.New(pool), nil
	case config.StoreMemory:
		logger.Warn("using in-memory document store; data is lost on exit")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// OpenStorage builds the configured object storage backend.
func OpenStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case config.StorageMinio:
		s, err := storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:   cfg.Endpoint,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			Bucket:     cfg.Bucket,
			PublicBase: cfg.PublicBase,
			UseSSL:     cfg.UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageS3:
		endpoint := cfg.Endpoint
		if endpoint != "" && !strings.Contains(endpoint, "://") {
			scheme := "http://"
			if cfg.UseSSL {
				scheme = "https://"
			}
			endpoint = scheme + endpoint
		}
		s, err := storage.NewS3Storage(ctx, storage.S3Config{
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			Endpoint:        endpoint,
			UsePathStyle:    cfg.UsePathStyle,
			PublicBase:      cfg.PublicBase,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageMemory:
		logger.Warn("using in-memory object storage; uploads are lost on exit")
		return storage.NewMemoryStorage(cfg.PublicBase), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
