package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/platform/blobstore"
)

// newFileStore chains the configured object store, when there is one, in
// front of the local upload directory.
func newFileStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*blobstore.Fallback, error) {
	var stores []blobstore.Store

	if cfg.S3Enabled() {
		s3, err := blobstore.NewMinioStore(blobstore.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		bctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = s3.EnsureBucket(bctx)
		cancel()
		if err != nil {
			// Uploads still succeed through the local store.
			logger.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("object storage unavailable at startup")
		}
		stores = append(stores, s3)
	}

	local, err := blobstore.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	stores = append(stores, local)

	return blobstore.NewFallback(logger, stores...), nil
}
