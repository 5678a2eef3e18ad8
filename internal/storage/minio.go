package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/koe-app/koe/internal/config"
	"github.com/koe-app/koe/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIOClient connects to the configured bucket. Objects are served from
// PublicURL when set, otherwise from the endpoint itself.
func NewMinIOClient(cfg config.StorageConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinIOClient{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (m *MinIOClient) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, name, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		logger.Error().Err(err).
			Str("object_name", name).
			Int64("size", size).
			Str("bucket", m.bucket).
			Msg("logo upload failed")
		return "", fmt.Errorf("upload %s: %w", name, err)
	}

	logger.Info().
		Str("object_name", name).
		Int64("size", size).
		Str("content_type", contentType).
		Msg("logo uploaded")
	return m.publicURL + "/" + name, nil
}
