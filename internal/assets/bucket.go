package assets

import (
	"context"
	"fmt"
	"strings"

	"leadedge_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketSource reads files from a MinIO (S3-compatible) bucket. Object keys
// are request paths without the leading slash.
type BucketSource struct {
	client *minio.Client
	bucket string
}

// NewBucketSource connects to the configured MinIO endpoint.
func NewBucketSource(cfg config.MinIOConfig, bucket string) (*BucketSource, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &BucketSource{client: client, bucket: bucket}, nil
}

func (s *BucketSource) Open(ctx context.Context, name string) (*File, error) {
	key := strings.TrimPrefix(name, "/")

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return &File{Body: obj, Size: info.Size, ContentType: info.ContentType}, nil
}
