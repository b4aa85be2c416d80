package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/zspirit/aihm-back/internal/config"
	"github.com/zspirit/aihm-back/internal/platform/logger"
)

// S3Store implements BlobStore against an S3-compatible endpoint.
type S3Store struct {
	client s3iface.S3API
	bucket string
	logger *slog.Logger
}

// Verify S3Store implements BlobStore.
var _ BlobStore = (*S3Store)(nil)

// NewS3Store builds an S3-backed blob store from the storage configuration.
// A non-empty Endpoint with ForcePathStyle set targets MinIO and other
// self-hosted S3 implementations.
func NewS3Store(cfg config.StorageConfig, log *slog.Logger) (*S3Store, error) {
	if log == nil {
		panic("logger cannot be nil")
	}

	awsCfg := aws.NewConfig().
		WithRegion(cfg.Region).
		WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating S3 session: %w", err)
	}

	return &S3Store{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		logger: log.With(slog.String("component", "s3_store")),
	}, nil
}

// Upload implements BlobStore.Upload.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		log.Error("failed to upload object",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("uploading object %s: %w", key, err)
	}

	log.Debug("object uploaded",
		slog.String("key", key),
		slog.Int("size_bytes", len(data)))
	return nil
}

// Download implements BlobStore.Download.
func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			log.Warn("object not found", slog.String("key", key))
			return nil, ErrObjectNotFound
		}
		log.Error("failed to download object",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("downloading object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

// Delete implements BlobStore.Delete.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error("failed to delete object",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("deleting object %s: %w", key, err)
	}

	log.Debug("object deleted", slog.String("key", key))
	return nil
}
