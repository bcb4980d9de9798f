package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/usecase"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL prefixes every public object URL, without a trailing slash.
	PublicBaseURL string
}

// S3Storage stores listing images in a MinIO or S3 compatible bucket.
type S3Storage struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *logger.Logger
}

// NewS3Storage connects to the object store and makes sure the bucket exists.
// A newly created bucket is made publicly readable.
func NewS3Storage(ctx context.Context, opts Options, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing S3 MinIO Storage",
		zap.String("endpoint", opts.Endpoint), zap.String("bucket", opts.Bucket), zap.Bool("use_ssl", opts.UseSSL))

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", opts.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to make bucket %s: %w", opts.Bucket, err)
		}
		if err := client.SetBucketPolicy(ctx, opts.Bucket, fmt.Sprintf(publicReadPolicy, opts.Bucket)); err != nil {
			return nil, fmt.Errorf("failed to set public policy on bucket %s: %w", opts.Bucket, err)
		}
		log.Info("S3Storage: bucket created", zap.String("bucket", opts.Bucket))
	}

	return &S3Storage{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		logger:  log,
	}, nil
}

// Put writes data at path, replacing any existing object.
func (s *S3Storage) Put(ctx context.Context, path string, data []byte, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=3600",
	})
	if err != nil {
		s.logger.Error("S3Storage.Put: PutObject failed", zap.String("bucket", s.bucket), zap.String("key", path), zap.Error(err))
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", path, s.bucket, err)
	}
	s.logger.Debug("S3Storage.Put: object stored",
		zap.String("key", info.Key), zap.String("etag", info.ETag), zap.Int64("size", info.Size))
	return nil
}

// Delete removes the object at path. Removing a missing object is not an error.
func (s *S3Storage) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

func (s *S3Storage) PublicURL(path string) string {
	return s.baseURL + "/" + path
}

// List returns every object stored under prefix.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]usecase.ObjectInfo, error) {
	objectsCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var objects []usecase.ObjectInfo
	for object := range objectsCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
		}
		objects = append(objects, usecase.ObjectInfo{Key: object.Key, LastModified: object.LastModified})
	}
	return objects, nil
}
