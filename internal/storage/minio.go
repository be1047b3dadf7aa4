package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements Storage using a MinIO (or any S3-compatible) backend.
// It manages two buckets: a public one for profile pictures (anonymous read)
// and a private one for item images (access only via signed URLs).
type MinioStorage struct {
	client        *minio.Client
	publicBucket  string
	privateBucket string
	publicBase    string
}

// NewMinioStorage creates a MinIO client, ensures both buckets exist, applies
// an anonymous-read policy to the public bucket, and returns a ready-to-use
// MinioStorage.
func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool, publicBucket, privateBucket, publicBase string) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	for _, bucket := range []string{publicBucket, privateBucket} {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket existence: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
			}
			log.Printf("storage: created bucket %q", bucket)
		}
	}

	if err := client.SetBucketPolicy(ctx, publicBucket, publicReadPolicy(publicBucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return &MinioStorage{
		client:        client,
		publicBucket:  publicBucket,
		privateBucket: privateBucket,
		publicBase:    strings.TrimRight(publicBase, "/"),
	}, nil
}

// Upload streams reader to MinIO under bucket/key. size must be the exact byte
// count (pass -1 only if the size is genuinely unknown — MinIO will buffer it).
// An object already present at key is overwritten.
func (s *MinioStorage) Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// Delete removes the object at key from bucket. MinIO treats removal of an
// absent object as success, so callers never see an error for a missing key.
func (s *MinioStorage) Delete(ctx context.Context, bucket, key string) error {
	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

// PublicURL returns the browser-accessible URL for a key in the public bucket.
// Keys in the private bucket have no durable URL; use SignedURL for those.
func (s *MinioStorage) PublicURL(bucket, key string) (string, error) {
	if bucket != s.publicBucket {
		return "", fmt.Errorf("bucket %q has no public base URL", bucket)
	}
	return s.publicBase + "/" + key, nil
}

// SignedURL issues a presigned GET URL for bucket/key, valid for ttl from now.
// The URL is a snapshot: it is not renewed when the TTL elapses.
func (s *MinioStorage) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}
	return u.String(), nil
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
