// Package storage keeps user avatars in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/plank-dev/plank/internal/config"
)

const MaxAvatarSize = 5 << 20

// AvatarStore saves an uploaded image and returns the URL clients load it from.
type AvatarStore interface {
	PutAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (string, error)
}

type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects to the bucket and creates it when missing.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (s *MinioStore) PutAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (string, error) {
	object := AvatarObjectName(userID, filename)

	_, err := s.client.PutObject(ctx, s.bucket, object, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading avatar: %w", err)
	}

	return s.publicURL + "/" + object, nil
}

// AvatarObjectName is avatars/<user id>/<random><ext>; a fresh name per
// upload keeps cached copies of the previous image from being served.
func AvatarObjectName(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("avatars", userID, uuid.NewString()+ext)
}

// AllowedImageType reports whether contentType may be stored as an avatar.
func AllowedImageType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return true
	}
	return false
}
