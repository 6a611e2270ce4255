package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Kind is the top-level key prefix of an object.
type Kind string

const (
	KindListing Kind = "listings"
	KindAvatar  Kind = "avatars"
)

var ErrUnsupportedType = errors.New("storage: unsupported content type")

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store keeps uploaded images in an S3 compatible bucket.
type Store struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

func New(ctx context.Context, o Options, l *zap.Logger) (*Store, error) {
	if l == nil {
		l = zap.NewNop()
	}
	client, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client %s: %w", o.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", o.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", o.Bucket, err)
		}
		l.Info("storage: bucket created", zap.String("bucket", o.Bucket))
	}
	return &Store{client: client, bucket: o.Bucket, log: l}, nil
}

// ObjectKey builds kind/ownerID/<uuid><ext>. The extension follows the
// content type; the original file name is only a fallback.
func ObjectKey(kind Kind, ownerID, filename, contentType string) (string, error) {
	ext, ok := imageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if e := strings.ToLower(filepath.Ext(filename)); e == ".jpeg" || e == ext {
		ext = e
	}
	return fmt.Sprintf("%s/%s/%s%s", kind, ownerID, uuid.NewString(), ext), nil
}

// Replace uploads r under a fresh key and then removes prevKey, if any.
func (s *Store) Replace(ctx context.Context, kind Kind, ownerID, filename, contentType string, r io.Reader, size int64, prevKey string) (string, error) {
	key, err := ObjectKey(kind, ownerID, filename, contentType)
	if err != nil {
		return "", err
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	if prevKey != "" && prevKey != key {
		if err := s.Delete(ctx, prevKey); err != nil {
			// the new object is already referenced; a stale one is only garbage
			s.log.Warn("storage: remove previous object", zap.String("key", prevKey), zap.Error(err))
		}
	}
	s.log.Debug("storage: object stored", zap.String("key", key), zap.Int64("size", size))
	return key, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}
