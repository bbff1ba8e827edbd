// Package gcs stores profile images in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

// NewClient creates a storage client. With an empty credsPath, Application Default Credentials are used.
func NewClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var ErrUnsupportedImageType = apperror.InvalidValue("unsupported image type")

type ImageStore struct {
	client *storage.Client
	bucket string
}

func NewImageStore(client *storage.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket}
}

// Put uploads the image and returns the object name the user aggregate records.
func (s *ImageStore) Put(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	name, err := ObjectName(userID, contentType, uuid.NewString())
	if err != nil {
		return "", err
	}
	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // single request for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", apperror.Transient("upload image", err)
	}
	if err := wc.Close(); err != nil {
		return "", apperror.Transient("finalize image upload", err)
	}
	return name, nil
}

// URL is the public address of an object, assuming public read on the bucket.
func (s *ImageStore) URL(name string) string {
	return PublicURL(s.bucket, name)
}

// ObjectName places the image under avatars/<user id>/ with an extension derived from contentType.
func ObjectName(userID, contentType, unique string) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedImageType
	}
	return path.Join("avatars", userID, unique+ext), nil
}

func PublicURL(bucket, name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, name)
}
