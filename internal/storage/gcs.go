package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
)

// GCSStore stages audio in a Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
	log    zerolog.Logger
}

// NewGCSStore wraps a shared Cloud Storage client.
func NewGCSStore(client *gcs.Client, bucket string, log zerolog.Logger) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: bucket,
		log:    log.With().Str("component", "gcs-store").Logger(),
	}
}

// CheckBucket verifies the bucket exists and credentials can reach it.
func (s *GCSStore) CheckBucket(ctx context.Context) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	return err
}

func (s *GCSStore) Upload(ctx context.Context, key, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "audio/wav"
	n, err := io.Copy(w, f)
	if err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	// Close commits the object; errors from the final request surface here.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.log.Debug().Str("key", key).Int64("bytes", n).Msg("staged object uploaded")
	return s.URI(key), nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	return s.client.Bucket(s.bucket).Object(key).Delete(ctx)
}

func (s *GCSStore) Type() string { return "gcs" }

// URI returns the gs:// reference the speech API reads from.
func (s *GCSStore) URI(key string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, key)
}
