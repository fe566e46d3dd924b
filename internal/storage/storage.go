package storage

import (
	"context"
)

// ObjectStore stages large audio payloads where the speech service can read them.
type ObjectStore interface {
	// Upload copies the local file to key and returns a URI the speech
	// service accepts (gs://bucket/key).
	Upload(ctx context.Context, key, localPath string) (string, error)

	// Delete removes the object. Callers treat failures as best-effort.
	Delete(ctx context.Context, key string) error

	// Type returns "gcs" or a test double name.
	Type() string
}
