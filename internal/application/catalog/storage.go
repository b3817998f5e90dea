package catalog

import (
	"context"
	"time"
)

// ObjectStorage stores product images outside the database. Clients upload
// directly to a presigned URL; the service only hands out URLs and keys.
type ObjectStorage interface {
	// GenerateUploadURL returns a presigned PUT URL for key. A zero expiresIn
	// uses the storage default.
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (url string, expiresAt time.Time, err error)

	// ObjectExists reports whether key has been uploaded
	ObjectExists(ctx context.Context, key string) (bool, error)

	// DeleteObject removes key. Missing keys are not an error.
	DeleteObject(ctx context.Context, key string) error

	// ObjectURL returns the public URL of key
	ObjectURL(key string) string
}

// allowedImageTypes maps accepted upload content types to file extensions
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}
