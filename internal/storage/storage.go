package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Zarakkhan-dev/automated-review-system/pkg/slug"
)

// Storage holds uploaded product images.
type Storage interface {
	// Upload stores an object and returns its key and public URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for key.
	GetURL(ctx context.Context, key string) (string, error)
}

type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

type UploadResult struct {
	Key string
	URL string
}

// ProductImageKey builds a unique object key such as
// "products/6f1c...-espresso-machine.jpg".
func ProductImageKey(productName, filename string) string {
	key := "products/" + uuid.NewString()
	if s := slug.Generate(productName, 48); s != "" {
		key += "-" + s
	}
	return key + strings.ToLower(filepath.Ext(filename))
}
