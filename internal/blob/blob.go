// Package blob stores uploaded artifact images under content-addressed keys.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Anika-Jha/Eterna/internal/config"
)

var (
	// ErrNotFound is returned by Get for an unknown key.
	ErrNotFound = errors.New("blob not found")
	// ErrNotImage is returned by DetectImage for non-image payloads.
	ErrNotImage = errors.New("not a supported image")
)

// Info describes a stored object.
type Info struct {
	Key         string
	ContentType string
	Size        int64
}

// Store is an image object store.
type Store interface {
	// Put stores data under key. Storing an existing key is a no-op.
	Put(ctx context.Context, key string, data []byte, contentType string) (Info, error)
	// Get opens the object under key. The caller closes the reader.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// URL is the address clients use to fetch key.
	URL(key string) string
}

// imageTypes maps sniffed content types to the extension used in keys.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs data and returns its content type and key extension.
func DetectImage(data []byte) (contentType, ext string, err error) {
	ct := http.DetectContentType(data)
	ext, ok := imageTypes[ct]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrNotImage, ct)
	}
	return ct, ext, nil
}

// Key derives the content-addressed key for data: hex sha256 plus ext.
func Key(data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + ext
}

// contentTypeFor guesses a content type from a key's extension.
func contentTypeFor(key string) string {
	for ct, ext := range imageTypes {
		if strings.HasSuffix(key, ext) {
			return ct
		}
	}
	return "application/octet-stream"
}

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Driver {
	case "", "fs":
		return NewFS(cfg.Dir, cfg.PublicBaseURL)
	case "s3":
		return NewS3(ctx, cfg.S3, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
