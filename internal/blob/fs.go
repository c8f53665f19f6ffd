package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPublicPath is where the HTTP server mounts local uploads.
const DefaultPublicPath = "/uploads"

// FS stores objects as files under a root directory.
type FS struct {
	root      string
	publicURL string
}

// DefaultDir returns ~/.eterna/uploads.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".eterna", "uploads")
	}
	return filepath.Join(home, ".eterna", "uploads")
}

// NewFS returns a filesystem store rooted at root, creating it if needed.
func NewFS(root, publicURL string) (*FS, error) {
	if root == "" {
		root = DefaultDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if publicURL == "" {
		publicURL = DefaultPublicPath
	}
	return &FS{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// sanitizeKey rejects keys that could escape the root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty key")
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return key, nil
}

func (s *FS) Put(ctx context.Context, key string, data []byte, contentType string) (Info, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	path := filepath.Join(s.root, k)
	info := Info{Key: k, ContentType: contentType, Size: int64(len(data))}
	if _, err := os.Stat(path); err == nil {
		return info, nil
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return Info{}, fmt.Errorf("put %s: %w", k, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Info{}, fmt.Errorf("put %s: %w", k, err)
	}
	if err := tmp.Close(); err != nil {
		return Info{}, fmt.Errorf("put %s: %w", k, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Info{}, fmt.Errorf("put %s: %w", k, err)
	}
	return info, nil
}

func (s *FS) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return Info{}, nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	f, err := os.Open(filepath.Join(s.root, k))
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil, fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	if err != nil {
		return Info{}, nil, fmt.Errorf("get %s: %w", k, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return Info{}, nil, fmt.Errorf("stat %s: %w", k, err)
	}
	return Info{Key: k, ContentType: contentTypeFor(k), Size: st.Size()}, f, nil
}

func (s *FS) URL(key string) string {
	return s.publicURL + "/" + key
}
