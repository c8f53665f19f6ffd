package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Anika-Jha/Eterna/internal/config"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDetectImage(t *testing.T) {
	ct, ext, err := DetectImage(pngHeader)
	if err != nil || ct != "image/png" || ext != ".png" {
		t.Errorf("DetectImage(png) = %q %q %v", ct, ext, err)
	}

	_, _, err = DetectImage([]byte("<html><body>hi</body></html>"))
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("html: err = %v, want ErrNotImage", err)
	}
}

func TestKeyIsContentAddressed(t *testing.T) {
	a := Key([]byte("same"), ".png")
	b := Key([]byte("same"), ".png")
	c := Key([]byte("other"), ".png")
	if a != b {
		t.Errorf("same bytes gave %q and %q", a, b)
	}
	if a == c {
		t.Error("different bytes gave the same key")
	}
	if !strings.HasSuffix(a, ".png") || len(a) != 64+4 {
		t.Errorf("key = %q", a)
	}
}

func TestFSPutGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir, "")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ctx := context.Background()
	key := Key(pngHeader, ".png")

	info, err := s.Put(ctx, key, pngHeader, "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != int64(len(pngHeader)) {
		t.Errorf("size = %d", info.Size)
	}
	// Second put of the same content is a no-op.
	if _, err := s.Put(ctx, key, pngHeader, "image/png"); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}

	got, rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if !bytes.Equal(body, pngHeader) || got.ContentType != "image/png" {
		t.Errorf("Get = %+v %q", got, body)
	}

	if url := s.URL(key); url != "/uploads/"+key {
		t.Errorf("URL = %q", url)
	}
}

func TestFSRejectsTraversal(t *testing.T) {
	s, err := NewFS(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "../x.png", "a/b.png", `a\b.png`} {
		if _, err := s.Put(ctx, key, pngHeader, "image/png"); err == nil {
			t.Errorf("Put(%q) succeeded", key)
		}
		if _, _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) err = %v, want ErrNotFound", key, err)
		}
	}
}

func TestFSGetMissing(t *testing.T) {
	s, err := NewFS(filepath.Join(t.TempDir(), "nested"), "https://cdn.example.com/img/")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if _, _, err := s.Get(context.Background(), "nope.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if url := s.URL("k.png"); url != "https://cdn.example.com/img/k.png" {
		t.Errorf("URL = %q", url)
	}
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := New(context.Background(), config.BlobConfig{Driver: "fs", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New(fs): %v", err)
	}
	if _, ok := s.(*FS); !ok {
		t.Errorf("got %T, want *FS", s)
	}

	if _, err := New(context.Background(), config.BlobConfig{Driver: "gcs"}); err == nil {
		t.Error("unknown driver accepted")
	}
	if _, err := New(context.Background(), config.BlobConfig{Driver: "s3"}); err == nil {
		t.Error("s3 without bucket accepted")
	}
}
