package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Anika-Jha/Eterna/internal/blob"
)

// multipartOverhead leaves room for form boundaries and headers.
const multipartOverhead = 64 << 10

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		writeMessage(w, http.StatusServiceUnavailable, "uploads are not configured", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	f, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "file too large", "file")
			return
		}
		writeMessage(w, http.StatusBadRequest, "multipart field \"file\" is required", "file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxUpload+1))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "could not read upload", "file")
		return
	}
	if int64(len(data)) > s.maxUpload {
		writeMessage(w, http.StatusRequestEntityTooLarge, "file too large", "file")
		return
	}

	contentType, ext, err := blob.DetectImage(data)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "only JPEG, PNG, GIF and WebP images are accepted", "file")
		return
	}

	key := blob.Key(data, ext)
	if _, err := s.blobs.Put(r.Context(), key, data, contentType); err != nil {
		s.logger.Error("store upload", "key", key, "err", err)
		writeMessage(w, http.StatusServiceUnavailable, "could not store upload", "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": s.blobs.URL(key), "key": key})
}

func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		http.NotFound(w, r)
		return
	}
	info, rc, err := s.blobs.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	// Keys are content hashes, so the bytes behind a URL never change.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	io.Copy(w, rc)
}
