package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// spaHandler serves the static gallery with single-page-app fallback: any
// path not matching a real file returns index.html.
func (s *Server) spaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if st, err := fs.Stat(s.static, path); err != nil || st.IsDir() {
			path = "index.html"
		}
		if _, err := fs.Stat(s.static, path); err != nil {
			http.NotFound(w, r)
			return
		}

		http.ServeFileFS(w, r, s.static, path)
	}
}
