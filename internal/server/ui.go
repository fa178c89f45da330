package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// uiFS holds the embedded web UI. Set via SetUI before creating the server.
var uiFS fs.FS

// SetUI installs the embedded filesystem the web UI is served from.
func SetUI(fsys fs.FS) {
	uiFS = fsys
}

// spaHandler serves the embedded UI with single-page-app fallback: any
// path that is not a real file gets index.html.
func spaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if uiFS == nil {
			http.Error(w, "web UI not embedded in this build", http.StatusNotFound)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		f, err := uiFS.Open(path)
		if err != nil {
			path = "index.html"
		} else {
			f.Close()
		}

		http.ServeFileFS(w, r, uiFS, path)
	}
}
