package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves the client's static build and falls back to index.html
// for any unmatched route, so browser-side routing keeps working on deep
// links.
func SPAHandler(staticDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(staticDir))
	index := filepath.Join(staticDir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		path := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() && !strings.Contains(r.URL.Path, "..") {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
