// Package site serves the static assets shared by the marketing pages: the
// footer loader script and the footer fragment it injects.
package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Handler serves the embedded assets at their path under static/, e.g.
// /footer.html and /js/load-footer.js.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// static/ is embedded at build time; Sub only fails on a bad pattern.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
