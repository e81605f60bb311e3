//go:build dev

// Package static serves console assets from the working tree so style
// changes land without a rebuild.
package static

import "net/http"

// Handler serves assets from the source directory.
func Handler() http.Handler {
	return http.FileServer(http.Dir("./internal/web/static"))
}
