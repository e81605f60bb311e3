//go:build !dev

// Package static embeds the console stylesheet and chat panel script.
package static

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
)

//go:embed css/*.css js/*.js
var assetsFS embed.FS

// Handler serves the embedded assets. The sub-filesystem call cannot
// fail for embedded content; a panic here means a broken build.
func Handler() http.Handler {
	sub, err := fs.Sub(assetsFS, ".")
	if err != nil {
		panic(fmt.Sprintf("static: broken embedded filesystem: %v", err))
	}
	return http.FileServer(http.FS(sub))
}
