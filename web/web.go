// Package web holds the HTML templates and static assets served by repo-finder.
// They are embedded so the binary runs from any working directory.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var Templates embed.FS

//go:embed static
var static embed.FS

// Static returns the static asset tree rooted at web/static.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// fs.Sub only fails on an invalid path, and "static" is a literal.
		panic(err)
	}
	return sub
}
