// Package web embeds the HTML templates and static assets of the blog.
package web

import (
	"embed"
	"io/fs"

	"github.com/go-extras/go-kit/must"
)

//go:embed templates static
var files embed.FS

var (
	// Templates holds layout.html and one file per page.
	Templates = must.Must(fs.Sub(files, "templates"))
	// Static is served under /static/.
	Static = must.Must(fs.Sub(files, "static"))
)
