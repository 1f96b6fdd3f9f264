package static

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
)

//go:embed static/*
var StaticFS embed.FS

// FileSystem returns the embedded assets rooted at the static directory,
// ready to be served under /static.
func FileSystem() http.FileSystem {
	sub, err := fs.Sub(StaticFS, "static")
	if err != nil {
		// the directory is embedded at build time, this cannot fail
		panic(fmt.Sprintf("static assets missing: %v", err))
	}
	return http.FS(sub)
}

// GetStylesheet reads and returns the application stylesheet from the embedded static files.
func GetStylesheet() ([]byte, error) {
	data, err := StaticFS.ReadFile("static/style.css")
	if err != nil {
		return nil, fmt.Errorf("failed to read stylesheet from embedded files: %w", err)
	}
	return data, nil
}
