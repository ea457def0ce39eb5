package server

import (
	"embed"
	"io/fs"
)

//go:embed public
var embedded embed.FS

// Public returns the static files served at the site root.
func Public() fs.FS {
	sub, err := fs.Sub(embedded, "public")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}
