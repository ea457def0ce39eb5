package middleware

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// Static serves files from fsys for GET and HEAD requests whose path names
// an existing file. Anything else falls through to the next handler.
// A request for an index file is answered in place, not redirected to its
// directory.
func Static(fsys fs.FS) gin.HandlerFunc {
	serve := static.Serve("/", fileSystem{FileSystem: http.FS(fsys), fsys: fsys})

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			return
		}

		dir, ok := strings.CutSuffix(c.Request.URL.Path, "/"+indexFile)
		if !ok {
			serve(c)
			return
		}

		orig := c.Request
		c.Request = orig.Clone(orig.Context())
		c.Request.URL.Path = dir + "/"
		c.Request.URL.RawPath = ""
		serve(c)
		c.Request = orig
	}
}

// fileSystem adapts an fs.FS to static.ServeFileSystem.
type fileSystem struct {
	http.FileSystem
	fsys fs.FS
}

// Exists reports whether urlPath names a file, or a directory holding an
// index.html.
func (f fileSystem) Exists(prefix, urlPath string) bool {
	name := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(urlPath, prefix)), "/")
	if name == "" {
		name = "."
	}

	info, err := fs.Stat(f.fsys, name)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	_, err = fs.Stat(f.fsys, path.Join(name, indexFile))
	return err == nil
}
