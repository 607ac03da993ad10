// Package assets serves the marketing site's static files for every path the
// API does not claim.
package assets

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"leadedge_backend/platform/config"
	"leadedge_backend/platform/httpkit"
	"leadedge_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const indexFile = "/index.html"

// ErrNotFound is returned by a Source when the requested file does not exist.
var ErrNotFound = errors.New("asset not found")

// File is an opened static file. The caller closes Body.
type File struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Source opens static files by slash-separated path.
type Source interface {
	Open(ctx context.Context, name string) (*File, error)
}

// NewSource picks the bucket when STATIC_BUCKET is set, the local directory
// when STATIC_DIR is set, and nil otherwise.
func NewSource(cfg config.AssetsConfig) (Source, error) {
	if bucket := cfg.GetStaticBucket(); bucket != "" {
		src, err := NewBucketSource(cfg, bucket)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	if dir := cfg.GetStaticDir(); dir != "" {
		return NewDirSource(dir), nil
	}
	return nil, nil
}

// ResolvePath maps a request path to the file that answers it. The root and
// any path without an extension resolve to the SPA entry point.
func ResolvePath(requestPath string) string {
	name := path.Clean("/" + requestPath)
	if name == "/" || path.Ext(name) == "" {
		return indexFile
	}
	return name
}

// Handler answers GET and HEAD requests from src. A nil src answers 404.
func Handler(src Source, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if src == nil || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			notFound(c)
			return
		}

		name := ResolvePath(c.Request.URL.Path)
		file, err := src.Open(c.Request.Context(), name)
		if errors.Is(err, ErrNotFound) {
			notFound(c)
			return
		}
		if err != nil {
			log.WithContext(c.Request.Context()).Error("static asset open failed", "path", name, "error", err)
			httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
			return
		}
		defer func() {
			_ = file.Body.Close()
		}()

		contentType := file.ContentType
		if contentType == "" {
			contentType = mime.TypeByExtension(path.Ext(name))
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		c.DataFromReader(http.StatusOK, file.Size, contentType, file.Body, nil)
	}
}

func notFound(c *gin.Context) {
	httpkit.Error(c, http.StatusNotFound, "not found", nil)
}
