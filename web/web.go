// Package web embeds the front-end shell and the widget script.
package web

import (
	"bytes"
	"compress/gzip"
	"embed"
	"fmt"
	"io/fs"
)

// WidgetBudget is the largest gzipped size widget.js may ship at.
const WidgetBudget = 30 * 1024

//go:embed static
var files embed.FS

// Static returns the embedded static tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// WidgetScript returns the embeddable widget source.
func WidgetScript() []byte {
	b, err := fs.ReadFile(files, "static/widget.js")
	if err != nil {
		panic(err)
	}
	return b
}

// GzipSize returns the best-compression gzip size of b.
func GzipSize(b []byte) (int, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(b); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

// CheckBudget fails when the widget script exceeds WidgetBudget gzipped.
func CheckBudget() (int, error) {
	size, err := GzipSize(WidgetScript())
	if err != nil {
		return 0, err
	}
	if size > WidgetBudget {
		return size, fmt.Errorf("widget.js is %d bytes gzipped, budget is %d", size, WidgetBudget)
	}
	return size, nil
}
