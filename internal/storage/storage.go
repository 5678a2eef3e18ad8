// Package storage keeps project logos in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

const MaxLogoSize = 2 << 20

const sniffLen = 512

// ErrUnsupportedLogo is returned when the upload is not a raster image
// we serve. SVG is refused since it can carry script.
var ErrUnsupportedLogo = errors.New("unsupported logo type")

// LogoTypes maps accepted content types to object name extensions.
var LogoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// LogoStore stores an object and returns its public URL.
type LogoStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

// SniffLogo detects the image type from the leading bytes of r, ignoring
// whatever type the client claimed. The returned reader replays the
// sniffed bytes.
func SniffLogo(r io.Reader) (contentType, ext string, body io.Reader, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", nil, err
	}
	head = head[:n]

	contentType = http.DetectContentType(head)
	ext, ok := LogoTypes[contentType]
	if !ok {
		return "", "", nil, ErrUnsupportedLogo
	}
	return contentType, ext, io.MultiReader(bytes.NewReader(head), r), nil
}
