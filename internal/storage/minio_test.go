package storage

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/koe-app/koe/internal/config"
)

func TestNewMinIOClient_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{
			name: "explicit public url",
			cfg:  config.StorageConfig{Endpoint: "minio:9000", Bucket: "logos", PublicURL: "https://cdn.koe.so/"},
			want: "https://cdn.koe.so",
		},
		{
			name: "derived from endpoint",
			cfg:  config.StorageConfig{Endpoint: "minio:9000", Bucket: "logos", UseSSL: true},
			want: "https://minio:9000/logos",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMinIOClient(tt.cfg)
			if err != nil {
				t.Fatalf("NewMinIOClient() error = %v", err)
			}
			if m.publicURL != tt.want {
				t.Errorf("publicURL = %q, expected %q", m.publicURL, tt.want)
			}
		})
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSniffLogo(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantExt string
	}{
		{"png", pngHeader, "image/png", ".png"},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), "image/jpeg", ".jpg"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp", ".webp"},
		{"svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`), "", ""},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "", ""},
		{"empty", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, ext, body, err := SniffLogo(bytes.NewReader(tt.data))
			if tt.want == "" {
				if !errors.Is(err, ErrUnsupportedLogo) {
					t.Fatalf("error = %v, expected ErrUnsupportedLogo", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SniffLogo() error = %v", err)
			}
			if ct != tt.want || ext != tt.wantExt {
				t.Errorf("SniffLogo() = %q, %q, expected %q, %q", ct, ext, tt.want, tt.wantExt)
			}
			replayed, _ := io.ReadAll(body)
			if !bytes.Equal(replayed, tt.data) {
				t.Errorf("body was not replayed intact")
			}
		})
	}
}

func TestSniffLogo_ReplaysBeyondSniffWindow(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 4096)...)
	_, _, body, err := SniffLogo(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("SniffLogo() error = %v", err)
	}
	replayed, _ := io.ReadAll(body)
	if len(replayed) != len(data) {
		t.Errorf("replayed %d bytes, expected %d", len(replayed), len(data))
	}
}
