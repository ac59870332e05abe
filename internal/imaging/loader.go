// Package imaging loads client-supplied image references (URL or base64)
// into validated in-memory images.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	// Registered decoders for format sniffing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/percept-cloud/mmindex/internal/domain"
)

// MaxImageBytes caps the size of a fetched or decoded image payload.
const MaxImageBytes = 20 << 20 // 20 MiB

// Image is a decoded in-memory image ready for embedding.
type Image struct {
	Data   []byte
	Format string // "jpeg", "png", "gif"
	Width  int
	Height int
}

// Loader resolves image references. A reference starting with http:// or
// https:// is fetched; anything else is treated as base64, with an optional
// data:...;base64, prefix stripped before decoding.
type Loader struct {
	client *http.Client
}

// NewLoader creates an image loader with the given fetch timeout.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{client: &http.Client{Timeout: timeout}}
}

// Load resolves an image reference into a decoded image.
// All failures are wrapped in domain.ErrDecode.
func (l *Loader) Load(ctx context.Context, ref string) (Image, error) {
	if ref == "" {
		return Image{}, fmt.Errorf("%w: empty image reference", domain.ErrDecode)
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return l.fromURL(ctx, ref)
	}
	return fromBase64(ref)
}

func (l *Loader) fromURL(ctx context.Context, url string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("%w: build request: %w", domain.ErrDecode, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("%w: fetch image: %w", domain.ErrDecode, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("%w: fetch image: unexpected status %d", domain.ErrDecode, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("%w: read image body: %w", domain.ErrDecode, err)
	}
	if len(data) > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrDecode, MaxImageBytes)
	}

	return decode(data)
}

func fromBase64(ref string) (Image, error) {
	// Strip a data URI prefix: "data:image/png;base64,AAAA..." -> "AAAA..."
	if strings.HasPrefix(ref, "data:") {
		if _, rest, ok := strings.Cut(ref, ","); ok {
			ref = rest
		}
	}

	data, err := base64.StdEncoding.DecodeString(ref)
	if err != nil {
		return Image{}, fmt.Errorf("%w: decode base64: %w", domain.ErrDecode, err)
	}
	if len(data) > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrDecode, MaxImageBytes)
	}

	return decode(data)
}

// decode validates the payload as a known image format and captures dimensions.
func decode(data []byte) (Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: decode image: %w", domain.ErrDecode, err)
	}
	return Image{
		Data:   data,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// DataURL renders the image as a base64 data URL for model APIs that accept
// inline image inputs.
func (img Image) DataURL() string {
	return "data:image/" + img.Format + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
