package art

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Fetcher retrieves the bytes behind a background URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Decoder turns encoded image bytes into pixels.
type Decoder func(data []byte) (image.Image, error)

// maxImageBytes bounds how much of a response body is read.
const maxImageBytes = 64 << 20

// HTTPFetcher fetches backgrounds over HTTP.
type HTTPFetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

// Fetch downloads url and returns the body. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build request for %s: %w", url, err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download background from %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("unable to download background from %s: status %s", url, res.Status)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}
	return data, nil
}

// DecodeImage decodes png, jpeg, gif, bmp, tiff and webp bytes, applying
// the EXIF orientation of camera photos.
func DecodeImage(data []byte) (image.Image, error) {
	if ctype := http.DetectContentType(data); !isImageContentType(ctype) && ctype != "application/octet-stream" {
		return nil, fmt.Errorf("not an image: %s", ctype)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("could not decode the background image: %w", err)
	}
	return img, nil
}

func isImageContentType(ctype string) bool {
	return len(ctype) > 6 && ctype[:6] == "image/"
}
