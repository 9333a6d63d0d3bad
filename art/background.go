package art

import (
	"bytes"
	"net/url"
	"strings"
)

type backgroundKind int

const (
	backgroundBlank backgroundKind = iota
	backgroundURL
	backgroundImageData
)

// Background is the canvas backdrop: blank, a remote image URL, or image
// bytes stored in the document. The zero value is blank.
type Background struct {
	kind backgroundKind
	url  string
	data []byte
}

// Blank returns the empty background.
func Blank() Background {
	return Background{}
}

// URLBackground returns a background whose pixels are fetched from u.
func URLBackground(u string) Background {
	return Background{kind: backgroundURL, url: u}
}

// ImageDataBackground returns a background holding encoded image bytes.
// The bytes are copied.
func ImageDataBackground(data []byte) Background {
	return Background{kind: backgroundImageData, data: bytes.Clone(data)}
}

func (b Background) IsBlank() bool {
	return b.kind == backgroundBlank
}

// URL returns the remote locator of a URL background.
func (b Background) URL() (string, bool) {
	return b.url, b.kind == backgroundURL
}

// ImageData returns a copy of the bytes of an embedded image background.
func (b Background) ImageData() ([]byte, bool) {
	if b.kind != backgroundImageData {
		return nil, false
	}
	return bytes.Clone(b.data), true
}

// Equal compares variant and payload.
func (b Background) Equal(o Background) bool {
	if b.kind != o.kind {
		return false
	}
	switch b.kind {
	case backgroundURL:
		return b.url == o.url
	case backgroundImageData:
		return bytes.Equal(b.data, o.data)
	}
	return true
}

func (b Background) String() string {
	switch b.kind {
	case backgroundURL:
		return "url(" + b.url + ")"
	case backgroundImageData:
		return "imageData"
	}
	return "blank"
}

// ImageURL unwraps links that carry the real image location in an imgurl
// query parameter, as image search result pages do. Anything else is
// returned unchanged.
func ImageURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k != "imgurl" {
			continue
		}
		inner, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		if iu, err := url.Parse(inner); err == nil && iu.Scheme != "" && iu.Host != "" {
			return inner
		}
	}
	return raw
}

// IsValidURL reports whether s is an absolute URL with a scheme and host.
func IsValidURL(s string) bool {
	if _, err := url.ParseRequestURI(s); err != nil {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return true
}
