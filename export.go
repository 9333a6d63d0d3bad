package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"emojiart/art"
)

// maxExportSide bounds the exported image; larger backgrounds are fitted
// into it and the emojis scaled along.
const maxExportSide = 8192

const exportPadding = 16

var errNothingToExport = errors.New("nothing to export")

type exportOptions struct {
	// FontData is a TrueType font with emoji glyphs. The Go font is used
	// when it is empty or cannot be parsed.
	FontData []byte
}

func exportOptionsFor(cfg *Config) exportOptions {
	var opts exportOptions
	if cfg == nil || cfg.EmojiFont == "" {
		return opts
	}
	data, err := os.ReadFile(cfg.EmojiFont)
	if err != nil {
		log.Printf("export: emoji font: %v", err)
		return opts
	}
	opts.FontData = data
	return opts
}

// faceCache hands out one face per point size.
type faceCache struct {
	font  *truetype.Font
	faces map[int]font.Face
}

func newFaceCache(data []byte) (*faceCache, error) {
	if len(data) > 0 {
		f, err := truetype.Parse(data)
		if err == nil {
			return &faceCache{font: f, faces: map[int]font.Face{}}, nil
		}
		log.Printf("export: emoji font: %v", err)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %v", err)
	}
	return &faceCache{font: f, faces: map[int]font.Face{}}, nil
}

func (c *faceCache) face(size int) font.Face {
	if size < 1 {
		size = 1
	}
	if f, ok := c.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(c.font, &truetype.Options{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	c.faces[size] = f
	return f
}

// exportBounds is the document rectangle that ends up in the image.
func exportBounds(doc art.Document, bg image.Image) (image.Rectangle, error) {
	if bg != nil {
		w, h := bg.Bounds().Dx(), bg.Bounds().Dy()
		return image.Rect(-w/2, -h/2, w-w/2, h-h/2), nil
	}
	emojis := doc.Emojis()
	if len(emojis) == 0 {
		return image.Rectangle{}, errNothingToExport
	}
	var r image.Rectangle
	for i, e := range emojis {
		half := max(abs(e.Size)/2, 1)
		er := image.Rect(e.X-half, e.Y-half, e.X+half, e.Y+half)
		if i == 0 {
			r = er
		} else {
			r = r.Union(er)
		}
	}
	return r.Inset(-exportPadding), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// exportPNG draws the background, fitted and centered, and every emoji at
// its position and size in z-order, and writes the result as PNG.
func exportPNG(w io.Writer, doc art.Document, bg image.Image, opts exportOptions) error {
	bounds, err := exportBounds(doc, bg)
	if err != nil {
		return err
	}

	scale := 1.0
	if side := max(bounds.Dx(), bounds.Dy()); side > maxExportSide {
		scale = float64(maxExportSide) / float64(side)
	}
	width := max(1, int(math.Round(float64(bounds.Dx())*scale)))
	height := max(1, int(math.Round(float64(bounds.Dy())*scale)))

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	if bg != nil {
		fitted := image.Image(bg)
		if scale != 1 {
			fitted = imaging.Fit(bg, width, height, imaging.Lanczos)
		}
		dc.DrawImageAnchored(fitted, width/2, height/2, 0.5, 0.5)
	}

	faces, err := newFaceCache(opts.FontData)
	if err != nil {
		return err
	}
	dc.SetColor(color.Black)
	for _, e := range doc.Emojis() {
		size := int(math.Round(float64(e.Size) * scale))
		if size <= 0 {
			continue
		}
		dc.SetFontFace(faces.face(size))
		x := float64(e.X-bounds.Min.X) * scale
		y := float64(e.Y-bounds.Min.Y) * scale
		dc.DrawStringAnchored(e.Text, x, y, 0.5, 0.5)
	}

	return dc.EncodePNG(w)
}

func pngName(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".png") {
		return name
	}
	return strings.TrimSuffix(name, art.FileExtension) + ".png"
}

// exportFile writes the current buffer to path as PNG.
func (m *model) exportFile(path string) error {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return errNothingToExport
	}
	return exportPNGFile(path, buf.ctrl.Document(), buf.ctrl.BackgroundImage(), exportOptionsFor(m.config))
}

// exportPNGFile writes the export to path, leaving no file behind when
// rendering fails.
func exportPNGFile(path string, doc art.Document, bg image.Image, opts exportOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exportPNG(f, doc, bg, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
