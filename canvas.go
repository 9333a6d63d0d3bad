package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/mattn/go-runewidth"

	"emojiart/art"
)

// backdrop caches the background scaled down to one pixel per half cell.
// When the view is zoomed in past that, the source image is sampled
// directly.
type backdrop struct {
	src   image.Image
	thumb image.Image
	w, h  int
}

func (b *backdrop) update(src image.Image, zoom float64) image.Image {
	if src == nil {
		*b = backdrop{}
		return nil
	}
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	w := int(math.Round(float64(sw) * zoom / cellWidth))
	h := int(math.Round(float64(sh) * zoom / (cellHeight / 2)))
	if w >= sw || h >= sh || w < 1 || h < 1 {
		*b = backdrop{src: src, thumb: src, w: sw, h: sh}
		return src
	}
	if b.src == src && b.w == w && b.h == h {
		return b.thumb
	}
	*b = backdrop{src: src, thumb: imaging.Resize(src, w, h, imaging.Box), w: w, h: h}
	return b.thumb
}

// sampler reads background colors at view locations.
type sampler struct {
	img            image.Image
	ox, oy, vw, vh float64
}

func newSampler(img image.Image, src image.Image, vp art.Viewport) *sampler {
	if img == nil {
		return nil
	}
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	ox, oy := vp.FromDocument(art.Point{X: -sw / 2, Y: -sh / 2})
	z := vp.Zoom
	if z <= 0 {
		z = 1
	}
	return &sampler{img: img, ox: ox, oy: oy, vw: float64(sw) * z, vh: float64(sh) * z}
}

func (s *sampler) at(x, y float64) (color.NRGBA, bool) {
	if s == nil {
		return color.NRGBA{}, false
	}
	fx, fy := (x-s.ox)/s.vw, (y-s.oy)/s.vh
	if fx < 0 || fx >= 1 || fy < 0 || fy >= 1 {
		return color.NRGBA{}, false
	}
	b := s.img.Bounds()
	px := b.Min.X + int(fx*float64(b.Dx()))
	py := b.Min.Y + int(fy*float64(b.Dy()))
	c := color.NRGBAModel.Convert(s.img.At(px, py)).(color.NRGBA)
	return c, c.A > 0
}

type cellKey struct{ col, row int }

// glyph is what sits in one cell. A wide emoji fills its first cell and
// marks the next one as covered.
type glyph struct {
	text    string
	id      int
	covered bool
}

func emojiWidth(text string) int {
	w := runewidth.StringWidth(text)
	if w < 1 {
		return 1
	}
	if w > 2 {
		return 2
	}
	return w
}

// placeEmojis lays the emojis out on a w by h cell grid in z-order, later
// emojis replacing earlier ones where they overlap.
func placeEmojis(emojis []art.Emoji, vp art.Viewport, w, h int) [][]glyph {
	grid := make([][]glyph, h)
	for i := range grid {
		grid[i] = make([]glyph, w)
	}
	erase := func(row, col int) {
		g := grid[row][col]
		if g.covered && col > 0 {
			grid[row][col-1] = glyph{}
		}
		if g.text != "" && emojiWidth(g.text) == 2 && col+1 < w {
			grid[row][col+1] = glyph{}
		}
		grid[row][col] = glyph{}
	}
	for _, e := range emojis {
		x, y := vp.FromDocument(e.Location())
		col, row := int(math.Floor(x/cellWidth)), int(math.Floor(y/cellHeight))
		width := emojiWidth(e.Text)
		if row < 0 || row >= h || col < 0 || col+width > w {
			continue
		}
		for c := col; c < col+width; c++ {
			erase(row, c)
		}
		grid[row][col] = glyph{text: e.Text, id: e.ID}
		if width == 2 {
			grid[row][col+1] = glyph{id: e.ID, covered: true}
		}
	}
	return grid
}

// layoutEmojis maps every cell an emoji is drawn in to its id.
func layoutEmojis(emojis []art.Emoji, vp art.Viewport, w, h int) map[cellKey]int {
	out := map[cellKey]int{}
	for row, line := range placeEmojis(emojis, vp, w, h) {
		for col, g := range line {
			if g.id != 0 {
				out[cellKey{col, row}] = g.id
			}
		}
	}
	return out
}

var (
	highlight   = color.NRGBA{R: 80, G: 120, B: 255, A: 255}
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

func hexColor(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func tint(c color.NRGBA, ok bool) color.NRGBA {
	if !ok {
		return color.NRGBA{R: highlight.R / 2, G: highlight.G / 2, B: highlight.B / 2, A: 255}
	}
	return color.NRGBA{
		R: uint8((int(c.R) + int(highlight.R)) / 2),
		G: uint8((int(c.G) + int(highlight.G)) / 2),
		B: uint8((int(c.B) + int(highlight.B)) / 2),
		A: 255,
	}
}

// selectionBox returns the cells covered by the selected emoji's size.
func selectionBox(e art.Emoji, vp art.Viewport) (minCol, minRow, maxCol, maxRow int) {
	x, y := vp.FromDocument(e.Location())
	half := vp.FontSize(e) / 2
	return int(math.Floor((x - half) / cellWidth)), int(math.Floor((y - half) / cellHeight)),
		int(math.Floor((x + half) / cellWidth)), int(math.Floor((y + half) / cellHeight))
}

// renderCanvas draws the board of buf into h lines of w cells.
func renderCanvas(buf *Buffer, w, h, cursorX, cursorY int, showCursor bool, selected int) []string {
	src := buf.ctrl.BackgroundImage()
	img := buf.backdrop.update(src, buf.viewport.Zoom)
	smp := newSampler(img, src, buf.viewport)
	grid := placeEmojis(buf.ctrl.Emojis(), buf.viewport, w, h)

	selMinCol, selMinRow, selMaxCol, selMaxRow := 1, 1, 0, 0
	if e, ok := buf.ctrl.Emoji(selected); ok {
		selMinCol, selMinRow, selMaxCol, selMaxRow = selectionBox(e, buf.viewport)
	}

	lines := make([]string, h)
	for row := 0; row < h; row++ {
		var line strings.Builder
		for col := 0; col < w; col++ {
			g := grid[row][col]
			if g.covered {
				continue
			}
			x, _ := cellCenter(col, row)
			top, topOK := smp.at(x, (float64(row)+0.25)*cellHeight)
			bottom, bottomOK := smp.at(x, (float64(row)+0.75)*cellHeight)
			if col >= selMinCol && col <= selMaxCol && row >= selMinRow && row <= selMaxRow {
				top, bottom = tint(top, topOK), tint(bottom, bottomOK)
				topOK, bottomOK = true, true
			}

			style := lipgloss.NewStyle()
			text := " "
			switch {
			case g.text != "":
				text = g.text
				if bottomOK {
					style = style.Background(hexColor(bottom))
				}
			case topOK || bottomOK:
				text = "▀"
				if topOK {
					style = style.Foreground(hexColor(top))
				}
				if bottomOK {
					style = style.Background(hexColor(bottom))
				}
			}
			if showCursor && col == cursorX && row == cursorY {
				if g.text == "" {
					text = "┼"
				}
				style = style.Inherit(cursorStyle)
			}
			line.WriteString(style.Render(text))
		}
		lines[row] = line.String()
	}
	return lines
}
