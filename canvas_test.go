package main

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"emojiart/art"
)

func newTestBuffer(t *testing.T, w, h int) *Buffer {
	t.Helper()
	ctrl := art.NewController(art.WithResolver(art.NewResolver(stillFetcher, nil)))
	t.Cleanup(ctrl.Close)
	return &Buffer{
		ctrl:     ctrl,
		undo:     art.NewUndoManager(0),
		viewport: art.NewViewport(float64(w)*cellWidth, float64(h)*cellHeight),
	}
}

func TestPlaceEmojis(t *testing.T) {
	vp := art.NewViewport(80*cellWidth, 10*cellHeight)
	emojis := []art.Emoji{
		{Text: "😀", X: 0, Y: 0, Size: 40, ID: 1},
		{Text: "🚗", X: 8, Y: 0, Size: 40, ID: 2},
		{Text: "⚽", X: 0, Y: 16, Size: 40, ID: 3},
		{Text: "🏈", X: 10000, Y: 0, Size: 40, ID: 4},
	}
	grid := placeEmojis(emojis, vp, 80, 10)

	if g := grid[5][40]; g.text != "" || g.id != 0 {
		t.Errorf("overlapped emoji should be erased, got %+v", g)
	}
	if g := grid[5][41]; g.text != "🚗" || g.id != 2 {
		t.Errorf("expected the later emoji on top, got %+v", g)
	}
	if g := grid[5][42]; !g.covered || g.id != 2 {
		t.Errorf("wide emoji should cover the next cell, got %+v", g)
	}
	if g := grid[6][40]; g.text != "⚽" {
		t.Errorf("expected ⚽ one row down, got %+v", g)
	}

	layout := layoutEmojis(emojis, vp, 80, 10)
	if layout[cellKey{42, 5}] != 2 || layout[cellKey{40, 6}] != 3 {
		t.Errorf("unexpected layout %v", layout)
	}
	for _, id := range layout {
		if id == 1 || id == 4 {
			t.Errorf("emoji %d should not be drawn", id)
		}
	}
}

func TestRenderCanvas(t *testing.T) {
	buf := newTestBuffer(t, 10, 4)

	lines := renderCanvas(buf, 10, 4, 0, 0, false, -1)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			t.Errorf("blank board should render empty, got %q", l)
		}
	}

	buf.ctrl.SetBackground(art.ImageDataBackground(encodePNG(t, 16, 16, color.NRGBA{R: 200, A: 255})), nil)
	e := buf.ctrl.AddEmoji("😀", art.Point{}, 40, nil)
	lines = renderCanvas(buf, 10, 4, 1, 1, true, e.ID)
	all := strings.Join(lines, "\n")
	if !strings.Contains(all, "▀") {
		t.Errorf("background not drawn:\n%s", all)
	}
	if !strings.Contains(lines[2], "😀") {
		t.Errorf("emoji not drawn on its row:\n%s", all)
	}
	if !strings.Contains(lines[1], "┼") {
		t.Errorf("cursor not drawn:\n%s", all)
	}
}

func TestBackdrop(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 800, 400))
	var b backdrop

	thumb := b.update(src, 1)
	if got := thumb.Bounds(); got.Dx() != 100 || got.Dy() != 50 {
		t.Errorf("thumbnail is %v", got)
	}
	if again := b.update(src, 1); again != thumb {
		t.Errorf("thumbnail should be cached")
	}
	if got := b.update(src, 10); got != image.Image(src) {
		t.Errorf("zoomed in past one pixel per cell should use the source")
	}
	if b.update(nil, 1) != nil {
		t.Errorf("no source should give no thumbnail")
	}
}
