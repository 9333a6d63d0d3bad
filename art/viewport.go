package art

import "math"

const (
	minZoom = 0.05
	maxZoom = 20
)

// Viewport maps document coordinates, which are offsets from the canvas
// center, to view coordinates with the origin in the top-left corner. The
// pan offset is kept in document units so it follows the zoom.
type Viewport struct {
	Width  float64
	Height float64
	Zoom   float64
	PanX   float64
	PanY   float64
}

// NewViewport returns an unzoomed, unpanned viewport of the given size.
func NewViewport(width, height float64) Viewport {
	return Viewport{Width: width, Height: height, Zoom: 1}
}

func (v Viewport) center() (float64, float64) {
	return v.Width / 2, v.Height / 2
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToDocument converts a view location to document coordinates.
func (v Viewport) ToDocument(x, y float64) Point {
	cx, cy := v.center()
	z := v.zoom()
	return Point{
		X: int((x - v.PanX*z - cx) / z),
		Y: int((y - v.PanY*z - cy) / z),
	}
}

// FromDocument converts document coordinates to a view location.
func (v Viewport) FromDocument(p Point) (float64, float64) {
	cx, cy := v.center()
	z := v.zoom()
	return cx + float64(p.X)*z + v.PanX*z, cy + float64(p.Y)*z + v.PanY*z
}

// FontSize is the displayed size of e.
func (v Viewport) FontSize(e Emoji) float64 {
	return float64(e.Size) * v.zoom()
}

// Pan moves the view by (dx, dy) view units.
func (v *Viewport) Pan(dx, dy float64) {
	z := v.zoom()
	v.PanX += dx / z
	v.PanY += dy / z
}

// ZoomBy multiplies the zoom by factor within sane limits.
func (v *Viewport) ZoomBy(factor float64) {
	v.Zoom = math.Min(maxZoom, math.Max(minZoom, v.zoom()*factor))
}

// ZoomToFit centers the view and zooms so a w by h image fills it without
// cropping. Empty sizes leave the viewport alone.
func (v *Viewport) ZoomToFit(w, h int) {
	if w <= 0 || h <= 0 || v.Width <= 0 || v.Height <= 0 {
		return
	}
	v.PanX, v.PanY = 0, 0
	v.Zoom = math.Min(v.Width/float64(w), v.Height/float64(h))
}
