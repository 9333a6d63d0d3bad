package main

import (
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"emojiart/art"
)

// canvasSize is the board area in cells, leaving room for the buffer bar,
// the palette bar and the status line.
func (m *model) canvasSize() (int, int) {
	w, h := m.width, m.height-2
	if len(m.buffers) > 1 {
		h--
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// resizeViewports keeps every buffer's viewport the size of the terminal.
func (m *model) resizeViewports() {
	w, h := m.canvasSize()
	for _, buf := range m.buffers {
		buf.viewport.Width = float64(w) * cellWidth
		buf.viewport.Height = float64(h) * cellHeight
	}
}

func (m *model) ensureCursorInBounds() {
	w, h := m.canvasSize()
	m.cursorX = max(0, min(m.cursorX, w-1))
	m.cursorY = max(0, min(m.cursorY, h-1))
}

// cellCenter is the view location in the middle of a cell.
func cellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * cellWidth, (float64(row) + 0.5) * cellHeight
}

func (m *model) cursorDocument() art.Point {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return art.Point{}
	}
	return buf.viewport.ToDocument(cellCenter(m.cursorX, m.cursorY))
}

func (m *model) handleNavigation(key string, speed int) {
	if m.mode == ModeMove {
		m.handleMove(key, speed)
		return
	}
	switch key {
	case "shift+left", "H", "shift+right", "L", "shift+up", "K", "shift+down", "J":
		m.handlePan(key, speed)
		return
	}
	m.handleCursorMove(key, speed)
}

// handlePan scrolls the board a few cells, keeping the cursor where it is
// on screen.
func (m *model) handlePan(key string, speed int) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	dx, dy := direction(key)
	buf.viewport.Pan(-float64(dx*speed)*cellWidth, -float64(dy*speed)*cellHeight)
}

func (m *model) handleCursorMove(key string, speed int) {
	dx, dy := direction(key)
	m.cursorX += dx * speed
	m.cursorY += dy * speed
	m.ensureCursorInBounds()
}

// handleMove drags the selected emoji one cell at a time and the cursor
// with it.
func (m *model) handleMove(key string, speed int) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	e, ok := buf.ctrl.Emoji(m.selected)
	if !ok {
		m.mode = ModeNormal
		return
	}
	dx, dy := direction(key)
	z := buf.viewport.Zoom
	if z <= 0 {
		z = 1
	}
	stepX := int(math.Max(1, math.Round(cellWidth/z)))
	stepY := int(math.Max(1, math.Round(cellHeight/z)))
	buf.ctrl.MoveEmoji(e, dx*speed*stepX, dy*speed*stepY, buf.undo)
	m.cursorX += dx * speed
	m.cursorY += dy * speed
	m.ensureCursorInBounds()
}

func direction(key string) (int, int) {
	switch key {
	case "h", "left", "H", "shift+left":
		return -1, 0
	case "l", "right", "L", "shift+right":
		return 1, 0
	case "k", "up", "K", "shift+up":
		return 0, -1
	case "j", "down", "J", "shift+down":
		return 0, 1
	}
	return 0, 0
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 4
	default:
		return 1
	}
}

func (m *model) zoom(factor float64) {
	if buf := m.getCurrentBuffer(); buf != nil {
		buf.viewport.ZoomBy(factor)
	}
}

// zoomToFit fits the background, or resets the view when there is none.
func (m *model) zoomToFit() {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	if img := buf.ctrl.BackgroundImage(); img != nil {
		buf.viewport.ZoomToFit(img.Bounds().Dx(), img.Bounds().Dy())
		return
	}
	buf.viewport.Zoom, buf.viewport.PanX, buf.viewport.PanY = 1, 0, 0
}

// focus puts the cursor on e if it is on screen.
func (m *model) focus(e art.Emoji) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	x, y := buf.viewport.FromDocument(e.Location())
	col, row := int(math.Floor(x/cellWidth)), int(math.Floor(y/cellHeight))
	w, h := m.canvasSize()
	if col >= 0 && col < w && row >= 0 && row < h {
		m.cursorX, m.cursorY = col, row
	}
}

// selectNext cycles the selection through the emojis in z-order.
func (m *model) selectNext() {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	emojis := buf.ctrl.Emojis()
	if len(emojis) == 0 {
		m.selected = -1
		return
	}
	next := 0
	for i, e := range emojis {
		if e.ID == m.selected {
			next = (i + 1) % len(emojis)
			break
		}
	}
	m.selected = emojis[next].ID
	m.focus(emojis[next])
}

func (m *model) emojiUnderCursor() (art.Emoji, bool) {
	return m.emojiAtCell(m.cursorX, m.cursorY)
}

// emojiAtCell prefers what is drawn in the cell and falls back to hit
// testing the document.
func (m *model) emojiAtCell(col, row int) (art.Emoji, bool) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return art.Emoji{}, false
	}
	w, h := m.canvasSize()
	grid := layoutEmojis(buf.ctrl.Emojis(), buf.viewport, w, h)
	if id, ok := grid[cellKey{col, row}]; ok {
		if e, ok := buf.ctrl.Emoji(id); ok {
			return e, true
		}
	}
	return buf.ctrl.EmojiAt(buf.viewport.ToDocument(cellCenter(col, row)))
}

// target is the selected emoji, or else the one under the cursor.
func (m *model) target() (art.Emoji, bool) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return art.Emoji{}, false
	}
	if e, ok := buf.ctrl.Emoji(m.selected); ok {
		return e, true
	}
	e, ok := m.emojiUnderCursor()
	if ok {
		m.selected = e.ID
	}
	return e, ok
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	if msg.Type != tea.MouseLeft {
		switch msg.Type {
		case tea.MouseWheelUp:
			m.zoom(zoomStep)
		case tea.MouseWheelDown:
			m.zoom(1 / zoomStep)
		}
		return
	}
	row := msg.Y
	if len(m.buffers) > 1 {
		row--
	}
	w, h := m.canvasSize()
	if row < 0 || row >= h || msg.X < 0 || msg.X >= w {
		return
	}
	m.cursorX, m.cursorY = msg.X, row
	if e, ok := m.emojiAtCell(msg.X, row); ok {
		m.selected = e.ID
	} else {
		m.selected = -1
		if m.mode == ModeMove {
			m.mode = ModeNormal
		}
	}
}
