package main

import (
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"emojiart/art"
	"emojiart/palette"
)

func (m *model) getCurrentBuffer() *Buffer {
	if m.currentBufferIndex < 0 || m.currentBufferIndex >= len(m.buffers) {
		return nil
	}
	return m.buffers[m.currentBufferIndex]
}

func (m *model) bufferFor(ctrl *art.Controller) *Buffer {
	for _, buf := range m.buffers {
		if buf.ctrl == ctrl {
			return buf
		}
	}
	return nil
}

// addNewBuffer makes ctrl the current buffer and hooks its notifications
// into the event loop.
func (m *model) addNewBuffer(ctrl *art.Controller, filename string) *Buffer {
	w, h := m.canvasSize()
	buf := &Buffer{
		ctrl:       ctrl,
		undo:       art.NewUndoManager(undoLimit),
		filename:   filename,
		viewport:   art.NewViewport(float64(w)*cellWidth, float64(h)*cellHeight),
		fitPending: !ctrl.Background().IsBlank(),
		saved:      ctrl.Document(),
	}
	ctrl.OnChange(func(d art.Document) { buf.dirty = !d.Equal(buf.saved) })
	m.buffers = append(m.buffers, buf)
	m.currentBufferIndex = len(m.buffers) - 1
	m.selected = -1
	m.settle(buf)
	return buf
}

func (m *model) closeCurrentBuffer() {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	buf.ctrl.Close()
	m.buffers = append(m.buffers[:m.currentBufferIndex], m.buffers[m.currentBufferIndex+1:]...)
	if len(m.buffers) == 0 {
		m.addNewBuffer(art.NewController(m.controllerOptions()...), "")
		return
	}
	if m.currentBufferIndex >= len(m.buffers) {
		m.currentBufferIndex = len(m.buffers) - 1
	}
	m.selected = -1
}

func (m *model) newResolver() *art.Resolver {
	return art.NewResolver(&art.HTTPFetcher{Timeout: m.config.FetchTimeout}, nil)
}

// controllerOptions sets up a board's controller so its fetch transitions
// reach the event loop from the first one on.
func (m *model) controllerOptions() []art.Option {
	return []art.Option{
		art.WithResolver(m.newResolver()),
		art.WithStatusListener(forwardStatus(m.events)),
	}
}

// forwardStatus drops transitions when the loop is behind; View reads the
// current status directly.
func forwardStatus(events chan<- statusMsg) func(*art.Controller, art.FetchStatus) {
	return func(ctrl *art.Controller, s art.FetchStatus) {
		select {
		case events <- statusMsg{ctrl: ctrl, status: s}:
		default:
		}
	}
}

// settle zooms a buffer to its background once the pixels are there.
func (m *model) settle(buf *Buffer) {
	if !buf.fitPending {
		return
	}
	if img := buf.ctrl.BackgroundImage(); img != nil {
		b := img.Bounds()
		buf.viewport.ZoomToFit(b.Dx(), b.Dy())
		buf.fitPending = false
		return
	}
	if buf.ctrl.FetchStatus().State != art.FetchFetching {
		buf.fitPending = false
	}
}

func (m *model) bufferName(i int) string {
	buf := m.buffers[i]
	if buf.filename == "" {
		return "Board " + strconv.Itoa(i+1)
	}
	return strings.TrimSuffix(filepath.Base(buf.filename), art.FileExtension)
}

func readClipboardText() (string, error) {
	if runtime.GOOS == "darwin" {
		if output, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(output), nil
		}
	}
	return clipboard.ReadAll()
}

// cleanClipboardText drops control characters and keeps the first
// non-empty line.
func cleanClipboardText(text string) string {
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			result.WriteRune(r)
		}
	}
	for _, line := range strings.FieldsFunc(result.String(), func(r rune) bool { return r == '\n' || r == '\r' }) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

type pasteKind int

const (
	pasteNothing pasteKind = iota
	pasteURL
	pasteImage
	pasteEmoji
)

type pasted struct {
	kind   pasteKind
	url    string
	data   []byte
	emojis []string
}

// classifyPaste decides what pasted text stands for: an image URL, a path
// to an image file, or emojis to drop on the board.
func classifyPaste(text string, readFile func(string) ([]byte, error)) pasted {
	s := cleanClipboardText(text)
	if s == "" {
		return pasted{}
	}

	path := s
	if u, err := url.Parse(s); err == nil && u.Scheme == "file" {
		path = u.Path
	} else if art.IsValidURL(s) && (u.Scheme == "http" || u.Scheme == "https") {
		return pasted{kind: pasteURL, url: art.ImageURL(s)}
	}

	if readFile != nil && !strings.ContainsAny(path, "\n\r") {
		if data, err := readFile(expandPath(path, homeDir())); err == nil {
			if _, err := art.DecodeImage(data); err == nil {
				return pasted{kind: pasteImage, data: data}
			}
		}
	}

	if emojis := palette.Split(palette.Normalize(s)); len(emojis) > 0 {
		return pasted{kind: pasteEmoji, emojis: emojis}
	}
	return pasted{}
}

func homeDir() string {
	dir, _ := os.UserHomeDir()
	return dir
}

// applyPaste performs p on the current buffer and reports what happened.
func (m *model) applyPaste(p pasted) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	switch p.kind {
	case pasteURL:
		buf.ctrl.SetBackground(art.URLBackground(p.url), buf.undo)
		buf.fitPending = true
		m.successMessage = "Fetching background"
	case pasteImage:
		buf.ctrl.SetBackground(art.ImageDataBackground(p.data), buf.undo)
		buf.fitPending = true
		m.successMessage = "Background set"
	case pasteEmoji:
		at := m.cursorDocument()
		for _, text := range p.emojis {
			e := buf.ctrl.AddEmoji(text, at, m.config.EmojiSize, buf.undo)
			m.selected = e.ID
			at.X += m.config.EmojiSize
		}
		m.successMessage = "Added " + strings.Join(p.emojis, "")
	default:
		m.errorMessage = "Nothing to paste"
		return
	}
	m.settle(buf)
}
