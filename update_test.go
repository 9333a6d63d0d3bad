package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"emojiart/art"
	"emojiart/palette"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	db, err := palette.OpenDB(filepath.Join(t.TempDir(), "palettes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := palette.Open(db, "Test")
	if err != nil {
		t.Fatal(err)
	}

	m := model{
		width:    80,
		height:   24,
		selected: -1,
		config:   &Config{EmojiSize: 40, FetchTimeout: time.Second, Confirmations: true, SaveDirectory: t.TempDir()},
		palettes: store,
		events:   make(chan statusMsg, 16),
	}
	ctrl := art.NewController(
		art.WithResolver(art.NewResolver(stillFetcher, nil)),
		art.WithStatusListener(forwardStatus(m.events)),
	)
	t.Cleanup(ctrl.Close)
	m.addNewBuffer(ctrl, "")
	return m
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "shift+right":
		return tea.KeyMsg{Type: tea.KeyShiftRight}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(model)
	}
	return m
}

func TestBoard_EmojiLifecycle(t *testing.T) {
	m := newTestModel(t)
	m.cursorX, m.cursorY = 40, 11
	buf := m.getCurrentBuffer()

	m = press(t, m, "1")
	e, ok := buf.ctrl.Emoji(m.selected)
	if !ok || e.Text != "🚙" || e.X != 4 || e.Y != 8 || e.Size != 40 {
		t.Fatalf("unexpected emoji %+v (%v)", e, ok)
	}

	m = press(t, m, "+")
	if e, _ := buf.ctrl.Emoji(m.selected); e.Size != 44 {
		t.Errorf("size after + = %d", e.Size)
	}

	m = press(t, m, "m", "right")
	if m.mode != ModeMove {
		t.Fatalf("expected move mode")
	}
	if e, _ := buf.ctrl.Emoji(m.selected); e.X != 12 {
		t.Errorf("x after move = %d", e.X)
	}
	if m.cursorX != 41 {
		t.Errorf("cursor should follow the emoji, at %d", m.cursorX)
	}
	m = press(t, m, "enter")
	if m.mode != ModeNormal {
		t.Errorf("enter should finish moving")
	}

	m = press(t, m, "u")
	if e, _ := buf.ctrl.Emoji(m.selected); e.X != 4 {
		t.Errorf("x after undo = %d", e.X)
	}
	if m.successMessage != "Undo Move" {
		t.Errorf("status = %q", m.successMessage)
	}
	m = press(t, m, "ctrl+r")
	if e, _ := buf.ctrl.Emoji(m.selected); e.X != 12 {
		t.Errorf("x after redo = %d", e.X)
	}

	m = press(t, m, "x")
	if len(buf.ctrl.Emojis()) != 0 || m.selected != -1 {
		t.Errorf("remove left %+v selected=%d", buf.ctrl.Emojis(), m.selected)
	}
	m = press(t, m, "u")
	if len(buf.ctrl.Emojis()) != 1 {
		t.Errorf("undo remove should bring the emoji back")
	}
}

func TestBoard_SelectAndPan(t *testing.T) {
	m := newTestModel(t)
	buf := m.getCurrentBuffer()
	a := buf.ctrl.AddEmoji("😀", art.Point{X: 0, Y: 0}, 40, nil)
	b := buf.ctrl.AddEmoji("🚗", art.Point{X: 80, Y: 0}, 40, nil)

	m = press(t, m, "tab")
	if m.selected != a.ID {
		t.Errorf("first tab selected %d", m.selected)
	}
	m = press(t, m, "tab")
	if m.selected != b.ID || m.cursorX != 50 {
		t.Errorf("second tab selected %d with cursor at %d", m.selected, m.cursorX)
	}
	m = press(t, m, "esc")
	if m.selected != -1 {
		t.Errorf("esc should clear the selection")
	}

	next, _ := m.Update(tea.MouseMsg{X: 40, Y: 11, Type: tea.MouseLeft})
	m = next.(model)
	if m.selected != a.ID {
		t.Errorf("click should select the emoji under the pointer, got %d", m.selected)
	}

	before := buf.viewport.PanX
	m = press(t, m, "shift+right")
	if buf.viewport.PanX >= before {
		t.Errorf("panning right should move the board left, pan %v -> %v", before, buf.viewport.PanX)
	}

	m = press(t, m, "z")
	if buf.viewport.Zoom != zoomStep {
		t.Errorf("zoom = %v", buf.viewport.Zoom)
	}
	press(t, m, "0")
	if buf.viewport.Zoom != 1 || buf.viewport.PanX != 0 {
		t.Errorf("0 without background should reset the view, got %+v", buf.viewport)
	}
}

func TestBoard_QuitConfirmation(t *testing.T) {
	m := newTestModel(t)
	if _, cmd := m.Update(keyMsg("q")); cmd == nil {
		t.Errorf("a clean board should quit right away")
	}

	m = press(t, m, "1", "q")
	if m.mode != ModeConfirm || m.confirmAction != ConfirmQuit {
		t.Fatalf("unsaved changes should ask first, mode %v", m.mode)
	}
	m = press(t, m, "n")
	if m.mode != ModeNormal {
		t.Errorf("n should cancel")
	}

	m = press(t, m, "u")
	if m.getCurrentBuffer().dirty {
		t.Errorf("undoing back to the saved state should leave the board clean")
	}
	if _, cmd := m.Update(keyMsg("q")); cmd == nil {
		t.Errorf("a board undone to its saved state should quit right away")
	}
}

func TestBoard_SaveAndOpen(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "1", "2")
	m = press(t, m, "ctrl+s")
	if m.mode != ModeInput || m.prompt != PromptSave {
		t.Fatalf("ctrl+s should prompt for a name")
	}
	m.input = "board"
	m = press(t, m, "enter")
	want := filepath.Join(m.config.SaveDirectory, "board"+art.FileExtension)
	buf := m.getCurrentBuffer()
	if m.mode != ModeNormal || buf.filename != want || buf.dirty {
		t.Fatalf("save failed: mode %v file %q dirty %v err %q", m.mode, buf.filename, buf.dirty, m.errorMessage)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "N")
	if len(m.buffers) != 2 || m.currentBufferIndex != 1 {
		t.Fatalf("N should open a second board")
	}
	m = press(t, m, "o")
	m.input = want
	m = press(t, m, "enter")
	if m.currentBufferIndex != 0 {
		t.Errorf("opening an open file should switch to it, at %d", m.currentBufferIndex)
	}

	m = press(t, m, "}")
	if m.currentBufferIndex != 1 {
		t.Errorf("} should move to the next board")
	}
	m = press(t, m, "o")
	m.input = filepath.Join(t.TempDir(), "missing.emojiart")
	m = press(t, m, "enter")
	if m.mode != ModeInput || m.errorMessage == "" {
		t.Errorf("a missing file should keep the prompt open with an error")
	}
}

func TestBoard_Palettes(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "]")
	if got := m.palettes.Palette(m.paletteIndex).Name; got != "Sports" {
		t.Errorf("] switched to %q", got)
	}
	m = press(t, m, "[", "[")
	if got := m.palettes.Palette(m.paletteIndex).Name; got != "Faces" {
		t.Errorf("[ should wrap around, got %q", got)
	}

	m = press(t, m, "n")
	m.input = "Mine"
	m = press(t, m, "enter")
	if p := m.palettes.Palette(m.paletteIndex); p.Name != "Mine" || m.paletteIndex != 3 {
		t.Fatalf("new palette %+v at %d", p, m.paletteIndex)
	}
	m = press(t, m, "1")
	if m.errorMessage == "" {
		t.Errorf("an empty palette slot should report an error")
	}

	buf := m.getCurrentBuffer()
	e := buf.ctrl.AddEmoji("🦄", m.cursorDocument(), 40, nil)
	m.selected = e.ID
	m = press(t, m, "a")
	if got := m.palettes.Palette(m.paletteIndex).Emojis; got != "🦄" {
		t.Errorf("palette emojis = %q", got)
	}
	m = press(t, m, "<")
	if m.paletteIndex != 2 || m.palettes.Palette(2).Name != "Mine" {
		t.Errorf("< should move the palette left")
	}
	m = press(t, m, "d")
	if got := m.palettes.Palette(m.paletteIndex).Emojis; got != "" {
		t.Errorf("palette emojis after d = %q", got)
	}

	m.palettes.Update(palette.Palette{ID: m.palettes.Palette(m.paletteIndex).ID, Name: "Mine"})
	m = press(t, m, "ctrl+x")
	if m.mode != ModeConfirm {
		t.Fatalf("ctrl+x should ask first")
	}
	m = press(t, m, "y")
	if m.palettes.Len() != 3 {
		t.Errorf("expected 3 palettes, got %d", m.palettes.Len())
	}
}

func TestBoard_StatusMessages(t *testing.T) {
	m := newTestModel(t)
	buf := m.getCurrentBuffer()
	buf.ctrl.SetBackground(art.URLBackground("https://example.com/a.png"), buf.undo)
	buf.fitPending = true

	msg := <-m.events
	if msg.ctrl != buf.ctrl || msg.status.State != art.FetchFetching {
		t.Fatalf("unexpected status message %+v", msg)
	}
	next, cmd := m.Update(msg)
	m = next.(model)
	if cmd == nil {
		t.Errorf("status messages should keep listening")
	}
	if !buf.fitPending {
		t.Errorf("fit should wait for the fetch")
	}
	if got := fetchStatusText(buf.ctrl.FetchStatus()); got != "fetching…" {
		t.Errorf("status text = %q", got)
	}
	if got := fetchStatusText(art.FetchStatus{State: art.FetchFailed, URL: "https://x"}); got != "failed: https://x" {
		t.Errorf("status text = %q", got)
	}
}

func TestInitialModel_FetchFailureReachesLoop(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "board"+art.FileExtension)
	data := `{"background": {"url": "` + srv.URL + `/a.png"}, "emojis": []}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	config := &Config{EmojiSize: 40, FetchTimeout: time.Second, Confirmations: true}
	m, err := initialModel(config, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	buf := m.getCurrentBuffer()
	defer buf.ctrl.Close()
	buf.ctrl.Resolver().Wait()

	var states []art.FetchState
	for len(m.events) > 0 {
		msg := <-m.events
		if msg.ctrl != buf.ctrl {
			t.Errorf("status message for another board")
		}
		states = append(states, msg.status.State)
		next, _ := m.Update(msg)
		m = next.(model)
	}
	if len(states) != 2 || states[1] != art.FetchFailed {
		t.Fatalf("loop saw %v", states)
	}
	if buf.fitPending {
		t.Errorf("a failed fetch should stop waiting to fit")
	}
	if buf.dirty {
		t.Errorf("an opened board should start clean")
	}
	if got := fetchStatusText(buf.ctrl.FetchStatus()); got != "failed: "+srv.URL+"/a.png" {
		t.Errorf("status text = %q", got)
	}
}
