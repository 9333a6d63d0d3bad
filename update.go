package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"emojiart/art"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewports()
		m.ensureCursorInBounds()
		return m, nil

	case statusMsg:
		if buf := m.bufferFor(msg.ctrl); buf != nil {
			m.settle(buf)
		}
		return m, waitForStatus(m.events)

	case tea.MouseMsg:
		if !m.help && (m.mode == ModeNormal || m.mode == ModeMove) {
			m.handleMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "j", "down":
				m.helpScroll++
			case "k", "up":
				if m.helpScroll > 0 {
					m.helpScroll--
				}
			case "esc", "?", "q":
				m.help = false
			}
			return m, nil
		}

		switch m.mode {
		case ModeConfirm:
			return m.updateConfirm(msg)
		case ModeInput:
			return m.updateInput(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	m.successMessage = ""
	buf := m.getCurrentBuffer()
	if buf == nil {
		return m, nil
	}

	switch key := msg.String(); key {
	case "esc":
		m.mode = ModeNormal
		m.selected = -1
	case "q", "ctrl+c":
		if m.config.Confirmations && m.anyDirty() {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmQuit
			return m, nil
		}
		return m, tea.Quit
	case "?":
		m.help = true
		m.helpScroll = 0

	case "h", "j", "k", "l", "left", "down", "up", "right",
		"H", "J", "K", "L", "shift+left", "shift+down", "shift+up", "shift+right":
		m.handleNavigation(key, m.getMoveSpeed(key))
	case "z":
		m.zoom(zoomStep)
	case "Z":
		m.zoom(1 / zoomStep)
	case "0":
		m.zoomToFit()

	case "tab":
		m.selectNext()
	case "m", "enter":
		if m.mode == ModeMove {
			m.mode = ModeNormal
			return m, nil
		}
		e, ok := m.target()
		if !ok {
			m.errorMessage = "No emoji under the cursor"
			return m, nil
		}
		m.mode = ModeMove
		m.focus(e)
	case "+", "=":
		m.scaleTarget(scaleUp)
	case "-":
		m.scaleTarget(scaleDown)
	case "x", "delete", "backspace":
		e, ok := m.target()
		if !ok {
			m.errorMessage = "No emoji under the cursor"
			return m, nil
		}
		buf.ctrl.RemoveEmoji(e, buf.undo)
		m.selected = -1
		m.mode = ModeNormal

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.addPaletteEmoji(int(key[0] - '1'))
	case "[":
		m.switchPalette(-1)
	case "]":
		m.switchPalette(1)
	case ",":
		m.scrollPalette(-1)
	case ".":
		m.scrollPalette(1)
	case "<":
		m.movePalette(-1)
	case ">":
		m.movePalette(1)
	case "a":
		m.addTargetToPalette()
	case "d":
		m.removeTargetFromPalette()
	case "n":
		m.startPrompt(PromptNewPalette, "")
	case "r":
		if m.palettes != nil {
			m.startPrompt(PromptRenamePalette, m.palettes.Palette(m.paletteIndex).Name)
		}
	case "ctrl+x":
		if m.palettes != nil && m.palettes.Len() > 1 {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmRemovePalette
		}

	case "p", "ctrl+v":
		text, err := readClipboardText()
		if err != nil {
			m.errorMessage = "Clipboard: " + err.Error()
			return m, nil
		}
		m.applyPaste(classifyPaste(text, os.ReadFile))
	case "B":
		m.startPrompt(PromptBackground, "")
	case "b":
		if !buf.ctrl.Background().IsBlank() {
			buf.ctrl.SetBackground(art.Blank(), buf.undo)
		}

	case "u":
		m.undo()
	case "U", "ctrl+r":
		m.redo()

	case "ctrl+s":
		m.startPrompt(PromptSave, buf.filename)
	case "o":
		m.startPrompt(PromptOpen, "")
	case "e":
		name := "emojiart.png"
		if buf.filename != "" {
			name = pngName(buf.filename)
		}
		m.startPrompt(PromptExport, name)
	case "N":
		m.addNewBuffer(art.NewController(m.controllerOptions()...), "")
		m.resizeViewports()
	case "{":
		m.switchBuffer(-1)
	case "}":
		m.switchBuffer(1)
	case "ctrl+w":
		if m.config.Confirmations && buf.dirty {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmCloseBuffer
			return m, nil
		}
		m.closeCurrentBuffer()
		m.resizeViewports()
	}
	return m, nil
}

func (m *model) anyDirty() bool {
	for _, buf := range m.buffers {
		if buf.dirty {
			return true
		}
	}
	return false
}

func (m *model) switchBuffer(delta int) {
	if len(m.buffers) < 2 {
		return
	}
	m.currentBufferIndex = (m.currentBufferIndex + delta + len(m.buffers)) % len(m.buffers)
	m.selected = -1
	m.mode = ModeNormal
}

func (m *model) scaleTarget(factor float64) {
	buf := m.getCurrentBuffer()
	e, ok := m.target()
	if buf == nil || !ok {
		m.errorMessage = "No emoji under the cursor"
		return
	}
	buf.ctrl.ScaleEmoji(e, factor, buf.undo)
}

func (m *model) startPrompt(p Prompt, initial string) {
	m.mode = ModeInput
	m.prompt = p
	m.input = initial
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = ModeNormal
		m.input = ""
		m.errorMessage = ""
		return m, nil
	case tea.KeyEnter:
		m.errorMessage = ""
		m.submitInput()
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeyCtrlV:
		if text, err := readClipboardText(); err == nil {
			m.input += cleanClipboardText(text)
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// submitInput acts on the typed text. On error the prompt stays open so
// the input can be corrected.
func (m *model) submitInput() {
	input := strings.TrimSpace(m.input)
	buf := m.getCurrentBuffer()
	if input == "" || buf == nil {
		m.errorMessage = "Nothing entered"
		return
	}

	switch m.prompt {
	case PromptSave:
		path := m.config.GetSavePath(documentName(input))
		if _, err := os.Stat(path); err == nil && path != buf.filename && m.config.Confirmations {
			m.pendingPath = path
			m.mode = ModeConfirm
			m.confirmAction = ConfirmOverwriteFile
			return
		}
		if !m.save(path) {
			return
		}
	case PromptOpen:
		if !m.open(m.config.GetSavePath(input)) {
			return
		}
	case PromptExport:
		path := m.config.GetSavePath(pngName(input))
		if err := m.exportFile(path); err != nil {
			m.errorMessage = err.Error()
			return
		}
		m.successMessage = "Exported " + path
	case PromptBackground:
		p := classifyPaste(input, os.ReadFile)
		if p.kind == pasteNothing {
			m.errorMessage = "Not an image URL, image file or emoji"
			return
		}
		m.applyPaste(p)
	case PromptNewPalette:
		if m.palettes == nil {
			break
		}
		p, err := m.palettes.Insert(input, "", m.paletteIndex+1)
		if err != nil {
			m.errorMessage = err.Error()
			return
		}
		m.paletteIndex = m.palettes.Index(p.ID)
		m.paletteOffset = 0
		m.successMessage = "New palette " + p.Name
	case PromptRenamePalette:
		if m.palettes == nil {
			break
		}
		p := m.palettes.Palette(m.paletteIndex)
		p.Name = input
		if err := m.palettes.Update(p); err != nil {
			m.errorMessage = err.Error()
			return
		}
	}
	m.mode = ModeNormal
	m.input = ""
}

func documentName(name string) string {
	if filepath.Ext(name) == "" {
		return name + art.FileExtension
	}
	return name
}

func (m *model) save(path string) bool {
	buf := m.getCurrentBuffer()
	if err := buf.ctrl.Save(path); err != nil {
		m.errorMessage = err.Error()
		return false
	}
	buf.filename = path
	buf.saved = buf.ctrl.Document()
	buf.dirty = false
	m.successMessage = "Saved " + path
	return true
}

func (m *model) open(path string) bool {
	for i, buf := range m.buffers {
		if buf.filename == path {
			m.currentBufferIndex = i
			m.selected = -1
			return true
		}
	}
	ctrl, err := art.Open(path, m.controllerOptions()...)
	switch {
	case errors.Is(err, art.ErrMalformedDocument):
		m.errorMessage = "Not an emoji art document: " + path
		return false
	case err != nil:
		m.errorMessage = "Could not read " + path
		return false
	}
	m.addNewBuffer(ctrl, path)
	m.resizeViewports()
	m.successMessage = "Opened " + path
	return true
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		switch m.confirmAction {
		case ConfirmQuit:
			return m, tea.Quit
		case ConfirmCloseBuffer:
			m.closeCurrentBuffer()
			m.resizeViewports()
		case ConfirmRemovePalette:
			m.removePalette()
		case ConfirmOverwriteFile:
			m.save(m.pendingPath)
			m.pendingPath = ""
		}
	case "n", "N", "esc":
		m.mode = ModeNormal
		m.pendingPath = ""
	}
	return m, nil
}
