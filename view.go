package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"emojiart/art"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	barStyle     = lipgloss.NewStyle().Reverse(true)
)

func (m model) View() string {
	if m.help {
		return m.helpView()
	}
	buf := m.getCurrentBuffer()
	if buf == nil {
		return ""
	}
	w, h := m.canvasSize()

	var result strings.Builder
	if len(m.buffers) > 1 {
		result.WriteString(m.renderBufferBar(w))
		result.WriteString("\n")
	}
	lines := renderCanvas(buf, w, h, m.cursorX, m.cursorY, m.mode != ModeInput, m.selected)
	result.WriteString(strings.Join(lines, "\n"))
	result.WriteString("\n")
	result.WriteString(m.renderPaletteBar(w))
	result.WriteString("\n")
	result.WriteString(m.statusLine())
	return result.String()
}

func (m *model) renderBufferBar(width int) string {
	var bar strings.Builder
	bar.WriteString("Boards: ")
	for i, buf := range m.buffers {
		if i > 0 {
			bar.WriteString(" | ")
		}
		name := m.bufferName(i)
		if buf.dirty {
			name += "*"
		}
		if i == m.currentBufferIndex {
			name = "[" + name + "]"
		}
		bar.WriteString(name)
	}
	return barStyle.Render(runewidth.FillRight(runewidth.Truncate(bar.String(), width, "…"), width))
}

// fetchStatusText describes the background resolution for the status line.
func fetchStatusText(s art.FetchStatus) string {
	switch s.State {
	case art.FetchFetching:
		return "fetching…"
	case art.FetchFailed:
		return "failed: " + s.URL
	}
	return ""
}

func (m model) statusLine() string {
	buf := m.getCurrentBuffer()
	var status string
	switch m.mode {
	case ModeInput:
		status = fmt.Sprintf("Mode: INPUT | %s: %s█ | Enter=confirm, Esc=cancel", m.promptLabel(), m.input)
	case ModeConfirm:
		status = "Mode: CONFIRM | " + m.confirmMessage()
	default:
		modeStr := "NORMAL"
		if m.mode == ModeMove {
			modeStr = "MOVE"
		}
		status = fmt.Sprintf("Mode: %s | Zoom %d%%", modeStr, int(math.Round(buf.viewport.Zoom*100)))
		if e, ok := buf.ctrl.Emoji(m.selected); ok {
			status += fmt.Sprintf(" | Selected: %s size %d", e.Text, e.Size)
		}
		if text := fetchStatusText(buf.ctrl.FetchStatus()); text != "" {
			status += " | Background " + text
		}
		if m.successMessage == "" && m.errorMessage == "" {
			status += " | ? for help | q to quit"
		}
	}
	if m.successMessage != "" {
		status += " | " + successStyle.Render(m.successMessage)
	}
	if m.errorMessage != "" {
		status += " | " + errorStyle.Render("ERROR: "+m.errorMessage)
	}
	return status
}

func (m model) promptLabel() string {
	switch m.prompt {
	case PromptSave:
		return "Save as"
	case PromptOpen:
		return "Open"
	case PromptExport:
		return "Export PNG"
	case PromptBackground:
		return "Background URL or image file"
	case PromptNewPalette:
		return "New palette name"
	case PromptRenamePalette:
		return "Rename palette"
	}
	return ""
}

func (m model) confirmMessage() string {
	switch m.confirmAction {
	case ConfirmQuit:
		return "Quit with unsaved changes? (y/n)"
	case ConfirmCloseBuffer:
		return "Close this board? Unsaved changes will be lost. (y/n)"
	case ConfirmRemovePalette:
		if m.palettes != nil {
			return fmt.Sprintf("Remove palette %s? (y/n)", m.palettes.Palette(m.paletteIndex).Name)
		}
	case ConfirmOverwriteFile:
		return fmt.Sprintf("File %s already exists. Overwrite? (y/n)", m.pendingPath)
	}
	return "(y/n)"
}

func (m model) helpView() string {
	helpLines := []string{
		"Emoji Art Help",
		"==============",
		"",
		"Navigation:",
		"-----------",
		"  h/←/j/↓/k/↑/l/→  Move the cursor",
		"  Shift+arrows     Pan the board (also H/J/K/L)",
		"  z / Z            Zoom in / out (mouse wheel too)",
		"  0                Zoom to fit the background",
		"  click            Select the emoji under the pointer or move the cursor",
		"",
		"Emojis:",
		"-------",
		"  1-9              Add the palette emoji in that slot at the cursor",
		"  tab              Select the next emoji",
		"  m / Enter        Move the selected emoji with the arrows, again to finish",
		"  + / -            Make the selected emoji larger / smaller",
		"  x                Remove the selected emoji",
		"  Esc              Clear the selection",
		"",
		"Background:",
		"-----------",
		"  p / Ctrl+V       Paste an image URL, image file path or emojis",
		"  B                Type a background URL or image file path",
		"  b                Blank background",
		"",
		"Palettes:",
		"---------",
		"  [ / ]            Previous / next palette",
		"  , / .            Previous / next page of the palette",
		"  < / >            Move the palette left / right",
		"  a / d            Add / remove the selected emoji to / from the palette",
		"  n                New palette",
		"  r                Rename palette",
		"  Ctrl+X           Remove palette",
		"",
		"Files and boards:",
		"-----------------",
		"  u / U, Ctrl+R    Undo / redo",
		"  Ctrl+S           Save",
		"  o                Open",
		"  e                Export PNG",
		"  N                New board",
		"  { / }            Previous / next board",
		"  Ctrl+W           Close board",
		"  q                Quit",
	}

	visibleHeight := m.height - 1
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	startLine := m.helpScroll
	if startLine > len(helpLines)-visibleHeight {
		startLine = max(0, len(helpLines)-visibleHeight)
	}
	endLine := min(len(helpLines), startLine+visibleHeight)

	result := strings.Join(helpLines[startLine:endLine], "\n")
	result += "\n" + fmt.Sprintf("Help (%d-%d of %d lines) | j/k to scroll, Esc to close",
		startLine+1, endLine, len(helpLines))
	return result
}
