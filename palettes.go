package main

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

func (m *model) currentPaletteEmojis() []string {
	if m.palettes == nil || m.palettes.Len() == 0 {
		return nil
	}
	return m.palettes.Palette(m.paletteIndex).List()
}

// addPaletteEmoji drops the emoji in the given slot of the visible palette
// page at the cursor.
func (m *model) addPaletteEmoji(slot int) {
	buf := m.getCurrentBuffer()
	emojis := m.currentPaletteEmojis()
	i := m.paletteOffset + slot
	if buf == nil || i >= len(emojis) {
		m.errorMessage = fmt.Sprintf("Palette has no emoji %d", slot+1)
		return
	}
	e := buf.ctrl.AddEmoji(emojis[i], m.cursorDocument(), m.config.EmojiSize, buf.undo)
	m.selected = e.ID
}

func (m *model) switchPalette(delta int) {
	if m.palettes == nil || m.palettes.Len() == 0 {
		return
	}
	n := m.palettes.Len()
	m.paletteIndex = ((m.paletteIndex+delta)%n + n) % n
	m.paletteOffset = 0
}

func (m *model) scrollPalette(delta int) {
	n := len(m.currentPaletteEmojis())
	offset := m.paletteOffset + delta*paletteSlots
	if offset < 0 || offset >= n {
		return
	}
	m.paletteOffset = offset
}

// movePalette reorders the current palette one place left or right.
func (m *model) movePalette(delta int) {
	if m.palettes == nil {
		return
	}
	to := m.paletteIndex + delta
	if to < 0 || to >= m.palettes.Len() {
		return
	}
	if err := m.palettes.Move(m.paletteIndex, to); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.paletteIndex = to
}

func (m *model) addTargetToPalette() {
	e, ok := m.target()
	if m.palettes == nil || !ok {
		m.errorMessage = "No emoji under the cursor"
		return
	}
	p := m.palettes.Palette(m.paletteIndex)
	if err := m.palettes.AddEmojis(p.ID, e.Text); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.paletteOffset = 0
	m.successMessage = fmt.Sprintf("Added %s to %s", e.Text, p.Name)
}

func (m *model) removeTargetFromPalette() {
	e, ok := m.target()
	if m.palettes == nil || !ok {
		m.errorMessage = "No emoji under the cursor"
		return
	}
	p := m.palettes.Palette(m.paletteIndex)
	if err := m.palettes.RemoveEmoji(p.ID, e.Text); err != nil {
		m.errorMessage = err.Error()
		return
	}
	if m.paletteOffset >= len(m.currentPaletteEmojis()) {
		m.paletteOffset = 0
	}
	m.successMessage = fmt.Sprintf("Removed %s from %s", e.Text, p.Name)
}

func (m *model) removePalette() {
	if m.palettes == nil {
		return
	}
	name := m.palettes.Palette(m.paletteIndex).Name
	next, err := m.palettes.Remove(m.paletteIndex)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.paletteIndex = next
	m.paletteOffset = 0
	m.successMessage = "Removed palette " + name
}

func (m *model) renderPaletteBar(width int) string {
	if m.palettes == nil || m.palettes.Len() == 0 {
		return strings.Repeat(" ", width)
	}
	p := m.palettes.Palette(m.paletteIndex)
	emojis := p.List()

	var bar strings.Builder
	fmt.Fprintf(&bar, "[%s %d/%d]", p.Name, m.paletteIndex+1, m.palettes.Len())
	if m.paletteOffset > 0 {
		bar.WriteString(" ‹")
	}
	for slot := 0; slot < paletteSlots && m.paletteOffset+slot < len(emojis); slot++ {
		fmt.Fprintf(&bar, " %d:%s", slot+1, emojis[m.paletteOffset+slot])
	}
	if m.paletteOffset+paletteSlots < len(emojis) {
		bar.WriteString(" ›")
	}
	if len(emojis) == 0 {
		bar.WriteString(" (empty, press a to add the selected emoji)")
	}
	return runewidth.FillRight(runewidth.Truncate(bar.String(), width, "…"), width)
}
