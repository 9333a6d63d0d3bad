package main

func (m *model) undo() {
	buf := m.getCurrentBuffer()
	if buf == nil || !buf.undo.CanUndo() {
		m.errorMessage = "Nothing to undo"
		return
	}
	name := buf.undo.UndoName()
	buf.undo.Undo()
	m.afterHistoryChange(buf)
	m.successMessage = "Undo " + name
}

func (m *model) redo() {
	buf := m.getCurrentBuffer()
	if buf == nil || !buf.undo.CanRedo() {
		m.errorMessage = "Nothing to redo"
		return
	}
	name := buf.undo.RedoName()
	buf.undo.Redo()
	m.afterHistoryChange(buf)
	m.successMessage = "Redo " + name
}

// afterHistoryChange drops a selection that no longer exists.
func (m *model) afterHistoryChange(buf *Buffer) {
	if _, ok := buf.ctrl.Emoji(m.selected); !ok {
		m.selected = -1
		if m.mode == ModeMove {
			m.mode = ModeNormal
		}
	}
}
