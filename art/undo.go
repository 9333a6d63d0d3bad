package art

// Action is one entry on an undo stack: invoking it puts the target's
// document back to the captured snapshot.
type Action struct {
	Name     string
	target   restorer
	snapshot Document
}

type restorer interface {
	restore(name string, snapshot Document, um *UndoManager)
}

type undoState int

const (
	undoIdle undoState = iota
	undoUndoing
	undoRedoing
)

// UndoManager is a caller-owned undo scope. Actions registered while it is
// undoing land on the redo stack, and actions registered while redoing land
// back on the undo stack, so an undone change can be redone by replaying
// the inverse the undo itself registered. A nil *UndoManager discards
// registrations.
type UndoManager struct {
	undoStack []Action
	redoStack []Action
	state     undoState
	limit     int
}

// NewUndoManager returns a manager keeping at most limit undo actions.
// A limit of zero or less keeps everything.
func NewUndoManager(limit int) *UndoManager {
	return &UndoManager{limit: limit}
}

func (um *UndoManager) register(a Action) {
	if um == nil {
		return
	}
	switch um.state {
	case undoUndoing:
		um.redoStack = append(um.redoStack, a)
	case undoRedoing:
		um.undoStack = append(um.undoStack, a)
	default:
		um.undoStack = append(um.undoStack, a)
		um.redoStack = um.redoStack[:0]
	}
	if um.limit > 0 && len(um.undoStack) > um.limit {
		um.undoStack = append(um.undoStack[:0], um.undoStack[len(um.undoStack)-um.limit:]...)
	}
}

// Undo reverts the most recent action. It reports false when there is
// nothing to undo.
func (um *UndoManager) Undo() bool {
	if um == nil || len(um.undoStack) == 0 || um.state != undoIdle {
		return false
	}
	last := len(um.undoStack) - 1
	a := um.undoStack[last]
	um.undoStack = um.undoStack[:last]

	um.state = undoUndoing
	a.target.restore(a.Name, a.snapshot, um)
	um.state = undoIdle
	return true
}

// Redo reapplies the most recently undone action.
func (um *UndoManager) Redo() bool {
	if um == nil || len(um.redoStack) == 0 || um.state != undoIdle {
		return false
	}
	last := len(um.redoStack) - 1
	a := um.redoStack[last]
	um.redoStack = um.redoStack[:last]

	um.state = undoRedoing
	a.target.restore(a.Name, a.snapshot, um)
	um.state = undoIdle
	return true
}

func (um *UndoManager) CanUndo() bool {
	return um != nil && len(um.undoStack) > 0
}

func (um *UndoManager) CanRedo() bool {
	return um != nil && len(um.redoStack) > 0
}

// UndoName is the name of the action Undo would revert.
func (um *UndoManager) UndoName() string {
	if !um.CanUndo() {
		return ""
	}
	return um.undoStack[len(um.undoStack)-1].Name
}

// RedoName is the name of the action Redo would reapply.
func (um *UndoManager) RedoName() string {
	if !um.CanRedo() {
		return ""
	}
	return um.redoStack[len(um.redoStack)-1].Name
}

// RemoveAll clears both stacks.
func (um *UndoManager) RemoveAll() {
	if um == nil {
		return
	}
	um.undoStack = nil
	um.redoStack = nil
}
