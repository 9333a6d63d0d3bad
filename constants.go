package main

type Mode int

const (
	ModeNormal Mode = iota
	ModeMove
	ModeInput
	ModeConfirm
)

// Prompt is what the text typed in ModeInput is for.
type Prompt int

const (
	PromptSave Prompt = iota
	PromptOpen
	PromptExport
	PromptBackground
	PromptNewPalette
	PromptRenamePalette
)

type ConfirmAction int

const (
	ConfirmQuit ConfirmAction = iota
	ConfirmCloseBuffer
	ConfirmRemovePalette
	ConfirmOverwriteFile
)

// A terminal cell covers cellWidth by cellHeight view points. Half-block
// rendering gives square background pixels.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

const (
	zoomStep     = 1.25
	scaleUp      = 1.1
	scaleDown    = 0.9
	paletteSlots = 9
	undoLimit    = 200
)
