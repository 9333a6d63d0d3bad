package main

import (
	"emojiart/art"
	"emojiart/palette"
)

// Buffer is one open board.
type Buffer struct {
	ctrl     *art.Controller
	undo     *art.UndoManager
	filename string
	dirty    bool
	// saved is the document as last saved or opened.
	saved    art.Document
	viewport art.Viewport
	// fitPending zooms to the background as soon as its pixels arrive.
	fitPending bool
	backdrop   backdrop
}

type model struct {
	width              int
	height             int
	cursorX            int
	cursorY            int
	buffers            []*Buffer
	currentBufferIndex int
	mode               Mode
	help               bool
	helpScroll         int
	selected           int
	prompt             Prompt
	input              string
	confirmAction      ConfirmAction
	pendingPath        string
	config             *Config
	palettes           *palette.Store
	paletteIndex       int
	paletteOffset      int
	events             chan statusMsg
	errorMessage       string
	successMessage     string
}
