package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"emojiart/art"
	"emojiart/palette"
)

func main() {
	exportPath := flag.String("export", "", "write the document as PNG to this file (- for stdout) and exit")
	storeName := flag.String("palette", "Default", "name of the palette store")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-palette name] [-export out.png] [document%s]\n", os.Args[0], art.FileExtension)
		flag.PrintDefaults()
	}
	flag.Parse()

	config := loadConfig()
	docPath := flag.Arg(0)

	if *exportPath != "" {
		if err := runExport(config, docPath, *exportPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	if os.Getenv("EMOJIART_DEBUG") != "" {
		f, err := tea.LogToFile("emojiart.log", "emojiart")
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	db, err := palette.OpenDB(config.PaletteDB)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()
	store, err := palette.Open(db, *storeName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	m, err := initialModel(config, store, docPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	final, err := p.Run()
	if fm, ok := final.(model); ok {
		for _, buf := range fm.buffers {
			buf.ctrl.Close()
		}
	}
	if err != nil {
		log.Fatal(err)
	}
}

// runExport renders a saved document to PNG without starting the board.
func runExport(config *Config, docPath, out string) error {
	if docPath == "" {
		return errors.New("-export needs a document to export")
	}
	ctrl, err := art.Open(docPath, art.WithResolver(art.NewResolver(&art.HTTPFetcher{Timeout: config.FetchTimeout}, nil)))
	if err != nil {
		return err
	}
	defer ctrl.Close()
	ctrl.Resolver().Wait()
	if st := ctrl.FetchStatus(); st.State == art.FetchFailed {
		log.Printf("background %s could not be fetched, exporting without it", st.URL)
	}

	doc, bg, opts := ctrl.Document(), ctrl.BackgroundImage(), exportOptionsFor(config)
	if out != "-" {
		return exportPNGFile(pngName(out), doc, bg, opts)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("refusing to write PNG data to a terminal")
	}
	return exportPNG(os.Stdout, doc, bg, opts)
}

// statusMsg reports a background fetch transition of one buffer.
type statusMsg struct {
	ctrl   *art.Controller
	status art.FetchStatus
}

func waitForStatus(events <-chan statusMsg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func initialModel(config *Config, store *palette.Store, docPath string) (model, error) {
	m := model{
		width:    80,
		height:   24,
		selected: -1,
		config:   config,
		palettes: store,
		events:   make(chan statusMsg, 16),
	}
	if docPath == "" {
		m.addNewBuffer(art.NewController(m.controllerOptions()...), "")
		return m, nil
	}
	if _, err := os.Stat(docPath); errors.Is(err, os.ErrNotExist) {
		m.addNewBuffer(art.NewController(m.controllerOptions()...), docPath)
		m.successMessage = "New document " + docPath
		return m, nil
	}
	ctrl, err := art.Open(docPath, m.controllerOptions()...)
	if err != nil {
		return m, err
	}
	m.addNewBuffer(ctrl, docPath)
	return m, nil
}

func (m model) Init() tea.Cmd {
	return waitForStatus(m.events)
}
