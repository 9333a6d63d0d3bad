package main

import (
	"bufio"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	SaveDirectory string
	PaletteDB     string
	EmojiSize     int
	EmojiFont     string
	FetchTimeout  time.Duration
	Confirmations bool
}

func defaultConfig(homeDir string) *Config {
	return &Config{
		PaletteDB:     filepath.Join(homeDir, ".emojiart-palettes.db"),
		EmojiSize:     40,
		FetchTimeout:  15 * time.Second,
		Confirmations: true,
	}
}

func loadConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultConfig("")
	}

	file, err := os.Open(filepath.Join(homeDir, ".emojiartrc"))
	if err != nil {
		return defaultConfig(homeDir)
	}
	defer file.Close()

	return parseConfig(file, homeDir)
}

func parseConfig(r io.Reader, homeDir string) *Config {
	config := defaultConfig(homeDir)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch strings.ToLower(key) {
		case "savedirectory", "save_directory", "savedir":
			config.SaveDirectory = expandPath(value, homeDir)
		case "palettes", "palettedb":
			config.PaletteDB = expandPath(value, homeDir)
		case "emojisize", "emoji_size":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				config.EmojiSize = n
			} else {
				log.Printf("config: ignoring emojisize %q", value)
			}
		case "emojifont", "emoji_font":
			config.EmojiFont = expandPath(value, homeDir)
		case "fetchtimeout", "fetch_timeout":
			if d, err := time.ParseDuration(value); err == nil && d > 0 {
				config.FetchTimeout = d
			} else {
				log.Printf("config: ignoring fetchtimeout %q", value)
			}
		case "confirmations", "confirm":
			config.Confirmations = strings.ToLower(value) == "true"
		}
	}

	return config
}

func expandPath(value, homeDir string) string {
	if strings.HasPrefix(value, "~") {
		value = filepath.Join(homeDir, strings.TrimPrefix(value, "~"))
	}
	if !filepath.IsAbs(value) {
		if absPath, err := filepath.Abs(value); err == nil {
			value = absPath
		}
	}
	return value
}

// GetSavePath places bare file names in the save directory.
func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" || filepath.IsAbs(filename) || strings.ContainsRune(filename, os.PathSeparator) {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}
