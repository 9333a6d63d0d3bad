// Package palette keeps named strings of emojis the user picks stickers
// from. Palettes are ordered and the order is persisted.
package palette

import (
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rivo/uniseg"
	_ "modernc.org/sqlite"
)

// Palette is a named run of emojis.
type Palette struct {
	ID     int    `db:"id"`
	Name   string `db:"name"`
	Emojis string `db:"emojis"`
}

// List splits the palette into its individual emojis.
func (p Palette) List() []string {
	return Split(p.Emojis)
}

const schema = `
CREATE TABLE IF NOT EXISTS palettes (
    store    TEXT    NOT NULL,
    id       INTEGER NOT NULL,
    position INTEGER NOT NULL,
    name     TEXT    NOT NULL,
    emojis   TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (store, id)
);
`

var builtins = []Palette{
	{Name: "Vehicles", Emojis: "🚙🚗🚘🚕🚖🏎🚚🛻🚛🚐🚓🚔🚑🚒🚀✈️🛫🛬🛩🚁🛸🚲🏍🛶⛵️🚤🛥🛳⛴🚢🚂🚝🚅🚆🚊🚉🚇🛺🚜"},
	{Name: "Sports", Emojis: "🏈⚾️🏀⚽️🎾🏐🥏🏓⛳️🥅🥌🏂⛷🎳"},
	{Name: "Faces", Emojis: "😀😃😄😁😆😅😂🤣🥲☺️😊😇🙂🙃😉😌😍🥰😘😗😙😚😋😛😝😜🤪🤨🧐🤓😎🥸🤩🥳😏😞😔😟😕🙁☹️😣😖😫😩🥺😢😭😤😠😡🤯😳🥶😥😓🤗🤔🤭🤫🤥😬🙄😯😧🥱😴🤮😷🤧🤒🤠"},
}

// Store is the ordered list of palettes saved under one name. Every change
// is written through to the database. A Store is not safe for concurrent
// use.
type Store struct {
	name     string
	db       *sqlx.DB
	palettes []Palette
}

// OpenDB opens (creating if needed) the SQLite database at path.
func OpenDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("OpenDB: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenDB: schema: %w", err)
	}
	return db, nil
}

// Open loads the palettes saved under name. A store with nothing saved is
// seeded with the built-in palettes.
func Open(db *sqlx.DB, name string) (*Store, error) {
	s := &Store{name: name, db: db}
	err := db.Select(&s.palettes,
		`SELECT id, name, emojis FROM palettes WHERE store = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("Open: loading store %q: %w", name, err)
	}
	if len(s.palettes) > 0 {
		log.Printf("palette: loaded %d palettes for %q", len(s.palettes), name)
		return s, nil
	}

	log.Printf("palette: using built-in palettes for %q", name)
	for i := len(builtins) - 1; i >= 0; i-- {
		s.insert(builtins[i].Name, builtins[i].Emojis, 0)
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Name() string {
	return s.name
}

func (s *Store) Len() int {
	return len(s.palettes)
}

// Palettes returns a copy of the palettes in order.
func (s *Store) Palettes() []Palette {
	out := make([]Palette, len(s.palettes))
	copy(out, s.palettes)
	return out
}

// Palette returns the palette at index, clamped into range.
func (s *Store) Palette(index int) Palette {
	return s.palettes[clamp(index, 0, len(s.palettes)-1)]
}

// Index returns the position of the palette with id, or -1.
func (s *Store) Index(id int) int {
	for i, p := range s.palettes {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Insert adds a palette at index (clamped) and returns it. Its id is one
// more than the largest in the store.
func (s *Store) Insert(name, emojis string, index int) (Palette, error) {
	p := s.insert(name, emojis, index)
	return p, s.save()
}

func (s *Store) insert(name, emojis string, index int) Palette {
	id := 0
	for _, p := range s.palettes {
		if p.ID > id {
			id = p.ID
		}
	}
	p := Palette{ID: id + 1, Name: name, Emojis: Normalize(emojis)}
	index = clamp(index, 0, len(s.palettes))
	s.palettes = append(s.palettes, Palette{})
	copy(s.palettes[index+1:], s.palettes[index:])
	s.palettes[index] = p
	return p
}

// Remove deletes the palette at index unless it is the last one left, and
// returns the index to show next.
func (s *Store) Remove(index int) (int, error) {
	if len(s.palettes) > 1 && index >= 0 && index < len(s.palettes) {
		s.palettes = append(s.palettes[:index], s.palettes[index+1:]...)
		if err := s.save(); err != nil {
			return 0, err
		}
	}
	if index < 0 {
		index = 0
	}
	return index % len(s.palettes), nil
}

// Update replaces the name and emojis of the palette with p's id.
func (s *Store) Update(p Palette) error {
	i := s.Index(p.ID)
	if i < 0 {
		return fmt.Errorf("Update: no palette with id %d", p.ID)
	}
	p.Emojis = Normalize(p.Emojis)
	s.palettes[i] = p
	return s.save()
}

// Move reorders the palette at from to position to.
func (s *Store) Move(from, to int) error {
	if from < 0 || from >= len(s.palettes) {
		return fmt.Errorf("Move: index %d out of range", from)
	}
	to = clamp(to, 0, len(s.palettes)-1)
	if from == to {
		return nil
	}
	p := s.palettes[from]
	s.palettes = append(s.palettes[:from], s.palettes[from+1:]...)
	s.palettes = append(s.palettes, Palette{})
	copy(s.palettes[to+1:], s.palettes[to:])
	s.palettes[to] = p
	return s.save()
}

// AddEmojis appends emojis not already in the palette with id.
func (s *Store) AddEmojis(id int, emojis string) error {
	i := s.Index(id)
	if i < 0 {
		return fmt.Errorf("AddEmojis: no palette with id %d", id)
	}
	p := s.palettes[i]
	p.Emojis = emojis + p.Emojis
	return s.Update(p)
}

// RemoveEmoji drops one emoji from the palette with id.
func (s *Store) RemoveEmoji(id int, emoji string) error {
	i := s.Index(id)
	if i < 0 {
		return fmt.Errorf("RemoveEmoji: no palette with id %d", id)
	}
	var b strings.Builder
	for _, e := range s.palettes[i].List() {
		if e != emoji {
			b.WriteString(e)
		}
	}
	p := s.palettes[i]
	p.Emojis = b.String()
	return s.Update(p)
}

// save rewrites the whole ordered list for this store in one transaction.
func (s *Store) save() error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("save: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM palettes WHERE store = ?`, s.name); err != nil {
		return fmt.Errorf("save: clearing store %q: %w", s.name, err)
	}
	for i, p := range s.palettes {
		_, err := tx.Exec(`INSERT INTO palettes (store, id, position, name, emojis) VALUES (?, ?, ?, ?, ?)`,
			s.name, p.ID, i, p.Name, p.Emojis)
		if err != nil {
			return fmt.Errorf("save: palette %d: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: commit: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Split breaks s into user-perceived characters.
func Split(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Normalize keeps only the emojis of s, each once, in their first order.
func Normalize(s string) string {
	seen := map[string]bool{}
	var b strings.Builder
	for _, c := range Split(s) {
		if seen[c] || !isEmojiCluster(c) {
			continue
		}
		seen[c] = true
		b.WriteString(c)
	}
	return b.String()
}

// IsEmoji reports whether s is exactly one emoji character.
func IsEmoji(s string) bool {
	return uniseg.GraphemeClusterCount(s) == 1 && isEmojiCluster(s)
}

func isEmojiCluster(c string) bool {
	runes := []rune(c)
	if len(runes) == 0 {
		return false
	}
	first := runes[0]
	if len(runes) > 1 {
		for _, r := range runes[1:] {
			// variation selector 16, zero width joiner, keycap, skin tones
			if r == 0xFE0F || r == 0x200D || r == 0x20E3 || (r >= 0x1F3FB && r <= 0x1F3FF) {
				return isEmojiBase(first) || first == '#' || first == '*' || (first >= '0' && first <= '9')
			}
		}
	}
	return isEmojiBase(first) && first >= 0x238d
}

func isEmojiBase(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r >= 0x2190 && r <= 0x21FF:
		return true
	case r == 0x00A9 || r == 0x00AE || r == 0x203C || r == 0x2049 || r == 0x2122 || r == 0x2139:
		return true
	case r >= 0x25AA && r <= 0x25FE:
		return true
	case r == 0x3030 || r == 0x303D || r == 0x3297 || r == 0x3299:
		return true
	}
	return false
}
