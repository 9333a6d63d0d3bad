// Package art holds the emoji art document: its entity model and file
// encoding, the controller that owns a document and makes every change
// undoable, and the background resolution that turns the document's
// background into pixels.
package art

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ContentType identifies the document file format.
const ContentType = "application/vnd.emojiart+json"

// FileExtension is the extension used for saved documents.
const FileExtension = ".emojiart"

var (
	// ErrMalformedDocument is returned when document bytes are not a
	// well-formed encoding.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrFileUnreadable is returned when the bytes of a document could not
	// be obtained.
	ErrFileUnreadable = errors.New("file unreadable")
)

// Point is a position in document coordinates, an offset from the canvas
// center.
type Point struct {
	X, Y int
}

// Emoji is a sticker placed on the canvas.
type Emoji struct {
	Text string
	X    int
	Y    int
	Size int
	ID   int
}

// Location returns the emoji position.
func (e Emoji) Location() Point {
	return Point{X: e.X, Y: e.Y}
}

// Document is the background plus the emojis drawn over it, in z-order.
// The zero value is an empty document with a blank background.
type Document struct {
	background Background
	emojis     []Emoji
	lastID     int
}

// NewDocument returns an empty document.
func NewDocument() Document {
	return Document{}
}

func (d Document) Background() Background {
	return d.background
}

// Emojis returns a copy of the emojis, bottom first.
func (d Document) Emojis() []Emoji {
	out := make([]Emoji, len(d.emojis))
	copy(out, d.emojis)
	return out
}

// Emoji looks up an emoji by id.
func (d Document) Emoji(id int) (Emoji, bool) {
	if i := d.index(id); i >= 0 {
		return d.emojis[i], true
	}
	return Emoji{}, false
}

func (d Document) index(id int) int {
	for i, e := range d.emojis {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// AddEmoji appends a new emoji on top of the others and returns it. The id
// comes from the document's counter and is never reissued. The text is not
// checked; callers only pass single emoji characters.
func (d *Document) AddEmoji(text string, x, y, size int) Emoji {
	d.lastID++
	e := Emoji{Text: text, X: x, Y: y, Size: size, ID: d.lastID}
	d.emojis = append(d.emojis, e)
	return e
}

func (d *Document) setBackground(bg Background) {
	d.background = bg
}

func (d *Document) removeAt(i int) {
	d.emojis = append(d.emojis[:i:i], d.emojis[i+1:]...)
}

// clone returns a copy that shares no mutable state with d.
func (d Document) clone() Document {
	c := d
	c.emojis = d.Emojis()
	return c
}

// Equal reports structural equality of background and emojis, order
// included.
func (d Document) Equal(o Document) bool {
	if !d.background.Equal(o.background) || len(d.emojis) != len(o.emojis) {
		return false
	}
	for i := range d.emojis {
		if d.emojis[i] != o.emojis[i] {
			return false
		}
	}
	return true
}

type documentJSON struct {
	Background *backgroundJSON `json:"background"`
	Emojis     *[]emojiJSON    `json:"emojis"`
}

type backgroundJSON struct {
	URL       *string `json:"url,omitempty"`
	ImageData *[]byte `json:"imageData,omitempty"`
}

type emojiJSON struct {
	Text *string `json:"text"`
	X    *int    `json:"x"`
	Y    *int    `json:"y"`
	Size *int    `json:"size"`
	ID   *int    `json:"id"`
}

// Encode returns the JSON encoding of the document.
func (d Document) Encode() ([]byte, error) {
	var bg backgroundJSON
	switch d.background.kind {
	case backgroundURL:
		u := d.background.url
		bg.URL = &u
	case backgroundImageData:
		data := d.background.data
		if data == nil {
			data = []byte{}
		}
		bg.ImageData = &data
	}
	emojis := make([]emojiJSON, len(d.emojis))
	for i := range d.emojis {
		e := &d.emojis[i]
		emojis[i] = emojiJSON{Text: &e.Text, X: &e.X, Y: &e.Y, Size: &e.Size, ID: &e.ID}
	}
	return json.Marshal(documentJSON{Background: &bg, Emojis: &emojis})
}

// Decode parses an encoded document. Any structural problem is reported as
// ErrMalformedDocument.
func Decode(data []byte) (Document, error) {
	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := checkFieldNames(data); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if raw.Background == nil {
		return Document{}, fmt.Errorf("%w: missing background", ErrMalformedDocument)
	}
	if raw.Emojis == nil {
		return Document{}, fmt.Errorf("%w: missing emojis", ErrMalformedDocument)
	}

	var d Document
	switch {
	case raw.Background.URL != nil && raw.Background.ImageData != nil:
		return Document{}, fmt.Errorf("%w: background has both url and imageData", ErrMalformedDocument)
	case raw.Background.URL != nil:
		if _, err := url.Parse(*raw.Background.URL); err != nil {
			return Document{}, fmt.Errorf("%w: background url: %v", ErrMalformedDocument, err)
		}
		d.background = URLBackground(*raw.Background.URL)
	case raw.Background.ImageData != nil:
		d.background = ImageDataBackground(*raw.Background.ImageData)
	}

	seen := make(map[int]bool, len(*raw.Emojis))
	for i, e := range *raw.Emojis {
		if e.Text == nil || e.X == nil || e.Y == nil || e.Size == nil || e.ID == nil {
			return Document{}, fmt.Errorf("%w: emoji %d is missing a field", ErrMalformedDocument, i)
		}
		if seen[*e.ID] {
			return Document{}, fmt.Errorf("%w: duplicate emoji id %d", ErrMalformedDocument, *e.ID)
		}
		seen[*e.ID] = true
		d.emojis = append(d.emojis, Emoji{Text: *e.Text, X: *e.X, Y: *e.Y, Size: *e.Size, ID: *e.ID})
		if *e.ID > d.lastID {
			d.lastID = *e.ID
		}
	}
	return d, nil
}

// checkFieldNames rejects keys that differ from a field name only in case,
// which encoding/json would otherwise accept.
func checkFieldNames(data []byte) error {
	top, err := exactFields(data, "background", "emojis")
	if err != nil {
		return err
	}
	if _, err := exactFields(top["background"], "url", "imageData"); err != nil {
		return err
	}
	var emojis []json.RawMessage
	if len(top["emojis"]) > 0 {
		if err := json.Unmarshal(top["emojis"], &emojis); err != nil {
			return err
		}
	}
	for i, e := range emojis {
		if _, err := exactFields(e, "text", "x", "y", "size", "id"); err != nil {
			return fmt.Errorf("emoji %d: %w", i, err)
		}
	}
	return nil
}

func exactFields(data json.RawMessage, names ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if len(data) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key := range fields {
		for _, name := range names {
			if key != name && strings.EqualFold(key, name) {
				return nil, fmt.Errorf("field %q should be spelled %q", key, name)
			}
		}
	}
	return fields, nil
}

// ReadDocument reads and decodes a whole document from r.
func ReadDocument(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	return Decode(data)
}
