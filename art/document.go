package art

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
)

// Controller owns one document and is the only way to change it. Every
// intent takes an optional undo manager; with a nil manager the change is
// applied but not undoable. A controller is driven from one goroutine;
// only background fetches run elsewhere.
type Controller struct {
	doc       Document
	resolver  *Resolver
	listeners []func(Document)
	statusFns []func(*Controller, FetchStatus)
}

// Option configures a Controller.
type Option func(*Controller)

// WithResolver sets the resolver that turns backgrounds into pixels.
func WithResolver(r *Resolver) Option {
	return func(c *Controller) {
		c.resolver = r
	}
}

// WithStatusListener registers fn for background fetch transitions before
// the controller starts resolving its first background, so no transition
// of an opened document is missed.
func WithStatusListener(fn func(*Controller, FetchStatus)) Option {
	return func(c *Controller) {
		c.statusFns = append(c.statusFns, fn)
	}
}

// NewController returns a controller for an empty document.
func NewController(opts ...Option) *Controller {
	return newController(NewDocument(), opts)
}

// NewControllerFor returns a controller for doc and starts resolving its
// background.
func NewControllerFor(doc Document, opts ...Option) *Controller {
	return newController(doc, opts)
}

func newController(doc Document, opts []Option) *Controller {
	c := &Controller{doc: doc.clone()}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = NewResolver(nil, nil)
	}
	for _, fn := range c.statusFns {
		c.resolver.OnStatus(func(s FetchStatus) { fn(c, s) })
	}
	if !doc.background.IsBlank() {
		c.resolver.Resolve(doc.background)
	}
	return c
}

// Open reads the document stored at path.
func Open(path string, opts ...Option) (*Controller, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	defer f.Close()

	doc, err := ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newController(doc, opts), nil
}

// Save writes the whole document to path, replacing any previous file.
func (c *Controller) Save(path string) error {
	data, err := c.doc.Encode()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Close stops any background fetch.
func (c *Controller) Close() {
	c.resolver.Close()
}

// OnChange registers fn to be called with the new document every time it
// is replaced.
func (c *Controller) OnChange(fn func(Document)) {
	c.listeners = append(c.listeners, fn)
}

// Document returns a copy of the current document.
func (c *Controller) Document() Document {
	return c.doc.clone()
}

func (c *Controller) Background() Background {
	return c.doc.background
}

func (c *Controller) Emojis() []Emoji {
	return c.doc.Emojis()
}

func (c *Controller) Emoji(id int) (Emoji, bool) {
	return c.doc.Emoji(id)
}

// BackgroundImage is the decoded background, nil while it is blank,
// fetching, failed or undecodable.
func (c *Controller) BackgroundImage() image.Image {
	return c.resolver.Image()
}

func (c *Controller) FetchStatus() FetchStatus {
	return c.resolver.Status()
}

// Resolver exposes the background resolver, mostly so callers can wait on
// a running fetch.
func (c *Controller) Resolver() *Resolver {
	return c.resolver
}

// EmojiAt returns the topmost emoji whose box, size units wide and centered
// on its location, contains p.
func (c *Controller) EmojiAt(p Point) (Emoji, bool) {
	for i := len(c.doc.emojis) - 1; i >= 0; i-- {
		e := c.doc.emojis[i]
		half := e.Size / 2
		if half < 1 {
			half = 1
		}
		if p.X >= e.X-half && p.X <= e.X+half && p.Y >= e.Y-half && p.Y <= e.Y+half {
			return e, true
		}
	}
	return Emoji{}, false
}

func (c *Controller) SetBackground(bg Background, um *UndoManager) {
	c.perform("Set Background", um, func(d *Document) {
		d.setBackground(bg)
	})
}

// AddEmoji places text at location and returns the new emoji.
func (c *Controller) AddEmoji(text string, location Point, size int, um *UndoManager) Emoji {
	var added Emoji
	c.perform("Add "+text, um, func(d *Document) {
		added = d.AddEmoji(text, location.X, location.Y, size)
	})
	return added
}

// MoveEmoji offsets e by (dx, dy). Nothing happens if e is gone.
func (c *Controller) MoveEmoji(e Emoji, dx, dy int, um *UndoManager) {
	i := c.doc.index(e.ID)
	if i < 0 {
		return
	}
	c.perform("Move", um, func(d *Document) {
		d.emojis[i].X += dx
		d.emojis[i].Y += dy
	})
}

// ScaleEmoji multiplies the size of e by factor, rounding half away from
// zero. The size is not clamped.
func (c *Controller) ScaleEmoji(e Emoji, factor float64, um *UndoManager) {
	i := c.doc.index(e.ID)
	if i < 0 {
		return
	}
	c.perform("Scale", um, func(d *Document) {
		d.emojis[i].Size = int(math.Round(float64(d.emojis[i].Size) * factor))
	})
}

// RemoveEmoji deletes e. Nothing happens if e is gone.
func (c *Controller) RemoveEmoji(e Emoji, um *UndoManager) {
	i := c.doc.index(e.ID)
	if i < 0 {
		return
	}
	c.perform("Remove "+e.Text, um, func(d *Document) {
		d.removeAt(i)
	})
}

// perform snapshots the document, applies change to a copy, swaps the copy
// in and registers the snapshot as the inverse.
func (c *Controller) perform(name string, um *UndoManager, change func(*Document)) {
	old := c.doc.clone()
	next := c.doc.clone()
	change(&next)
	c.replace(next)
	um.register(Action{Name: name, target: c, snapshot: old})
}

func (c *Controller) restore(name string, snapshot Document, um *UndoManager) {
	c.perform(name, um, func(d *Document) {
		lastID := d.lastID
		*d = snapshot.clone()
		if d.lastID < lastID {
			d.lastID = lastID
		}
	})
}

func (c *Controller) replace(next Document) {
	prev := c.doc
	c.doc = next
	for _, fn := range c.listeners {
		fn(next.clone())
	}
	if !prev.background.Equal(next.background) {
		c.resolver.Resolve(next.background)
	}
}
