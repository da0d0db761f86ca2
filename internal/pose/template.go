package pose

import (
	"fmt"

	"github.com/ayusman/posetris/internal/tetris"
)

// Template pairs a block shape with the body pose that selects it.
type Template struct {
	ID     string       // Unique identifier, e.g. "T_90"
	Name   string       // Human-readable name
	Shape  tetris.Shape // Block shape spawned when the template is chosen
	Angles Angles       // Target angle per limb
	Color  tetris.Color // Piece color; Empty lets the session pick one
}

// Validate checks that the template can be scored and spawned.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template has no id")
	}
	if !t.Shape.Valid() {
		return fmt.Errorf("template %s: shape must be a non-empty rectangle with an occupied cell", t.ID)
	}
	if len(t.Angles) == 0 {
		return fmt.Errorf("template %s: no target angles", t.ID)
	}
	for limb, deg := range t.Angles {
		if !limb.Valid() {
			return fmt.Errorf("template %s: unknown limb %q", t.ID, limb)
		}
		if deg < 0 || deg >= 360 {
			return fmt.Errorf("template %s: %s angle %v outside [0,360)", t.ID, limb, deg)
		}
	}
	if !t.Color.Valid() {
		return fmt.Errorf("template %s: invalid color %d", t.ID, t.Color)
	}
	return nil
}

// Catalog is an ordered, read-only list of templates. Order is significant: it breaks
// ranking ties and orders candidates.
type Catalog struct {
	templates []*Template
	index     map[string]int
}

// NewCatalog validates templates and builds a catalog. IDs must be unique.
func NewCatalog(templates []*Template) (*Catalog, error) {
	c := &Catalog{
		templates: make([]*Template, 0, len(templates)),
		index:     make(map[string]int, len(templates)),
	}
	for _, t := range templates {
		if t == nil {
			continue
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		c.index[t.ID] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.templates)
}

// At returns the template at catalog index i.
func (c *Catalog) At(i int) *Template {
	return c.templates[i]
}

// Index returns the catalog index of the template with the given ID.
func (c *Catalog) Index(id string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[id]
	return i, ok
}

// Get returns the template with the given ID.
func (c *Catalog) Get(id string) (*Template, bool) {
	i, ok := c.Index(id)
	if !ok {
		return nil, false
	}
	return c.templates[i], true
}

// Templates returns the templates in catalog order.
func (c *Catalog) Templates() []*Template {
	if c == nil {
		return nil
	}
	return append([]*Template(nil), c.templates...)
}
