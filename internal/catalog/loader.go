package catalog

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/store"
)

// TemplateLister lists templates recorded in the store.
type TemplateLister interface {
	List() ([]*store.Template, error)
}

// Loader assembles the playable catalog from the built-in entries, an optional catalog
// file and stored templates, in that order of precedence (later wins).
type Loader struct {
	Path   string
	Stored TemplateLister
}

// FromStored converts a stored template into a catalog entry.
func FromStored(t *store.Template) Entry {
	return Entry{
		ID:     t.ID,
		Name:   t.Name,
		Shape:  t.Shape,
		Angles: t.Angles,
		Color:  t.Color,
	}
}

// Entries returns the merged entries without building a catalog.
func (l *Loader) Entries() ([]Entry, error) {
	sets := [][]Entry{Default()}

	if l.Path != "" {
		file, err := LoadFile(l.Path)
		if err != nil {
			return nil, err
		}
		sets = append(sets, file)
	}

	if l.Stored != nil {
		stored, err := l.Stored.List()
		if err != nil {
			return nil, errors.Wrap(err, "list stored templates")
		}
		// Stored templates without trained angles are not playable yet.
		trained := lo.Filter(stored, func(t *store.Template, _ int) bool {
			return len(t.Angles) > 0
		})
		sets = append(sets, lo.Map(trained, func(t *store.Template, _ int) Entry {
			return FromStored(t)
		}))
	}

	return Merge(sets...), nil
}

// Load builds the catalog.
func (l *Loader) Load() (*pose.Catalog, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}

	c, err := Build(entries)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("component", "catalog").
		Int("templates", c.Len()).
		Str("path", l.Path).
		Msg("catalog loaded")

	return c, nil
}
