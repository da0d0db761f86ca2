// Package catalog loads pose templates from YAML files and the template store and builds
// the immutable catalog the game plays with.
package catalog

import (
	"bytes"
	_ "embed"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/tetris"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrInvalidTemplate is returned when a catalog entry fails validation.
var ErrInvalidTemplate = errors.New("invalid template")

// Entry is the file representation of a template.
type Entry struct {
	ID     string             `yaml:"id" json:"id" validate:"required,max=64"`
	Name   string             `yaml:"name,omitempty" json:"name" validate:"max=128"`
	Shape  [][]int            `yaml:"shape,flow" json:"shape" validate:"required,min=1,max=4,dive,min=1,max=4,dive,oneof=0 1"`
	Angles map[string]float64 `yaml:"angles" json:"angles" validate:"required,min=1,dive,keys,limb,endkeys,gte=0,lt=360"`
	Color  string             `yaml:"color,omitempty" json:"color,omitempty" validate:"omitempty,palettecolor"`
}

// File is the top-level layout of a catalog file.
type File struct {
	Templates []Entry `yaml:"templates" json:"templates" validate:"dive"`
}

var validate = NewValidator()

// NewValidator returns a validator that knows the limb and palette color tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("limb", func(fl validator.FieldLevel) bool {
		return pose.Limb(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("palettecolor", func(fl validator.FieldLevel) bool {
		_, ok := tetris.ColorByName(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks an entry's fields and that its shape is a usable block.
func (e Entry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return errors.Wrapf(ErrInvalidTemplate, "%s: %v", e.ID, err)
	}
	if !tetris.ParseShape(e.Shape).Valid() {
		return errors.Wrapf(ErrInvalidTemplate, "%s: shape must be rectangular with an occupied cell", e.ID)
	}
	return nil
}

// Template converts a validated entry into a pose template.
func (e Entry) Template() (*pose.Template, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	angles := make(pose.Angles, len(e.Angles))
	for limb, deg := range e.Angles {
		angles[pose.Limb(limb)] = deg
	}

	color := tetris.Empty
	if e.Color != "" {
		color, _ = tetris.ColorByName(e.Color)
	}

	name := e.Name
	if name == "" {
		name = e.ID
	}

	return &pose.Template{
		ID:     e.ID,
		Name:   name,
		Shape:  tetris.ParseShape(e.Shape),
		Angles: angles,
		Color:  color,
	}, nil
}

// FromTemplate converts a pose template back into its file representation.
func FromTemplate(t *pose.Template) Entry {
	e := Entry{
		ID:     t.ID,
		Name:   t.Name,
		Shape:  t.Shape.Ints(),
		Angles: make(map[string]float64, len(t.Angles)),
	}
	for limb, deg := range t.Angles {
		e.Angles[string(limb)] = deg
	}
	if t.Color != tetris.Empty {
		e.Color = t.Color.String()
	}
	return e
}

// Parse decodes and validates a catalog document. Unknown fields are rejected.
func Parse(data []byte) ([]Entry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	for _, e := range f.Templates {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Templates, nil
}

// Encode renders entries as a catalog document.
func Encode(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{Templates: entries}); err != nil {
		return nil, errors.Wrap(err, "encode catalog")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "encode catalog")
	}
	return buf.Bytes(), nil
}

// Default returns the built-in entries: every rotation of the seven tetrominoes.
func Default() []Entry {
	entries, err := Parse(defaultCatalog)
	if err != nil {
		panic(errors.Wrap(err, "embedded catalog"))
	}
	return entries
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return entries, nil
}

// Merge layers entry sets in order. An entry whose ID already exists replaces the
// earlier one in place; new IDs are appended.
func Merge(sets ...[]Entry) []Entry {
	var merged []Entry
	for _, set := range sets {
		for _, e := range set {
			_, i, found := lo.FindIndexOf(merged, func(m Entry) bool { return m.ID == e.ID })
			if found {
				merged[i] = e
				continue
			}
			merged = append(merged, e)
		}
	}
	return merged
}

// Build converts entries into a catalog.
func Build(entries []Entry) (*pose.Catalog, error) {
	templates := make([]*pose.Template, 0, len(entries))
	for _, e := range entries {
		t, err := e.Template()
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	c, err := pose.NewCatalog(templates)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidTemplate, err.Error())
	}
	return c, nil
}
