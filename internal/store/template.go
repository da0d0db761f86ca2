package store

import (
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Template is a pose template stored in the database. Angles stay empty until the
// template has been trained from samples.
type Template struct {
	ID        string
	Name      string
	Shape     [][]int
	Angles    map[string]float64
	Color     string
	Samples   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateRepository provides CRUD operations for templates.
type TemplateRepository struct {
	db *sql.DB
}

// Templates returns the template repository for this store.
func (s *Store) Templates() *TemplateRepository {
	return &TemplateRepository{db: s.db}
}

const templateColumns = `id, name, shape, angles, color, samples, created_at, updated_at`

// Create inserts a new template into the database.
func (r *TemplateRepository) Create(t *Template) error {
	shape, angles, err := encodeTemplate(t)
	if err != nil {
		return err
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO templates (`+templateColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, shape, angles, t.Color, t.Samples, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// GetByID retrieves a template by its ID.
func (r *TemplateRepository) GetByID(id string) (*Template, error) {
	row := r.db.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)
	return scanTemplate(row)
}

// GetByName retrieves a template by its name.
func (r *TemplateRepository) GetByName(name string) (*Template, error) {
	row := r.db.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE name = ?`, name)
	return scanTemplate(row)
}

// List retrieves all templates, oldest first so catalog order is stable.
func (r *TemplateRepository) List() ([]*Template, error) {
	rows, err := r.db.Query(`SELECT ` + templateColumns + ` FROM templates ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

// Update updates an existing template in the database.
func (r *TemplateRepository) Update(t *Template) error {
	shape, angles, err := encodeTemplate(t)
	if err != nil {
		return err
	}

	t.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE templates SET name = ?, shape = ?, angles = ?, color = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, shape, angles, t.Color, t.Samples, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// Delete removes a template and its samples from the database.
func (r *TemplateRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*Template, error) {
	t := &Template{}
	var shape, angles string

	err := row.Scan(&t.ID, &t.Name, &shape, &angles, &t.Color, &t.Samples, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(shape), &t.Shape); err != nil {
		return nil, errors.Wrapf(err, "decode shape of template %s", t.ID)
	}
	if err := json.Unmarshal([]byte(angles), &t.Angles); err != nil {
		return nil, errors.Wrapf(err, "decode angles of template %s", t.ID)
	}

	return t, nil
}

func encodeTemplate(t *Template) (string, string, error) {
	shape, err := json.Marshal(t.Shape)
	if err != nil {
		return "", "", errors.Wrap(err, "encode shape")
	}

	a := t.Angles
	if a == nil {
		a = map[string]float64{}
	}
	angles, err := json.Marshal(a)
	if err != nil {
		return "", "", errors.Wrap(err, "encode angles")
	}

	return string(shape), string(angles), nil
}

func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
