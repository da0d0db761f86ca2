package store

import (
	"os"
	"path/filepath"
	"testing"
)

// insertTemplateRow writes a minimal template row directly, bypassing the repository.
func insertTemplateRow(t *testing.T, s *Store, id, name string) {
	t.Helper()
	_, err := s.DB().Exec(`INSERT INTO templates (id, name, shape) VALUES (?, ?, '[[true]]')`, id, name)
	if err != nil {
		t.Fatalf("insert template %s: %v", id, err)
	}
}

func countRows(t *testing.T, s *Store, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := s.DB().QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestNew_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "posetris.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
	insertTemplateRow(t, s, "t1", "kept")
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Migrations run again on every open and must not disturb stored rows.
	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if n := countRows(t, s, `SELECT COUNT(*) FROM templates WHERE name = 'kept'`); n != 1 {
		t.Errorf("templates after reopen = %d, want 1", n)
	}
}

func TestStore_Schema(t *testing.T) {
	s := newTestStore(t)

	objects := []struct {
		kind, name string
	}{
		{"table", "templates"},
		{"table", "template_samples"},
		{"table", "actions"},
		{"index", "idx_template_samples_template_id"},
		{"index", "idx_actions_event"},
	}
	for _, o := range objects {
		n := countRows(t, s, `SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, o.kind, o.name)
		if n != 1 {
			t.Errorf("%s %q missing after migrations", o.kind, o.name)
		}
	}

	var fk int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestStore_ActionEventConstraint(t *testing.T) {
	s := newTestStore(t)

	insert := `INSERT INTO actions (id, event, plugin_name, action_name) VALUES (?, ?, 'notify', 'log')`
	for i, event := range []string{EventBlockChosen, EventPieceLocked, EventLinesCleared, EventGameOver} {
		if _, err := s.DB().Exec(insert, string(rune('a'+i)), event); err != nil {
			t.Errorf("event %q rejected: %v", event, err)
		}
	}

	for _, event := range []string{"swipe_left", "", "GAME_OVER"} {
		if _, err := s.DB().Exec(insert, "bad-"+event, event); err == nil {
			t.Errorf("event %q accepted, want CHECK failure", event)
		}
	}

	if n := countRows(t, s, `SELECT COUNT(*) FROM actions WHERE enabled = 1 AND config = '{}'`); n != 4 {
		t.Errorf("actions with default enabled/config = %d, want 4", n)
	}
}

func TestStore_TemplateNameUnique(t *testing.T) {
	s := newTestStore(t)

	insertTemplateRow(t, s, "t1", "tee")
	if _, err := s.DB().Exec(`INSERT INTO templates (id, name, shape) VALUES ('t2', 'tee', '[[true]]')`); err == nil {
		t.Error("duplicate template name accepted")
	}
}

func TestStore_SamplesReferenceTemplates(t *testing.T) {
	s := newTestStore(t)

	insertSample := `INSERT INTO template_samples (template_id, sample_index, data) VALUES (?, ?, '{}')`
	if _, err := s.DB().Exec(insertSample, "ghost", 0); err == nil {
		t.Error("sample for unknown template accepted")
	}

	insertTemplateRow(t, s, "t1", "one")
	insertTemplateRow(t, s, "t2", "two")
	for i := 0; i < 3; i++ {
		if _, err := s.DB().Exec(insertSample, "t1", i); err != nil {
			t.Fatalf("insert sample: %v", err)
		}
	}
	if _, err := s.DB().Exec(insertSample, "t2", 0); err != nil {
		t.Fatalf("insert sample: %v", err)
	}

	if _, err := s.DB().Exec(`DELETE FROM templates WHERE id = 't1'`); err != nil {
		t.Fatalf("delete template: %v", err)
	}

	if n := countRows(t, s, `SELECT COUNT(*) FROM template_samples WHERE template_id = 't1'`); n != 0 {
		t.Errorf("samples left after template delete = %d, want 0", n)
	}
	if n := countRows(t, s, `SELECT COUNT(*) FROM template_samples WHERE template_id = 't2'`); n != 1 {
		t.Errorf("samples of other template = %d, want 1", n)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}
