package store

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestActionRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	action := &Action{
		ID:         "act-1",
		Event:      EventLinesCleared,
		PluginName: "notify",
		ActionName: "message",
		Config:     json.RawMessage(`{"title":"posetris"}`),
		Enabled:    true,
	}

	if err := repo.Create(action); err != nil {
		t.Fatalf("failed to create action: %v", err)
	}

	got, err := repo.GetByID("act-1")
	if err != nil {
		t.Fatalf("failed to get action: %v", err)
	}
	if got.Event != EventLinesCleared || got.PluginName != "notify" || !got.Enabled {
		t.Errorf("unexpected action: %+v", got)
	}
	if string(got.Config) != `{"title":"posetris"}` {
		t.Errorf("config mismatch: %s", got.Config)
	}

	got.Enabled = false
	got.Event = EventGameOver
	if err := repo.Update(got); err != nil {
		t.Fatalf("failed to update action: %v", err)
	}

	updated, err := repo.GetByID("act-1")
	if err != nil {
		t.Fatalf("failed to get updated action: %v", err)
	}
	if updated.Enabled || updated.Event != EventGameOver {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := repo.Delete("act-1"); err != nil {
		t.Fatalf("failed to delete action: %v", err)
	}
	if _, err := repo.GetByID("act-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestActionRepository_DefaultConfig(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	if err := repo.Create(&Action{ID: "act-1", Event: EventGameOver, PluginName: "notify", ActionName: "message"}); err != nil {
		t.Fatalf("failed to create action: %v", err)
	}

	got, err := repo.GetByID("act-1")
	if err != nil {
		t.Fatalf("failed to get action: %v", err)
	}
	if string(got.Config) != "{}" {
		t.Errorf("expected empty config object, got %s", got.Config)
	}
}

func TestActionRepository_RejectsUnknownEvent(t *testing.T) {
	s := newTestStore(t)

	err := s.Actions().Create(&Action{ID: "act-1", Event: "hard_drop", PluginName: "notify", ActionName: "message"})
	if err == nil {
		t.Error("expected unknown event to be rejected")
	}
}

func TestActionRepository_ListByEvent(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	actions := []*Action{
		{ID: "a", Event: EventPieceLocked, PluginName: "notify", ActionName: "message", Enabled: true},
		{ID: "b", Event: EventGameOver, PluginName: "notify", ActionName: "message", Enabled: true},
		{ID: "c", Event: EventPieceLocked, PluginName: "notify", ActionName: "beep", Enabled: false},
		{ID: "d", Event: EventPieceLocked, PluginName: "notify", ActionName: "beep", Enabled: true},
	}
	for _, a := range actions {
		if err := repo.Create(a); err != nil {
			t.Fatalf("failed to create action %s: %v", a.ID, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	got, err := repo.ListByEvent(EventPieceLocked)
	if err != nil {
		t.Fatalf("failed to list actions: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "d" {
		ids := make([]string, len(got))
		for i, a := range got {
			ids[i] = a.ID
		}
		t.Errorf("expected enabled piece_locked actions [a d], got %v", ids)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list all actions: %v", err)
	}
	if len(all) != len(actions) {
		t.Errorf("expected %d actions, got %d", len(actions), len(all))
	}
}

func TestActionRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Actions()

	if err := repo.Update(&Action{ID: "missing", Event: EventGameOver}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}
