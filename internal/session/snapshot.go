package session

import (
	"time"

	"github.com/samber/lo"

	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/tetris"
)

// Event types raised by the controller.
type EventType string

const (
	EventBlockChosen  EventType = "block_chosen"
	EventPieceLocked  EventType = "piece_locked"
	EventLinesCleared EventType = "lines_cleared"
	EventGameOver     EventType = "game_over"
)

// Event is a notable game moment, consumed by hooks and metrics.
type Event struct {
	Type     EventType `json:"type"`
	Template string    `json:"template,omitempty"`
	Lines    int       `json:"lines,omitempty"`
	Score    int       `json:"score"`
	At       time.Time `json:"at"`
}

// Prompts shown to the player.
const (
	PromptNoPose    = "no pose detected"
	PromptGameOver  = "game over"
	PromptPaused    = "paused"
	PromptRecognize = "strike a block pose"
	PromptSelect    = "step into a zone to choose"
)

// Ranked is one entry of the live ranking.
type Ranked struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Candidate is a block offered during selection.
type Candidate struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Shape [][]int `json:"shape"`
}

// Snapshot is the immutable per-tick view handed to renderers.
type Snapshot struct {
	Phase       Phase           `json:"phase"`
	Paused      bool            `json:"paused"`
	HasPose     bool            `json:"has_pose"`
	CenterX     float64         `json:"center_x"`
	Prompt      string          `json:"prompt,omitempty"`
	Board       tetris.Snapshot `json:"board"`
	Live        []Ranked        `json:"live"`
	Candidates  []Candidate     `json:"candidates"`
	Zone        int             `json:"zone"`
	Chosen      string          `json:"chosen,omitempty"`
	Score       int             `json:"score"`
	ElapsedMS   int64           `json:"elapsed_ms"`
	RemainingMS int64           `json:"remaining_ms"`
	Time        time.Time       `json:"time"`
}

// Snapshot describes the state after the most recent tick.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Phase:   c.phase,
		Paused:  c.paused,
		HasPose: c.obs.HasPose,
		CenterX: c.obs.CenterX,
		Board:   c.engine.Snapshot(),
		Zone:    -1,
		Score:   c.engine.Score(),
		Time:    c.now,
	}

	elapsed := c.now.Sub(c.phaseStart)
	if c.paused {
		elapsed = c.pausedAt.Sub(c.phaseStart)
	}
	s.ElapsedMS = max(elapsed, 0).Milliseconds()

	switch c.phase {
	case PhaseRecognition:
		s.Live = lo.Map(c.lastRes.Live, func(m pose.Match, _ int) Ranked {
			return Ranked{ID: m.Template.ID, Name: m.Template.Name, Score: m.Score}
		})
		s.RemainingMS = max(c.cfg.Recognition.RecognitionWindow-elapsed, 0).Milliseconds()
	case PhaseSelection:
		s.Candidates = lo.Map(c.lastRes.Candidates, func(t *pose.Template, _ int) Candidate {
			return Candidate{ID: t.ID, Name: t.Name, Shape: t.Shape.Ints()}
		})
		s.Zone = c.lastRes.Zone
		s.RemainingMS = max(c.cfg.Recognition.SelectionWindow-elapsed, 0).Milliseconds()
	}
	if c.current != nil {
		s.Chosen = c.current.ID
	}

	switch {
	case c.phase == PhaseGameOver:
		s.Prompt = PromptGameOver
	case c.paused:
		s.Prompt = PromptPaused
	case !c.obs.HasPose:
		s.Prompt = PromptNoPose
	case c.phase == PhaseRecognition:
		s.Prompt = PromptRecognize
	case c.phase == PhaseSelection:
		s.Prompt = PromptSelect
	}

	return s
}
