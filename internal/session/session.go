// Package session drives one game: it feeds detected poses to the recognizer, spawns the
// chosen block, applies gravity and steering, and reports a snapshot per tick.
package session

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/posetris/internal/detector"
	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/recognition"
	"github.com/ayusman/posetris/internal/tetris"
)

// Phase is the game phase.
type Phase int

const (
	PhaseRecognition Phase = iota
	PhaseSelection
	PhasePlaying
	PhaseGameOver
)

var phaseNames = [...]string{"recognition", "selection", "playing", "game_over"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Steering zones during play: the screen is split into thirds.
const (
	steerZones = 3
	steerLeft  = 0
	steerRight = 2
)

// Defaults.
const (
	DefaultFallInterval  = 300 * time.Millisecond
	DefaultSteerInterval = 100 * time.Millisecond
	DefaultScreenHeight  = 720
)

// Config holds the game settings.
type Config struct {
	Recognition   recognition.Config
	Rows, Cols    int
	InitialGrid   [][]tetris.Color // Optional prepared board; overrides Rows and Cols
	ScreenHeight  float64
	FallInterval  time.Duration
	SteerInterval time.Duration
	Policy        pose.Policy
}

// DefaultConfig returns the standard game settings.
func DefaultConfig() Config {
	return Config{
		Recognition:   recognition.DefaultConfig(),
		Rows:          tetris.DefaultRows,
		Cols:          tetris.DefaultCols,
		ScreenHeight:  DefaultScreenHeight,
		FallInterval:  DefaultFallInterval,
		SteerInterval: DefaultSteerInterval,
		Policy:        pose.ToleranceScorer{Tolerance: pose.DefaultTolerance},
	}
}

// Controller owns the recognizer and the engine. It is driven by a single goroutine.
type Controller struct {
	cfg     Config
	rng     *rand.Rand
	logger  zerolog.Logger
	matcher *pose.Matcher
	rec     *recognition.Recognizer
	engine  *tetris.Engine

	pending *pose.Catalog

	phase      Phase
	phaseStart time.Time
	lastFall   time.Time
	lastSteer  time.Time
	locks      int
	current    *pose.Template

	paused   bool
	pausedAt time.Time

	obs     recognition.Observation
	lastRes recognition.Result
	events  []Event
	now     time.Time
}

// New creates a controller in the Recognition phase. The rng drives random block and
// color choices; pass a seeded generator for reproducible games.
func New(cfg Config, catalog *pose.Catalog, rng *rand.Rand, now time.Time) (*Controller, error) {
	engine := tetris.New(cfg.Rows, cfg.Cols)
	if cfg.InitialGrid != nil {
		var err error
		if engine, err = tetris.NewWithGrid(cfg.InitialGrid); err != nil {
			return nil, fmt.Errorf("initial grid: %w", err)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(now.Unix())))
	}
	if cfg.Recognition.ScreenWidth <= 0 {
		cfg.Recognition.ScreenWidth = recognition.DefaultScreenWidth
	}

	c := &Controller{
		cfg:     cfg,
		rng:     rng,
		logger:  log.With().Str("component", "session").Logger(),
		matcher: pose.NewMatcher(catalog, cfg.Policy),
		engine:  engine,
		now:     now,
	}
	c.rec = recognition.New(cfg.Recognition, catalog, rng, now)
	c.enterRecognition(now)
	return c, nil
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Engine exposes the board for inspection. Callers must not mutate it.
func (c *Controller) Engine() *tetris.Engine {
	return c.engine
}

// Catalog returns the catalog currently used for matching.
func (c *Controller) Catalog() *pose.Catalog {
	return c.matcher.Catalog()
}

// SetCatalog installs a new catalog. It takes effect the next time the game enters the
// Recognition phase so an ongoing choice is not disturbed.
func (c *Controller) SetCatalog(catalog *pose.Catalog) {
	c.pending = catalog
}

// Paused reports whether the game is paused.
func (c *Controller) Paused() bool {
	return c.paused
}

// SetPaused pauses or resumes the game. Phase timers resume where they stopped.
func (c *Controller) SetPaused(now time.Time, paused bool) {
	if paused == c.paused {
		return
	}
	c.paused = paused
	if paused {
		c.pausedAt = now
		c.logger.Info().Msg("paused")
		return
	}

	d := now.Sub(c.pausedAt)
	c.rec.Shift(d)
	c.phaseStart = c.phaseStart.Add(d)
	c.lastFall = c.lastFall.Add(d)
	c.lastSteer = c.lastSteer.Add(d)
	c.logger.Info().Dur("paused_for", d).Msg("resumed")
}

// Reset starts a new game.
func (c *Controller) Reset(now time.Time) {
	c.engine.Reset()
	c.locks = 0
	c.paused = false
	c.enterRecognition(now)
	c.logger.Info().Msg("new game")
}

// Events returns and clears the events raised since the last call.
func (c *Controller) Events() []Event {
	events := c.events
	c.events = nil
	return events
}

// Tick advances the game by one frame. A nil or incomplete pose counts as no detection.
func (c *Controller) Tick(now time.Time, p *detector.Pose) Snapshot {
	c.now = now
	c.obs = c.observe(p)

	if c.paused {
		return c.Snapshot()
	}

	switch c.phase {
	case PhaseRecognition, PhaseSelection:
		c.tickChoosing(now)
	case PhasePlaying:
		c.tickPlaying(now)
	}

	return c.Snapshot()
}

// observe converts a detected pose into a recognizer observation.
func (c *Controller) observe(p *detector.Pose) recognition.Observation {
	if p == nil {
		return recognition.Observation{}
	}
	angles, ok := pose.Extract(p.Joints)
	if !ok {
		return recognition.Observation{}
	}
	x, ok := p.ShoulderCenterX()
	if !ok {
		return recognition.Observation{}
	}
	if p.FrameWidth > 0 {
		x = x * c.cfg.Recognition.ScreenWidth / float64(p.FrameWidth)
	}
	return recognition.Observation{
		HasPose: true,
		Ranking: c.matcher.Rank(angles),
		CenterX: x,
	}
}

func (c *Controller) tickChoosing(now time.Time) {
	res := c.rec.Step(now, c.obs)
	c.lastRes = res

	switch res.Phase {
	case recognition.Recognizing:
		if c.phase != PhaseRecognition || res.Restarted {
			c.setPhase(PhaseRecognition, now)
		}
	case recognition.Selecting:
		if c.phase != PhaseSelection {
			c.setPhase(PhaseSelection, now)
		}
	case recognition.Confirmed:
		c.spawn(now, res.Chosen)
	}
}

func (c *Controller) spawn(now time.Time, t *pose.Template) {
	color := t.Color
	if color == tetris.Empty {
		color = tetris.RandomColor(c.rng)
	}

	c.current = t
	c.raise(Event{Type: EventBlockChosen, Template: t.ID})

	if !c.engine.Spawn(t.Shape, color) {
		if c.engine.GameOver() {
			c.setPhase(PhaseGameOver, now)
			c.raise(Event{Type: EventGameOver, Template: t.ID})
			c.logger.Info().Int("score", c.engine.Score()).Msg("game over")
			return
		}
		c.logger.Warn().Str("template", t.ID).Msg("spawn rejected")
		c.enterRecognition(now)
		return
	}

	c.locks = c.engine.Stats().Locks
	c.lastFall = now
	c.lastSteer = now
	c.setPhase(PhasePlaying, now)
	c.logger.Info().Str("template", t.ID).Str("color", color.String()).Msg("block spawned")
}

func (c *Controller) tickPlaying(now time.Time) {
	if c.obs.HasPose && now.Sub(c.lastSteer) >= c.cfg.SteerInterval {
		switch recognition.Zone(c.obs.CenterX, c.cfg.Recognition.ScreenWidth, steerZones) {
		case steerLeft:
			c.engine.Move(-1, 0)
			c.lastSteer = now
		case steerRight:
			c.engine.Move(1, 0)
			c.lastSteer = now
		}
	}

	if now.Sub(c.lastFall) >= c.cfg.FallInterval {
		c.engine.Move(0, 1)
		c.lastFall = now
	}

	if stats := c.engine.Stats(); stats.Locks > c.locks {
		c.locks = stats.Locks
		lock := c.engine.LastLock()
		c.raise(Event{Type: EventPieceLocked, Template: c.current.ID})
		if lock.LinesCleared > 0 {
			c.raise(Event{Type: EventLinesCleared, Lines: lock.LinesCleared})
			c.logger.Info().
				Int("lines", lock.LinesCleared).
				Int("points", lock.Points).
				Int("score", stats.Score).
				Msg("lines cleared")
		}
		c.enterRecognition(now)
	}
}

func (c *Controller) enterRecognition(now time.Time) {
	if c.pending != nil {
		c.matcher = pose.NewMatcher(c.pending, c.cfg.Policy)
		c.rec.SetCatalog(c.pending, now)
		c.logger.Info().Int("templates", c.pending.Len()).Msg("catalog applied")
		c.pending = nil
	} else {
		c.rec.Reset(now)
	}
	c.current = nil
	c.lastRes = recognition.Result{Phase: recognition.Recognizing, Zone: -1}
	c.setPhase(PhaseRecognition, now)
}

func (c *Controller) setPhase(p Phase, now time.Time) {
	if p != c.phase {
		c.logger.Info().Stringer("from", c.phase).Stringer("to", p).Msg("phase changed")
	}
	c.phase = p
	c.phaseStart = now
}

func (c *Controller) raise(e Event) {
	e.At = c.now
	e.Score = c.engine.Score()
	c.events = append(c.events, e)
}
