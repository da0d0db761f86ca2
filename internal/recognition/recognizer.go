// Package recognition turns a stream of per-frame pose rankings into a block choice:
// a timed window that collects candidate templates, then a timed window in which the
// player picks one by standing in its screen zone.
package recognition

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ayusman/posetris/internal/pose"
)

// Phase is the recognizer state.
type Phase int

const (
	// Recognizing collects confident matches for a fixed window.
	Recognizing Phase = iota
	// Selecting shows the candidates and reads the player's zone for a fixed window.
	Selecting
	// Confirmed holds the chosen template until Reset.
	Confirmed
)

func (p Phase) String() string {
	switch p {
	case Recognizing:
		return "recognizing"
	case Selecting:
		return "selecting"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Defaults.
const (
	DefaultThreshold         = 0.7
	DefaultRecognitionWindow = 5 * time.Second
	DefaultSelectionWindow   = 3 * time.Second
	DefaultCandidateCount    = 3
	DefaultScreenWidth       = 1280
)

// Config holds the recognizer timing and thresholds.
type Config struct {
	Threshold         float64       // A best match must score strictly above this to count
	RecognitionWindow time.Duration // Length of the Recognizing phase
	SelectionWindow   time.Duration // Length of the Selecting phase
	CandidateCount    int           // Number of candidates and selection zones
	ScreenWidth       float64       // Width the zones divide
}

// DefaultConfig returns the standard game settings.
func DefaultConfig() Config {
	return Config{
		Threshold:         DefaultThreshold,
		RecognitionWindow: DefaultRecognitionWindow,
		SelectionWindow:   DefaultSelectionWindow,
		CandidateCount:    DefaultCandidateCount,
		ScreenWidth:       DefaultScreenWidth,
	}
}

// Observation is what the recognizer sees in one frame.
type Observation struct {
	HasPose bool         // A complete pose was detected
	Ranking []pose.Match // Catalog ranking for the frame, best first
	CenterX float64      // Body center in screen coordinates
}

// Result reports the recognizer state after one step.
type Result struct {
	Phase        Phase
	Transitioned bool           // The phase changed during this step
	Restarted    bool           // The recognition window expired without candidates
	Live         []pose.Match   // Best matches of this frame, for display only
	Candidates   []*pose.Template
	Zone         int            // Occupied zone, -1 if none
	Chosen       *pose.Template // Set once Confirmed
	RandomPick   bool           // Chosen was drawn at random because no zone was occupied
	Elapsed      time.Duration  // Time spent in the current phase
	Remaining    time.Duration  // Time left in the current phase
}

// Recognizer is the Recognizing → Selecting → Confirmed state machine. It is driven by
// a single goroutine through Step and Reset.
type Recognizer struct {
	cfg     Config
	catalog *pose.Catalog
	rng     *rand.Rand

	phase      Phase
	phaseStart time.Time
	acc        *Accumulator
	lastLive   []pose.Match
	candidates []*pose.Template
	zone       int
	chosen     *pose.Template
	randomPick bool
}

// New creates a recognizer in the Recognizing phase starting at now.
func New(cfg Config, catalog *pose.Catalog, rng *rand.Rand, now time.Time) *Recognizer {
	if cfg.CandidateCount <= 0 {
		cfg.CandidateCount = DefaultCandidateCount
	}
	if cfg.ScreenWidth <= 0 {
		cfg.ScreenWidth = DefaultScreenWidth
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(now.UnixNano()), 0))
	}

	r := &Recognizer{cfg: cfg, catalog: catalog, rng: rng}
	r.Reset(now)
	return r
}

// Reset returns to Recognizing with an empty accumulator.
func (r *Recognizer) Reset(now time.Time) {
	r.phase = Recognizing
	r.phaseStart = now
	r.acc = NewAccumulator(r.catalog.Len())
	r.lastLive = nil
	r.candidates = nil
	r.zone = -1
	r.chosen = nil
	r.randomPick = false
}

// SetCatalog swaps the catalog and resets. Callers only do this between pieces.
func (r *Recognizer) SetCatalog(c *pose.Catalog, now time.Time) {
	r.catalog = c
	r.Reset(now)
}

// Catalog returns the catalog in use.
func (r *Recognizer) Catalog() *pose.Catalog {
	return r.catalog
}

// Phase returns the current phase.
func (r *Recognizer) Phase() Phase {
	return r.phase
}

// Shift moves the phase start forward by d, so a pause does not eat into the window.
func (r *Recognizer) Shift(d time.Duration) {
	r.phaseStart = r.phaseStart.Add(d)
}

// Step advances the state machine by one frame.
func (r *Recognizer) Step(now time.Time, obs Observation) Result {
	res := Result{Phase: r.phase, Zone: -1}

	switch r.phase {
	case Recognizing:
		if obs.HasPose && len(obs.Ranking) > 0 {
			res.Live = pose.Top(obs.Ranking, r.cfg.CandidateCount)
			r.lastLive = res.Live
			if best := obs.Ranking[0]; best.Score > r.cfg.Threshold {
				r.acc.Add(best.Index)
			}
		}

		if now.Sub(r.phaseStart) >= r.cfg.RecognitionWindow {
			candidates := r.pickCandidates()
			r.acc.Reset()
			r.phaseStart = now
			if len(candidates) == 0 {
				res.Restarted = true
				log.Debug().Str("component", "recognition").Msg("no candidates, restarting recognition window")
			} else {
				r.candidates = candidates
				r.phase = Selecting
				res.Transitioned = true
				log.Info().
					Str("component", "recognition").
					Strs("candidates", lo.Map(candidates, func(t *pose.Template, _ int) string { return t.ID })).
					Msg("candidates selected")
			}
		}

	case Selecting:
		r.zone = -1
		if obs.HasPose {
			r.zone = Zone(obs.CenterX, r.cfg.ScreenWidth, len(r.candidates))
		}

		if now.Sub(r.phaseStart) >= r.cfg.SelectionWindow {
			if r.zone >= 0 {
				r.chosen = r.candidates[r.zone]
			} else {
				r.chosen = r.candidates[r.rng.IntN(len(r.candidates))]
				r.randomPick = true
			}
			r.phase = Confirmed
			r.phaseStart = now
			res.Transitioned = true
			log.Info().
				Str("component", "recognition").
				Str("template", r.chosen.ID).
				Int("zone", r.zone).
				Bool("random", r.randomPick).
				Msg("block chosen")
		}
	}

	res.Phase = r.phase
	res.Candidates = append([]*pose.Template(nil), r.candidates...)
	res.Zone = r.zone
	res.Chosen = r.chosen
	res.RandomPick = r.randomPick
	res.Elapsed = now.Sub(r.phaseStart)
	res.Remaining = r.remaining(res.Elapsed)
	return res
}

func (r *Recognizer) remaining(elapsed time.Duration) time.Duration {
	var window time.Duration
	switch r.phase {
	case Recognizing:
		window = r.cfg.RecognitionWindow
	case Selecting:
		window = r.cfg.SelectionWindow
	default:
		return 0
	}
	return max(window-elapsed, 0)
}

// pickCandidates ranks accumulated templates by count and fills the remaining slots
// from the last live ranking, skipping templates already chosen.
func (r *Recognizer) pickCandidates() []*pose.Template {
	candidates := lo.Map(r.acc.Top(r.cfg.CandidateCount), func(i int, _ int) *pose.Template {
		return r.catalog.At(i)
	})

	for _, m := range r.lastLive {
		if len(candidates) >= r.cfg.CandidateCount {
			break
		}
		if lo.Contains(candidates, m.Template) {
			continue
		}
		candidates = append(candidates, m.Template)
	}

	return candidates
}

// Zone maps a horizontal screen position onto one of count equal-width zones, clamping
// positions outside the screen. It returns -1 when there are no zones.
func Zone(screenX, screenWidth float64, count int) int {
	if count <= 0 || screenWidth <= 0 {
		return -1
	}
	z := int(math.Floor(screenX / (screenWidth / float64(count))))
	return min(max(z, 0), count-1)
}
