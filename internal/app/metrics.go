package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ayusman/posetris/internal/session"
)

// ServiceName prefixes every metric.
const ServiceName = "posetris"

type metrics struct {
	frames       prometheus.Counter
	frameErrors  *prometheus.CounterVec
	dropouts     prometheus.Counter
	tickDuration prometheus.Histogram
	events       *prometheus.CounterVec
	linesCleared prometheus.Counter
	hooks        *prometheus.CounterVec
	score        prometheus.Gauge
	phase        *prometheus.GaugeVec
}

func newMetrics(reg *prometheus.Registry) *metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &metrics{
		frames: factory.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(ServiceName, "camera", "frames_total"),
			Help: "Frames processed by the game loop",
		}),
		frameErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(ServiceName, "camera", "frame_errors_total"),
			Help: "Frames dropped by stage",
		}, []string{"stage"}),
		dropouts: factory.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(ServiceName, "detector", "dropouts_total"),
			Help: "Frames in which no pose was detected",
		}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(ServiceName, "loop", "tick_duration_seconds"),
			Help:    "Time spent on one frame including detection",
			Buckets: []float64{.001, .0025, .005, .01, .02, .033, .05, .1, .25},
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(ServiceName, "game", "events_total"),
			Help: "Game events by type",
		}, []string{"event"}),
		linesCleared: factory.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(ServiceName, "game", "lines_cleared_total"),
			Help: "Rows removed from the board",
		}),
		hooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(ServiceName, "hooks", "runs_total"),
			Help: "Hook plugin runs by plugin and result",
		}, []string{"plugin", "result"}),
		score: factory.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(ServiceName, "game", "score"),
			Help: "Score of the current game",
		}),
		phase: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(ServiceName, "game", "phase"),
			Help: "1 for the current phase, 0 otherwise",
		}, []string{"phase"}),
	}
}

var phases = []session.Phase{
	session.PhaseRecognition,
	session.PhaseSelection,
	session.PhasePlaying,
	session.PhaseGameOver,
}

func (m *metrics) observeSnapshot(s session.Snapshot) {
	m.score.Set(float64(s.Score))
	for _, p := range phases {
		v := 0.0
		if p == s.Phase {
			v = 1
		}
		m.phase.WithLabelValues(p.String()).Set(v)
	}
}

func (m *metrics) observeEvent(e session.Event) {
	m.events.WithLabelValues(string(e.Type)).Inc()
	if e.Type == session.EventLinesCleared {
		m.linesCleared.Add(float64(e.Lines))
	}
}
