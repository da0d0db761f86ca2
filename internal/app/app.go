// Package app wires the camera, the pose detector and the game session into one frame loop.
package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/posetris/internal/capture"
	"github.com/ayusman/posetris/internal/catalog"
	"github.com/ayusman/posetris/internal/detector"
	"github.com/ayusman/posetris/internal/plugin"
	"github.com/ayusman/posetris/internal/session"
	"github.com/ayusman/posetris/internal/store"
)

// DefaultFPS is the frame loop rate.
const DefaultFPS = 30

// DefaultPluginTimeout bounds a single hook run.
const DefaultPluginTimeout = 5 * time.Second

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	Session       session.Config
	CatalogPath   string
	PluginDir     string
	PluginTimeout time.Duration
	CameraID      int
	Mirror        bool
	FPS           int
	// Headless runs without a camera. Poses come from the detector alone.
	Headless bool
	// Seed makes block and color choices reproducible. Zero seeds from the clock.
	Seed uint64
}

// App is the running game: one goroutine ticks the session, readers see published snapshots.
type App struct {
	config    Config
	logger    zerolog.Logger
	loader    *catalog.Loader
	pluginMgr *plugin.Manager
	hooks     *plugin.Hooks
	registry  *prometheus.Registry
	metrics   *metrics

	mu       sync.Mutex // guards session, camera and detector
	session  *session.Controller
	camera   capture.Camera
	detector detector.Detector
	running  bool

	pubMu    sync.RWMutex
	snapshot session.Snapshot
	frame    []byte
	frameSeq uint64
	viewers  atomic.Int32
}

// New creates the application. The catalog is loaded immediately so configuration errors
// surface before the camera is opened.
func New(config Config) (*App, error) {
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if config.PluginTimeout <= 0 {
		config.PluginTimeout = DefaultPluginTimeout
	}

	a := &App{
		config:    config,
		logger:    log.With().Str("component", "app").Logger(),
		loader:    &catalog.Loader{Path: config.CatalogPath},
		pluginMgr: plugin.NewManager(config.PluginDir),
		registry:  prometheus.NewRegistry(),
	}
	a.metrics = newMetrics(a.registry)

	if config.Store != nil {
		a.loader.Stored = config.Store.Templates()
	}

	cat, err := a.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	now := time.Now()
	a.session, err = session.New(config.Session, cat, rand.New(rand.NewPCG(seed, seed>>1|1)), now)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	a.snapshot = a.session.Snapshot()

	if config.Store != nil {
		a.hooks = plugin.NewHooks(config.Store.Actions(), a.pluginMgr, plugin.NewExecutor(config.PluginTimeout))
		a.hooks.OnResult = a.recordHook
	}

	if config.Headless {
		a.detector = detector.NewMockDetector()
		a.logger.Info().Msg("headless mode, camera disabled")
		return a, nil
	}

	a.camera = capture.NewCameraWithOptions(capture.Options{
		DeviceID: config.CameraID,
		FPS:      config.FPS,
		Mirror:   config.Mirror,
	})

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		a.logger.Info().Msg("using MediaPipe pose detection")
	} else {
		a.logger.Warn().Err(err).Msg("MediaPipe not available, using mock detector")
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// DiscoverPlugins scans the plugin directory for hook plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// SetDetector replaces the pose detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detector
}

// SetCamera replaces the camera. A nil camera makes the loop detect without frames.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Camera returns the camera, nil when headless.
func (a *App) Camera() capture.Camera {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.camera
}

// Metrics returns the registry holding the game metrics.
func (a *App) Metrics() prometheus.Gatherer {
	return a.registry
}

// Snapshot returns the most recently published game state.
func (a *App) Snapshot() session.Snapshot {
	a.pubMu.RLock()
	defer a.pubMu.RUnlock()
	return a.snapshot
}

// Reset starts a new game.
func (a *App) Reset() {
	a.mu.Lock()
	a.session.Reset(time.Now())
	snap := a.session.Snapshot()
	a.mu.Unlock()

	a.publish(snap)
}

// SetPaused pauses or resumes the game.
func (a *App) SetPaused(paused bool) {
	a.mu.Lock()
	a.session.SetPaused(time.Now(), paused)
	snap := a.session.Snapshot()
	a.mu.Unlock()

	a.publish(snap)
}

// Paused reports whether the game is paused.
func (a *App) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Paused()
}

// ReloadCatalog rebuilds the catalog from its sources and returns the template count.
// The new catalog is used from the next recognition window on.
func (a *App) ReloadCatalog() (int, error) {
	cat, err := a.loader.Load()
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	a.session.SetCatalog(cat)
	a.mu.Unlock()

	return cat.Len(), nil
}

// WatchFrames asks the loop to publish JPEG frames until the returned func is called.
func (a *App) WatchFrames() (release func()) {
	a.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { a.viewers.Add(-1) })
	}
}

// Frame returns the latest JPEG frame and its sequence number.
func (a *App) Frame() ([]byte, uint64) {
	a.pubMu.RLock()
	defer a.pubMu.RUnlock()
	return a.frame, a.frameSeq
}

func (a *App) publish(s session.Snapshot) {
	a.pubMu.Lock()
	a.snapshot = s
	a.pubMu.Unlock()

	a.metrics.observeSnapshot(s)
}

func (a *App) publishFrame(jpeg []byte) {
	a.pubMu.Lock()
	a.frame = jpeg
	a.frameSeq++
	a.pubMu.Unlock()
}

func (a *App) recordHook(r plugin.Result) {
	result := "ok"
	switch {
	case r.Err != nil:
		result = "error"
	case r.Response != nil && !r.Response.Success:
		result = "failed"
	}
	a.metrics.hooks.WithLabelValues(r.Plugin, result).Inc()
}

// Run opens the camera and ticks the game until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	if a.camera != nil {
		if err := a.camera.Open(); err != nil {
			a.mu.Unlock()
			return fmt.Errorf("open camera: %w", err)
		}
		a.camera.SetFPS(a.config.FPS)
	}
	a.running = true
	a.mu.Unlock()

	a.logger.Info().Int("fps", a.config.FPS).Msg("game loop started")
	a.runLoop(ctx)
	a.stop()
	return nil
}

// stop releases the camera and the detector and waits for running hooks.
func (a *App) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing camera")
		}
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing detector")
		}
	}
	a.running = false

	if a.hooks != nil {
		a.hooks.Wait()
	}
	a.logger.Info().Msg("game loop stopped")
}
