// Package config reads the application settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/recognition"
	"github.com/ayusman/posetris/internal/session"
)

// Prefix is the environment variable prefix, e.g. POSETRIS_FPS.
const Prefix = "posetris"

// Config holds every runtime setting.
type Config struct {
	// Address is the listen address of the HTTP server.
	Address string `default:":8080" validate:"required"`

	// DataDir holds the database and the installed plugins. Defaults to ~/.posetris.
	DataDir string `split_words:"true"`

	// StaticDir is served at / for a browser renderer. Empty disables static files.
	StaticDir string `split_words:"true"`

	// CatalogPath is an optional YAML catalog layered over the built-in templates.
	CatalogPath string `split_words:"true"`

	CameraID int  `split_words:"true" default:"0" validate:"gte=0"`
	Mirror   bool `default:"true"`

	ScreenWidth  int `split_words:"true" default:"1280" validate:"gt=0"`
	ScreenHeight int `split_words:"true" default:"720" validate:"gt=0"`
	GridRows     int `split_words:"true" default:"20" validate:"gte=4,lte=100"`
	GridCols     int `split_words:"true" default:"10" validate:"gte=4,lte=100"`
	FPS          int `default:"30" validate:"gte=1,lte=120"`

	// SimilarityThreshold is the score a frame's best match must exceed to count.
	SimilarityThreshold float64 `split_words:"true" default:"0.7" validate:"gte=0,lte=1"`
	// Tolerance is the per-limb angle tolerance in degrees.
	Tolerance     float64 `default:"30" validate:"gte=0,lte=180"`
	ScoringPolicy string  `split_words:"true" default:"tolerance" validate:"oneof=tolerance proportional"`

	RecognitionWindow time.Duration `split_words:"true" default:"5s" validate:"gt=0"`
	SelectionWindow   time.Duration `split_words:"true" default:"3s" validate:"gt=0"`
	FallInterval      time.Duration `split_words:"true" default:"300ms" validate:"gt=0"`
	SteerInterval     time.Duration `split_words:"true" default:"100ms" validate:"gte=0"`
	CandidateCount    int           `split_words:"true" default:"3" validate:"gte=1,lte=7"`

	PluginDir     string        `split_words:"true"`
	PluginTimeout time.Duration `split_words:"true" default:"5s" validate:"gt=0"`

	LogLevel     string `split_words:"true" default:"info" validate:"oneof=trace debug info warn error"`
	LogFile      string `split_words:"true"`
	LogMaxSizeMB int    `split_words:"true" default:"20" validate:"gt=0"`

	// DevMode logs at trace level.
	DevMode bool `split_words:"true"`
	// Tray shows the system tray icon.
	Tray bool `default:"true"`
	// Headless skips the camera and detector; the game only runs on injected poses.
	Headless bool
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		_ = envconfig.Usage(Prefix, &cfg)
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".posetris")
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DatabasePath returns the sqlite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "posetris.db")
}

// TickInterval is the frame loop period.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// Session converts the settings into a game configuration.
func (c *Config) Session() (session.Config, error) {
	policy, err := pose.NewPolicy(c.ScoringPolicy, c.Tolerance)
	if err != nil {
		return session.Config{}, err
	}

	return session.Config{
		Recognition: recognition.Config{
			Threshold:         c.SimilarityThreshold,
			RecognitionWindow: c.RecognitionWindow,
			SelectionWindow:   c.SelectionWindow,
			CandidateCount:    c.CandidateCount,
			ScreenWidth:       float64(c.ScreenWidth),
		},
		Rows:          c.GridRows,
		Cols:          c.GridCols,
		ScreenHeight:  float64(c.ScreenHeight),
		FallInterval:  c.FallInterval,
		SteerInterval: c.SteerInterval,
		Policy:        policy,
	}, nil
}
