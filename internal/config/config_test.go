package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posetris/internal/pose"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSETRIS_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, 1280, cfg.ScreenWidth)
	assert.Equal(t, 720, cfg.ScreenHeight)
	assert.Equal(t, 20, cfg.GridRows)
	assert.Equal(t, 10, cfg.GridCols)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 0.7, cfg.SimilarityThreshold)
	assert.Equal(t, 30.0, cfg.Tolerance)
	assert.Equal(t, 5*time.Second, cfg.RecognitionWindow)
	assert.Equal(t, 3*time.Second, cfg.SelectionWindow)
	assert.Equal(t, 300*time.Millisecond, cfg.FallInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.SteerInterval)
	assert.Equal(t, 3, cfg.CandidateCount)
	assert.True(t, cfg.Mirror)
	assert.NotEmpty(t, cfg.PluginDir)
	assert.Equal(t, time.Second/30, cfg.TickInterval())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POSETRIS_DATA_DIR", t.TempDir())
	t.Setenv("POSETRIS_FALL_INTERVAL", "500ms")
	t.Setenv("POSETRIS_SCORING_POLICY", "proportional")
	t.Setenv("POSETRIS_GRID_COLS", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.FallInterval)
	assert.Equal(t, 12, cfg.GridCols)

	sc, err := cfg.Session()
	require.NoError(t, err)
	assert.Equal(t, pose.ProportionalScorer{}, sc.Policy)
	assert.Equal(t, 12, sc.Cols)
	assert.Equal(t, 1280.0, sc.Recognition.ScreenWidth)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"POSETRIS_SIMILARITY_THRESHOLD": "1.5",
		"POSETRIS_SCORING_POLICY":       "euclidean",
		"POSETRIS_FPS":                  "0",
		"POSETRIS_LOG_LEVEL":            "loud",
		"POSETRIS_CANDIDATE_COUNT":      "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("POSETRIS_DATA_DIR", t.TempDir())
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	t.Setenv("POSETRIS_DATA_DIR", t.TempDir())
	t.Setenv("POSETRIS_FPS", "fast")

	_, err := Load()
	assert.Error(t, err)
}
