// Package logger configures the global zerolog logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayusman/posetris/internal/config"
)

// Configure installs the global logger: console output plus an optional rotating file.
// It returns the file writer, if any, so the caller can close it on exit.
func Configure(cfg *config.Config) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		},
	}

	var file *lumberjack.Logger
	if cfg.LogFile != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.LogFile), os.ModePerm)
		file = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28,
		}
		writers = append(writers, file)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger().
		Level(Level(cfg))

	if file == nil {
		return io.NopCloser(nil)
	}
	return file
}

// Level resolves the configured level. Dev mode always logs everything.
func Level(cfg *config.Config) zerolog.Level {
	if cfg.DevMode {
		return zerolog.TraceLevel
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
