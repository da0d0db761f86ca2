package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/posetris/internal/app"
	"github.com/ayusman/posetris/internal/config"
	"github.com/ayusman/posetris/internal/logger"
	"github.com/ayusman/posetris/internal/server"
	"github.com/ayusman/posetris/internal/store"
	"github.com/ayusman/posetris/internal/tray"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "start the game loop and the board server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides POSETRIS_ADDRESS)"},
			&cli.BoolFlag{Name: "headless", Usage: "run without a camera"},
			&cli.BoolFlag{Name: "no-tray", Usage: "do not show the tray icon"},
			&cli.StringFlag{Name: "catalog", Usage: "YAML catalog layered over the built-in templates"},
			&cli.Uint64Flag{Name: "seed", Usage: "seed for reproducible block colors and backfill"},
		},
		Action: func(c *cli.Context) error {
			cfg, closer, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer closer.Close()

			return play(c.Context, cfg, c.Uint64("seed"))
		},
	}
}

// loadConfig reads the environment, applies command line overrides and installs the logger.
func loadConfig(c *cli.Context) (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("addr") {
		cfg.Address = c.String("addr")
	}
	if c.IsSet("headless") {
		cfg.Headless = c.Bool("headless")
	}
	if c.Bool("no-tray") {
		cfg.Tray = false
	}
	if c.IsSet("catalog") {
		cfg.CatalogPath = c.String("catalog")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, logger.Configure(cfg), nil
}

// openStore creates the data directory and opens the database inside it.
func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}
	return st, nil
}

func play(parent context.Context, cfg *config.Config, seed uint64) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sessionCfg, err := cfg.Session()
	if err != nil {
		return err
	}

	game, err := app.New(app.Config{
		Store:         st,
		Session:       sessionCfg,
		CatalogPath:   cfg.CatalogPath,
		PluginDir:     cfg.PluginDir,
		PluginTimeout: cfg.PluginTimeout,
		CameraID:      cfg.CameraID,
		Mirror:        cfg.Mirror,
		FPS:           cfg.FPS,
		Headless:      cfg.Headless,
		Seed:          seed,
	})
	if err != nil {
		return err
	}
	if err := game.DiscoverPlugins(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.PluginDir).Msg("plugin discovery failed")
	}

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		log.Info().Str("dir", staticDir).Msg("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Game:      game,
		Plugins:   game.PluginManager(),
	})

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return game.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Address).Msg("starting server")
		return srv.Serve(gctx, cfg.Address)
	})

	if cfg.Tray && !cfg.Headless {
		runTray(gctx, stop, game, boardURL(cfg.Address))
	}

	err = g.Wait()
	log.Info().Msg("posetris stopped")
	return err
}

// runTray blocks on the tray menu until quit is chosen or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, game *app.App, url string) {
	t := tray.New()
	t.OnPause(game.SetPaused)
	t.OnNewGame(game.Reset)
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to open board")
		}
	})
	t.OnQuit(stop)

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Quit()
				return
			case <-ticker.C:
				t.Update(game.Snapshot())
			}
		}
	}()

	t.Run()
	stop()
}

// boardURL turns a listen address into a browsable URL.
func boardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
