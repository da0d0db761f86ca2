package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	app := &cli.App{
		Name:        "posetris",
		Usage:       "Tetris played with your body",
		Description: "Strike a pose in front of the camera to pick a block, then steer it with your position.",
		Version:     version,
		Commands: []*cli.Command{
			playCommand(),
			templatesCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run posetris")
	}
}
