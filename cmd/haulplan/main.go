package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"haulplan/internal/buildinfo"
	"haulplan/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env")
	}
	setupLogging(os.Getenv(config.EnvLogFormat), os.Getenv(config.EnvDebug) == "YES")

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "haulplan",
		Usage:   "Plan HOS-compliant truck routes and classify in-route disruptions",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"HAULPLAN_CONFIG"}},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			setupLogging(cfg.Log.Format, cfg.Log.Debug)
			c.App.Metadata = map[string]any{"config": cfg}
			return nil
		},
		Commands: []*cli.Command{
			planCommand(),
			replanCommand(),
			detectCommand(),
			hosCommand(),
			restCommand(),
			versionCommand(),
		},
	}
}

// setupLogging writes to stderr so stdout carries only command output.
func setupLogging(format string, debug bool) {
	if format == "json" || format == "JSON" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}
}

func configFrom(c *cli.Context) config.Config {
	if cfg, ok := c.App.Metadata["config"].(config.Config); ok {
		return cfg
	}
	return config.Default()
}
