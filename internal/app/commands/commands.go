package commands

import (
	"github.com/urfave/cli/v2"

	"camstreamer/internal/app"
	"camstreamer/internal/config"
)

// GetCommands returns all available commands.
func GetCommands() []*cli.Command {
	return []*cli.Command{
		GetRunCommand(),
		GetJournalCommand(),
		GetConfigCommand(),
		GetVersionCommand(),
	}
}

// NewApp builds the streamer command line. The .env file is loaded before any
// command parses its flags, so its variables act like the real environment.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "streamer",
		Usage:   "Camera streaming client for the multi-camera frame server",
		Version: app.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: envVar("CONFIG"),
			},
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "dotenv file loaded into the environment",
				EnvVars: envVar("ENV_FILE"),
			},
		},
		Before: func(c *cli.Context) error {
			return config.LoadEnvFile(c.String("env-file"), c.IsSet("env-file"))
		},
		Commands: GetCommands(),
	}
}
