package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"camstreamer/internal/app"
)

// GetConfigCommand returns the command that prints the effective configuration.
func GetConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Validate and print the effective configuration as YAML",
		Flags: streamFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			shown := *cfg
			if shown.Preview.Token != "" {
				shown.Preview.Token = "****"
			}

			out, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = c.App.Writer.Write(out)
			return err
		},
	}
}

// GetVersionCommand returns the command that prints the build version.
func GetVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "camstreamer %s\n", app.Version)
			return nil
		},
	}
}
