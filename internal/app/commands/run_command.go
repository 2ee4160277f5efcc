package commands

import (
	"github.com/urfave/cli/v2"

	"camstreamer/internal/app"
)

// GetRunCommand returns the command that streams the camera to the server.
func GetRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Stream camera frames to the server while it selects this camera",
		Description: `Capture frames, encode them as JPEG and upload them while the server
reports this camera as the current source.

Examples:
  streamer run --server http://192.168.219.100:5000 --camera-id camera_0
  streamer run --fps 15 --quality 80 --preview-addr :8090 --journal streamer.db`,
		Flags: streamFlags(),
		Action: func(c *cli.Context) error {
			ctx, err := NewCommandContext(c)
			if err != nil {
				return err
			}
			defer ctx.Logger.Sync()

			application, err := app.New(ctx.Config, ctx.Logger)
			if err != nil {
				ctx.Logger.Error("Failed to start: %v", err)
				return err
			}
			return application.Run(c.Context)
		},
	}
}
