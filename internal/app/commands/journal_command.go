package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"camstreamer/internal/repository/sqlite"
	"camstreamer/internal/service/journal"
)

// GetJournalCommand returns the command that prints recorded sessions.
func GetJournalCommand() *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Show sessions and activation events from the journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "Journal database file",
				EnvVars:  envVar("JOURNAL"),
				Required: true,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   10,
				Usage:   "Number of sessions to show",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Show only the session with this id",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Int("limit") <= 0 {
				return fmt.Errorf("limit must be positive")
			}

			db, err := sqlite.New(c.String("db"))
			if err != nil {
				return err
			}
			defer db.Close()

			sessions := sqlite.NewSessionRepository(db)
			events := sqlite.NewEventRepository(db)
			if id := c.String("session"); id != "" {
				return journal.WriteSession(c.App.Writer, sessions, events, id)
			}
			return journal.WriteReport(c.App.Writer, sessions, events, c.Int("limit"))
		},
	}
}
