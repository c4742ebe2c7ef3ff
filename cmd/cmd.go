// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("NOWPLAYING_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error); overrides logging.level",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Print progress while ingesting and ranking",
		},
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "spotify",
				Usage: "Authorize access to your Spotify listening history (OAuth2)",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: authTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthSpotify,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials are configured",
				Action: r.AuthStatus,
			},
		},
	}
}

// ingestCommand stores recent plays and refreshes the playlist cache.
func ingestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Store recently played tracks in SQLite",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-playlists",
				Usage: "Do not refresh the playlist metadata cache",
			},
		},
		Action: r.Ingest,
	}
}

// summaryCommand prints the weekly summary without posting it.
func summaryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Show the top tracks, album and playlist of the trailing window",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: pretty, text, markdown or json",
				Value:   "pretty",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "ingest",
				Usage: "Ingest recent plays before ranking",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Resolve playlists from the cache only",
			},
		},
		Action: r.Summary,
	}
}

// postCommand ingests and publishes the weekly summary.
func postCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "post",
		Usage: "Ingest plays and post the weekly summary",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "bluesky",
				Usage: "Post to Bluesky",
			},
			&cli.BoolFlag{
				Name:  "mastodon",
				Usage: "Post to Mastodon",
			},
			&cli.BoolFlag{
				Name:  "ingest-only",
				Usage: "Ingest listening history into SQLite but do not post",
			},
			&cli.BoolFlag{
				Name:  "skip-ingest",
				Usage: "Post from the stored history without calling Spotify first",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print each post instead of sending it",
			},
		},
		Action: r.Post,
	}
}

// albumsCommand prints the album debug report.
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "Show top albums and recent plays with album info",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of albums to list",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "recent",
				Usage: "Number of recent plays to list",
				Value: 20,
			},
		},
		Action: r.Albums,
	}
}

// exportCommand dumps stored plays.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored plays of the trailing window",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: csv or json",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: nowplaying_{date}.{format})",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Days of history to export; 0 uses summary.trailing_window_days",
			},
		},
		Action: r.Export,
	}
}
