// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootCommand syncs the configured album into the configured playlist.
//
// Flags defined here are visible to every subcommand.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "nixflix",
		Usage:    "Keep a Nixplay playlist in sync with a Flickr album",
		Version:  "1.0.0",
		Flags:    rootFlags(),
		Before:   r.Configure,
		Action:   r.Root,
		Commands: r.register(),
	}
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("NIXFLIX_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "nixplay-list",
			Aliases: []string{"p"},
			Usage:   "Nixplay playlist to replace",
		},
		&cli.StringFlag{
			Name:    "flickr-album",
			Aliases: []string{"a"},
			Usage:   "Flickr album to copy from",
		},
		&cli.StringFlag{
			Name:  "frame",
			Usage: "Nixplay frame used by --status and --start",
		},
		&cli.IntFlag{
			Name:  "poll",
			Usage: "Seconds between sync attempts, 0 runs once",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Photos per Nixplay request (1-30)",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Replace the playlist even when it looks up to date",
		},
		&cli.BoolFlag{
			Name:  "status",
			Usage: "Print frame status and exit",
		},
		&cli.BoolFlag{
			Name:  "start",
			Usage: "Restart the playlist on the frame and exit",
		},
		&cli.StringFlag{
			Name:    "username",
			Usage:   "Nixplay username",
			Sources: cli.EnvVars("NIXPLAY_USERNAME"),
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Nixplay password",
			Sources: cli.EnvVars("NIXPLAY_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "flickr-api-key",
			Usage:   "Flickr API key",
			Sources: cli.EnvVars("FLICKR_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "flickr-api-secret",
			Usage:   "Flickr API secret",
			Sources: cli.EnvVars("FLICKR_API_SECRET"),
		},
		&cli.StringFlag{
			Name:    "flickr-oauth-token",
			Usage:   "Flickr OAuth access token",
			Sources: cli.EnvVars("FLICKR_OAUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "flickr-oauth-token-secret",
			Usage:   "Flickr OAuth access token secret",
			Sources: cli.EnvVars("FLICKR_OAUTH_TOKEN_SECRET"),
		},
		&cli.StringFlag{
			Name:  "listen",
			Usage: "Serve /health and /runs/latest on this address while polling",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Path to the run journal database, empty disables it",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log warnings and errors",
		},
	}
}

// syncCommand runs the same action as the root command.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Replace the playlist with the album when the album is newer",
		Action: r.Sync,
	}
}

// statusCommand prints frames, their settings and online status
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show Nixplay frames, settings and online status",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

func startCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "start",
		Usage:  "Restart the playlist on the frame if the frame carries it",
		Action: r.Start,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List Nixplay playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "album",
		Usage: "List the photos of the Flickr album",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, csv or markdown",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default stdout)",
			},
		},
		Action: r.Album,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show journalled sync attempts",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, csv or markdown",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "Only show runs with this outcome (synced, up_to_date, failed)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default stdout)",
			},
			&cli.DurationFlag{
				Name:  "prune",
				Usage: "Delete runs older than this duration before listing",
			},
		},
		Action: r.History,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file or the run journal",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write config.toml from the embedded template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run journal and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize access to remote services",
		Commands: []*cli.Command{
			{
				Name:   "flickr",
				Usage:  "Authorize read access to Flickr (OAuth out-of-band flow)",
				Action: r.AuthFlickr,
			},
			{
				Name:   "nixplay",
				Usage:  "Check the Nixplay login against both APIs",
				Action: r.AuthNixplay,
			},
		},
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Poll in an interactive terminal UI",
		Action: r.Watch,
	}
}
