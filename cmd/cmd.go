// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

// setupCommand handles database and configuration initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize config file, database, and migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2 + PKCE",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard stored tokens",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand lists the user's playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List playlists (cache-first)",
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Drop the cached listing and refetch",
			},
		),
		Action: r.Playlists,
	}
}

// tracksCommand shows a playlist's complete track list.
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Show a playlist's tracks",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
		),
		Action: r.Tracks,
	}
}

// unionCommand previews the de-duplicated union of several playlists.
func unionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "union",
		Usage:     "Show the de-duplicated union of the given playlists",
		Arguments: []cli.Argument{&cli.StringArgs{Name: "ids", Min: 0, Max: -1}},
		Flags:     outputFlags(),
		Action:    r.Union,
	}
}

// toggleCommand adds or removes a single track.
func toggleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "toggle",
		Usage: "Add a track to a playlist, or remove it when present",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "track",
				Aliases:  []string{"t"},
				Usage:    "Track ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Track name, used when adding a track not in the playlist",
			},
		},
		Action: r.Toggle,
	}
}

// mergeCommand combines playlists into a new one.
func mergeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Create a playlist holding the union of the given playlists",
		Arguments: []cli.Argument{&cli.StringArgs{Name: "ids", Min: 0, Max: -1}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Name for the merged playlist",
			},
		},
		Action: r.Merge,
	}
}

// duplicateCommand copies a playlist.
func duplicateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "duplicate",
		Usage: "Copy a playlist under a '(Copy)' name",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID to copy",
				Required: true,
			},
		},
		Action: r.Duplicate,
	}
}

// renameCommand renames a playlist.
func renameCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rename",
		Usage: "Rename a playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "New name",
				Required: true,
			},
		},
		Action: r.Rename,
	}
}

// deleteCommand unfollows a playlist.
func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Remove a playlist from your library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
		},
		Action: r.Delete,
	}
}

// searchCommand looks up catalog tracks.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search for tracks",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags: append(outputFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 20,
			},
		),
		Action: r.Search,
	}
}

// undoCommand reverts the most recent recorded track mutation.
func undoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "undo",
		Usage:  "Revert the most recent track add or remove",
		Action: r.Undo,
	}
}

// exportCommand writes playlists to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export playlists to json, csv, markdown, or txt",
		Arguments: []cli.Argument{&cli.StringArgs{Name: "ids", Min: 0, Max: -1}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent export workers",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export every playlist",
			},
		},
		Action: r.Export,
	}
}

// cacheCommand inspects and clears the session cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the session cache",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "List cache entries for the current session",
				Flags:  outputFlags(),
				Action: r.CacheShow,
			},
			{
				Name:   "clear",
				Usage:  "Drop all cache entries for the current session",
				Action: r.CacheClear,
			},
		},
	}
}

// historyCommand lists recorded mutations.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the mutation history for the current session",
		Flags: append(outputFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 20,
			},
		),
		Action: r.History,
	}
}

// boardCommand launches the interactive playlist board.
func boardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "board",
		Aliases: []string{"tui", "interactive"},
		Usage:   "Launch the interactive playlist board",
		Action:  r.Board,
	}
}

// serveCommand runs the token exchange backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the token exchange backend for browser clients",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file with credential overrides",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "origin",
				Usage: "Allowed CORS origin",
			},
		},
		Action: r.Serve,
	}
}
