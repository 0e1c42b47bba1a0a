package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/zayatsoff/spm/internal/shared"
	"github.com/zayatsoff/spm/internal/tasks"
)

// Export writes one or more playlists to files in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 && !cmd.Bool("all") {
		return fmt.Errorf("%w: playlist ids or --all", shared.ErrMissingArgument)
	}

	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	if err := engine.LoadPlaylists(ctx, nil); err != nil {
		return err
	}
	r.flushNotice(engine)

	if cmd.Bool("all") {
		ids = ids[:0]
		for _, p := range engine.Store().State().Playlists {
			ids = append(ids, p.ID)
		}
	}

	r.logger.Info("exporting playlists", "count", len(ids), "format", cmd.String("format"))
	r.writePlain("Exporting %d playlists...\n\n", len(ids))

	progressCh := r.progressPrinter()
	result, err := engine.Export(ctx, progressCh, ids, tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainHeader("Export Complete")
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Succeeded: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.FailedExports > 0 {
		r.writePlain("\nFailed exports:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.PlaylistID, res.Error)
			}
		}
	}

	return nil
}
