package main

import (
	"context"

	"github.com/desertthunder/nowplaying/internal/tasks"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// Ingest stores the plays of the lookback window and refreshes the playlist cache.
func (r *Runner) Ingest(ctx context.Context, cmd *cli.Command) error {
	inserted, err := r.ingest(ctx, cmd, !cmd.Bool("skip-playlists"))
	if err != nil {
		return err
	}
	return r.writeln(ui.Success("Ingest complete: %d new plays added.", inserted))
}

// ingest runs one ingestion pass. A failed playlist refresh is logged and does not fail the pass.
func (r *Runner) ingest(ctx context.Context, cmd *cli.Command, refreshPlaylists bool) (int, error) {
	src, err := r.spotifySource(ctx)
	if err != nil {
		return 0, err
	}
	st, err := r.store()
	if err != nil {
		return 0, err
	}

	progress, stop := r.progress(cmd)
	defer stop()

	ingester := tasks.NewIngester(src, st.plays, st.playlists, tasks.IngestOptions{
		LookbackHours: r.config.Summary.LookbackHours,
		FetchLimit:    r.config.Summary.FetchLimit,
	}, r.taskOptions(progress)...)

	inserted, err := ingester.Ingest(ctx)
	if err != nil {
		return 0, err
	}

	if refreshPlaylists {
		if cached, err := ingester.RefreshPlaylistCache(ctx); err != nil {
			r.logger.Warn("playlist cache refresh failed", "error", err, "cached", cached)
		} else {
			r.logger.Debug("playlist cache refreshed", "cached", cached)
		}
	}

	return inserted, nil
}
