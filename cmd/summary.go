package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// ranker builds a [tasks.Ranker] over the stored plays.
//
// Without a fetcher, playlists missing from the cache are skipped.
func (r *Runner) ranker(st *store, fetcher services.PlaylistFetcher, progress chan<- tasks.ProgressUpdate) *tasks.Ranker {
	return tasks.NewRanker(st.plays, st.playlists, fetcher, tasks.RankOptions{
		WindowDays:           r.config.Summary.TrailingWindowDays,
		TopTrackLimit:        r.config.Summary.TopTrackLimit,
		PlaylistCandidateCap: r.config.Summary.PlaylistCandidateCap,
	}, r.taskOptions(progress)...)
}

// fetcher returns the Spotify source as a playlist fetcher, or nil when offline.
func (r *Runner) fetcher(ctx context.Context, offline bool) services.PlaylistFetcher {
	if offline {
		return nil
	}
	src, err := r.spotifySource(ctx)
	if err != nil {
		r.logger.Warn("spotify unavailable, resolving playlists from cache only", "error", err)
		return nil
	}
	return src
}

// Summary prints the weekly summary in the requested format.
func (r *Runner) Summary(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "pretty", "text", "markdown", "json":
	default:
		return fmt.Errorf("%w: format must be pretty, text, markdown or json, got %q", shared.ErrInvalidFlag, format)
	}

	if cmd.Bool("ingest") {
		inserted, err := r.ingest(ctx, cmd, true)
		if err != nil {
			return err
		}
		r.logger.Info("ingested plays", "inserted", inserted)
	}

	st, err := r.store()
	if err != nil {
		return err
	}

	progress, stop := r.progress(cmd)
	summary, err := r.ranker(st, r.fetcher(ctx, cmd.Bool("offline")), progress).Summarize(ctx)
	stop()
	if err != nil {
		return err
	}

	var data []byte
	ext := format
	switch format {
	case "pretty":
		data, ext = []byte(ui.Summary(summary)), "txt"
	case "text":
		data, ext = []byte(formatter.Text(summary)+"\n"), "txt"
	case "markdown":
		data, ext = formatter.Markdown(summary), "md"
	case "json":
		if data, err = formatter.JSON(summary); err != nil {
			return err
		}
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(data, output, ext, r.now())
		if err != nil {
			return err
		}
		r.logger.Info("summary written", "path", path, "format", format)
		return r.writeln(ui.Success("Summary written to %s", path))
	}

	_, err = r.output.Write(data)
	return err
}

// Albums prints the top albums of the window followed by the most recent plays.
func (r *Runner) Albums(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store()
	if err != nil {
		return err
	}

	ranker := r.ranker(st, nil, nil)
	albums, err := ranker.TopAlbums(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	recent, err := st.plays.Recent(ctx, ranker.Since(), int(cmd.Int("recent")))
	if err != nil {
		return err
	}

	_, err = r.output.Write(formatter.AlbumReport(albums, recent, r.config.Summary.TrailingWindowDays))
	return err
}

// Export writes the stored plays of the window as CSV or JSON.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	if format != "csv" && format != "json" {
		return fmt.Errorf("%w: format must be csv or json, got %q", shared.ErrInvalidFlag, format)
	}

	days := int(cmd.Int("days"))
	if days < 0 {
		return fmt.Errorf("%w: days must be positive", shared.ErrInvalidFlag)
	}
	if days == 0 {
		days = r.config.Summary.TrailingWindowDays
	}

	st, err := r.store()
	if err != nil {
		return err
	}

	since := r.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	plays, err := st.plays.Recent(ctx, since, -1)
	if err != nil {
		return err
	}

	var data []byte
	if format == "csv" {
		data, err = formatter.PlaysToCSV(plays)
	} else {
		data, err = json.MarshalIndent(plays, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode plays: %w", err)
	}

	path, err := formatter.WriteExport(data, cmd.String("output"), format, r.now())
	if err != nil {
		return err
	}

	r.logger.Info("exported plays", "count", len(plays), "path", path)
	return r.writeln(ui.Success("Exported %d plays to %s", len(plays), path))
}
