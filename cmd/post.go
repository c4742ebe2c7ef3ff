package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/posters"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// Post ingests recent plays, ranks the trailing window and publishes the summary.
//
// With no platform flag every configured platform is used. The command fails only when every
// selected platform failed.
func (r *Runner) Post(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("ingest-only") && cmd.Bool("skip-ingest") {
		return fmt.Errorf("%w: --ingest-only and --skip-ingest are mutually exclusive", shared.ErrInvalidFlag)
	}

	if !cmd.Bool("skip-ingest") {
		inserted, err := r.ingest(ctx, cmd, true)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		r.logger.Info("ingested plays", "inserted", inserted)
		if cmd.Bool("ingest-only") {
			return r.writeln(ui.Success("Ingest complete: %d new plays added.", inserted))
		}
	}

	var requested []string
	for _, name := range []string{"bluesky", "mastodon"} {
		if cmd.Bool(name) {
			requested = append(requested, name)
		}
	}

	all := r.posters
	if all == nil {
		all = posters.New(r.config, posters.WithLogger(r.logger), posters.WithClock(r.now))
	}
	selected, err := posters.Select(all, requested)
	if err != nil {
		return err
	}

	st, err := r.store()
	if err != nil {
		return err
	}

	progress, stop := r.progress(cmd)
	summary, err := r.ranker(st, r.fetcher(ctx, false), progress).Summarize(ctx)
	stop()
	if err != nil {
		return err
	}

	if summary.Empty() {
		r.logger.Warn("no plays in window, nothing to post", "days", summary.WindowDays)
		return r.writeln(ui.Warning("No plays in the last %d days. Nothing to post.", summary.WindowDays))
	}

	dryRun := cmd.Bool("dry-run")
	failed := 0
	for _, p := range selected {
		if dryRun {
			text, err := p.Compose(summary)
			if err != nil {
				failed++
				if err := r.writeln(ui.Failure("%s: %v", p.Name(), err)); err != nil {
					return err
				}
				continue
			}
			if err := r.writePlain("--- %s ---\n%s\n\n", p.Name(), text); err != nil {
				return err
			}
			continue
		}

		err := p.Post(ctx, summary)
		r.metrics.Posted(p.Name(), err)
		if err != nil {
			failed++
			r.logger.Error("post failed", "platform", p.Name(), "error", err)
			if err := r.writeln(ui.Failure("%s: %v", p.Name(), err)); err != nil {
				return err
			}
			continue
		}
		r.logger.Info("posted summary", "platform", p.Name(), "tracks", len(summary.Tracks))
		if err := r.writeln(ui.Success("Posted to %s", p.Name())); err != nil {
			return err
		}
	}

	if failed == len(selected) {
		return fmt.Errorf("%w: every platform failed", shared.ErrPostFailed)
	}
	return nil
}
