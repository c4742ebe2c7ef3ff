// package posters publishes a weekly summary to social platforms.
//
// Each platform is a [Poster]. [Select] picks the posters a run should use from the ones the
// configuration enables.
package posters

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// Poster publishes a summary to one platform.
type Poster interface {
	// Name is the lowercase platform name used by flags and logs.
	Name() string
	// Configured reports whether the credentials needed to post are present.
	Configured() bool
	// Compose renders the post text without sending it.
	Compose(s *models.Summary) (string, error)
	Post(ctx context.Context, s *models.Summary) error
}

// New builds every known poster from the credentials in config.
func New(cfg *shared.Config, opts ...Option) []Poster {
	return []Poster{
		NewBlueskyPoster(cfg.Credentials.Bluesky, opts...),
		NewMastodonPoster(cfg.Credentials.Mastodon, opts...),
	}
}

// Select returns the posters to use.
//
// With no requested names every configured poster is returned. Requested names must each match a
// configured poster. An empty result is an error.
func Select(all []Poster, requested []string) ([]Poster, error) {
	if len(requested) == 0 {
		var selected []Poster
		for _, p := range all {
			if p.Configured() {
				selected = append(selected, p)
			}
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("%w: no platforms configured (set BSKY_HANDLE and BSKY_PASSWORD or MASTODON_INSTANCE and MASTODON_ACCESS_TOKEN)", shared.ErrMissingConfig)
		}
		return selected, nil
	}

	selected := make([]Poster, 0, len(requested))
	for _, name := range requested {
		p := find(all, name)
		if p == nil {
			return nil, fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidArgument, name)
		}
		if !p.Configured() {
			return nil, fmt.Errorf("%w: %s requested but not configured", shared.ErrMissingCredentials, p.Name())
		}
		selected = append(selected, p)
	}
	return selected, nil
}

func find(all []Poster, name string) Poster {
	for _, p := range all {
		if strings.EqualFold(p.Name(), name) {
			return p
		}
	}
	return nil
}
