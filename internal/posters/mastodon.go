package posters

import (
	"context"
	"fmt"

	"github.com/mattn/go-mastodon"

	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// MastodonPoster posts a plain text status. The instance turns the bare URLs into links.
type MastodonPoster struct {
	options
	instance   string
	token      string
	visibility string
}

// NewMastodonPoster creates a MastodonPoster. Visibility defaults to public.
func NewMastodonPoster(cfg shared.MastodonConfig, opts ...Option) *MastodonPoster {
	o := newOptions(opts)
	if o.baseURL == "" {
		o.baseURL = cfg.Instance
	}

	visibility := cfg.Visibility
	if visibility == "" {
		visibility = "public"
	}

	return &MastodonPoster{options: o, instance: o.baseURL, token: cfg.AccessToken, visibility: visibility}
}

func (m *MastodonPoster) Name() string { return "mastodon" }

func (m *MastodonPoster) Configured() bool { return m.instance != "" && m.token != "" }

func (m *MastodonPoster) Compose(s *models.Summary) (string, error) {
	return formatter.Text(s), nil
}

// Post publishes the status.
func (m *MastodonPoster) Post(ctx context.Context, s *models.Summary) error {
	client := mastodon.NewClient(&mastodon.Config{
		Server:      m.instance,
		AccessToken: m.token,
	})
	client.Client = *m.httpClient

	status, err := client.PostStatus(ctx, &mastodon.Toot{
		Status:     formatter.Text(s),
		Visibility: m.visibility,
	})
	if err != nil {
		return fmt.Errorf("%w: mastodon: %w", shared.ErrPostFailed, err)
	}

	m.logger.Info("posted to mastodon", "id", status.ID, "url", status.URL)
	return nil
}
