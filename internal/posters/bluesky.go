package posters

import (
	"context"
	"fmt"
	"strings"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const (
	DefaultBlueskyService   = "https://bsky.social"
	DefaultBlueskyCharLimit = 300

	postCollection = "app.bsky.feed.post"
)

// BlueskyPoster posts to a Bluesky PDS over XRPC with an app password.
type BlueskyPoster struct {
	options
	handle    string
	password  string
	charLimit int
}

// NewBlueskyPoster creates a BlueskyPoster. An empty service falls back to bsky.social.
func NewBlueskyPoster(cfg shared.BlueskyConfig, opts ...Option) *BlueskyPoster {
	o := newOptions(opts)
	if o.baseURL == "" {
		o.baseURL = cfg.Service
	}
	if o.baseURL == "" {
		o.baseURL = DefaultBlueskyService
	}
	o.baseURL = strings.TrimSuffix(o.baseURL, "/")

	limit := cfg.CharLimit
	if limit <= 0 {
		limit = DefaultBlueskyCharLimit
	}

	return &BlueskyPoster{options: o, handle: cfg.Handle, password: cfg.Password, charLimit: limit}
}

func (b *BlueskyPoster) Name() string { return "bluesky" }

func (b *BlueskyPoster) Configured() bool { return b.handle != "" && b.password != "" }

// Compose returns the text that would be posted.
func (b *BlueskyPoster) Compose(s *models.Summary) (string, error) {
	rt, err := b.fit(s)
	if err != nil {
		return "", err
	}
	return rt.Text, nil
}

// Post logs in and creates the post record.
func (b *BlueskyPoster) Post(ctx context.Context, s *models.Summary) error {
	rt, err := b.fit(s)
	if err != nil {
		return err
	}

	client := &xrpc.Client{Client: b.httpClient, Host: b.baseURL}
	if err := b.login(ctx, client); err != nil {
		return err
	}

	post := &appbsky.FeedPost{
		LexiconTypeID: postCollection,
		Text:          rt.Text,
		CreatedAt:     b.now().UTC().Format(time.RFC3339Nano),
		Facets:        toFacets(rt.Facets),
		Langs:         []string{"en"},
	}

	created, err := comatproto.RepoCreateRecord(ctx, client, &comatproto.RepoCreateRecord_Input{
		Repo:       client.Auth.Did,
		Collection: postCollection,
		Record:     &lexutil.LexiconTypeDecoder{Val: post},
	})
	if err != nil {
		return fmt.Errorf("%w: bluesky create record: %w", shared.ErrPostFailed, err)
	}

	b.logger.Info("posted to bluesky", "uri", created.Uri, "chars", rt.Length())
	return nil
}

// fit drops tracks from the end of the list until the post is within the character limit.
func (b *BlueskyPoster) fit(s *models.Summary) (formatter.RichText, error) {
	trimmed := *s
	trimmed.Tracks = append([]models.TopTrack(nil), s.Tracks...)

	for {
		rt := formatter.Rich(&trimmed)
		if rt.Length() <= b.charLimit {
			if dropped := len(s.Tracks) - len(trimmed.Tracks); dropped > 0 {
				b.logger.Warn("dropped tracks to fit bluesky limit", "dropped", dropped, "limit", b.charLimit)
			}
			return rt, nil
		}
		if len(trimmed.Tracks) == 0 {
			return formatter.RichText{}, fmt.Errorf("%w: bluesky post is %d characters, limit is %d", shared.ErrPostFailed, rt.Length(), b.charLimit)
		}
		trimmed.Tracks = trimmed.Tracks[:len(trimmed.Tracks)-1]
	}
}

// login creates a session with the app password and attaches it to client.
func (b *BlueskyPoster) login(ctx context.Context, client *xrpc.Client) error {
	session, err := comatproto.ServerCreateSession(ctx, client, &comatproto.ServerCreateSession_Input{
		Identifier: b.handle,
		Password:   b.password,
	})
	if err != nil {
		return fmt.Errorf("%w: bluesky login: %w", shared.ErrAuthFailed, err)
	}
	if session.AccessJwt == "" || session.Did == "" {
		return fmt.Errorf("%w: bluesky login returned no session", shared.ErrAuthFailed)
	}

	client.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}
	return nil
}

func toFacets(in []formatter.Facet) []*appbsky.RichtextFacet {
	out := make([]*appbsky.RichtextFacet, 0, len(in))
	for _, f := range in {
		feature := &appbsky.RichtextFacet_Features_Elem{}
		switch f.Kind {
		case formatter.FacetLink:
			feature.RichtextFacet_Link = &appbsky.RichtextFacet_Link{
				LexiconTypeID: "app.bsky.richtext.facet#link",
				Uri:           f.Value,
			}
		case formatter.FacetTag:
			feature.RichtextFacet_Tag = &appbsky.RichtextFacet_Tag{
				LexiconTypeID: "app.bsky.richtext.facet#tag",
				Tag:           f.Value,
			}
		default:
			continue
		}
		out = append(out, &appbsky.RichtextFacet{
			Index:    &appbsky.RichtextFacet_ByteSlice{ByteStart: int64(f.Start), ByteEnd: int64(f.End)},
			Features: []*appbsky.RichtextFacet_Features_Elem{feature},
		})
	}
	return out
}
