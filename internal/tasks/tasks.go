// package tasks implements the listening-history engines.
package tasks

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/models"
)

const (
	DefaultLookbackHours        = 26
	DefaultFetchLimit           = 50
	DefaultWindowDays           = 7
	DefaultTopTrackLimit        = 3
	DefaultPlaylistCandidateCap = 10
)

// PlayStore is the play log the engines read and write.
type PlayStore interface {
	Insert(ctx context.Context, play *models.PlayEvent) (bool, error)
	TrackStats(ctx context.Context, since int64) ([]models.TrackStat, error)
	TopAlbums(ctx context.Context, since int64, limit int) ([]models.AlbumStat, error)
	PlaylistContexts(ctx context.Context, since int64, limit int) ([]models.ContextStat, error)
}

// PlaylistCache stores playlist display metadata.
// Get returns [shared.ErrPlaylistNotFound] on a miss.
type PlaylistCache interface {
	Upsert(ctx context.Context, playlist models.PlaylistMeta) error
	Get(ctx context.Context, id string) (*models.PlaylistMeta, error)
}

// engine holds the collaborators shared by [Ingester] and [Ranker].
type engine struct {
	logger   *log.Logger
	metrics  *Metrics
	now      func() time.Time
	progress chan<- ProgressUpdate
}

// Option configures an engine.
type Option func(*engine)

// WithLogger sets the logger. Engines are silent by default.
func WithLogger(l *log.Logger) Option {
	return func(e *engine) { e.logger = l }
}

// WithMetrics records counters into m.
func WithMetrics(m *Metrics) Option {
	return func(e *engine) { e.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *engine) { e.now = now }
}

// WithProgress sends progress updates to ch. Updates are dropped when ch is full.
func WithProgress(ch chan<- ProgressUpdate) Option {
	return func(e *engine) { e.progress = ch }
}

func newEngine(opts []Option) engine {
	e := engine{
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// sendProgress sends a progress update without blocking.
func (e *engine) sendProgress(update ProgressUpdate) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- update:
	default:
	}
}
