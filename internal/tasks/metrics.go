package tasks

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Playlist lookup outcomes.
const (
	LookupCacheHit    = "cache_hit"
	LookupFetched     = "fetched"
	LookupUnavailable = "unavailable"
	LookupInvalidURI  = "invalid_uri"
	LookupNoSource    = "no_source"
)

// Metrics holds the counters of a single run on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	playsInserted   prometheus.Counter
	playsDuplicate  prometheus.Counter
	playsSkipped    *prometheus.CounterVec
	playlistsCached prometheus.Counter
	playlistLookups *prometheus.CounterVec
	postsTotal      *prometheus.CounterVec
	lastRun         prometheus.Gauge
}

// NewMetrics registers the run counters on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		playsInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "nowplaying_plays_inserted_total",
			Help: "Plays written to the store",
		}),
		playsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Name: "nowplaying_plays_duplicate_total",
			Help: "Plays already present in the store",
		}),
		playsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nowplaying_plays_skipped_total",
			Help: "Upstream items dropped as malformed",
		}, []string{"reason"}),
		playlistsCached: factory.NewCounter(prometheus.CounterOpts{
			Name: "nowplaying_playlists_cached_total",
			Help: "Playlist metadata rows upserted",
		}),
		playlistLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nowplaying_playlist_lookups_total",
			Help: "Top playlist candidate resolutions by outcome",
		}, []string{"result"}),
		postsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nowplaying_posts_total",
			Help: "Summary posts by platform and outcome",
		}, []string{"platform", "result"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nowplaying_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) inserted() {
	if m != nil {
		m.playsInserted.Inc()
	}
}

func (m *Metrics) duplicate() {
	if m != nil {
		m.playsDuplicate.Inc()
	}
}

func (m *Metrics) skipped(reason string) {
	if m != nil {
		m.playsSkipped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) cached() {
	if m != nil {
		m.playlistsCached.Inc()
	}
}

func (m *Metrics) lookup(result string) {
	if m != nil {
		m.playlistLookups.WithLabelValues(result).Inc()
	}
}

// Posted records the outcome of publishing to a platform.
func (m *Metrics) Posted(platform string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.postsTotal.WithLabelValues(platform, result).Inc()
}

// WriteTextfile stamps the run time and writes every metric to path in the
// node_exporter textfile format. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string, finished time.Time) error {
	if m == nil || path == "" {
		return nil
	}
	m.lastRun.Set(float64(finished.Unix()))
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
