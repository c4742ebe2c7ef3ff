package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/posters"
	"github.com/desertthunder/nowplaying/internal/repositories"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	fixedConfig bool
	source      services.Source
	spotify     *services.SpotifyService
	db          *sql.DB
	ownsDB      bool
	posters     []posters.Poster
	metrics     *tasks.Metrics
	logger      *log.Logger
	output      io.Writer
	status      io.Writer
	now         func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config, Source, DB and Posters are built from the config file when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.Source
	DB         *sql.DB
	Posters    []posters.Poster
	Logger     *log.Logger
	Output     io.Writer
	Status     io.Writer
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	fixed := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		fixedConfig: fixed,
		source:      opts.Source,
		db:          opts.DB,
		posters:     opts.Posters,
		metrics:     tasks.NewMetrics(),
		logger:      opts.Logger,
		output:      opts.Output,
		status:      opts.Status,
		now:         opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, ingestCommand, summaryCommand, postCommand, albumsCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config file named by --config, applies environment overrides and tags the logger with a run id.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if !r.fixedConfig {
		config, err := shared.LoadConfig(r.configPath)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			config = shared.DefaultConfig()
		case err != nil:
			return ctx, err
		}
		if err := shared.ApplyEnv(config); err != nil {
			return ctx, err
		}
		if err := config.Validate(); err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Logging.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	r.logger.SetLevel(shared.ParseLogLevel(level))
	r.logger = shared.WithLogger(r.logger, "run", shared.RunID())

	return ctx, nil
}

// after persists a refreshed Spotify token, writes the metrics textfile and closes the database.
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	var errs []error

	if r.spotify != nil {
		if token, err := r.spotify.Token(); err == nil && r.tokenChanged(token) {
			r.logger.Debug("spotify token refreshed, saving", "expiry", token.Expiry)
			if err := r.saveTokens(token); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if path := r.config.Metrics.Textfile; path != "" {
		if err := r.metrics.WriteTextfile(path, r.now()); err != nil {
			errs = append(errs, err)
		} else {
			r.logger.Debug("metrics written", "path", path)
		}
	}

	if r.db != nil && r.ownsDB {
		if err := r.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		r.db = nil
	}

	return errors.Join(errs...)
}

// openDB opens the configured database and applies migrations, once per run.
func (r *Runner) openDB() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if r.config.Database.Path != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db, r.ownsDB = db, true
	return db, nil
}

type store struct {
	plays     *repositories.PlayRepository
	playlists *repositories.PlaylistRepository
}

func (r *Runner) store() (*store, error) {
	db, err := r.openDB()
	if err != nil {
		return nil, err
	}
	return &store{
		plays:     repositories.NewPlayRepository(db),
		playlists: repositories.NewPlaylistRepository(db),
	}, nil
}

// spotifySource returns the injected source or a Spotify client authorized with the saved token.
func (r *Runner) spotifySource(ctx context.Context) (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}

	creds := r.config.Credentials.Spotify
	if !creds.HasClient() {
		return nil, fmt.Errorf("%w: set spotify client_id and client_secret in %s or SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials, r.configPath)
	}

	token := creds.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: run `nowplaying auth spotify` first", shared.ErrNotAuthenticated)
	}
	if token.AccessToken == "" {
		token.Expiry = time.Unix(1, 0)
	}

	svc, err := r.newSpotifyService()
	if err != nil {
		return nil, err
	}
	if err := svc.AuthenticateToken(ctx, token); err != nil {
		return nil, err
	}

	r.spotify, r.source = svc, svc
	return svc, nil
}

func (r *Runner) newSpotifyService() (*services.SpotifyService, error) {
	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(map[string]string{
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
		"redirect_uri":  creds.RedirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	return svc, nil
}

func (r *Runner) tokenChanged(token *oauth2.Token) bool {
	saved := r.config.Credentials.Spotify
	return token != nil && token.AccessToken != "" && token.AccessToken != saved.AccessToken
}

// saveTokens stores the token in the config and writes the config file when one is in use.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidCredentials)
	}

	r.config.Credentials.Spotify.Update(token)

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// progress returns a channel for task progress and a function that stops the printer.
// Updates are printed to the status writer when --progress is set and dropped otherwise.
func (r *Runner) progress(cmd *cli.Command) (chan tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	show := cmd.Bool("progress")

	go func() {
		defer close(done)
		for u := range ch {
			if show {
				fmt.Fprintln(r.status, ui.Progress(u))
			}
		}
	}()

	return ch, func() {
		close(ch)
		<-done
	}
}

func (r *Runner) taskOptions(progress chan<- tasks.ProgressUpdate) []tasks.Option {
	return []tasks.Option{
		tasks.WithLogger(r.logger),
		tasks.WithMetrics(r.metrics),
		tasks.WithClock(r.now),
		tasks.WithProgress(progress),
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeln(s string) error {
	return r.writePlain("%s\n", s)
}
