package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nixflix/internal/repositories"
	"github.com/desertthunder/nixflix/internal/server"
	"github.com/desertthunder/nixflix/internal/services"
	"github.com/desertthunder/nixflix/internal/shared"
	"github.com/desertthunder/nixflix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Journal records sync attempts and lists them back.
// [repositories.SyncRunRepository] implements it.
type Journal interface {
	tasks.RunRecorder
	server.RunLister
}

// Pruner is implemented by journals that can drop old runs.
type Pruner interface {
	Prune(cutoff time.Time) (int64, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Remote services are created on first use from the loaded configuration unless injected.
type Runner struct {
	config      *shared.Config
	configPath  string
	destination services.Destination
	source      services.Source
	frames      services.FrameController
	authorizer  FlickrAuthorizer
	journal     Journal
	db          *sql.DB
	logger      *log.Logger
	output      io.Writer
	outputMu    sync.Mutex
	input       io.Reader
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Destination services.Destination
	Source      services.Source
	Frames      services.FrameController
	Authorizer  FlickrAuthorizer
	Journal     Journal
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		destination: opts.Destination,
		source:      opts.Source,
		frames:      opts.Frames,
		authorizer:  opts.Authorizer,
		journal:     opts.Journal,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, statusCommand, startCommand, playlistsCommand, albumCommand, historyCommand,
		setupCommand, authCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and every service it creates afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the journal database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Configure loads the config file and applies flag and environment overrides. It runs before every command.
//
// A missing config file is only an error when --config was given explicitly.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	r.configPath = path

	switch _, err := os.Stat(path); {
	case err == nil:
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	case errors.Is(err, os.ErrNotExist) && (!cmd.IsSet("config") || creatingConfig(cmd)):
		r.logger.Debug("no config file, using defaults", "path", path)
	default:
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	r.applyFlags(cmd)

	switch {
	case cmd.Bool("verbose"):
		shared.SetLogLevel(r.logger, log.DebugLevel)
	case cmd.Bool("quiet"):
		shared.SetLogLevel(r.logger, log.WarnLevel)
	}

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// creatingConfig reports whether the invocation is "setup config", which writes the missing file.
func creatingConfig(cmd *cli.Command) bool {
	args := cmd.Args()
	return args.Get(0) == "setup" && args.Get(1) == "config"
}

func (r *Runner) applyFlags(cmd *cli.Command) {
	c := r.config

	override := func(dst *string, flag string) {
		if v := cmd.String(flag); v != "" {
			*dst = v
		}
	}
	override(&c.Sync.Playlist, "nixplay-list")
	override(&c.Sync.Album, "flickr-album")
	override(&c.Sync.Frame, "frame")
	override(&c.Credentials.Nixplay.Username, "username")
	override(&c.Credentials.Nixplay.Password, "password")
	override(&c.Credentials.Flickr.APIKey, "flickr-api-key")
	override(&c.Credentials.Flickr.APISecret, "flickr-api-secret")
	override(&c.Credentials.Flickr.OAuthToken, "flickr-oauth-token")
	override(&c.Credentials.Flickr.OAuthTokenSecret, "flickr-oauth-token-secret")

	if cmd.IsSet("poll") {
		c.Sync.PollInterval = cmd.Int("poll")
	}
	if cmd.IsSet("batch-size") {
		c.Sync.BatchSize = cmd.Int("batch-size")
	}
	if cmd.IsSet("db") {
		c.Database.Path = cmd.String("db")
	}
	if addr := cmd.String("listen"); addr != "" {
		host, port, err := splitListen(addr)
		if err != nil {
			r.logger.Warn("ignoring --listen", "addr", addr, "err", err)
		} else {
			c.Server.Host, c.Server.Port = host, port
		}
	}
}

// Root dispatches the flag-only invocation used by cron jobs: --status and --start short-circuit the sync.
func (r *Runner) Root(ctx context.Context, cmd *cli.Command) error {
	switch {
	case cmd.Bool("status"):
		return r.Status(ctx, cmd)
	case cmd.Bool("start"):
		return r.Start(ctx, cmd)
	default:
		return r.Sync(ctx, cmd)
	}
}

// destinationService returns the injected destination or logs in to the Nixplay web API.
func (r *Runner) destinationService(ctx context.Context) (services.Destination, error) {
	if r.destination != nil {
		return r.destination, nil
	}
	if err := r.config.Credentials.RequireNixplay(); err != nil {
		return nil, err
	}

	svc, err := services.NewNixplayService(r.nixplayOptions(r.config.Nixplay.BaseURL))
	if err != nil {
		return nil, err
	}
	creds := r.config.Credentials.Nixplay
	if _, err := svc.Login(ctx, creds.Username, creds.Password); err != nil {
		return nil, err
	}

	r.destination = svc
	return svc, nil
}

// frameController returns the injected controller or logs in to the Nixplay mobile API.
func (r *Runner) frameController(ctx context.Context) (services.FrameController, error) {
	if r.frames != nil {
		return r.frames, nil
	}
	if err := r.config.Credentials.RequireNixplay(); err != nil {
		return nil, err
	}

	mobile := services.NewNixplayMobile(r.nixplayOptions(r.config.Nixplay.MobileBaseURL))
	creds := r.config.Credentials.Nixplay
	if _, err := mobile.Login(ctx, creds.Username, creds.Password); err != nil {
		return nil, err
	}

	r.frames = mobile
	return mobile, nil
}

// sourceService returns the injected source or a Flickr client built from the configured keys.
func (r *Runner) sourceService() (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}
	if err := r.config.Credentials.RequireFlickr(); err != nil {
		return nil, err
	}

	r.source = services.NewFlickrService(r.config.Credentials.Flickr, r.config.Flickr.Endpoint, shared.WithLogger(r.logger, "service", "flickr"))
	return r.source, nil
}

func (r *Runner) nixplayOptions(baseURL string) services.NixplayOptions {
	return services.NixplayOptions{
		BaseURL:           baseURL,
		RequestsPerSecond: r.config.Nixplay.RequestsPerSecond,
		Timeout:           r.config.Nixplay.HTTPTimeout(),
		Logger:            shared.WithLogger(r.logger, "service", "nixplay"),
	}
}

// runJournal returns the injected journal or opens the configured database.
// It returns nil without error when the journal is disabled.
func (r *Runner) runJournal() (Journal, error) {
	if r.journal != nil {
		return r.journal, nil
	}
	if r.config.Database.Path == "" {
		return nil, nil
	}

	db, err := shared.OpenJournal(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open run journal: %w", err)
	}

	r.db = db
	r.journal = repositories.NewSyncRunRepository(db)
	return r.journal, nil
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

	return r.write(append(output, '\n'))
}

func (r *Runner) writePlain(format string, args ...any) error {
	return r.write([]byte(fmt.Sprintf(format, args...)))
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.write([]byte("\n" + fmt.Sprintf(format, args...) + "\n"))
}

// write serializes output from the progress printer and the poller callback.
func (r *Runner) write(p []byte) error {
	r.outputMu.Lock()
	defer r.outputMu.Unlock()

	if _, err := r.output.Write(p); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
