package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/zayatsoff/spm/internal/repositories"
	"github.com/zayatsoff/spm/internal/services"
	"github.com/zayatsoff/spm/internal/shared"
	"github.com/zayatsoff/spm/internal/store"
	"github.com/zayatsoff/spm/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
// The database, cache, and sync engine are built lazily on first use so
// commands that never touch them (setup, serve) stay cheap.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db      *sql.DB
	cache   *repositories.SessionCache
	history *repositories.HistoryRepository
	tokens  services.TokenSource
	gateway services.Gateway
	engine  *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
// Gateway, Tokens, and Engine overrides exist for tests.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Gateway    services.Gateway
	Tokens     services.TokenSource
	Engine     *tasks.Engine
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		gateway:    opts.Gateway,
		tokens:     opts.Tokens,
		engine:     opts.Engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, tracksCommand, unionCommand,
		toggleCommand, mergeCommand, duplicateCommand, renameCommand, deleteCommand,
		searchCommand, undoCommand, exportCommand, cacheCommand, historyCommand,
		boardCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// dataDir is where the session file and OAuth tokens live, next to the
// database.
func (r *Runner) dataDir() string {
	return filepath.Dir(r.config.Database.Path)
}

// ensureTokens builds the file-backed token store once.
func (r *Runner) ensureTokens() services.TokenSource {
	if r.tokens == nil {
		authConfig := services.NewAuthConfig(r.config.Credentials.Spotify)
		r.tokens = services.NewFileTokenStore(filepath.Join(r.dataDir(), "token.json"), authConfig)
	}

	return r.tokens
}

// ensureEngine opens the database, runs migrations, and wires the sync
// engine. Safe to call from every command action; the second call is a
// no-op.
func (r *Runner) ensureEngine(cmd *cli.Command) (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.db = db

	sessionID, err := shared.LoadSessionID(r.dataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	r.cache = repositories.NewSessionCache(repositories.NewCacheRepository(db), sessionID)
	r.history = repositories.NewHistoryRepository(db)

	tokens := r.ensureTokens()
	if r.gateway == nil {
		r.gateway = services.NewSpotifyGateway("", tokens, r.httpClient,
			r.config.Sync.RateLimit, r.config.Sync.PageSize)
	}

	mode := tasks.Live
	if cmd != nil && cmd.Bool("demo") {
		mode = tasks.Demo
	}

	r.engine = tasks.NewEngine(tasks.EngineOpts{
		Store:     store.New(r.config.Sync.SelectionLimit),
		Gateway:   r.gateway,
		Tokens:    tokens,
		Cache:     r.cache,
		History:   r.history,
		UndoDepth: r.config.Sync.UndoDepth,
		BatchSize: r.config.Sync.BatchSize,
		Mode:      mode,
		Logger:    r.logger,
	})

	return r.engine, nil
}

// SetLogger swaps the Runner's logger, propagating it to the engine if
// one is already built.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	if r.engine != nil {
		r.engine.SetLogger(logger)
	}
}

// flushNotice prints the engine's pending one-time notice, if any.
func (r *Runner) flushNotice(engine *tasks.Engine) {
	if notice, ok := engine.Notice(); ok {
		r.writePlain("⚠ %s\n\n", notice)
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
