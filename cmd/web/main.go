package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/casefile/internal/ai"
	"github.com/myrjola/casefile/internal/broker"
	"github.com/myrjola/casefile/internal/content"
	"github.com/myrjola/casefile/internal/envstruct"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/myrjola/casefile/internal/pprofserver"
	"github.com/myrjola/casefile/internal/repositories"
	"github.com/myrjola/casefile/internal/sessions"
	"github.com/myrjola/casefile/internal/sqlite"
	"golang.org/x/time/rate"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	games          *sessions.Registry
	saves          *repositories.SaveRepository
	narrator       *ai.Narrator
	hints          *broker.Broker[string, string]
	hintLimiter    *rate.Limiter
	templates      *boardTemplates
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"CASEFILE_ADDR" envDefault:"localhost:4000"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ephemeral in-memory database.
	SqliteURL string `env:"CASEFILE_SQLITE_URL" envDefault:"./casefile.sqlite"`
	// Case is the embedded case every new game plays.
	Case string `env:"CASEFILE_CASE" envDefault:"the-ledger"`
	// Framing is the embedded brief for the timed variant.
	Framing string `env:"CASEFILE_FRAMING" envDefault:"the-brief"`
	// SessionTTL is how long an idle game stays in memory and how long the session cookie lives.
	SessionTTL time.Duration `env:"CASEFILE_SESSION_TTL" envDefault:"12h"`
	// SaveRetention is how long untouched saves are kept.
	SaveRetention  time.Duration `env:"CASEFILE_SAVE_RETENTION" envDefault:"720h"`
	HintsPerMinute int           `env:"CASEFILE_HINTS_PER_MINUTE" envDefault:"6"`
	// OpenAIAPIKey enables hints. Hints are disabled when it is empty.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:""`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:""`
	// PprofPort starts a pprof server on the loopback interface when set, e.g. ":6060".
	PprofPort string `env:"CASEFILE_PPROF_PORT" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		err error
		cfg config
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	catalog, err := content.LoadCase(cfg.Case)
	if err != nil {
		return errors.Wrap(err, "load case")
	}
	graph, err := content.LoadBrief(cfg.Framing)
	if err != nil {
		return errors.Wrap(err, "load brief")
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(db.ReadWrite.DB)
	sessionManager.Lifetime = cfg.SessionTTL
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true

	saves := repositories.NewSaveRepository(db, logger)

	narrator, err := ai.NewNarrator(ai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}, logger)
	if errors.Is(err, ai.ErrDisabled) {
		logger.LogAttrs(ctx, slog.LevelInfo, "hints disabled, OPENAI_API_KEY not set")
	} else if err != nil {
		return errors.Wrap(err, "new narrator")
	}

	templates, err := parseBoardTemplates()
	if err != nil {
		return errors.Wrap(err, "parse templates")
	}

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		games:          sessions.NewRegistry(saves, catalog, graph, cfg.SessionTTL, logger),
		saves:          saves,
		narrator:       narrator,
		hints:          broker.New[string, string](),
		hintLimiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(max(cfg.HintsPerMinute, 1))), 1),
		templates:      templates,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go app.hints.Run(ctx)
	go app.pruneSaves(ctx, cfg.SaveRetention)
	if cfg.PprofPort != "" {
		pprofserver.Launch(ctx, cfg.PprofPort, logger)
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}

	return nil
}

func main() {
	ctx := context.Background()
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug, nil)

	// .env is optional so a missing file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failed to load .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
